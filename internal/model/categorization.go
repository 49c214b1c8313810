package model

// CategorizationSource indicates which layer produced a categorization result.
type CategorizationSource string

// Categorization source constants.
const (
	SourceVendor  CategorizationSource = "vendor"
	SourceKeyword CategorizationSource = "keyword"
	SourceAI      CategorizationSource = "ai"
	SourceNone    CategorizationSource = "none"
)

// CategorizationResult is the per-line-item outcome of a categorization
// run: the resolved category, how certain the winning layer was, and
// which layer won.
type CategorizationResult struct {
	LineItemID   string
	Description  string
	CategoryID   string
	CategoryName string
	Source       CategorizationSource
	Confidence   float64
	AutoApplied  bool
}

// TenantSettings holds the per-tenant categorization configuration.
// AIAPIKey empty means the AI layer is skipped entirely.
type TenantSettings struct {
	TenantID    string
	AIAPIKey    string
	AIThreshold float64
}

// DefaultAIThreshold is the confidence below which line items are
// escalated to the AI collaborator.
const DefaultAIThreshold = 0.7
