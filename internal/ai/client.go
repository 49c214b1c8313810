// Package ai defines the categorization suggester capability and its
// HTTP adapter. The suggester is an external collaborator: callers must
// treat every failure as non-fatal and fall back to vendor/keyword
// results.
package ai

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// ItemInput is one line item sent for categorization.
type ItemInput struct {
	Description string
	Amount      decimal.Decimal
}

// ItemSuggestion is the suggester's answer for one line item, in the
// same order as the input. An empty Category means no suggestion.
type ItemSuggestion struct {
	Description string
	Category    string
	Confidence  float64
}

// OverallSuggestion is a single whole-invoice category suggestion.
type OverallSuggestion struct {
	Category   string
	Reason     string
	Confidence float64
}

// CategorizeRequest carries the full context for a bulk categorization
// call: descriptions with amounts, candidate category names, and the
// vendor if known.
type CategorizeRequest struct {
	VendorName string
	Items      []ItemInput
	Categories []string
}

// Suggester is the external AI categorization capability.
type Suggester interface {
	// CategorizeItems suggests a category per input item. Returned
	// category names are guaranteed to come from req.Categories;
	// confidences are clamped into [0,1].
	CategorizeItems(ctx context.Context, req CategorizeRequest) ([]ItemSuggestion, error)

	// SuggestOverallCategory proposes one category for an entire
	// invoice. Candidate matching is case-insensitive.
	SuggestOverallCategory(ctx context.Context, vendorName string, descriptions, categories []string) (*OverallSuggestion, error)

	// ValidateKey checks the configured credential with a lightweight
	// call that generates no content.
	ValidateKey(ctx context.Context) (bool, error)
}

// Config holds configuration for the HTTP suggester.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

// NewSuggester creates the HTTP-backed suggester.
func NewSuggester(cfg Config) (Suggester, error) {
	client, err := newOpenAIClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}
	return client, nil
}

// Factory builds a suggester for a tenant's credential. The engine uses
// it so per-tenant keys resolve at call time and tests can substitute a
// fake.
type Factory func(apiKey string) (Suggester, error)

// DefaultFactory returns a Factory producing HTTP suggesters with
// default settings.
func DefaultFactory() Factory {
	return func(apiKey string) (Suggester, error) {
		return NewSuggester(Config{APIKey: apiKey})
	}
}
