// Package engine implements the core categorization engine for invoice
// line items. Three layers run in fixed order — vendor memory, keyword
// scoring, AI suggestion — and a later layer only wins with a strictly
// higher confidence.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/buildtally/buildtally/internal/ai"
	"github.com/buildtally/buildtally/internal/common"
	"github.com/buildtally/buildtally/internal/keyword"
	"github.com/buildtally/buildtally/internal/model"
	"github.com/buildtally/buildtally/internal/service"
	"github.com/buildtally/buildtally/internal/vendors"
)

// vendorConfidence is the fixed confidence assigned to a vendor-memory
// result. It sits above the keyword floor but below the auto-apply
// threshold so a remembered default is advisory on its own.
const vendorConfidence = 0.6

// CategorizationEngine orchestrates the categorization of invoice line
// items and the vendor identity operations that feed it.
type CategorizationEngine struct {
	storage   service.Storage
	keywords  *keyword.Categorizer
	aiFactory ai.Factory
	config    Config
}

// Config holds configuration options for the categorization engine.
type Config struct {
	// AutoApplyThreshold is the confidence at or above which a result
	// is written as the confirmed assignment, not just a suggestion.
	AutoApplyThreshold float64
	// MatchThreshold is the minimum similarity for vendor matching.
	MatchThreshold float64
	// MinKeywordConfidence is the floor for keyword results.
	MinKeywordConfidence float64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		AutoApplyThreshold:   0.8,
		MatchThreshold:       vendors.DefaultMatchThreshold,
		MinKeywordConfidence: keyword.DefaultMinConfidence,
	}
}

// New creates a new categorization engine with the given dependencies.
func New(storage service.Storage, keywords *keyword.Categorizer, aiFactory ai.Factory) *CategorizationEngine {
	return NewWithConfig(storage, keywords, aiFactory, DefaultConfig())
}

// NewWithConfig creates a new categorization engine with custom configuration.
func NewWithConfig(storage service.Storage, keywords *keyword.Categorizer, aiFactory ai.Factory, config Config) *CategorizationEngine {
	if config.AutoApplyThreshold <= 0 {
		config.AutoApplyThreshold = 0.8
	}
	if config.MatchThreshold <= 0 {
		config.MatchThreshold = vendors.DefaultMatchThreshold
	}
	return &CategorizationEngine{
		storage:   storage,
		keywords:  keywords,
		aiFactory: aiFactory,
		config:    config,
	}
}

// CategorizeInvoiceItems runs the full pipeline over one invoice and
// persists the outcome. Suggestions and confidences are always written;
// the confirmed assignment is only written when a result reaches the
// auto-apply threshold, and an existing assignment is never cleared.
func (e *CategorizationEngine) CategorizeInvoiceItems(ctx context.Context, tenantID, invoiceID string) ([]model.CategorizationResult, error) {
	invoice, err := e.storage.GetInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}

	items, err := e.storage.GetLineItems(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load line items: %w", err)
	}
	if len(items) == 0 {
		return nil, common.ErrNoLineItems
	}

	categories, err := e.storage.GetCategories(ctx, tenantID, invoice.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("project %s has no budget categories: %w", invoice.ProjectID, common.ErrCategorizationFailed)
	}

	categoryNames := make([]string, len(categories))
	idByName := make(map[string]string, len(categories))
	nameByID := make(map[string]string, len(categories))
	for i, cat := range categories {
		categoryNames[i] = cat.Name
		idByName[strings.ToLower(cat.Name)] = cat.ID
		nameByID[cat.ID] = cat.Name
	}

	settings, err := e.storage.GetTenantSettings(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant settings: %w", err)
	}

	results := make([]model.CategorizationResult, len(items))
	for i, item := range items {
		results[i] = model.CategorizationResult{
			LineItemID:  item.ID,
			Description: item.Description,
			Source:      model.SourceNone,
		}
	}

	e.applyVendorLayer(ctx, tenantID, invoice, nameByID, results)
	e.applyKeywordLayer(categoryNames, items, results)
	e.applyAILayer(ctx, invoice, settings, categoryNames, items, results)

	updates := make([]model.LineItemUpdate, len(results))
	for i := range results {
		r := &results[i]
		if r.CategoryID == "" && r.CategoryName != "" {
			r.CategoryID = idByName[strings.ToLower(r.CategoryName)]
		}
		update := model.LineItemUpdate{
			LineItemID: r.LineItemID,
			Suggestion: r.CategoryName,
			Confidence: r.Confidence,
		}
		if r.CategoryID != "" && r.Confidence >= e.config.AutoApplyThreshold {
			r.AutoApplied = true
			update.CategoryID = &r.CategoryID
		}
		updates[i] = update
	}

	if err := e.storage.SaveCategorizationResults(ctx, tenantID, invoiceID, updates); err != nil {
		return nil, fmt.Errorf("failed to save categorization results: %w", err)
	}

	slog.Info("Categorized invoice",
		"invoice_id", invoiceID,
		"items", len(items),
		"auto_applied", countAutoApplied(results))

	return results, nil
}

// applyVendorLayer matches the invoice's vendor name against known
// vendors and, if the match carries a default category, seeds every
// line item with it at the fixed vendor confidence.
func (e *CategorizationEngine) applyVendorLayer(ctx context.Context, tenantID string, invoice *model.Invoice, nameByID map[string]string, results []model.CategorizationResult) {
	vendor := e.lookupVendor(ctx, tenantID, invoice.VendorName)
	if vendor == nil || vendor.DefaultCategoryID == nil {
		return
	}

	name, ok := nameByID[*vendor.DefaultCategoryID]
	if !ok {
		// Default points at a category outside this project.
		return
	}

	for i := range results {
		results[i].CategoryID = *vendor.DefaultCategoryID
		results[i].CategoryName = name
		results[i].Confidence = vendorConfidence
		results[i].Source = model.SourceVendor
	}
}

// lookupVendor resolves an invoice's vendor record: an exact lookup by
// normalized name first, which repeat runs serve from the vendor cache,
// then the fuzzy scan over all vendors for names that normalize
// differently. Lookup failures skip the layer rather than failing the
// run.
func (e *CategorizationEngine) lookupVendor(ctx context.Context, tenantID, vendorName string) *model.Vendor {
	normalized := vendors.Normalize(vendorName)
	if normalized == "" {
		return nil
	}

	vendor, err := e.storage.GetVendorByNormalizedName(ctx, tenantID, normalized)
	if err == nil {
		return vendor
	}
	if !errors.Is(err, common.ErrNotFound) {
		slog.Warn("Vendor layer skipped", "vendor", vendorName, "error", err)
		return nil
	}

	known, err := e.storage.GetAllVendors(ctx, tenantID)
	if err != nil {
		slog.Warn("Vendor layer skipped", "error", err)
		return nil
	}

	match := vendors.FindBestMatch(normalized, known, e.config.MatchThreshold)
	if match == nil {
		return nil
	}

	vendor, err = e.storage.GetVendorByID(ctx, tenantID, match.VendorID)
	if err != nil {
		slog.Warn("Vendor layer skipped", "vendor_id", match.VendorID, "error", err)
		return nil
	}
	return vendor
}

// applyKeywordLayer scores each description against the dictionary. A
// keyword result replaces the vendor result only when strictly more
// confident.
func (e *CategorizationEngine) applyKeywordLayer(categoryNames []string, items []model.LineItem, results []model.CategorizationResult) {
	for i, item := range items {
		match := e.keywords.Categorize(item.Description, categoryNames, e.config.MinKeywordConfidence)
		if match == nil {
			continue
		}
		if match.Confidence > results[i].Confidence {
			results[i].CategoryID = ""
			results[i].CategoryName = match.Category
			results[i].Confidence = match.Confidence
			results[i].Source = model.SourceKeyword
		}
	}
}

// applyAILayer escalates low-confidence items to the AI suggester. Any
// failure here is logged and swallowed: the pre-AI results stand.
func (e *CategorizationEngine) applyAILayer(ctx context.Context, invoice *model.Invoice, settings *model.TenantSettings, categoryNames []string, items []model.LineItem, results []model.CategorizationResult) {
	if settings.AIAPIKey == "" || e.aiFactory == nil {
		return
	}

	threshold := settings.AIThreshold
	if threshold <= 0 {
		threshold = model.DefaultAIThreshold
	}

	var inputs []ai.ItemInput
	var indexes []int
	for i := range results {
		if results[i].Confidence < threshold {
			inputs = append(inputs, ai.ItemInput{
				Description: items[i].Description,
				Amount:      items[i].Amount,
			})
			indexes = append(indexes, i)
		}
	}
	if len(inputs) == 0 {
		return
	}

	suggester, err := e.aiFactory(settings.AIAPIKey)
	if err != nil {
		slog.Warn("AI layer skipped", "error", err)
		return
	}

	suggestions, err := suggester.CategorizeItems(ctx, ai.CategorizeRequest{
		VendorName: invoice.VendorName,
		Items:      inputs,
		Categories: categoryNames,
	})
	if err != nil {
		slog.Warn("AI layer failed, keeping earlier results", "error", err)
		return
	}

	for j, s := range suggestions {
		if j >= len(indexes) || s.Category == "" {
			continue
		}
		i := indexes[j]
		if s.Confidence > results[i].Confidence {
			results[i].CategoryID = ""
			results[i].CategoryName = s.Category
			results[i].Confidence = s.Confidence
			results[i].Source = model.SourceAI
		}
	}
}

// AcceptSuggestion promotes a line item's suggestion to its confirmed
// assignment at full confidence and clears the suggestion.
func (e *CategorizationEngine) AcceptSuggestion(ctx context.Context, tenantID, lineItemID string) error {
	item, err := e.storage.GetLineItem(ctx, tenantID, lineItemID)
	if err != nil {
		return fmt.Errorf("failed to load line item: %w", err)
	}
	if item.CategorySuggestion == nil || *item.CategorySuggestion == "" {
		return fmt.Errorf("line item %s has no suggestion to accept: %w", lineItemID, common.ErrNotFound)
	}

	invoice, err := e.storage.GetInvoice(ctx, tenantID, item.InvoiceID)
	if err != nil {
		return fmt.Errorf("failed to load invoice: %w", err)
	}

	category, err := e.storage.GetCategoryByName(ctx, tenantID, invoice.ProjectID, *item.CategorySuggestion)
	if err != nil {
		return fmt.Errorf("suggested category %q not found: %w", *item.CategorySuggestion, err)
	}

	confidence := 1.0
	return e.storage.UpdateLineItemCategorization(ctx, tenantID, lineItemID, &category.ID, nil, &confidence)
}

// RejectSuggestion clears a line item's suggestion and confidence
// without assigning anything.
func (e *CategorizationEngine) RejectSuggestion(ctx context.Context, tenantID, lineItemID string) error {
	return e.storage.UpdateLineItemCategorization(ctx, tenantID, lineItemID, nil, nil, nil)
}

// AssignCategory sets a line item's confirmed category directly, as a
// user decision at full confidence.
func (e *CategorizationEngine) AssignCategory(ctx context.Context, tenantID, lineItemID, categoryID string) error {
	if _, err := e.storage.GetCategoryByID(ctx, tenantID, categoryID); err != nil {
		return fmt.Errorf("category %s not found: %w", categoryID, err)
	}
	confidence := 1.0
	return e.storage.UpdateLineItemCategorization(ctx, tenantID, lineItemID, &categoryID, nil, &confidence)
}

// SuggestInvoiceCategory asks the AI suggester for one category covering
// the whole invoice. It requires a configured API key.
func (e *CategorizationEngine) SuggestInvoiceCategory(ctx context.Context, tenantID, invoiceID string) (*ai.OverallSuggestion, error) {
	invoice, err := e.storage.GetInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}

	items, err := e.storage.GetLineItems(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load line items: %w", err)
	}
	if len(items) == 0 {
		return nil, common.ErrNoLineItems
	}

	categories, err := e.storage.GetCategories(ctx, tenantID, invoice.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	suggester, err := e.suggesterForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	descriptions := make([]string, len(items))
	for i, item := range items {
		descriptions[i] = item.Description
	}
	names := make([]string, len(categories))
	for i, cat := range categories {
		names[i] = cat.Name
	}

	return suggester.SuggestOverallCategory(ctx, invoice.VendorName, descriptions, names)
}

// ValidateAIKey checks the tenant's stored API key against the provider.
func (e *CategorizationEngine) ValidateAIKey(ctx context.Context, tenantID string) (bool, error) {
	suggester, err := e.suggesterForTenant(ctx, tenantID)
	if err != nil {
		return false, err
	}
	return suggester.ValidateKey(ctx)
}

func (e *CategorizationEngine) suggesterForTenant(ctx context.Context, tenantID string) (ai.Suggester, error) {
	settings, err := e.storage.GetTenantSettings(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant settings: %w", err)
	}
	if settings.AIAPIKey == "" {
		return nil, fmt.Errorf("tenant %s has no AI API key configured: %w", tenantID, common.ErrAIUnavailable)
	}
	if e.aiFactory == nil {
		return nil, common.ErrAIUnavailable
	}
	return e.aiFactory(settings.AIAPIKey)
}

func countAutoApplied(results []model.CategorizationResult) int {
	n := 0
	for i := range results {
		if results[i].AutoApplied {
			n++
		}
	}
	return n
}
