package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice represents a vendor invoice belonging to one project.
type Invoice struct {
	Date       time.Time
	ID         string
	TenantID   string
	ProjectID  string
	VendorName string
	Number     string
	Total      decimal.Decimal
}

// LineItem is a single line on an invoice. CategoryID is the confirmed
// assignment; CategorySuggestion is advisory only. The two are mutually
// exclusive in steady state: accepting a suggestion clears the suggestion
// and sets confidence to 1.0.
type LineItem struct {
	ID                 string
	InvoiceID          string
	Description        string
	Quantity           decimal.Decimal
	UnitPrice          *decimal.Decimal
	Amount             decimal.Decimal
	CategoryID         *string
	CategorySuggestion *string
	CategoryConfidence *float64
	IsTax              bool
}

// LineItemUpdate carries one line item's categorization write-back.
// A nil CategoryID means the confirmed assignment is left untouched,
// not cleared.
type LineItemUpdate struct {
	CategoryID *string
	Suggestion string
	LineItemID string
	Confidence float64
}
