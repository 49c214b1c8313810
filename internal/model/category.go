// Package model defines the core domain models used throughout the application.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetCategory represents one budget line within a project.
type BudgetCategory struct {
	CreatedAt time.Time
	ID        string
	TenantID  string
	ProjectID string
	Name      string
	Budget    decimal.Decimal
	SortOrder int
}

// CategoryMatch is a transient keyword-scoring result: the best category
// for a description together with how certain the scorer is.
type CategoryMatch struct {
	Category   string
	Confidence float64
}
