// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/buildtally/buildtally/internal/model"
)

// Storage defines the contract for our persistence layer. Every query
// is scoped by tenant; implementations must never read or write records
// outside the given tenant.
type Storage interface {
	// Category operations
	GetCategories(ctx context.Context, tenantID, projectID string) ([]model.BudgetCategory, error)
	GetCategoryByID(ctx context.Context, tenantID, id string) (*model.BudgetCategory, error)
	GetCategoryByName(ctx context.Context, tenantID, projectID, name string) (*model.BudgetCategory, error)
	CreateCategory(ctx context.Context, category *model.BudgetCategory) error
	RenameCategory(ctx context.Context, tenantID, id, newName string) error
	DeleteCategory(ctx context.Context, tenantID, id string) error

	// Vendor operations
	GetVendorByID(ctx context.Context, tenantID, id string) (*model.Vendor, error)
	GetVendorByNormalizedName(ctx context.Context, tenantID, normalizedName string) (*model.Vendor, error)
	GetAllVendors(ctx context.Context, tenantID string) ([]model.Vendor, error)
	SaveVendor(ctx context.Context, vendor *model.Vendor) error
	DeleteVendor(ctx context.Context, tenantID, id string) error

	// MergeVendorInto reassigns the absorbed vendor's invoices to the
	// keep vendor, backfills empty contact fields, and deletes the
	// absorbed record — all in one transaction. Returns the number of
	// invoices reassigned.
	MergeVendorInto(ctx context.Context, tenantID, keepID, absorbID string) (int64, error)

	// Invoice and line item operations
	GetInvoice(ctx context.Context, tenantID, id string) (*model.Invoice, error)
	GetInvoices(ctx context.Context, tenantID string) ([]model.Invoice, error)
	SaveInvoice(ctx context.Context, invoice *model.Invoice, items []model.LineItem) error
	GetLineItems(ctx context.Context, tenantID, invoiceID string) ([]model.LineItem, error)
	GetLineItem(ctx context.Context, tenantID, lineItemID string) (*model.LineItem, error)

	// SaveCategorizationResults writes one categorization run's output
	// for an invoice as a single transaction: all line items or none.
	SaveCategorizationResults(ctx context.Context, tenantID, invoiceID string, updates []model.LineItemUpdate) error

	// UpdateLineItemCategorization is the single-row write used by
	// accept/reject/manual assignment. Nil pointers clear fields.
	UpdateLineItemCategorization(ctx context.Context, tenantID, lineItemID string, categoryID, suggestion *string, confidence *float64) error

	// Tenant settings
	GetTenantSettings(ctx context.Context, tenantID string) (*model.TenantSettings, error)
	SaveTenantSettings(ctx context.Context, settings *model.TenantSettings) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
