package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/buildtally/buildtally/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func createTestCategory(t *testing.T, store *SQLiteStorage, tenantID, projectID, name string) *model.BudgetCategory {
	t.Helper()

	cat := &model.BudgetCategory{
		TenantID:  tenantID,
		ProjectID: projectID,
		Name:      name,
		Budget:    decimal.NewFromInt(10000),
	}
	require.NoError(t, store.CreateCategory(context.Background(), cat))
	return cat
}

func createTestInvoice(t *testing.T, store *SQLiteStorage, tenantID, vendorName string, descriptions ...string) *model.Invoice {
	t.Helper()

	invoice := &model.Invoice{
		TenantID:   tenantID,
		ProjectID:  "proj-1",
		VendorName: vendorName,
		Number:     "INV-001",
		Date:       time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Total:      decimal.NewFromInt(100),
	}
	items := make([]model.LineItem, 0, len(descriptions))
	for _, desc := range descriptions {
		items = append(items, model.LineItem{
			Description: desc,
			Quantity:    decimal.NewFromInt(1),
			Amount:      decimal.NewFromInt(50),
		})
	}
	require.NoError(t, store.SaveInvoice(context.Background(), invoice, items))
	return invoice
}
