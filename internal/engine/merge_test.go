package engine

import (
	"context"
	"testing"
	"time"

	"github.com/buildtally/buildtally/internal/common"
	"github.com/buildtally/buildtally/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedVendor(t *testing.T, engine *CategorizationEngine, tenantID, name string) *model.Vendor {
	t.Helper()

	vendor := &model.Vendor{TenantID: tenantID, Name: name}
	require.NoError(t, engine.storage.SaveVendor(context.Background(), vendor))
	return vendor
}

func seedVendorInvoice(t *testing.T, engine *CategorizationEngine, tenantID, vendorName string) {
	t.Helper()

	invoice := &model.Invoice{
		TenantID:   tenantID,
		ProjectID:  "proj-1",
		VendorName: vendorName,
		Number:     "INV-" + vendorName,
		Date:       time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		Total:      decimal.NewFromInt(100),
	}
	items := []model.LineItem{{
		Description: "labor",
		Quantity:    decimal.NewFromInt(1),
		Amount:      decimal.NewFromInt(100),
	}}
	require.NoError(t, engine.storage.SaveInvoice(context.Background(), invoice, items))
}

func TestFindDuplicateVendors(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	ctx := context.Background()

	seedVendor(t, engine, "t1", "Acme LLC")
	seedVendor(t, engine, "t1", "ACME Inc.")
	seedVendor(t, engine, "t1", "Valley Supply")

	// Two invoices make "ACME Inc." the keep candidate.
	seedVendorInvoice(t, engine, "t1", "ACME Inc.")
	seedVendorInvoice(t, engine, "t1", "ACME Inc.")
	seedVendorInvoice(t, engine, "t1", "Acme LLC")

	groups, err := engine.FindDuplicateVendors(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, groups, 1)

	group := groups[0]
	assert.Equal(t, "acme", group.NormalizedName)
	require.Len(t, group.Vendors, 2)
	assert.Equal(t, "ACME Inc.", group.Vendors[0].Name)
	assert.Equal(t, "Acme LLC", group.Vendors[1].Name)
}

func TestMergeVendors(t *testing.T) {
	engine, store := newTestEngine(t, nil)
	ctx := context.Background()

	keep := seedVendor(t, engine, "t1", "ACME Inc.")
	absorb := seedVendor(t, engine, "t1", "Acme LLC")
	seedVendorInvoice(t, engine, "t1", "Acme LLC")
	seedVendorInvoice(t, engine, "t1", "Acme LLC")

	outcome, err := engine.MergeVendors(ctx, "t1", keep.ID, []string{absorb.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), outcome.InvoicesReassigned)
	require.Len(t, outcome.Results, 1)
	assert.True(t, outcome.Results[0].Merged)
	assert.Equal(t, "Acme LLC", outcome.Results[0].Name)
	assert.Equal(t, int64(2), outcome.Results[0].InvoicesReassigned)

	_, err = store.GetVendorByID(ctx, "t1", absorb.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	invoices, err := store.GetInvoices(ctx, "t1")
	require.NoError(t, err)
	for _, inv := range invoices {
		assert.Equal(t, "ACME Inc.", inv.VendorName)
	}
}

func TestMergeVendorsStopsOnFirstFailure(t *testing.T) {
	engine, store := newTestEngine(t, nil)
	ctx := context.Background()

	keep := seedVendor(t, engine, "t1", "ACME Inc.")
	first := seedVendor(t, engine, "t1", "Acme LLC")
	third := seedVendor(t, engine, "t1", "A.C.M.E. Corp")
	seedVendorInvoice(t, engine, "t1", "Acme LLC")

	outcome, err := engine.MergeVendors(ctx, "t1", keep.ID, []string{first.ID, "missing", third.ID})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMergeIncomplete)

	// The first merge stays committed; the third vendor was never touched.
	require.Len(t, outcome.Results, 2)
	assert.True(t, outcome.Results[0].Merged)
	assert.False(t, outcome.Results[1].Merged)
	assert.NotEmpty(t, outcome.Results[1].Error)
	assert.Equal(t, int64(1), outcome.InvoicesReassigned)

	_, err = store.GetVendorByID(ctx, "t1", first.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	untouched, err := store.GetVendorByID(ctx, "t1", third.ID)
	require.NoError(t, err)
	assert.Equal(t, "A.C.M.E. Corp", untouched.Name)
}

func TestMergeVendorIntoItself(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	ctx := context.Background()

	keep := seedVendor(t, engine, "t1", "ACME Inc.")

	outcome, err := engine.MergeVendors(ctx, "t1", keep.ID, []string{keep.ID})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMergeIncomplete)
	require.Len(t, outcome.Results, 1)
	assert.False(t, outcome.Results[0].Merged)
}

func TestMergeVendorsUnknownKeep(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	_, err := engine.MergeVendors(context.Background(), "t1", "missing", []string{"also-missing"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMergeVendorsEmptyAbsorbList(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	ctx := context.Background()

	keep := seedVendor(t, engine, "t1", "ACME Inc.")

	_, err := engine.MergeVendors(ctx, "t1", keep.ID, nil)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
