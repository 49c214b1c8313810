package storage

import (
	"context"
	"testing"

	"github.com/buildtally/buildtally/internal/common"
	"github.com/buildtally/buildtally/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveVendorDerivesNormalizedName(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	vendor := &model.Vendor{
		TenantID: "t1",
		Name:     "Acme Construction LLC",
		// Attempting to set the derived field directly is ignored.
		NormalizedName: "bogus",
	}
	require.NoError(t, store.SaveVendor(ctx, vendor))
	require.NotEmpty(t, vendor.ID)

	got, err := store.GetVendorByID(ctx, "t1", vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme construction", got.NormalizedName)
}

func TestGetVendorByNormalizedName(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	vendor := &model.Vendor{TenantID: "t1", Name: "Acme LLC"}
	require.NoError(t, store.SaveVendor(ctx, vendor))

	got, err := store.GetVendorByNormalizedName(ctx, "t1", "acme")
	require.NoError(t, err)
	assert.Equal(t, vendor.ID, got.ID)

	// Cache serves the repeated lookup.
	cached := store.getCachedVendor("t1", "acme")
	require.NotNil(t, cached)
	assert.Equal(t, vendor.ID, cached.ID)

	_, err = store.GetVendorByNormalizedName(ctx, "t1", "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestVendorTenantIsolation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	vendor := &model.Vendor{TenantID: "t1", Name: "Acme LLC"}
	require.NoError(t, store.SaveVendor(ctx, vendor))

	_, err := store.GetVendorByID(ctx, "t2", vendor.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	other, err := store.GetAllVendors(ctx, "t2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestCollidingNormalizedNamesCoexist(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	// "Acme LLC" and "ACME Inc." share the derived key "acme". Both are
	// stored; the dedup report and merge are how they get reconciled.
	require.NoError(t, store.SaveVendor(ctx, &model.Vendor{TenantID: "t1", Name: "Acme LLC"}))
	require.NoError(t, store.SaveVendor(ctx, &model.Vendor{TenantID: "t1", Name: "ACME Inc."}))

	all, err := store.GetAllVendors(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "acme", all[0].NormalizedName)
	assert.Equal(t, "acme", all[1].NormalizedName)
}

func TestGetAllVendorsUseCounts(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveVendor(ctx, &model.Vendor{TenantID: "t1", Name: "Acme LLC"}))
	require.NoError(t, store.SaveVendor(ctx, &model.Vendor{TenantID: "t1", Name: "Zenith Electric"}))

	createTestInvoice(t, store, "t1", "Acme LLC", "copper pipe")
	createTestInvoice(t, store, "t1", "Acme LLC", "pvc elbow")
	createTestInvoice(t, store, "t1", "Zenith Electric", "breaker")

	all, err := store.GetAllVendors(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, all, 2)

	counts := map[string]int{}
	for _, v := range all {
		counts[v.Name] = v.UseCount
	}
	assert.Equal(t, 2, counts["Acme LLC"])
	assert.Equal(t, 1, counts["Zenith Electric"])
}

func TestMergeVendorInto(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	keep := &model.Vendor{TenantID: "t1", Name: "Acme LLC", Phone: "555-0100"}
	absorb := &model.Vendor{TenantID: "t1", Name: "ACME Incorporated", Email: "billing@acme.test", Phone: "555-9999"}
	require.NoError(t, store.SaveVendor(ctx, keep))
	require.NoError(t, store.SaveVendor(ctx, absorb))

	createTestInvoice(t, store, "t1", "ACME Incorporated", "copper pipe")
	createTestInvoice(t, store, "t1", "ACME Incorporated", "pvc elbow")
	createTestInvoice(t, store, "t1", "Acme LLC", "faucet")

	reassigned, err := store.MergeVendorInto(ctx, "t1", keep.ID, absorb.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), reassigned)

	// Empty email backfilled, existing phone untouched.
	merged, err := store.GetVendorByID(ctx, "t1", keep.ID)
	require.NoError(t, err)
	assert.Equal(t, "billing@acme.test", merged.Email)
	assert.Equal(t, "555-0100", merged.Phone)
	assert.Equal(t, 3, merged.UseCount)

	// Absorbed record is gone.
	_, err = store.GetVendorByID(ctx, "t1", absorb.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMergeVendorIntoBackfillNeverOverwrites(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	keep := &model.Vendor{TenantID: "t1", Name: "Acme LLC"}
	first := &model.Vendor{TenantID: "t1", Name: "ACME Incorporated", Email: "first@acme.test"}
	second := &model.Vendor{TenantID: "t1", Name: "Acme Group", Email: "second@acme.test"}
	require.NoError(t, store.SaveVendor(ctx, keep))
	require.NoError(t, store.SaveVendor(ctx, first))
	require.NoError(t, store.SaveVendor(ctx, second))

	_, err := store.MergeVendorInto(ctx, "t1", keep.ID, first.ID)
	require.NoError(t, err)
	_, err = store.MergeVendorInto(ctx, "t1", keep.ID, second.ID)
	require.NoError(t, err)

	merged, err := store.GetVendorByID(ctx, "t1", keep.ID)
	require.NoError(t, err)
	assert.Equal(t, "first@acme.test", merged.Email)
}

func TestMergeVendorIntoNotFound(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	vendor := &model.Vendor{TenantID: "t1", Name: "Acme LLC"}
	require.NoError(t, store.SaveVendor(ctx, vendor))

	_, err := store.MergeVendorInto(ctx, "t1", "missing", vendor.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = store.MergeVendorInto(ctx, "t1", vendor.ID, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	// Nothing was mutated by the failures.
	still, err := store.GetVendorByID(ctx, "t1", vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme LLC", still.Name)
}

func TestDeleteVendor(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	vendor := &model.Vendor{TenantID: "t1", Name: "Acme LLC"}
	require.NoError(t, store.SaveVendor(ctx, vendor))

	require.NoError(t, store.DeleteVendor(ctx, "t1", vendor.ID))
	assert.ErrorIs(t, store.DeleteVendor(ctx, "t1", vendor.ID), common.ErrNotFound)
}
