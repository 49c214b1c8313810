package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/buildtally/buildtally/internal/ai"
	"github.com/buildtally/buildtally/internal/common"
	"github.com/buildtally/buildtally/internal/config"
	"github.com/buildtally/buildtally/internal/engine"
	"github.com/buildtally/buildtally/internal/keyword"
	"github.com/buildtally/buildtally/internal/service"
	"github.com/buildtally/buildtally/internal/storage"
	"github.com/buildtally/buildtally/internal/vendors"
	"github.com/spf13/viper"
)

// initStorage opens the database from config and runs migrations.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := config.DatabasePath(viper.GetString("database.path"))

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// requireTenant reads the tenant identifier from the flag/env/config.
// Every data-touching command needs one.
func requireTenant() (string, error) {
	tenant := viper.GetString("tenant")
	if tenant == "" {
		return "", common.NewUserError("no tenant set (use --tenant or TALLY_TENANT)", common.ErrMissingConfig)
	}
	return tenant, nil
}

// vendorExists reports whether a vendor record already covers the
// given name. The exact normalized-name lookup comes first so repeat
// imports from the same vendor hit the cache; the fuzzy scan only runs
// for names that normalize differently from every stored record.
func vendorExists(ctx context.Context, store service.Storage, tenantID, name string) (bool, error) {
	normalized := vendors.Normalize(name)
	if normalized == "" {
		return false, fmt.Errorf("vendor name %q normalizes to nothing", name)
	}

	_, err := store.GetVendorByNormalizedName(ctx, tenantID, normalized)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return false, err
	}

	known, err := store.GetAllVendors(ctx, tenantID)
	if err != nil {
		return false, err
	}
	return vendors.FindBestMatch(normalized, known, 0) != nil, nil
}

// initEngine wires storage, the keyword dictionary, and the AI factory
// into a categorization engine.
func initEngine(ctx context.Context) (*engine.CategorizationEngine, service.Storage, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, nil, err
	}

	keywords, err := keyword.NewCategorizer()
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to load keyword dictionary: %w", err)
	}

	return engine.New(store, keywords, ai.DefaultFactory()), store, nil
}
