package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/buildtally/buildtally/internal/common"
	"github.com/buildtally/buildtally/internal/model"
	"github.com/buildtally/buildtally/internal/vendors"
	"github.com/google/uuid"
)

const vendorColumns = `v.id, v.tenant_id, v.name, v.normalized_name,
	v.default_category_id, v.email, v.phone, v.notes, v.last_updated`

// GetVendorByID retrieves a vendor within the tenant scope.
func (s *SQLiteStorage) GetVendorByID(ctx context.Context, tenantID, id string) (*model.Vendor, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(tenantID, "tenantID"); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+vendorColumns+`, (
			SELECT COUNT(*) FROM invoices i
			WHERE i.tenant_id = v.tenant_id AND i.vendor_name = v.name
		) AS use_count
		FROM vendors v
		WHERE v.tenant_id = ? AND v.id = ?
	`, tenantID, id)

	vendor, err := scanVendor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return vendor, err
}

// GetVendorByNormalizedName retrieves a vendor by its dedup key.
func (s *SQLiteStorage) GetVendorByNormalizedName(ctx context.Context, tenantID, normalizedName string) (*model.Vendor, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(tenantID, "tenantID"); err != nil {
		return nil, err
	}
	if err := validateString(normalizedName, "normalizedName"); err != nil {
		return nil, err
	}

	// Check cache first
	if vendor := s.getCachedVendor(tenantID, normalizedName); vendor != nil {
		return vendor, nil
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+vendorColumns+`, (
			SELECT COUNT(*) FROM invoices i
			WHERE i.tenant_id = v.tenant_id AND i.vendor_name = v.name
		) AS use_count
		FROM vendors v
		WHERE v.tenant_id = ? AND v.normalized_name = ?
		ORDER BY use_count DESC, v.name
		LIMIT 1
	`, tenantID, normalizedName)

	vendor, err := scanVendor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	s.cacheVendor(vendor)
	return vendor, nil
}

// GetAllVendors retrieves a tenant's vendors, with invoice usage counts.
func (s *SQLiteStorage) GetAllVendors(ctx context.Context, tenantID string) ([]model.Vendor, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(tenantID, "tenantID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+vendorColumns+`, COUNT(i.id) AS use_count
		FROM vendors v
		LEFT JOIN invoices i ON i.tenant_id = v.tenant_id AND i.vendor_name = v.name
		WHERE v.tenant_id = ?
		GROUP BY v.id
		ORDER BY v.name
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query vendors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []model.Vendor
	for rows.Next() {
		vendor, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *vendor)
	}

	return result, rows.Err()
}

// SaveVendor inserts or updates a vendor. The normalized name is always
// derived from the display name; callers cannot set it independently.
func (s *SQLiteStorage) SaveVendor(ctx context.Context, vendor *model.Vendor) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateVendor(vendor); err != nil {
		return err
	}

	if vendor.ID == "" {
		vendor.ID = uuid.NewString()
	}
	vendor.NormalizedName = vendors.Normalize(vendor.Name)
	if vendor.LastUpdated.IsZero() {
		vendor.LastUpdated = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vendors (id, tenant_id, name, normalized_name, default_category_id, email, phone, notes, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			normalized_name = excluded.normalized_name,
			default_category_id = excluded.default_category_id,
			email = excluded.email,
			phone = excluded.phone,
			notes = excluded.notes,
			last_updated = excluded.last_updated
	`, vendor.ID, vendor.TenantID, vendor.Name, vendor.NormalizedName,
		vendor.DefaultCategoryID, vendor.Email, vendor.Phone, vendor.Notes, vendor.LastUpdated)
	if err != nil {
		return fmt.Errorf("failed to save vendor: %w", err)
	}

	s.cacheVendor(vendor)
	return nil
}

// DeleteVendor removes a vendor record.
func (s *SQLiteStorage) DeleteVendor(ctx context.Context, tenantID, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(tenantID, "tenantID"); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM vendors WHERE tenant_id = ? AND id = ?
	`, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete vendor: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	s.invalidateVendorCache()
	return nil
}

// MergeVendorInto performs one absorbed vendor's merge triple in a
// single transaction: reassign invoices matching the absorbed vendor's
// display name, backfill the keep vendor's empty contact fields, delete
// the absorbed record. Returns the number of invoices reassigned.
func (s *SQLiteStorage) MergeVendorInto(ctx context.Context, tenantID, keepID, absorbID string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(tenantID, "tenantID"); err != nil {
		return 0, err
	}
	if err := validateString(keepID, "keepID"); err != nil {
		return 0, err
	}
	if err := validateString(absorbID, "absorbID"); err != nil {
		return 0, err
	}

	var reassigned int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		keep, err := getVendorRowTx(ctx, tx, tenantID, keepID)
		if err != nil {
			return fmt.Errorf("keep vendor: %w", err)
		}
		absorb, err := getVendorRowTx(ctx, tx, tenantID, absorbID)
		if err != nil {
			return fmt.Errorf("absorb vendor: %w", err)
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE invoices SET vendor_name = ?
			WHERE tenant_id = ? AND vendor_name = ?
		`, keep.Name, tenantID, absorb.Name)
		if err != nil {
			return fmt.Errorf("failed to reassign invoices: %w", err)
		}
		reassigned, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to count reassigned invoices: %w", err)
		}

		// Backfill only fields currently empty on the keep vendor.
		_, err = tx.ExecContext(ctx, `
			UPDATE vendors SET
				email = CASE WHEN email = '' THEN ? ELSE email END,
				phone = CASE WHEN phone = '' THEN ? ELSE phone END,
				notes = CASE WHEN notes = '' THEN ? ELSE notes END,
				last_updated = ?
			WHERE tenant_id = ? AND id = ?
		`, absorb.Email, absorb.Phone, absorb.Notes, time.Now().UTC(), tenantID, keepID)
		if err != nil {
			return fmt.Errorf("failed to backfill contact fields: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM vendors WHERE tenant_id = ? AND id = ?
		`, tenantID, absorbID); err != nil {
			return fmt.Errorf("failed to delete absorbed vendor: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	s.invalidateVendorCache()
	return reassigned, nil
}

func getVendorRowTx(ctx context.Context, q queryable, tenantID, id string) (*model.Vendor, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+vendorColumns+`, 0 AS use_count
		FROM vendors v
		WHERE v.tenant_id = ? AND v.id = ?
	`, tenantID, id)

	vendor, err := scanVendor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return vendor, err
}

func scanVendor(row rowScanner) (*model.Vendor, error) {
	var vendor model.Vendor
	var defaultCategoryID sql.NullString

	err := row.Scan(&vendor.ID, &vendor.TenantID, &vendor.Name, &vendor.NormalizedName,
		&defaultCategoryID, &vendor.Email, &vendor.Phone, &vendor.Notes,
		&vendor.LastUpdated, &vendor.UseCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan vendor: %w", err)
	}

	if defaultCategoryID.Valid {
		vendor.DefaultCategoryID = &defaultCategoryID.String
	}
	return &vendor, nil
}

// getCachedVendor retrieves a vendor from the cache.
func (s *SQLiteStorage) getCachedVendor(tenantID, normalizedName string) *model.Vendor {
	s.cacheMutex.RLock()

	if time.Now().After(s.cacheExpiry) {
		s.cacheMutex.RUnlock()
		s.cacheMutex.Lock()
		defer s.cacheMutex.Unlock()

		// Double-check after acquiring write lock
		if time.Now().After(s.cacheExpiry) {
			s.vendorCache = make(map[string]*model.Vendor)
		}
		return nil
	}

	vendor := s.vendorCache[vendorCacheKey(tenantID, normalizedName)]
	s.cacheMutex.RUnlock()
	return vendor
}

// cacheVendor adds a vendor to the cache.
func (s *SQLiteStorage) cacheVendor(vendor *model.Vendor) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	if len(s.vendorCache) == 0 {
		s.cacheExpiry = time.Now().Add(vendorCacheTTL)
	}
	s.vendorCache[vendorCacheKey(vendor.TenantID, vendor.NormalizedName)] = vendor
}

func (s *SQLiteStorage) invalidateVendorCache() {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()
	s.vendorCache = make(map[string]*model.Vendor)
}

func vendorCacheKey(tenantID, normalizedName string) string {
	return tenantID + "\x00" + normalizedName
}
