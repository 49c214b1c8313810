package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/buildtally/buildtally/internal/common"
	"github.com/buildtally/buildtally/internal/model"
)

// GetTenantSettings returns a tenant's categorization settings,
// defaulting when no row exists yet.
func (s *SQLiteStorage) GetTenantSettings(ctx context.Context, tenantID string) (*model.TenantSettings, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(tenantID, "tenantID"); err != nil {
		return nil, err
	}

	settings := &model.TenantSettings{
		TenantID:    tenantID,
		AIThreshold: model.DefaultAIThreshold,
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT ai_api_key, ai_threshold
		FROM tenant_settings
		WHERE tenant_id = ?
	`, tenantID).Scan(&settings.AIAPIKey, &settings.AIThreshold)
	if errors.Is(err, sql.ErrNoRows) {
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tenant settings: %w", err)
	}

	return settings, nil
}

// SaveTenantSettings inserts or updates a tenant's settings row.
func (s *SQLiteStorage) SaveTenantSettings(ctx context.Context, settings *model.TenantSettings) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if settings == nil {
		return fmt.Errorf("%w: settings", ErrNilParameter)
	}
	if err := validateString(settings.TenantID, "settings.TenantID"); err != nil {
		return err
	}
	if settings.AIThreshold < 0 || settings.AIThreshold > 1 {
		return fmt.Errorf("AI threshold %f outside [0,1]: %w", settings.AIThreshold, common.ErrInvalidConfig)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tenant_settings (tenant_id, ai_api_key, ai_threshold)
		VALUES (?, ?, ?)
		ON CONFLICT(tenant_id) DO UPDATE SET
			ai_api_key = excluded.ai_api_key,
			ai_threshold = excluded.ai_threshold
	`, settings.TenantID, settings.AIAPIKey, settings.AIThreshold)
	if err != nil {
		return fmt.Errorf("failed to save tenant settings: %w", err)
	}

	return nil
}
