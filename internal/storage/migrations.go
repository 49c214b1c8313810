package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS budget_categories (
					id TEXT PRIMARY KEY,
					tenant_id TEXT NOT NULL,
					project_id TEXT NOT NULL,
					name TEXT NOT NULL,
					budget TEXT NOT NULL DEFAULT '0',
					sort_order INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(tenant_id, project_id, name)
				)`,
				`CREATE INDEX idx_categories_tenant_project ON budget_categories(tenant_id, project_id)`,

				`CREATE TABLE IF NOT EXISTS vendors (
					id TEXT PRIMARY KEY,
					tenant_id TEXT NOT NULL,
					name TEXT NOT NULL,
					normalized_name TEXT NOT NULL,
					default_category_id TEXT,
					email TEXT NOT NULL DEFAULT '',
					phone TEXT NOT NULL DEFAULT '',
					notes TEXT NOT NULL DEFAULT '',
					last_updated DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				// The normalized name is the lookup key, deliberately not
				// UNIQUE: lossy normalization means near-duplicates can
				// slip in, and the dedup report plus merge clean them up.
				`CREATE INDEX idx_vendors_tenant_normalized ON vendors(tenant_id, normalized_name)`,

				`CREATE TABLE IF NOT EXISTS invoices (
					id TEXT PRIMARY KEY,
					tenant_id TEXT NOT NULL,
					project_id TEXT NOT NULL,
					vendor_name TEXT NOT NULL DEFAULT '',
					number TEXT NOT NULL DEFAULT '',
					invoice_date DATETIME,
					total TEXT NOT NULL DEFAULT '0'
				)`,
				`CREATE INDEX idx_invoices_tenant ON invoices(tenant_id)`,

				`CREATE TABLE IF NOT EXISTS line_items (
					id TEXT PRIMARY KEY,
					invoice_id TEXT NOT NULL REFERENCES invoices(id),
					description TEXT NOT NULL,
					quantity TEXT NOT NULL DEFAULT '1',
					unit_price TEXT,
					amount TEXT NOT NULL DEFAULT '0',
					is_tax INTEGER NOT NULL DEFAULT 0,
					category_id TEXT,
					category_suggestion TEXT,
					category_confidence REAL
				)`,
				`CREATE INDEX idx_line_items_invoice ON line_items(invoice_id)`,
			}
			for _, q := range queries {
				if _, err := tx.Exec(q); err != nil {
					return fmt.Errorf("migration 1 failed: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Tenant settings",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS tenant_settings (
				tenant_id TEXT PRIMARY KEY,
				ai_api_key TEXT NOT NULL DEFAULT '',
				ai_threshold REAL NOT NULL DEFAULT 0.7
			)`)
			if err != nil {
				return fmt.Errorf("migration 2 failed: %w", err)
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Vendor name lookup index for merge reassignment",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_invoices_vendor_name ON invoices(tenant_id, vendor_name)`)
			if err != nil {
				return fmt.Errorf("migration 3 failed: %w", err)
			}
			return nil
		},
	},
}

// SchemaVersion reports the highest applied migration version, 0 for a
// fresh database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_migrations'`).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to check migrations table: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}

	var current int
	err = s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return current, nil
}

// Migrate brings the database schema up to the expected version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var current int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		err := s.withTx(ctx, func(tx *sql.Tx) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			_, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, m.Version)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		slog.Info("applied migration", "version", m.Version, "description", m.Description)
	}

	return nil
}
