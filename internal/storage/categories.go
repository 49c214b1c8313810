package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/buildtally/buildtally/internal/common"
	"github.com/buildtally/buildtally/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GetCategories returns a project's budget categories ordered by sort key.
func (s *SQLiteStorage) GetCategories(ctx context.Context, tenantID, projectID string) ([]model.BudgetCategory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(tenantID, "tenantID"); err != nil {
		return nil, err
	}
	if err := validateString(projectID, "projectID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, project_id, name, budget, sort_order, created_at
		FROM budget_categories
		WHERE tenant_id = ? AND project_id = ?
		ORDER BY sort_order, name
	`, tenantID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.BudgetCategory
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *cat)
	}

	return categories, rows.Err()
}

// GetCategoryByID returns one category within the tenant scope.
func (s *SQLiteStorage) GetCategoryByID(ctx context.Context, tenantID, id string) (*model.BudgetCategory, error) {
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
		SELECT id, tenant_id, project_id, name, budget, sort_order, created_at
		FROM budget_categories
		WHERE tenant_id = ? AND id = ?
	`, tenantID, id)

	cat, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return cat, err
}

// GetCategoryByName returns one category by display name within a project.
func (s *SQLiteStorage) GetCategoryByName(ctx context.Context, tenantID, projectID, name string) (*model.BudgetCategory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(tenantID, "tenantID"); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, project_id, name, budget, sort_order, created_at
		FROM budget_categories
		WHERE tenant_id = ? AND project_id = ? AND name = ?
	`, tenantID, projectID, name)

	cat, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return cat, err
}

// CreateCategory inserts a new budget category, assigning an ID if the
// caller did not.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, category *model.BudgetCategory) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if category == nil {
		return fmt.Errorf("%w: category", ErrNilParameter)
	}
	if err := validateString(category.TenantID, "category.TenantID"); err != nil {
		return err
	}
	if err := validateString(category.Name, "category.Name"); err != nil {
		return err
	}

	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budget_categories (id, tenant_id, project_id, name, budget, sort_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, category.ID, category.TenantID, category.ProjectID, category.Name,
		category.Budget.String(), category.SortOrder, category.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("category %q already exists in project: %w", category.Name, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// RenameCategory changes a category's display name. Line items keep
// referencing it by id; keyword scoring picks up the new name on the
// next run.
func (s *SQLiteStorage) RenameCategory(ctx context.Context, tenantID, id, newName string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(tenantID, "tenantID"); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if err := validateString(newName, "newName"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE budget_categories SET name = ? WHERE tenant_id = ? AND id = ?
	`, newName, tenantID, id)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("category %q already exists in project: %w", newName, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to rename category: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

// DeleteCategory removes a category. Line items referencing it keep
// their category_id; orphaning is acceptable.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, tenantID, id string) error {
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
		DELETE FROM budget_categories WHERE tenant_id = ? AND id = ?
	`, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (*model.BudgetCategory, error) {
	var cat model.BudgetCategory
	var budget string

	err := row.Scan(&cat.ID, &cat.TenantID, &cat.ProjectID, &cat.Name,
		&budget, &cat.SortOrder, &cat.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan category: %w", err)
	}

	cat.Budget, err = decimal.NewFromString(budget)
	if err != nil {
		return nil, fmt.Errorf("invalid budget amount %q: %w", budget, err)
	}
	return &cat, nil
}
