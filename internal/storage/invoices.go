package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/buildtally/buildtally/internal/common"
	"github.com/buildtally/buildtally/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GetInvoice retrieves one invoice within the tenant scope.
func (s *SQLiteStorage) GetInvoice(ctx context.Context, tenantID, id string) (*model.Invoice, error) {
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
		SELECT id, tenant_id, project_id, vendor_name, number, invoice_date, total
		FROM invoices
		WHERE tenant_id = ? AND id = ?
	`, tenantID, id)

	invoice, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return invoice, err
}

// GetInvoices retrieves all of a tenant's invoices.
func (s *SQLiteStorage) GetInvoices(ctx context.Context, tenantID string) ([]model.Invoice, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(tenantID, "tenantID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, project_id, vendor_name, number, invoice_date, total
		FROM invoices
		WHERE tenant_id = ?
		ORDER BY invoice_date, number
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var invoices []model.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *invoice)
	}

	return invoices, rows.Err()
}

// SaveInvoice writes an invoice and its line items in one transaction.
func (s *SQLiteStorage) SaveInvoice(ctx context.Context, invoice *model.Invoice, items []model.LineItem) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateInvoice(invoice); err != nil {
		return err
	}

	if invoice.ID == "" {
		invoice.ID = uuid.NewString()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO invoices (id, tenant_id, project_id, vendor_name, number, invoice_date, total)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				vendor_name = excluded.vendor_name,
				number = excluded.number,
				invoice_date = excluded.invoice_date,
				total = excluded.total
		`, invoice.ID, invoice.TenantID, invoice.ProjectID, invoice.VendorName,
			invoice.Number, invoice.Date, invoice.Total.String())
		if err != nil {
			return fmt.Errorf("failed to save invoice: %w", err)
		}

		for i := range items {
			item := &items[i]
			if item.ID == "" {
				item.ID = uuid.NewString()
			}
			item.InvoiceID = invoice.ID

			var unitPrice any
			if item.UnitPrice != nil {
				unitPrice = item.UnitPrice.String()
			}

			_, err := tx.ExecContext(ctx, `
				INSERT INTO line_items (id, invoice_id, description, quantity, unit_price, amount, is_tax, category_id, category_suggestion, category_confidence)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					description = excluded.description,
					quantity = excluded.quantity,
					unit_price = excluded.unit_price,
					amount = excluded.amount,
					is_tax = excluded.is_tax
			`, item.ID, item.InvoiceID, item.Description, item.Quantity.String(),
				unitPrice, item.Amount.String(), item.IsTax,
				item.CategoryID, item.CategorySuggestion, item.CategoryConfidence)
			if err != nil {
				return fmt.Errorf("failed to save line item %d: %w", i, err)
			}
		}

		return nil
	})
}

// GetLineItems retrieves an invoice's line items. The invoice must
// belong to the tenant.
func (s *SQLiteStorage) GetLineItems(ctx context.Context, tenantID, invoiceID string) ([]model.LineItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(tenantID, "tenantID"); err != nil {
		return nil, err
	}
	if err := validateString(invoiceID, "invoiceID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT li.id, li.invoice_id, li.description, li.quantity, li.unit_price,
			li.amount, li.is_tax, li.category_id, li.category_suggestion, li.category_confidence
		FROM line_items li
		JOIN invoices i ON i.id = li.invoice_id
		WHERE i.tenant_id = ? AND li.invoice_id = ?
		ORDER BY li.rowid
	`, tenantID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query line items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []model.LineItem
	for rows.Next() {
		item, err := scanLineItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	return items, rows.Err()
}

// GetLineItem retrieves one line item within the tenant scope.
func (s *SQLiteStorage) GetLineItem(ctx context.Context, tenantID, lineItemID string) (*model.LineItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(tenantID, "tenantID"); err != nil {
		return nil, err
	}
	if err := validateString(lineItemID, "lineItemID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT li.id, li.invoice_id, li.description, li.quantity, li.unit_price,
			li.amount, li.is_tax, li.category_id, li.category_suggestion, li.category_confidence
		FROM line_items li
		JOIN invoices i ON i.id = li.invoice_id
		WHERE i.tenant_id = ? AND li.id = ?
	`, tenantID, lineItemID)

	item, err := scanLineItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return item, err
}

// SaveCategorizationResults writes one run's output for an invoice as a
// single all-or-nothing transaction. Updates with a nil CategoryID
// leave the confirmed assignment untouched.
func (s *SQLiteStorage) SaveCategorizationResults(ctx context.Context, tenantID, invoiceID string, updates []model.LineItemUpdate) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(tenantID, "tenantID"); err != nil {
		return err
	}
	if err := validateString(invoiceID, "invoiceID"); err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		// Scope check once; the per-item updates then key on invoice_id.
		var owned int
		err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM invoices WHERE tenant_id = ? AND id = ?
		`, tenantID, invoiceID).Scan(&owned)
		if err != nil {
			return fmt.Errorf("failed to check invoice scope: %w", err)
		}
		if owned == 0 {
			return common.ErrNotFound
		}

		for _, u := range updates {
			// An item nothing matched stores NULL, not an empty string.
			var suggestion any
			if u.Suggestion != "" {
				suggestion = u.Suggestion
			}

			var result sql.Result
			if u.CategoryID != nil {
				result, err = tx.ExecContext(ctx, `
					UPDATE line_items
					SET category_id = ?, category_suggestion = ?, category_confidence = ?
					WHERE id = ? AND invoice_id = ?
				`, *u.CategoryID, suggestion, u.Confidence, u.LineItemID, invoiceID)
			} else {
				result, err = tx.ExecContext(ctx, `
					UPDATE line_items
					SET category_suggestion = ?, category_confidence = ?
					WHERE id = ? AND invoice_id = ?
				`, suggestion, u.Confidence, u.LineItemID, invoiceID)
			}
			if err != nil {
				return fmt.Errorf("failed to update line item %s: %w", u.LineItemID, err)
			}

			affected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			if affected == 0 {
				return fmt.Errorf("line item %s: %w", u.LineItemID, common.ErrNotFound)
			}
		}

		return nil
	})
}

// UpdateLineItemCategorization is the single-row write behind
// accept/reject/manual assignment. Nil pointers clear their fields.
func (s *SQLiteStorage) UpdateLineItemCategorization(ctx context.Context, tenantID, lineItemID string, categoryID, suggestion *string, confidence *float64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(tenantID, "tenantID"); err != nil {
		return err
	}
	if err := validateString(lineItemID, "lineItemID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE line_items
		SET category_id = ?, category_suggestion = ?, category_confidence = ?
		WHERE id = ? AND invoice_id IN (SELECT id FROM invoices WHERE tenant_id = ?)
	`, categoryID, suggestion, confidence, lineItemID, tenantID)
	if err != nil {
		return fmt.Errorf("failed to update line item: %w", err)
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

func scanInvoice(row rowScanner) (*model.Invoice, error) {
	var invoice model.Invoice
	var total string

	err := row.Scan(&invoice.ID, &invoice.TenantID, &invoice.ProjectID,
		&invoice.VendorName, &invoice.Number, &invoice.Date, &total)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan invoice: %w", err)
	}

	invoice.Total, err = decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("invalid invoice total %q: %w", total, err)
	}
	return &invoice, nil
}

func scanLineItem(row rowScanner) (*model.LineItem, error) {
	var item model.LineItem
	var quantity, amount string
	var unitPrice, categoryID, suggestion sql.NullString
	var confidence sql.NullFloat64

	err := row.Scan(&item.ID, &item.InvoiceID, &item.Description, &quantity,
		&unitPrice, &amount, &item.IsTax, &categoryID, &suggestion, &confidence)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan line item: %w", err)
	}

	item.Quantity, err = decimal.NewFromString(quantity)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity %q: %w", quantity, err)
	}
	item.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if unitPrice.Valid {
		price, err := decimal.NewFromString(unitPrice.String)
		if err != nil {
			return nil, fmt.Errorf("invalid unit price %q: %w", unitPrice.String, err)
		}
		item.UnitPrice = &price
	}
	if categoryID.Valid {
		item.CategoryID = &categoryID.String
	}
	if suggestion.Valid {
		item.CategorySuggestion = &suggestion.String
	}
	if confidence.Valid {
		item.CategoryConfidence = &confidence.Float64
	}

	return &item, nil
}
