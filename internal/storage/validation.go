package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/buildtally/buildtally/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrEmptySlice     = errors.New("slice cannot be empty")
	ErrInvalidVendor  = errors.New("invalid vendor")
	ErrInvalidInvoice = errors.New("invalid invoice")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateVendor validates a vendor before it is written.
func validateVendor(vendor *model.Vendor) error {
	if vendor == nil {
		return fmt.Errorf("%w: vendor", ErrNilParameter)
	}
	if vendor.TenantID == "" {
		return fmt.Errorf("%w: missing tenant ID", ErrInvalidVendor)
	}
	if strings.TrimSpace(vendor.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidVendor)
	}
	return nil
}

// validateInvoice validates an invoice before it is written.
func validateInvoice(invoice *model.Invoice) error {
	if invoice == nil {
		return fmt.Errorf("%w: invoice", ErrNilParameter)
	}
	if invoice.TenantID == "" {
		return fmt.Errorf("%w: missing tenant ID", ErrInvalidInvoice)
	}
	if invoice.ProjectID == "" {
		return fmt.Errorf("%w: missing project ID", ErrInvalidInvoice)
	}
	return nil
}
