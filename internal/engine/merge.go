package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/buildtally/buildtally/internal/common"
	"github.com/buildtally/buildtally/internal/model"
	"github.com/buildtally/buildtally/internal/vendors"
)

// FindDuplicateVendors groups a tenant's vendors by normalized name and
// returns the groups with more than one member, most-used vendor first
// within each group.
func (e *CategorizationEngine) FindDuplicateVendors(ctx context.Context, tenantID string) ([]model.DuplicateGroup, error) {
	all, err := e.storage.GetAllVendors(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load vendors: %w", err)
	}
	return vendors.GroupDuplicates(all), nil
}

// MergeVendors absorbs each listed vendor into the keep vendor, one
// transaction per absorbed vendor. Processing stops at the first
// failure; vendors merged before it stay merged, and the outcome
// records what happened to each.
func (e *CategorizationEngine) MergeVendors(ctx context.Context, tenantID, keepID string, absorbIDs []string) (*model.MergeOutcome, error) {
	if len(absorbIDs) == 0 {
		return nil, fmt.Errorf("no vendors to absorb: %w", common.ErrNotFound)
	}

	keep, err := e.storage.GetVendorByID(ctx, tenantID, keepID)
	if err != nil {
		return nil, fmt.Errorf("keep vendor %s: %w", keepID, err)
	}

	outcome := &model.MergeOutcome{
		Results: make([]model.MergeVendorResult, 0, len(absorbIDs)),
	}

	for _, absorbID := range absorbIDs {
		if absorbID == keepID {
			outcome.Results = append(outcome.Results, model.MergeVendorResult{
				VendorID: absorbID,
				Name:     keep.Name,
				Error:    "cannot merge a vendor into itself",
			})
			return outcome, fmt.Errorf("vendor %s: cannot merge into itself: %w", absorbID, common.ErrMergeIncomplete)
		}

		result := model.MergeVendorResult{VendorID: absorbID}
		if absorbed, lookupErr := e.storage.GetVendorByID(ctx, tenantID, absorbID); lookupErr == nil {
			result.Name = absorbed.Name
		}

		reassigned, mergeErr := e.storage.MergeVendorInto(ctx, tenantID, keepID, absorbID)
		if mergeErr != nil {
			result.Error = mergeErr.Error()
			outcome.Results = append(outcome.Results, result)
			return outcome, fmt.Errorf("vendor %s: %w: %w", absorbID, mergeErr, common.ErrMergeIncomplete)
		}

		result.Merged = true
		result.InvoicesReassigned = reassigned
		outcome.Results = append(outcome.Results, result)
		outcome.InvoicesReassigned += reassigned

		slog.Info("Merged vendor",
			"tenant_id", tenantID,
			"keep", keep.Name,
			"absorbed", result.Name,
			"invoices_reassigned", reassigned)
	}

	return outcome, nil
}
