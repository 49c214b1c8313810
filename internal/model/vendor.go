package model

import "time"

// Vendor represents a known vendor within a tenant. NormalizedName is
// derived from Name and is the dedup/match key; it is unique per tenant.
type Vendor struct {
	LastUpdated       time.Time
	ID                string
	TenantID          string
	Name              string
	NormalizedName    string
	DefaultCategoryID *string
	Email             string
	Phone             string
	Notes             string
	UseCount          int
}

// DuplicateGroup is a set of vendors sharing one normalized identity,
// ordered by invoice usage so the most-used vendor is the default keep
// candidate.
type DuplicateGroup struct {
	NormalizedName string
	Vendors        []Vendor
}

// MergeVendorResult reports the outcome for one absorbed vendor.
type MergeVendorResult struct {
	VendorID           string
	Name               string
	Error              string
	InvoicesReassigned int64
	Merged             bool
}

// MergeOutcome summarizes a vendor merge operation. A failure partway
// through leaves earlier results committed; Results records which
// absorbed vendors made it.
type MergeOutcome struct {
	Results            []MergeVendorResult
	InvoicesReassigned int64
}
