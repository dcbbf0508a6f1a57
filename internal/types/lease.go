package types

import (
	"time"

	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/samber/lo"
)

// LeaseStatus is the lifecycle status of a lease
type LeaseStatus string

const (
	LeaseStatusActive    LeaseStatus = "active"
	LeaseStatusEnded     LeaseStatus = "ended"
	LeaseStatusSuspended LeaseStatus = "suspended"
)

func (s LeaseStatus) String() string {
	return string(s)
}

func (s LeaseStatus) Validate() error {
	allowed := []LeaseStatus{
		LeaseStatusActive,
		LeaseStatusEnded,
		LeaseStatusSuspended,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid lease status").
			WithHint("Please provide a valid lease status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// DueLeaseFilter selects active leases whose next billing date is on or before CycleDate.
// Results are ordered by id; AfterID continues a previous page.
type DueLeaseFilter struct {
	CycleDate time.Time
	TenantID  string
	AfterID   string
	Limit     int
}

func (f *DueLeaseFilter) Validate() error {
	if f.CycleDate.IsZero() {
		return ierr.NewError("cycle date is required").
			WithHint("Due lease selection needs a cycle date").
			Mark(ierr.ErrValidation)
	}
	if f.Limit <= 0 {
		return ierr.NewError("limit must be positive").
			WithHintf("Invalid page size %d", f.Limit).
			Mark(ierr.ErrValidation)
	}
	return nil
}
