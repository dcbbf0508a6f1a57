package dto

import (
	"time"

	"github.com/flexprice/leasebill/internal/domain/billingrun"
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/service"
	"github.com/flexprice/leasebill/internal/validator"
)

// RunBillingRequest triggers one billing run. Every field is optional.
type RunBillingRequest struct {
	// CycleDate is YYYY-MM-DD in the billing time zone, today when empty
	CycleDate string `json:"cycle_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TenantID  string `json:"tenant_id,omitempty" validate:"omitempty,max=50"`
	DryRun    bool   `json:"dry_run,omitempty"`
}

func (r *RunBillingRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// ToRunRequest resolves the cycle date at the start of its day in loc
func (r *RunBillingRequest) ToRunRequest(loc *time.Location) (*service.RunRequest, error) {
	req := &service.RunRequest{
		TenantID: r.TenantID,
		DryRun:   r.DryRun,
	}
	if r.CycleDate != "" {
		d, err := parseDate(r.CycleDate, loc)
		if err != nil {
			return nil, err
		}
		req.CycleDate = d
	}
	return req, nil
}

// SweepOverdueRequest runs the overdue reminder sweep
type SweepOverdueRequest struct {
	// AsOf is YYYY-MM-DD in the billing time zone, today when empty
	AsOf string `json:"as_of,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func (r *SweepOverdueRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *SweepOverdueRequest) AsOfTime(loc *time.Location) (time.Time, error) {
	if r.AsOf == "" {
		return time.Time{}, nil
	}
	return parseDate(r.AsOf, loc)
}

type BillingRunResponse struct {
	*billingrun.Report
	Failed   bool    `json:"failed"`
	Duration float64 `json:"duration_seconds"`
}

func NewBillingRunResponse(report *billingrun.Report) *BillingRunResponse {
	return &BillingRunResponse{
		Report:   report,
		Failed:   report.HasFailures(),
		Duration: report.Duration().Seconds(),
	}
}

type SweepResponse struct {
	*service.SweepResult
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, ierr.WithError(err).
			WithHintf("Invalid date %q, expected YYYY-MM-DD", s).
			Mark(ierr.ErrValidation)
	}
	return d, nil
}
