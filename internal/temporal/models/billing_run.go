package models

import (
	"time"

	"github.com/flexprice/leasebill/internal/domain/billingrun"
	ierr "github.com/flexprice/leasebill/internal/errors"
)

const (
	// BillingRunWorkflowName is the registered name of the scheduled workflow
	BillingRunWorkflowName = "BillingRunWorkflow"

	// DefaultActivityTimeout bounds a billing activity when the input carries no run timeout
	DefaultActivityTimeout = 24 * time.Hour

	// ErrTypeRunLockHeld marks an activity failure caused by an overlapping run
	ErrTypeRunLockHeld = "RunLockHeld"
)

// BillingRunWorkflowInput is passed by the schedule on every firing
type BillingRunWorkflowInput struct {
	TenantID string `json:"tenant_id,omitempty"`
	// CycleDate overrides the firing time, zero for scheduled firings
	CycleDate time.Time `json:"cycle_date,omitempty"`
	DryRun    bool      `json:"dry_run,omitempty"`
	// RunTimeout is billing.run_timeout at the time the schedule was written
	RunTimeout  time.Duration `json:"run_timeout,omitempty"`
	SkipOverdue bool          `json:"skip_overdue,omitempty"`
	SkipWelcome bool          `json:"skip_welcome,omitempty"`
}

func (i *BillingRunWorkflowInput) Validate() error {
	if i.RunTimeout < 0 {
		return ierr.NewError("run timeout must not be negative").
			WithHint("Run timeout must be zero or a positive duration").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ActivityTimeout leaves the run its own deadline plus room to persist the report
func (i *BillingRunWorkflowInput) ActivityTimeout() time.Duration {
	if i.RunTimeout <= 0 {
		return DefaultActivityTimeout
	}
	return i.RunTimeout + 5*time.Minute
}

type RunBillingActivityInput struct {
	TenantID  string    `json:"tenant_id,omitempty"`
	CycleDate time.Time `json:"cycle_date"`
	DryRun    bool      `json:"dry_run,omitempty"`
}

type SweepOverdueActivityInput struct {
	AsOf time.Time `json:"as_of"`
}

// SweepSummary mirrors service.SweepResult across the activity boundary
type SweepSummary struct {
	Kind     string `json:"kind"`
	Selected int    `json:"selected"`
	Sent     int    `json:"sent"`
	Failed   int    `json:"failed"`
}

type BillingRunWorkflowResult struct {
	Report  *billingrun.Report `json:"report,omitempty"`
	Overdue *SweepSummary      `json:"overdue,omitempty"`
	Welcome *SweepSummary      `json:"welcome,omitempty"`
	// Skipped is set when another run held the run lock
	Skipped bool `json:"skipped,omitempty"`
}
