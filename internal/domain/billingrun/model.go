package billingrun

import (
	"sort"
	"sync"
	"time"

	"github.com/flexprice/leasebill/internal/types"
)

// FailedLease identifies a lease that did not succeed in a run, for manual follow up
type FailedLease struct {
	LeaseID        string `json:"lease_id"`
	LandlordID     string `json:"landlord_id,omitempty"`
	IdempotencyKey string `json:"idempotency_key"`
	Attempts       int    `json:"attempts"`
	Reason         string `json:"reason,omitempty"`
}

// Report is the operator facing result of a billing run.
// It is produced once by ReportBuilder.Build and never mutated afterwards.
type Report struct {
	ID        string                 `json:"id"`
	TenantID  string                 `json:"tenant_id,omitempty"`
	CycleDate time.Time              `json:"cycle_date"`
	Status    types.BillingRunStatus `json:"status"`
	// DryRun reports are priced only, nothing was sent or written
	DryRun bool `json:"dry_run,omitempty"`

	Selected int `json:"selected"`
	Created  int `json:"created"`
	// Skipped counts leases whose invoice was already recorded by an earlier run
	Skipped int `json:"skipped"`

	PermanentlyFailed []FailedLease `json:"permanently_failed"`
	Deferred          []FailedLease `json:"deferred"`

	NotificationsSent   int `json:"notifications_sent"`
	NotificationsFailed int `json:"notifications_failed"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// HasFailures reports whether any selected lease did not succeed
func (r *Report) HasFailures() bool {
	return len(r.PermanentlyFailed) > 0 || len(r.Deferred) > 0
}

// Duration returns how long the run took
func (r *Report) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

// PermanentlyFailedIDs returns the lease ids that need manual review
func (r *Report) PermanentlyFailedIDs() []string {
	return leaseIDs(r.PermanentlyFailed)
}

// DeferredIDs returns the lease ids left for the next run
func (r *Report) DeferredIDs() []string {
	return leaseIDs(r.Deferred)
}

func leaseIDs(in []FailedLease) []string {
	out := make([]string, 0, len(in))
	for _, f := range in {
		out = append(out, f.LeaseID)
	}
	return out
}

// ReportBuilder collects attempt outcomes from concurrent workers
type ReportBuilder struct {
	mu     sync.Mutex
	report Report
	built  bool
}

func NewReportBuilder(runID, tenantID string, cycleDate, startedAt time.Time) *ReportBuilder {
	return &ReportBuilder{
		report: Report{
			ID:                runID,
			TenantID:          tenantID,
			CycleDate:         cycleDate,
			Status:            types.BillingRunStatusRunning,
			PermanentlyFailed: []FailedLease{},
			Deferred:          []FailedLease{},
			StartedAt:         startedAt,
		},
	}
}

// MarkDryRun flags the report as a dry run
func (b *ReportBuilder) MarkDryRun() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.DryRun = true
}

// Selected adds n leases returned by the selector
func (b *ReportBuilder) Selected(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.built {
		return
	}
	b.report.Selected += n
}

// Add records the terminal outcome of an attempt
func (b *ReportBuilder) Add(a *InvoiceAttempt) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.built {
		return
	}

	switch a.Outcome {
	case types.AttemptOutcomeSucceeded:
		if a.Replayed {
			b.report.Skipped++
		} else {
			b.report.Created++
		}
	case types.AttemptOutcomePermanentFailed:
		b.report.PermanentlyFailed = append(b.report.PermanentlyFailed, toFailed(a))
	default:
		// anything not terminal at this point was abandoned and is retried next run
		b.report.Deferred = append(b.report.Deferred, toFailed(a))
	}
}

// Notification records one notification trigger result
func (b *ReportBuilder) Notification(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.built {
		return
	}
	if err != nil {
		b.report.NotificationsFailed++
		return
	}
	b.report.NotificationsSent++
}

// Build freezes the report. Later calls return the same report.
func (b *ReportBuilder) Build(completedAt time.Time, aborted bool) *Report {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.built {
		b.built = true
		b.report.CompletedAt = completedAt
		b.report.Status = types.BillingRunStatusCompleted
		if aborted {
			b.report.Status = types.BillingRunStatusAborted
		}
		sortFailed(b.report.PermanentlyFailed)
		sortFailed(b.report.Deferred)
	}

	out := b.report
	out.PermanentlyFailed = append([]FailedLease(nil), b.report.PermanentlyFailed...)
	out.Deferred = append([]FailedLease(nil), b.report.Deferred...)
	return &out
}

func toFailed(a *InvoiceAttempt) FailedLease {
	return FailedLease{
		LeaseID:        a.LeaseID,
		LandlordID:     a.LandlordID,
		IdempotencyKey: a.IdempotencyKey,
		Attempts:       a.Attempts,
		Reason:         a.Reason(),
	}
}

func sortFailed(in []FailedLease) {
	sort.Slice(in, func(i, j int) bool { return in[i].LeaseID < in[j].LeaseID })
}
