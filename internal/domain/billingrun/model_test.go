package billingrun

import (
	"errors"
	"sync"
	"testing"
	"time"

	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cycle = types.BillingCycle{Year: 2024, Month: time.March}

func TestInvoiceAttemptTransitions(t *testing.T) {
	tests := []struct {
		name    string
		path    []types.AttemptOutcome
		wantErr bool
	}{
		{name: "direct success", path: []types.AttemptOutcome{types.AttemptOutcomeSucceeded}},
		{name: "retry then success", path: []types.AttemptOutcome{
			types.AttemptOutcomeRetryableFailed,
			types.AttemptOutcomePending,
			types.AttemptOutcomeSucceeded,
		}},
		{name: "retry then defer", path: []types.AttemptOutcome{
			types.AttemptOutcomeRetryableFailed,
			types.AttemptOutcomeDeferred,
		}},
		{name: "no way out of succeeded", path: []types.AttemptOutcome{
			types.AttemptOutcomeSucceeded,
			types.AttemptOutcomePending,
		}, wantErr: true},
		{name: "no way out of permanent failure", path: []types.AttemptOutcome{
			types.AttemptOutcomePermanentFailed,
			types.AttemptOutcomeSucceeded,
		}, wantErr: true},
		{name: "retryable cannot jump to success", path: []types.AttemptOutcome{
			types.AttemptOutcomeRetryableFailed,
			types.AttemptOutcomeSucceeded,
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewInvoiceAttempt("lease_1", "ll_1", cycle, "lease:lease_1:2024-03")
			var err error
			for _, to := range tt.path {
				if err = a.Transition(to); err != nil {
					break
				}
			}
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, ierr.IsInvalidOperation(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, a.Outcome.IsTerminal())
		})
	}
}

func TestReportBuilder(t *testing.T) {
	start := time.Date(2024, time.March, 1, 6, 0, 0, 0, time.UTC)
	b := NewReportBuilder("run_1", "", start, start)
	b.Selected(4)

	outcomes := map[string]types.AttemptOutcome{
		"lease_c": types.AttemptOutcomeSucceeded,
		"lease_b": types.AttemptOutcomePermanentFailed,
		"lease_a": types.AttemptOutcomeDeferred,
		"lease_d": types.AttemptOutcomePending,
	}

	var wg sync.WaitGroup
	for id, outcome := range outcomes {
		wg.Add(1)
		go func(id string, outcome types.AttemptOutcome) {
			defer wg.Done()
			a := NewInvoiceAttempt(id, "ll_1", cycle, "lease:"+id+":2024-03")
			a.Outcome = outcome
			a.LastError = errors.New("boom")
			b.Add(a)
		}(id, outcome)
	}
	wg.Wait()
	b.Notification(nil)
	b.Notification(errors.New("svix down"))

	report := b.Build(start.Add(time.Minute), false)

	assert.Equal(t, 4, report.Selected)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, []string{"lease_b"}, report.PermanentlyFailedIDs())
	// abandoned pending attempts are reported as deferred
	assert.Equal(t, []string{"lease_a", "lease_d"}, report.DeferredIDs())
	assert.Equal(t, 1, report.NotificationsSent)
	assert.Equal(t, 1, report.NotificationsFailed)
	assert.Equal(t, types.BillingRunStatusCompleted, report.Status)
	assert.Equal(t, time.Minute, report.Duration())
	assert.True(t, report.HasFailures())

	// a built report is frozen
	b.Add(&InvoiceAttempt{LeaseID: "lease_e", Outcome: types.AttemptOutcomeSucceeded})
	again := b.Build(start.Add(time.Hour), true)
	assert.Equal(t, report.CompletedAt, again.CompletedAt)
	assert.Equal(t, types.BillingRunStatusCompleted, again.Status)
	assert.Equal(t, 1, again.Created)
}

func TestReportBuilderCountsReplaysAsSkipped(t *testing.T) {
	b := NewReportBuilder("run_1", "t1", time.Now(), time.Now())
	a := NewInvoiceAttempt("lease_1", "ll_1", cycle, "k")
	a.Outcome = types.AttemptOutcomeSucceeded
	a.Replayed = true
	b.Add(a)

	r := b.Build(time.Now(), false)
	assert.Equal(t, 0, r.Created)
	assert.Equal(t, 1, r.Skipped)
	assert.False(t, r.HasFailures())
}
