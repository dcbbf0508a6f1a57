package billingrun

import (
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/types"
	"github.com/shopspring/decimal"
)

// InvoiceAttempt tracks one lease's invoicing within a single run. It is never persisted.
type InvoiceAttempt struct {
	LeaseID        string
	LandlordID     string
	Cycle          types.BillingCycle
	Amount         decimal.Decimal
	Currency       string
	IdempotencyKey string

	// Attempts counts provider round trips made in this run
	Attempts int
	Outcome  types.AttemptOutcome

	InvoiceID string
	// Replayed is set when the invoice already existed for the idempotency key
	Replayed  bool
	LastError error
}

// NewInvoiceAttempt returns a pending attempt for a lease and cycle
func NewInvoiceAttempt(leaseID, landlordID string, cycle types.BillingCycle, key string) *InvoiceAttempt {
	return &InvoiceAttempt{
		LeaseID:        leaseID,
		LandlordID:     landlordID,
		Cycle:          cycle,
		IdempotencyKey: key,
		Outcome:        types.AttemptOutcomePending,
	}
}

var allowedTransitions = map[types.AttemptOutcome][]types.AttemptOutcome{
	types.AttemptOutcomePending: {
		types.AttemptOutcomeSucceeded,
		types.AttemptOutcomeRetryableFailed,
		types.AttemptOutcomePermanentFailed,
		types.AttemptOutcomeDeferred,
	},
	types.AttemptOutcomeRetryableFailed: {
		types.AttemptOutcomePending,
		types.AttemptOutcomeDeferred,
	},
}

// Transition moves the attempt to the next state. Terminal states never change.
func (a *InvoiceAttempt) Transition(to types.AttemptOutcome) error {
	for _, allowed := range allowedTransitions[a.Outcome] {
		if allowed == to {
			a.Outcome = to
			return nil
		}
	}
	return ierr.NewErrorf("invalid attempt transition %s -> %s", a.Outcome, to).
		WithReportableDetails(map[string]any{
			"lease_id": a.LeaseID,
			"cycle":    a.Cycle.ID(),
		}).
		Mark(ierr.ErrInvalidOperation)
}

// Reason returns the last error message or an empty string
func (a *InvoiceAttempt) Reason() string {
	if a.LastError == nil {
		return ""
	}
	return a.LastError.Error()
}
