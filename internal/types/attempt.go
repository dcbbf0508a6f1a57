package types

// AttemptOutcome is the state of a single lease invoicing attempt within a run.
//
// pending -> succeeded | retryable_failed | permanent_failed
// retryable_failed -> pending (retry) | deferred (retries exhausted or run deadline)
//
// succeeded, permanent_failed and deferred are terminal.
type AttemptOutcome string

const (
	AttemptOutcomePending         AttemptOutcome = "pending"
	AttemptOutcomeSucceeded       AttemptOutcome = "succeeded"
	AttemptOutcomeRetryableFailed AttemptOutcome = "retryable_failed"
	AttemptOutcomePermanentFailed AttemptOutcome = "permanent_failed"
	AttemptOutcomeDeferred        AttemptOutcome = "deferred"
)

func (o AttemptOutcome) String() string {
	return string(o)
}

// IsTerminal reports whether no further transition is allowed
func (o AttemptOutcome) IsTerminal() bool {
	switch o {
	case AttemptOutcomeSucceeded, AttemptOutcomePermanentFailed, AttemptOutcomeDeferred:
		return true
	}
	return false
}

// BillingRunStatus is the status of a persisted billing run
type BillingRunStatus string

const (
	BillingRunStatusRunning   BillingRunStatus = "running"
	BillingRunStatusCompleted BillingRunStatus = "completed"
	BillingRunStatusAborted   BillingRunStatus = "aborted"
)
