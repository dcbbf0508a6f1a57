package retry

import (
	"context"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"github.com/flexprice/leasebill/internal/clock"
	"github.com/flexprice/leasebill/internal/config"
	ierr "github.com/flexprice/leasebill/internal/errors"
)

// ErrRetriesExhausted marks the last error of an operation that used up its retries
var ErrRetriesExhausted = errors.New("retries exhausted")

// Policy bounds retries of a single operation within a run.
// Retry n (0 based) waits min(BaseDelay * 2^n, MaxDelay). A MaxDelay of zero
// leaves the delay uncapped.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func NewPolicy(cfg config.BillingConfig) Policy {
	return Policy{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  cfg.BaseDelay,
		MaxDelay:   cfg.MaxDelay,
	}
}

// MaxAttempts is the upper bound of calls Do makes
func (p Policy) MaxAttempts() int {
	return p.MaxRetries + 1
}

// Schedule returns the delays before each retry in order
func (p Policy) Schedule() []time.Duration {
	b := p.newBackOff()
	delays := make([]time.Duration, 0, p.MaxRetries)
	for {
		next := b.NextBackOff()
		if next == backoff.Stop {
			return delays
		}
		delays = append(delays, next)
	}
}

func (p Policy) newBackOff() backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.BaseDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = p.MaxDelay
	if p.MaxDelay <= 0 {
		exp.MaxInterval = time.Duration(math.MaxInt64)
	}
	exp.MaxElapsedTime = 0
	exp.Reset()

	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithMaxRetries(exp, uint64(retries))
}

// Op is one attempt of a retried operation, attempt starts at 1
type Op func(ctx context.Context, attempt int) error

// Notify is called after a retryable failure, before sleeping for next
type Notify func(attempt int, err error, next time.Duration)

// Retrier runs operations under a Policy
type Retrier struct {
	policy    Policy
	sleeper   clock.Sleeper
	retryable func(error) bool
}

// NewRetrier creates a retrier. retryable decides whether a failed attempt may be
// repeated, nil retries every error.
func NewRetrier(policy Policy, sleeper clock.Sleeper, retryable func(error) bool) *Retrier {
	if retryable == nil {
		retryable = func(error) bool { return true }
	}
	return &Retrier{policy: policy, sleeper: sleeper, retryable: retryable}
}

// Do calls op until it succeeds, fails with a non retryable error, the
// retries are exhausted or ctx is done. It returns the number of attempts made
// and the last error. An exhausted error is marked ErrRetriesExhausted.
func (r *Retrier) Do(ctx context.Context, op Op, notify Notify) (int, error) {
	b := r.policy.newBackOff()

	attempt := 0
	for {
		attempt++
		err := op(ctx, attempt)
		if err == nil || !r.retryable(err) {
			return attempt, err
		}

		next := b.NextBackOff()
		if next == backoff.Stop {
			return attempt, ierr.WithError(err).
				WithHintf("Gave up after %d attempts", attempt).
				Mark(ErrRetriesExhausted)
		}

		if notify != nil {
			notify(attempt, err, next)
		}

		if sleepErr := r.sleeper.Sleep(ctx, next); sleepErr != nil {
			return attempt, errors.WithSecondaryError(err, sleepErr)
		}
	}
}

// IsExhausted reports whether err ended a Do call by running out of retries
func IsExhausted(err error) bool {
	return errors.Is(err, ErrRetriesExhausted)
}
