package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSleeper struct {
	slept []time.Duration
	err   error
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.slept = append(s.slept, d)
	return s.err
}

func testPolicy(maxRetries int) Policy {
	return Policy{MaxRetries: maxRetries, BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}
}

func TestPolicy_Schedule(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		want   []time.Duration
	}{
		{
			name:   "capped",
			policy: testPolicy(4),
			want: []time.Duration{
				100 * time.Millisecond,
				200 * time.Millisecond,
				300 * time.Millisecond,
				300 * time.Millisecond,
			},
		},
		{
			name:   "uncapped",
			policy: Policy{MaxRetries: 3, BaseDelay: 100 * time.Millisecond},
			want: []time.Duration{
				100 * time.Millisecond,
				200 * time.Millisecond,
				400 * time.Millisecond,
			},
		},
		{
			name:   "no_retries",
			policy: testPolicy(0),
			want:   []time.Duration{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Schedule())
		})
	}
}

func TestRetrier_Do(t *testing.T) {
	transient := ierr.NewError("timeout").Mark(ierr.ErrTransientProvider)
	permanent := ierr.NewError("bad request").Mark(ierr.ErrPermanentProvider)
	retryable := func(err error) bool { return !ierr.IsPermanentProvider(err) }

	tests := []struct {
		name         string
		maxRetries   int
		failures     []error
		wantAttempts int
		wantErr      error
		wantSlept    int
		wantExhaust  bool
	}{
		{
			name:         "first_try",
			maxRetries:   3,
			wantAttempts: 1,
		},
		{
			name:         "two_timeouts_then_success",
			maxRetries:   3,
			failures:     []error{transient, transient},
			wantAttempts: 3,
			wantSlept:    2,
		},
		{
			name:         "permanent_is_not_retried",
			maxRetries:   3,
			failures:     []error{permanent},
			wantAttempts: 1,
			wantErr:      ierr.ErrPermanentProvider,
		},
		{
			name:         "exhausted_after_max_retries_plus_one",
			maxRetries:   3,
			failures:     []error{transient, transient, transient, transient, transient},
			wantAttempts: 4,
			wantErr:      ierr.ErrTransientProvider,
			wantSlept:    3,
			wantExhaust:  true,
		},
		{
			name:         "zero_retries",
			maxRetries:   0,
			failures:     []error{transient},
			wantAttempts: 1,
			wantErr:      ierr.ErrTransientProvider,
			wantExhaust:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sleeper := &recordingSleeper{}
			r := NewRetrier(testPolicy(tt.maxRetries), sleeper, retryable)

			var notified []int
			attempts, err := r.Do(context.Background(), func(ctx context.Context, attempt int) error {
				if attempt <= len(tt.failures) {
					return tt.failures[attempt-1]
				}
				return nil
			}, func(attempt int, err error, next time.Duration) {
				notified = append(notified, attempt)
			})

			assert.Equal(t, tt.wantAttempts, attempts)
			assert.LessOrEqual(t, attempts, tt.maxRetries+1)
			assert.Len(t, sleeper.slept, tt.wantSlept)
			assert.Len(t, notified, tt.wantSlept)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr))
			assert.Equal(t, tt.wantExhaust, IsExhausted(err))
		})
	}
}

func TestRetrier_StopsWhenSleepIsInterrupted(t *testing.T) {
	sleeper := &recordingSleeper{err: context.Canceled}
	r := NewRetrier(testPolicy(3), sleeper, nil)

	attempts, err := r.Do(context.Background(), func(ctx context.Context, attempt int) error {
		return errors.New("boom")
	}, nil)

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.False(t, IsExhausted(err))
}
