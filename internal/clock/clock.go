package clock

import (
	"context"
	"time"
)

// Clock reads the current time
type Clock interface {
	Now() time.Time
}

// Sleeper waits for a duration or until ctx is done
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// Real is the wall clock
type Real struct{}

func New() *Real {
	return &Real{}
}

func (Real) Now() time.Time {
	return time.Now()
}

func (Real) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
