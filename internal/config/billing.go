package config

import (
	"time"

	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/types"
	"github.com/robfig/cron"
)

// BillingConfig carries everything the billing run needs. It is built once at
// process start and passed to the services that need it.
type BillingConfig struct {
	// Timezone is the IANA zone the schedule and cycle dates are evaluated in
	Timezone string `mapstructure:"timezone" validate:"required"`
	// ScheduleExpression is a standard 5 field cron expression
	ScheduleExpression string `mapstructure:"schedule_expression" validate:"required"`
	MaxRetries         int    `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	WorkerPoolSize     int    `mapstructure:"worker_pool_size" validate:"gte=1,lte=64"`
	PageSize           int    `mapstructure:"page_size" validate:"gte=1"`
	// BaseDelay and MaxDelay bound the exponential backoff between retries,
	// a zero MaxDelay leaves it uncapped
	BaseDelay time.Duration `mapstructure:"base_delay"`
	MaxDelay  time.Duration `mapstructure:"max_delay"`
	// RunTimeout bounds a whole run; leases not finished by then are deferred
	RunTimeout    time.Duration         `mapstructure:"run_timeout"`
	DueDays       int                   `mapstructure:"due_days" validate:"gte=0"`
	Proration     types.ProrationPolicy `mapstructure:"proration"`
	FailOnPartial bool                  `mapstructure:"fail_on_partial"`
	// TenantID limits a run to one tenant scope, empty means all tenants
	TenantID string `mapstructure:"tenant_id"`

	location *time.Location
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		Timezone:           "UTC",
		ScheduleExpression: "0 6 * * *",
		MaxRetries:         3,
		WorkerPoolSize:     4,
		PageSize:           100,
		BaseDelay:          500 * time.Millisecond,
		MaxDelay:           30 * time.Second,
		RunTimeout:         23 * time.Hour,
		DueDays:            7,
		Proration:          types.ProrationPolicyNone,
	}
}

func (c *BillingConfig) Validate() error {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return ierr.WithError(err).
			WithHintf("Unknown billing time zone %q", c.Timezone).
			Mark(ierr.ErrConfiguration)
	}
	c.location = loc

	if _, err := cron.ParseStandard(c.ScheduleExpression); err != nil {
		return ierr.WithError(err).
			WithHintf("Invalid billing schedule expression %q", c.ScheduleExpression).
			Mark(ierr.ErrConfiguration)
	}

	if c.MaxRetries < 0 {
		return ierr.NewError("max retries must not be negative").
			WithHint("Set billing.max_retries to zero or more").
			Mark(ierr.ErrConfiguration)
	}

	if c.WorkerPoolSize < 1 {
		return ierr.NewError("worker pool size must be positive").
			WithHint("Set billing.worker_pool_size to at least 1").
			Mark(ierr.ErrConfiguration)
	}

	if c.MaxDelay > 0 && c.BaseDelay > c.MaxDelay {
		return ierr.NewError("base delay exceeds max delay").
			WithHint("billing.base_delay must not exceed billing.max_delay").
			Mark(ierr.ErrConfiguration)
	}

	switch c.Proration {
	case types.ProrationPolicyNone, types.ProrationPolicyDaily:
	case "":
		c.Proration = types.ProrationPolicyNone
	default:
		return ierr.NewErrorf("unknown proration policy %q", c.Proration).
			WithHint("billing.proration must be one of none, daily").
			Mark(ierr.ErrConfiguration)
	}

	return nil
}

// Location returns the billing time zone, UTC when Validate has not run
func (c BillingConfig) Location() *time.Location {
	if c.location != nil {
		return c.location
	}
	if loc, err := time.LoadLocation(c.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

// NextFire returns the next scheduled firing after t in the billing zone
func (c BillingConfig) NextFire(t time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(c.ScheduleExpression)
	if err != nil {
		return time.Time{}, ierr.WithError(err).
			WithHintf("Invalid billing schedule expression %q", c.ScheduleExpression).
			Mark(ierr.ErrConfiguration)
	}
	return sched.Next(t.In(c.Location())), nil
}
