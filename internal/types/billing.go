package types

import (
	"fmt"
	"time"

	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/samber/lo"
)

// BillingPeriod is the billing period of a lease ex MONTHLY, ANNUAL, WEEKLY, DAILY
type BillingPeriod string

const (
	BILLING_PERIOD_MONTHLY BillingPeriod = "MONTHLY"
	BILLING_PERIOD_ANNUAL  BillingPeriod = "ANNUAL"
	BILLING_PERIOD_WEEKLY  BillingPeriod = "WEEKLY"
	BILLING_PERIOD_DAILY   BillingPeriod = "DAILY"
)

func (p BillingPeriod) String() string {
	return string(p)
}

// IsSubMonthly reports whether a lease can fall due more than once a month
func (p BillingPeriod) IsSubMonthly() bool {
	return p == BILLING_PERIOD_WEEKLY || p == BILLING_PERIOD_DAILY
}

func (p BillingPeriod) Validate() error {
	allowed := []BillingPeriod{
		BILLING_PERIOD_MONTHLY,
		BILLING_PERIOD_ANNUAL,
		BILLING_PERIOD_WEEKLY,
		BILLING_PERIOD_DAILY,
	}
	if !lo.Contains(allowed, p) {
		return ierr.NewError("invalid billing period").
			WithHint("Please provide a valid billing period").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
				"value":   p,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// BillingCycle identifies the period a lease is billed for, scoped to a tenant.
// Monthly and annual leases are billed per calendar month. Weekly and daily
// leases can fall due several times in a month, so their cycle is the date the
// period starts on (Day is set). A cycle is immutable once created; its ID is
// part of the invoice idempotency key.
type BillingCycle struct {
	TenantID string
	Year     int
	Month    time.Month
	Day      int
}

// NewBillingCycle returns the calendar month cycle containing t, evaluated in loc
func NewBillingCycle(tenantID string, t time.Time, loc *time.Location) BillingCycle {
	y, m, _ := t.In(loc).Date()
	return BillingCycle{TenantID: tenantID, Year: y, Month: m}
}

// NewBillingCycleForPeriod returns the cycle of a period starting at t.
// Sub monthly periods get a day cycle.
func NewBillingCycleForPeriod(tenantID string, t time.Time, loc *time.Location, period BillingPeriod) BillingCycle {
	c := NewBillingCycle(tenantID, t, loc)
	if period.IsSubMonthly() {
		c.Day = t.In(loc).Day()
	}
	return c
}

// ParseBillingCycle parses a cycle id in the YYYY-MM or YYYY-MM-DD form
func ParseBillingCycle(tenantID, id string) (BillingCycle, error) {
	if t, err := time.Parse(time.DateOnly, id); err == nil {
		return BillingCycle{TenantID: tenantID, Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
	}
	t, err := time.Parse("2006-01", id)
	if err != nil {
		return BillingCycle{}, ierr.WithError(err).
			WithHintf("Billing cycle %q must be in YYYY-MM or YYYY-MM-DD format", id).
			Mark(ierr.ErrValidation)
	}
	return BillingCycle{TenantID: tenantID, Year: t.Year(), Month: t.Month()}, nil
}

// ID returns the cycle identifier ex 2024-03, or 2024-03-08 for a day cycle
func (c BillingCycle) ID() string {
	if c.Day > 0 {
		return fmt.Sprintf("%04d-%02d-%02d", c.Year, int(c.Month), c.Day)
	}
	return fmt.Sprintf("%04d-%02d", c.Year, int(c.Month))
}

func (c BillingCycle) String() string {
	if c.TenantID == "" {
		return c.ID()
	}
	return fmt.Sprintf("%s/%s", c.TenantID, c.ID())
}

// IsDayCycle reports whether the cycle is keyed by its start date
func (c BillingCycle) IsDayCycle() bool {
	return c.Day > 0
}

// Start returns midnight of the first day of the cycle in loc
func (c BillingCycle) Start(loc *time.Location) time.Time {
	if c.Day > 0 {
		return time.Date(c.Year, c.Month, c.Day, 0, 0, 0, 0, loc)
	}
	return time.Date(c.Year, c.Month, 1, 0, 0, 0, 0, loc)
}

// End returns midnight after the cycle in loc. A day cycle only names the
// date its period starts on, the period length belongs to the lease.
func (c BillingCycle) End(loc *time.Location) time.Time {
	if c.Day > 0 {
		return c.Start(loc).AddDate(0, 0, 1)
	}
	return c.Start(loc).AddDate(0, 1, 0)
}

// Days returns the number of calendar days in the cycle
func (c BillingCycle) Days() int {
	if c.Day > 0 {
		return 1
	}
	return DaysInMonth(c.Year, c.Month)
}

// Next returns the following calendar month, or the following date for a day cycle
func (c BillingCycle) Next() BillingCycle {
	if c.Day > 0 {
		t := time.Date(c.Year, c.Month, c.Day+1, 0, 0, 0, 0, time.UTC)
		return BillingCycle{TenantID: c.TenantID, Year: t.Year(), Month: t.Month(), Day: t.Day()}
	}
	if c.Month == time.December {
		return BillingCycle{TenantID: c.TenantID, Year: c.Year + 1, Month: time.January}
	}
	return BillingCycle{TenantID: c.TenantID, Year: c.Year, Month: c.Month + 1}
}
