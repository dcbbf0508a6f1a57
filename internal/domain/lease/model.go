package lease

import (
	"time"

	"github.com/flexprice/leasebill/internal/types"
	"github.com/shopspring/decimal"
)

// Lease is the billable agreement between a landlord and a renter.
// The billing run only ever writes NextBillingDate (and Version with it).
type Lease struct {
	// ID is the unique identifier for the lease
	ID string `db:"id" json:"id"`

	TenantID   string `db:"tenant_id" json:"tenant_id"`
	LandlordID string `db:"landlord_id" json:"landlord_id"`
	PropertyID string `db:"property_id" json:"property_id"`

	// Status is the lifecycle status, only active leases are billed
	Status types.LeaseStatus `db:"status" json:"status"`

	// Currency is the currency of the lease in lowercase 3 digit ISO codes
	Currency string `db:"currency" json:"currency"`

	// AmountDue is the flat amount charged per billing period
	AmountDue decimal.Decimal `db:"amount_due" json:"amount_due"`

	BillingPeriod      types.BillingPeriod `db:"billing_period" json:"billing_period"`
	BillingPeriodCount int                 `db:"billing_period_count" json:"billing_period_count"`

	StartDate time.Time  `db:"start_date" json:"start_date"`
	EndDate   *time.Time `db:"end_date" json:"end_date,omitempty"`

	// NextBillingDate is the date the next invoice becomes due
	NextBillingDate time.Time `db:"next_billing_date" json:"next_billing_date"`

	// ProviderCustomerID is the payee identifier at the payment provider
	ProviderCustomerID string `db:"provider_customer_id" json:"provider_customer_id"`

	// Version is incremented on every write and guards concurrent billing date advances
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsDue reports whether the lease must be billed on cycleDate
func (l *Lease) IsDue(cycleDate time.Time) bool {
	return l.Status == types.LeaseStatusActive && !l.NextBillingDate.After(cycleDate)
}

// Period returns the billing period, MONTHLY when unset
func (l *Lease) Period() types.BillingPeriod {
	if l.BillingPeriod == "" {
		return types.BILLING_PERIOD_MONTHLY
	}
	return l.BillingPeriod
}

// FollowingBillingDate returns the billing date one period after the current one.
// Monthly and annual dates that were clamped to a short month end return to the
// day of month the lease started on, so Jan 31 moves to Feb 29 and then Mar 31.
func (l *Lease) FollowingBillingDate() (time.Time, error) {
	count := l.BillingPeriodCount
	if count == 0 {
		count = 1
	}
	period := l.Period()

	next, err := types.NextBillingDate(l.NextBillingDate, count, period)
	if err != nil || period.IsSubMonthly() || l.StartDate.IsZero() {
		return next, err
	}

	y, m, d := l.NextBillingDate.Date()
	anchor := l.StartDate.In(l.NextBillingDate.Location()).Day()
	if d == types.DaysInMonth(y, m) && d < anchor {
		ny, nm, _ := next.Date()
		day := min(anchor, types.DaysInMonth(ny, nm))
		h, mi, sec := next.Clock()
		next = time.Date(ny, nm, day, h, mi, sec, next.Nanosecond(), next.Location())
	}
	return next, nil
}
