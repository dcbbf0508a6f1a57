package lease

import (
	"testing"
	"time"

	"github.com/flexprice/leasebill/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFollowingBillingDate(t *testing.T) {
	tests := []struct {
		name  string
		lease Lease
		want  []time.Time
	}{
		{
			name:  "month end start returns to day 31",
			lease: Lease{StartDate: date(2024, time.January, 31), NextBillingDate: date(2024, time.January, 31)},
			want:  []time.Time{date(2024, time.February, 29), date(2024, time.March, 31), date(2024, time.April, 30), date(2024, time.May, 31)},
		},
		{
			name:  "day 30 start",
			lease: Lease{StartDate: date(2024, time.January, 30), NextBillingDate: date(2024, time.January, 30)},
			want:  []time.Time{date(2024, time.February, 29), date(2024, time.March, 30)},
		},
		{
			name:  "billing day independent of start",
			lease: Lease{StartDate: date(2024, time.January, 15), NextBillingDate: date(2024, time.February, 1)},
			want:  []time.Time{date(2024, time.March, 1), date(2024, time.April, 1)},
		},
		{
			name: "annual leap day",
			lease: Lease{
				BillingPeriod:   types.BILLING_PERIOD_ANNUAL,
				StartDate:       date(2024, time.February, 29),
				NextBillingDate: date(2024, time.February, 29),
			},
			want: []time.Time{date(2025, time.February, 28), date(2026, time.February, 28), date(2027, time.February, 28), date(2028, time.February, 29)},
		},
		{
			name: "weekly",
			lease: Lease{
				BillingPeriod:   types.BILLING_PERIOD_WEEKLY,
				StartDate:       date(2024, time.January, 31),
				NextBillingDate: date(2024, time.February, 28),
			},
			want: []time.Time{date(2024, time.March, 6), date(2024, time.March, 13)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := tt.lease
			for _, want := range tt.want {
				next, err := l.FollowingBillingDate()
				require.NoError(t, err)
				assert.Equal(t, want, next)
				l.NextBillingDate = next
			}
		})
	}
}

func TestFollowingBillingDate_InvalidPeriod(t *testing.T) {
	l := Lease{BillingPeriod: "HOURLY", NextBillingDate: date(2024, time.March, 1)}
	_, err := l.FollowingBillingDate()
	assert.Error(t, err)
}

func TestPeriodDefaultsToMonthly(t *testing.T) {
	assert.Equal(t, types.BILLING_PERIOD_MONTHLY, (&Lease{}).Period())
	assert.Equal(t, types.BILLING_PERIOD_WEEKLY, (&Lease{BillingPeriod: types.BILLING_PERIOD_WEEKLY}).Period())
}
