package types

import (
	"testing"
	"time"

	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillingCycle(t *testing.T) {
	t.Run("id is year and month in zone", func(t *testing.T) {
		// 2024-03-01 02:00 UTC is still February in Los Angeles
		at := time.Date(2024, time.March, 1, 2, 0, 0, 0, time.UTC)
		la, err := time.LoadLocation("America/Los_Angeles")
		require.NoError(t, err)

		assert.Equal(t, "2024-03", NewBillingCycle("t1", at, time.UTC).ID())
		assert.Equal(t, "2024-02", NewBillingCycle("t1", at, la).ID())
	})

	t.Run("bounds and days", func(t *testing.T) {
		c := BillingCycle{Year: 2024, Month: time.February}
		assert.Equal(t, 29, c.Days())
		assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), c.Start(time.UTC))
		assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), c.End(time.UTC))
	})

	t.Run("next wraps year", func(t *testing.T) {
		c := BillingCycle{TenantID: "t1", Year: 2024, Month: time.December}
		assert.Equal(t, BillingCycle{TenantID: "t1", Year: 2025, Month: time.January}, c.Next())
	})

	t.Run("parse", func(t *testing.T) {
		c, err := ParseBillingCycle("t1", "2024-03")
		require.NoError(t, err)
		assert.Equal(t, "t1/2024-03", c.String())

		c, err = ParseBillingCycle("t1", "2024-03-08")
		require.NoError(t, err)
		assert.Equal(t, BillingCycle{TenantID: "t1", Year: 2024, Month: time.March, Day: 8}, c)

		_, err = ParseBillingCycle("t1", "03-2024")
		require.Error(t, err)
		assert.True(t, ierr.IsValidation(err))
	})
}

func TestNewBillingCycleForPeriod(t *testing.T) {
	first := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	second := time.Date(2024, time.March, 8, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		period    BillingPeriod
		first     string
		second    string
		dayCycles bool
	}{
		{BILLING_PERIOD_MONTHLY, "2024-03", "2024-03", false},
		{BILLING_PERIOD_ANNUAL, "2024-03", "2024-03", false},
		{BILLING_PERIOD_WEEKLY, "2024-03-01", "2024-03-08", true},
		{BILLING_PERIOD_DAILY, "2024-03-01", "2024-03-08", true},
	}
	for _, tt := range tests {
		t.Run(tt.period.String(), func(t *testing.T) {
			c1 := NewBillingCycleForPeriod("t1", first, time.UTC, tt.period)
			c2 := NewBillingCycleForPeriod("t1", second, time.UTC, tt.period)
			assert.Equal(t, tt.first, c1.ID())
			assert.Equal(t, tt.second, c2.ID())
			assert.Equal(t, tt.dayCycles, c1.IsDayCycle())
			assert.Equal(t, tt.dayCycles, tt.period.IsSubMonthly())
		})
	}

	t.Run("day cycle bounds", func(t *testing.T) {
		c := BillingCycle{Year: 2024, Month: time.February, Day: 29}
		assert.Equal(t, first, c.End(time.UTC))
		assert.Equal(t, BillingCycle{Year: 2024, Month: time.March, Day: 1}, c.Next())
		assert.Equal(t, 1, c.Days())
	})
}

func TestBillingPeriodValidate(t *testing.T) {
	assert.NoError(t, BILLING_PERIOD_MONTHLY.Validate())
	err := BillingPeriod("HOURLY").Validate()
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestAttemptOutcomeIsTerminal(t *testing.T) {
	tests := []struct {
		outcome AttemptOutcome
		want    bool
	}{
		{AttemptOutcomePending, false},
		{AttemptOutcomeRetryableFailed, false},
		{AttemptOutcomeSucceeded, true},
		{AttemptOutcomePermanentFailed, true},
		{AttemptOutcomeDeferred, true},
	}
	for _, tt := range tests {
		t.Run(tt.outcome.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.outcome.IsTerminal())
		})
	}
}

func TestGetCurrencyPrecision(t *testing.T) {
	assert.Equal(t, int32(2), GetCurrencyPrecision("usd"))
	assert.Equal(t, int32(0), GetCurrencyPrecision("JPY"))
	assert.Equal(t, int32(3), GetCurrencyPrecision("kwd"))
	assert.True(t, IsValidCurrency("eur"))
	assert.False(t, IsValidCurrency("eu"))
}
