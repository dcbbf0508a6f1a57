package types

import (
	"fmt"
	"time"
)

// NextBillingDate calculates the next billing date based on the given start time,
// billing period, and billing period unit (the frequency multiplier).
// For example:
// - If billing period is MONTHLY and unit is 2, we add two months.
// - If billing period is ANNUAL and unit is 1, we add one year.
// - If billing period is WEEKLY and unit is 3, we add 21 days (3 weeks).
// Month ends are clamped, so Jan 31 + 1 month is Feb 28/29.
func NextBillingDate(start time.Time, unit int, period BillingPeriod) (time.Time, error) {
	if unit <= 0 {
		return start, fmt.Errorf("billing period unit must be a positive integer, got %d", unit)
	}

	switch period {
	case BILLING_PERIOD_DAILY:
		return start.AddDate(0, 0, unit), nil
	case BILLING_PERIOD_WEEKLY:
		return start.AddDate(0, 0, 7*unit), nil
	case BILLING_PERIOD_MONTHLY:
		return AddClampedDate(start, 0, unit, 0), nil
	case BILLING_PERIOD_ANNUAL:
		return AddClampedDate(start, unit, 0, 0), nil
	default:
		return start, fmt.Errorf("invalid billing period type: %s", period)
	}
}

// AddClampedDate adds years and months to t, clamping the day to the last
// valid day of the resulting month, then adds days.
func AddClampedDate(t time.Time, years, months, days int) time.Time {
	y, m, d := t.Date()
	h, min, sec := t.Clock()

	newY := y + years
	newM := time.Month(int(m) + months)

	for newM > 12 {
		newM -= 12
		newY++
	}
	for newM < 1 {
		newM += 12
		newY--
	}

	lastDay := DaysInMonth(newY, newM)
	if d > lastDay {
		d = lastDay
	}

	out := time.Date(newY, newM, d, h, min, sec, t.Nanosecond(), t.Location())
	if days != 0 {
		out = out.AddDate(0, 0, days)
	}
	return out
}

// DaysInMonth returns the number of calendar days of the given month
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// StartOfDay truncates t to midnight in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// CalendarDaysBetween returns the number of calendar days from start to end.
// Both values are truncated to midnight in their own location so DST
// transitions do not lose or gain a day.
func CalendarDaysBetween(start, end time.Time) int {
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	s := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	e := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours() / 24)
}
