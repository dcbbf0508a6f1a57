package proration

import (
	"context"
	"time"

	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/types"
	"github.com/shopspring/decimal"
)

// Calculator prices a lease for a billing period
type Calculator interface {
	Calculate(ctx context.Context, params ProrationParams) (*ProrationResult, error)
}

// NewCalculator creates a calculator for the configured proration policy.
func NewCalculator(policy types.ProrationPolicy) Calculator {
	switch policy {
	case types.ProrationPolicyDaily:
		return &dayBasedCalculator{}
	default:
		return &flatCalculator{}
	}
}

// flatCalculator always charges the full period amount
type flatCalculator struct{}

func (c *flatCalculator) Calculate(ctx context.Context, params ProrationParams) (*ProrationResult, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	totalDays := types.CalendarDaysBetween(
		types.StartOfDay(params.PeriodStart, location(params)),
		types.StartOfDay(params.PeriodEnd, location(params)),
	)

	return &ProrationResult{
		Amount:      roundToCurrency(params.Amount, params.Currency),
		Currency:    params.Currency,
		CoveredDays: totalDays,
		TotalDays:   totalDays,
	}, nil
}

// dayBasedCalculator charges (covered days / days in period) of the amount.
// A period fully covered by the lease is charged the flat amount.
type dayBasedCalculator struct{}

func (c *dayBasedCalculator) Calculate(ctx context.Context, params ProrationParams) (*ProrationResult, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	loc := location(params)
	periodStart := types.StartOfDay(params.PeriodStart, loc)
	periodEnd := types.StartOfDay(params.PeriodEnd, loc)

	totalDays := types.CalendarDaysBetween(periodStart, periodEnd)
	if totalDays <= 0 {
		return nil, ierr.NewError("invalid billing period").
			WithHintf("total days is zero or negative (%v to %v)", params.PeriodStart, params.PeriodEnd).
			Mark(ierr.ErrValidation)
	}

	coverStart := periodStart
	if !params.ActiveFrom.IsZero() {
		if from := types.StartOfDay(params.ActiveFrom, loc); from.After(coverStart) {
			coverStart = from
		}
	}

	coverEnd := periodEnd
	if params.ActiveUntil != nil {
		// the last occupied day is billed in full
		until := types.StartOfDay(*params.ActiveUntil, loc).AddDate(0, 0, 1)
		if until.Before(coverEnd) {
			coverEnd = until
		}
	}

	coveredDays := 0
	if coverEnd.After(coverStart) {
		coveredDays = types.CalendarDaysBetween(coverStart, coverEnd)
	}

	result := &ProrationResult{
		Currency:    params.Currency,
		CoveredDays: coveredDays,
		TotalDays:   totalDays,
	}

	if coveredDays >= totalDays {
		result.CoveredDays = totalDays
		result.Amount = roundToCurrency(params.Amount, params.Currency)
		return result, nil
	}

	// multiply before dividing to keep the division precision for the final digit
	prorated := params.Amount.
		Mul(decimal.NewFromInt(int64(coveredDays))).
		Div(decimal.NewFromInt(int64(totalDays)))

	result.Amount = roundToCurrency(prorated, params.Currency)
	result.IsProrated = true
	return result, nil
}

func validateParams(params ProrationParams) error {
	if params.Amount.IsNegative() {
		return ierr.NewError("amount must not be negative").
			WithHintf("Lease %s has a negative amount due", params.LeaseID).
			Mark(ierr.ErrValidation)
	}
	if !types.IsValidCurrency(params.Currency) {
		return ierr.NewError("invalid currency").
			WithHintf("Lease %s has an invalid currency %q", params.LeaseID, params.Currency).
			Mark(ierr.ErrValidation)
	}
	if !params.PeriodEnd.After(params.PeriodStart) {
		return ierr.NewError("period end must be after period start").
			WithReportableDetails(map[string]any{
				"lease_id":     params.LeaseID,
				"period_start": params.PeriodStart,
				"period_end":   params.PeriodEnd,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

func location(params ProrationParams) *time.Location {
	if params.Location == nil {
		return time.UTC
	}
	return params.Location
}

// roundToCurrency rounds half up to the currency's minor unit.
// decimal.Round rounds half away from zero which is half up for charges.
func roundToCurrency(amount decimal.Decimal, currency string) decimal.Decimal {
	return amount.Round(types.GetCurrencyPrecision(currency))
}
