package proration

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProrationParams holds the input for pricing one lease over one billing period.
type ProrationParams struct {
	LeaseID  string
	Amount   decimal.Decimal // Flat amount for a full period
	Currency string

	PeriodStart time.Time // Start of the billing period (inclusive)
	PeriodEnd   time.Time // End of the billing period (exclusive)

	ActiveFrom  time.Time  // First day the lease is occupied
	ActiveUntil *time.Time // Last day the lease is occupied, nil while open ended

	Location *time.Location // Day boundaries are evaluated in this zone
}

// ProrationResult holds the priced amount and how it was derived.
type ProrationResult struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	CoveredDays int             `json:"covered_days"`
	TotalDays   int             `json:"total_days"`
	IsProrated  bool            `json:"is_prorated"`
}
