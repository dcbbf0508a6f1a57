package invoice

import (
	"time"

	"github.com/flexprice/leasebill/internal/types"
	"github.com/shopspring/decimal"
)

// Invoice is the durable record of a lease invoice created at the payment provider.
// At most one exists per (lease, cycle), enforced by the unique IdempotencyKey.
type Invoice struct {
	ID       string `db:"id" json:"id"`
	TenantID string `db:"tenant_id" json:"tenant_id"`

	LeaseID    string `db:"lease_id" json:"lease_id"`
	LandlordID string `db:"landlord_id" json:"landlord_id"`

	// CycleID is the billing cycle ex 2024-03
	CycleID string `db:"cycle_id" json:"cycle_id"`

	IdempotencyKey    string `db:"idempotency_key" json:"idempotency_key"`
	ProviderInvoiceID string `db:"provider_invoice_id" json:"provider_invoice_id"`

	Amount   decimal.Decimal     `db:"amount" json:"amount"`
	Currency string              `db:"currency" json:"currency"`
	Status   types.InvoiceStatus `db:"status" json:"status"`

	DueDate     time.Time `db:"due_date" json:"due_date"`
	PeriodStart time.Time `db:"period_start" json:"period_start"`
	PeriodEnd   time.Time `db:"period_end" json:"period_end"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsOverdue reports whether a pending invoice is past its due date as of asOf
func (i *Invoice) IsOverdue(asOf time.Time) bool {
	return i.Status == types.InvoiceStatusPending && i.DueDate.Before(asOf)
}
