package types

import (
	"time"

	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/samber/lo"
)

// InvoiceStatus represents the current state of a lease invoice
type InvoiceStatus string

const (
	// InvoiceStatusPending indicates the invoice was issued and awaits payment
	InvoiceStatusPending InvoiceStatus = "pending"
	// InvoiceStatusPaid indicates the invoice was settled
	InvoiceStatusPaid InvoiceStatus = "paid"
	// InvoiceStatusOverdue indicates the due date passed and the landlord was reminded
	InvoiceStatusOverdue InvoiceStatus = "overdue"
	// InvoiceStatusVoid indicates the invoice is no longer valid for payment
	InvoiceStatusVoid InvoiceStatus = "void"
)

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Validate() error {
	allowed := []InvoiceStatus{
		InvoiceStatusPending,
		InvoiceStatusPaid,
		InvoiceStatusOverdue,
		InvoiceStatusVoid,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid invoice status").
			WithHint("Please provide a valid invoice status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// OverdueInvoiceFilter selects pending invoices whose due date is before AsOf
type OverdueInvoiceFilter struct {
	AsOf     time.Time
	TenantID string
	AfterID  string
	Limit    int
}
