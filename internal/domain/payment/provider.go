package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest is a single lease charge sent to the payment provider
type CreateInvoiceRequest struct {
	// IdempotencyKey makes repeated requests for the same charge return the first result
	IdempotencyKey string
	Amount         decimal.Decimal
	Currency       string
	// PayeeID is the provider side customer identifier
	PayeeID     string
	Description string
	DueDate     time.Time
	Metadata    map[string]string
}

// CreateInvoiceResult is the provider's answer for a successful request
type CreateInvoiceResult struct {
	ProviderInvoiceID string
	// AlreadyExists is set when the provider replayed an earlier request with the same key
	AlreadyExists bool
}

// Provider creates invoices at the external payment provider.
// Errors are marked ierr.ErrTransientProvider when the request may be retried
// and ierr.ErrPermanentProvider when the provider rejected it.
type Provider interface {
	CreateInvoice(ctx context.Context, req *CreateInvoiceRequest) (*CreateInvoiceResult, error)
}
