package invoice

import (
	"context"

	"github.com/flexprice/leasebill/internal/types"
)

// Repository defines the interface for invoice persistence operations
type Repository interface {
	// Create records a new invoice. A record with the same idempotency key
	// returns an error marked ierr.ErrAlreadyExists.
	Create(ctx context.Context, invoice *Invoice) error

	// Get retrieves an invoice by ID
	Get(ctx context.Context, id string) (*Invoice, error)

	// GetByIdempotencyKey retrieves the invoice recorded for a lease invoice key
	GetByIdempotencyKey(ctx context.Context, key string) (*Invoice, error)

	// ListOverdue returns one page of pending invoices due before filter.AsOf, ordered by id
	ListOverdue(ctx context.Context, filter *types.OverdueInvoiceFilter) ([]*Invoice, error)

	// UpdateStatus moves an invoice from one status to another.
	// Returns ierr.ErrVersionConflict if the invoice is no longer in status from.
	UpdateStatus(ctx context.Context, id string, from, to types.InvoiceStatus) error
}
