package lease

import (
	"context"
	"time"

	"github.com/flexprice/leasebill/internal/types"
)

// Repository defines the interface for lease persistence operations
type Repository interface {
	// Create creates a new lease
	Create(ctx context.Context, lease *Lease) error

	// Get retrieves a lease by ID
	Get(ctx context.Context, id string) (*Lease, error)

	// ListDue returns one page of active leases with next_billing_date <= filter.CycleDate,
	// ordered by id and starting after filter.AfterID. It has no side effects.
	ListDue(ctx context.Context, filter *types.DueLeaseFilter) ([]*Lease, error)

	// AdvanceBillingDate moves the lease's next billing date to next if the
	// stored version still equals expectedVersion. A stale version returns an
	// error marked ierr.ErrVersionConflict.
	AdvanceBillingDate(ctx context.Context, id string, expectedVersion int, next time.Time) error
}
