package landlord

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, landlord *Landlord) error
	Get(ctx context.Context, id string) (*Landlord, error)

	// ListPendingWelcome returns landlords that own at least one lease and were never welcomed
	ListPendingWelcome(ctx context.Context, tenantID string, limit int) ([]*Landlord, error)

	// ClaimWelcome sets welcome_sent_at if it is still unset. It returns false
	// when another run already claimed it.
	ClaimWelcome(ctx context.Context, id string, at time.Time) (bool, error)
}
