package testutil

import (
	"context"
	"time"

	"github.com/flexprice/leasebill/internal/domain/landlord"
	ierr "github.com/flexprice/leasebill/internal/errors"
)

// InMemoryLandlordStore implements landlord.Repository.
// It reads the lease store to know which landlords own a lease.
type InMemoryLandlordStore struct {
	*InMemoryStore[*landlord.Landlord]
	leases *InMemoryLeaseStore
}

// NewInMemoryLandlordStore creates a new in-memory landlord store
func NewInMemoryLandlordStore(leases *InMemoryLeaseStore) *InMemoryLandlordStore {
	return &InMemoryLandlordStore{
		InMemoryStore: NewInMemoryStore[*landlord.Landlord](),
		leases:        leases,
	}
}

func copyLandlord(l *landlord.Landlord) *landlord.Landlord {
	if l == nil {
		return nil
	}
	c := *l
	if l.WelcomeSentAt != nil {
		at := *l.WelcomeSentAt
		c.WelcomeSentAt = &at
	}
	return &c
}

func (s *InMemoryLandlordStore) Create(ctx context.Context, l *landlord.Landlord) error {
	if l == nil {
		return ierr.NewError("landlord cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, l.ID, copyLandlord(l))
}

func (s *InMemoryLandlordStore) Get(ctx context.Context, id string) (*landlord.Landlord, error) {
	l, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copyLandlord(l), nil
}

func (s *InMemoryLandlordStore) ListPendingWelcome(ctx context.Context, tenantID string, limit int) ([]*landlord.Landlord, error) {
	owners := make(map[string]bool)
	leases, err := s.leases.List(ctx, nil, nil, nil)
	if err != nil {
		return nil, err
	}
	for _, l := range leases {
		owners[l.LandlordID] = true
	}

	items, err := s.List(ctx, nil, func(ctx context.Context, l *landlord.Landlord, _ interface{}) bool {
		if tenantID != "" && l.TenantID != tenantID {
			return false
		}
		return l.WelcomeSentAt == nil && owners[l.ID]
	}, func(i, j *landlord.Landlord) bool {
		return i.ID < j.ID
	})
	if err != nil {
		return nil, err
	}

	out := page(items, func(l *landlord.Landlord) string { return l.ID }, "", limit)
	for i := range out {
		out[i] = copyLandlord(out[i])
	}
	return out, nil
}

func (s *InMemoryLandlordStore) ClaimWelcome(ctx context.Context, id string, at time.Time) (bool, error) {
	claimed := false
	err := s.Mutate(ctx, id, func(l *landlord.Landlord) (*landlord.Landlord, error) {
		if l.WelcomeSentAt != nil {
			return l, nil
		}
		c := copyLandlord(l)
		c.WelcomeSentAt = &at
		claimed = true
		return c, nil
	})
	return claimed, err
}
