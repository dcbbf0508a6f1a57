package testutil

import (
	"context"

	"github.com/flexprice/leasebill/internal/domain/billingrun"
	ierr "github.com/flexprice/leasebill/internal/errors"
)

// InMemoryBillingRunStore implements billingrun.Repository
type InMemoryBillingRunStore struct {
	*InMemoryStore[*billingrun.Report]
}

func NewInMemoryBillingRunStore() *InMemoryBillingRunStore {
	return &InMemoryBillingRunStore{
		InMemoryStore: NewInMemoryStore[*billingrun.Report](),
	}
}

func (s *InMemoryBillingRunStore) Save(ctx context.Context, report *billingrun.Report) error {
	if report == nil {
		return ierr.NewError("report cannot be nil").
			Mark(ierr.ErrValidation)
	}
	c := *report
	return s.InMemoryStore.Create(ctx, report.ID, &c)
}

func (s *InMemoryBillingRunStore) GetLatest(ctx context.Context, tenantID string) (*billingrun.Report, error) {
	items, err := s.List(ctx, nil, func(ctx context.Context, r *billingrun.Report, _ interface{}) bool {
		return r.TenantID == tenantID
	}, func(i, j *billingrun.Report) bool {
		return i.StartedAt.After(j.StartedAt)
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ierr.NewError("no billing run recorded").
			WithHint("No billing run has completed for this scope yet").
			Mark(ierr.ErrNotFound)
	}
	c := *items[0]
	return &c, nil
}
