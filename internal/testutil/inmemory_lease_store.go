package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/flexprice/leasebill/internal/domain/lease"
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/types"
)

// InMemoryLeaseStore implements lease.Repository
type InMemoryLeaseStore struct {
	*InMemoryStore[*lease.Lease]

	hookMu sync.Mutex
	// beforeAdvance runs before the version check of AdvanceBillingDate,
	// tests use it to simulate a concurrent writer
	beforeAdvance func(ctx context.Context, id string, attempt int)
	advanceCalls  map[string]int
	listErr       error
}

// NewInMemoryLeaseStore creates a new in-memory lease store
func NewInMemoryLeaseStore() *InMemoryLeaseStore {
	return &InMemoryLeaseStore{
		InMemoryStore: NewInMemoryStore[*lease.Lease](),
		advanceCalls:  make(map[string]int),
	}
}

func copyLease(l *lease.Lease) *lease.Lease {
	if l == nil {
		return nil
	}
	c := *l
	if l.EndDate != nil {
		end := *l.EndDate
		c.EndDate = &end
	}
	return &c
}

func (s *InMemoryLeaseStore) Create(ctx context.Context, l *lease.Lease) error {
	if l == nil {
		return ierr.NewError("lease cannot be nil").
			Mark(ierr.ErrValidation)
	}
	c := copyLease(l)
	if c.Version == 0 {
		c.Version = 1
	}
	l.Version = c.Version
	return s.InMemoryStore.Create(ctx, c.ID, c)
}

func (s *InMemoryLeaseStore) Get(ctx context.Context, id string) (*lease.Lease, error) {
	l, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copyLease(l), nil
}

func (s *InMemoryLeaseStore) ListDue(ctx context.Context, filter *types.DueLeaseFilter) ([]*lease.Lease, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if err := s.takeListErr(); err != nil {
		return nil, err
	}

	items, err := s.List(ctx, filter, dueLeaseFilterFn, func(i, j *lease.Lease) bool {
		return i.ID < j.ID
	})
	if err != nil {
		return nil, err
	}

	out := page(items, func(l *lease.Lease) string { return l.ID }, filter.AfterID, filter.Limit)
	for i := range out {
		out[i] = copyLease(out[i])
	}
	return out, nil
}

func dueLeaseFilterFn(ctx context.Context, l *lease.Lease, filter interface{}) bool {
	f, ok := filter.(*types.DueLeaseFilter)
	if !ok {
		return false
	}
	if f.TenantID != "" && l.TenantID != f.TenantID {
		return false
	}
	return l.IsDue(f.CycleDate)
}

func (s *InMemoryLeaseStore) AdvanceBillingDate(ctx context.Context, id string, expectedVersion int, next time.Time) error {
	s.hookMu.Lock()
	s.advanceCalls[id]++
	attempt := s.advanceCalls[id]
	hook := s.beforeAdvance
	s.hookMu.Unlock()

	if hook != nil {
		hook(ctx, id, attempt)
	}

	return s.Mutate(ctx, id, func(l *lease.Lease) (*lease.Lease, error) {
		if l.Version != expectedVersion {
			return nil, ierr.NewError("lease was modified concurrently").
				WithReportableDetails(map[string]any{
					"lease_id":         id,
					"expected_version": expectedVersion,
					"version":          l.Version,
				}).
				Mark(ierr.ErrVersionConflict)
		}
		c := copyLease(l)
		c.NextBillingDate = next
		c.Version++
		c.UpdatedAt = time.Now().UTC()
		return c, nil
	})
}

// SetBeforeAdvance installs a hook called on every AdvanceBillingDate with the
// 1 based call count for the lease
func (s *InMemoryLeaseStore) SetBeforeAdvance(fn func(ctx context.Context, id string, attempt int)) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.beforeAdvance = fn
}

// AdvanceCalls returns how often AdvanceBillingDate was called for a lease
func (s *InMemoryLeaseStore) AdvanceCalls(id string) int {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	return s.advanceCalls[id]
}

// FailNextList makes the next ListDue call return err
func (s *InMemoryLeaseStore) FailNextList(err error) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.listErr = err
}

func (s *InMemoryLeaseStore) takeListErr() error {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	err := s.listErr
	s.listErr = nil
	return err
}

// Touch bumps the version of a lease the way an unrelated update would
func (s *InMemoryLeaseStore) Touch(ctx context.Context, id string) error {
	return s.Mutate(ctx, id, func(l *lease.Lease) (*lease.Lease, error) {
		c := copyLease(l)
		c.Version++
		return c, nil
	})
}

// Clear removes all leases and hooks
func (s *InMemoryLeaseStore) Clear() {
	s.InMemoryStore.Clear()
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.beforeAdvance = nil
	s.advanceCalls = make(map[string]int)
	s.listErr = nil
}
