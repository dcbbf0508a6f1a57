package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/flexprice/leasebill/internal/domain/invoice"
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/types"
)

// InMemoryInvoiceStore implements invoice.Repository
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]

	// keys enforces the unique idempotency key
	keyMu sync.Mutex
	keys  map[string]string

	// createErrs are returned by the next Create calls, one per call
	createErrs []error
}

// NewInMemoryInvoiceStore creates a new in-memory invoice store
func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[*invoice.Invoice](),
		keys:          make(map[string]string),
	}
}

func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	if inv == nil {
		return nil
	}
	c := *inv
	return &c
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	if inv == nil {
		return ierr.NewError("invoice cannot be nil").
			Mark(ierr.ErrValidation)
	}

	s.keyMu.Lock()
	defer s.keyMu.Unlock()

	if len(s.createErrs) > 0 {
		err := s.createErrs[0]
		s.createErrs = s.createErrs[1:]
		return err
	}

	if _, exists := s.keys[inv.IdempotencyKey]; exists {
		return ierr.NewError("invoice already recorded for idempotency key").
			WithReportableDetails(map[string]any{
				"idempotency_key": inv.IdempotencyKey,
			}).
			Mark(ierr.ErrAlreadyExists)
	}
	if err := s.InMemoryStore.Create(ctx, inv.ID, copyInvoice(inv)); err != nil {
		return err
	}
	s.keys[inv.IdempotencyKey] = inv.ID
	return nil
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copyInvoice(inv), nil
}

func (s *InMemoryInvoiceStore) GetByIdempotencyKey(ctx context.Context, key string) (*invoice.Invoice, error) {
	s.keyMu.Lock()
	id, ok := s.keys[key]
	s.keyMu.Unlock()
	if !ok {
		return nil, ierr.NewError("invoice not found").
			WithHintf("No invoice recorded for %s", key).
			Mark(ierr.ErrNotFound)
	}
	return s.Get(ctx, id)
}

func (s *InMemoryInvoiceStore) ListOverdue(ctx context.Context, filter *types.OverdueInvoiceFilter) ([]*invoice.Invoice, error) {
	items, err := s.List(ctx, filter, overdueInvoiceFilterFn, func(i, j *invoice.Invoice) bool {
		return i.ID < j.ID
	})
	if err != nil {
		return nil, err
	}

	out := page(items, func(inv *invoice.Invoice) string { return inv.ID }, filter.AfterID, filter.Limit)
	for i := range out {
		out[i] = copyInvoice(out[i])
	}
	return out, nil
}

func overdueInvoiceFilterFn(ctx context.Context, inv *invoice.Invoice, filter interface{}) bool {
	f, ok := filter.(*types.OverdueInvoiceFilter)
	if !ok {
		return false
	}
	if f.TenantID != "" && inv.TenantID != f.TenantID {
		return false
	}
	return inv.IsOverdue(f.AsOf)
}

func (s *InMemoryInvoiceStore) UpdateStatus(ctx context.Context, id string, from, to types.InvoiceStatus) error {
	return s.Mutate(ctx, id, func(inv *invoice.Invoice) (*invoice.Invoice, error) {
		if inv.Status != from {
			return nil, ierr.NewErrorf("invoice is %s, not %s", inv.Status, from).
				Mark(ierr.ErrVersionConflict)
		}
		c := copyInvoice(inv)
		c.Status = to
		c.UpdatedAt = time.Now().UTC()
		return c, nil
	})
}

// FailCreate queues errors returned by the next Create calls
func (s *InMemoryInvoiceStore) FailCreate(errs ...error) {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	s.createErrs = append(s.createErrs, errs...)
}

// All returns every recorded invoice
func (s *InMemoryInvoiceStore) All(ctx context.Context) []*invoice.Invoice {
	items, _ := s.List(ctx, nil, nil, func(i, j *invoice.Invoice) bool { return i.ID < j.ID })
	return items
}

// Clear removes all invoices
func (s *InMemoryInvoiceStore) Clear() {
	s.InMemoryStore.Clear()
	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	s.keys = make(map[string]string)
	s.createErrs = nil
}
