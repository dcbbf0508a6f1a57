package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/flexprice/leasebill/internal/domain/payment"
	ierr "github.com/flexprice/leasebill/internal/errors"
)

var _ payment.Provider = (*FakePaymentProvider)(nil)

// FakePaymentProvider behaves like an idempotent provider: the first successful
// request for a key creates inv_1, inv_2, ... and later ones replay it.
// Failures are scripted per lease id, read from the lease_id metadata.
type FakePaymentProvider struct {
	mu       sync.Mutex
	seq      int
	invoices map[string]string
	scripts  map[string][]error
	requests []*payment.CreateInvoiceRequest
}

func NewFakePaymentProvider() *FakePaymentProvider {
	return &FakePaymentProvider{
		invoices: make(map[string]string),
		scripts:  make(map[string][]error),
	}
}

// Script queues errors returned by the next calls for a lease, one per call.
// Once the queue is drained calls succeed.
func (p *FakePaymentProvider) Script(leaseID string, errs ...error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scripts[leaseID] = append(p.scripts[leaseID], errs...)
}

// FailAlways makes every call for a lease fail with err
func (p *FakePaymentProvider) FailAlways(leaseID string, err error) {
	p.Script(leaseID, repeat(err, 100)...)
}

// ClearScript drops the queued failures of a lease
func (p *FakePaymentProvider) ClearScript(leaseID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.scripts, leaseID)
}

// Seed records an invoice as if an earlier run created it at the provider
func (p *FakePaymentProvider) Seed(key, providerInvoiceID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invoices[key] = providerInvoiceID
}

func (p *FakePaymentProvider) CreateInvoice(ctx context.Context, req *payment.CreateInvoiceRequest) (*payment.CreateInvoiceResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrTransientProvider)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	c := *req
	p.requests = append(p.requests, &c)

	leaseID := req.Metadata["lease_id"]
	if queue := p.scripts[leaseID]; len(queue) > 0 {
		p.scripts[leaseID] = queue[1:]
		if queue[0] != nil {
			return nil, queue[0]
		}
	}

	if id, ok := p.invoices[req.IdempotencyKey]; ok {
		return &payment.CreateInvoiceResult{ProviderInvoiceID: id, AlreadyExists: true}, nil
	}

	p.seq++
	id := fmt.Sprintf("inv_%d", p.seq)
	p.invoices[req.IdempotencyKey] = id
	return &payment.CreateInvoiceResult{ProviderInvoiceID: id}, nil
}

// Calls returns the number of requests made for a lease
func (p *FakePaymentProvider) Calls(leaseID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, r := range p.requests {
		if r.Metadata["lease_id"] == leaseID {
			n++
		}
	}
	return n
}

// Requests returns a copy of every request received
func (p *FakePaymentProvider) Requests() []*payment.CreateInvoiceRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*payment.CreateInvoiceRequest(nil), p.requests...)
}

// Created returns the number of distinct invoices the provider holds
func (p *FakePaymentProvider) Created() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.invoices)
}

// TransientError is a retryable provider failure such as a timeout
func TransientError(msg string) error {
	return ierr.NewError(msg).
		WithHint("The payment provider did not answer in time").
		Mark(ierr.ErrTransientProvider)
}

// PermanentError is a rejected request such as a 400 invalid payee
func PermanentError(msg string) error {
	return ierr.NewError(msg).
		WithHint("The payment provider rejected the request").
		Mark(ierr.ErrPermanentProvider)
}

func repeat(err error, n int) []error {
	out := make([]error, n)
	for i := range out {
		out[i] = err
	}
	return out
}
