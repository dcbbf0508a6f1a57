package stripe

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/flexprice/leasebill/internal/config"
	"github.com/flexprice/leasebill/internal/domain/payment"
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/stripe/stripe-go/v82"
)

type fakeInvoiceAPI struct {
	invoice      *stripe.Invoice
	found        *stripe.Invoice
	createErr    error
	itemErr      error
	finalizeErr  error
	searchErr    error
	keys         []string
	queries      []string
	drafts       []*stripe.InvoiceCreateParams
	itemAmounts  []int64
	finalizedIDs []string

	// searchable keeps created invoices by metadata query, like Stripe search
	// does long after request keys have expired
	searchable map[string]*stripe.Invoice
}

func (f *fakeInvoiceAPI) CreateInvoice(ctx context.Context, params *stripe.InvoiceCreateParams) (*stripe.Invoice, error) {
	f.keys = append(f.keys, lo.FromPtr(params.IdempotencyKey))
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.drafts = append(f.drafts, params)
	if f.searchable != nil {
		f.searchable[metadataQuery(metadataIdempotencyKey, params.Metadata[metadataIdempotencyKey])] = f.invoice
	}
	return f.invoice, nil
}

func (f *fakeInvoiceAPI) SearchInvoice(ctx context.Context, params *stripe.InvoiceSearchParams) (*stripe.Invoice, error) {
	f.queries = append(f.queries, params.Query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if inv, ok := f.searchable[params.Query]; ok {
		return inv, nil
	}
	return f.found, nil
}

func (f *fakeInvoiceAPI) CreateInvoiceItem(ctx context.Context, params *stripe.InvoiceItemCreateParams) (*stripe.InvoiceItem, error) {
	f.keys = append(f.keys, lo.FromPtr(params.IdempotencyKey))
	if f.itemErr != nil {
		return nil, f.itemErr
	}
	f.itemAmounts = append(f.itemAmounts, lo.FromPtr(params.Amount))
	return &stripe.InvoiceItem{ID: "ii_1"}, nil
}

func (f *fakeInvoiceAPI) FinalizeInvoice(ctx context.Context, id string, params *stripe.InvoiceFinalizeInvoiceParams) (*stripe.Invoice, error) {
	f.keys = append(f.keys, lo.FromPtr(params.IdempotencyKey))
	if f.finalizeErr != nil {
		return nil, f.finalizeErr
	}
	f.finalizedIDs = append(f.finalizedIDs, id)
	finalized := &stripe.Invoice{ID: id, Status: stripe.InvoiceStatusOpen}
	for q, inv := range f.searchable {
		if inv.ID == id {
			f.searchable[q] = finalized
		}
	}
	return finalized, nil
}

type InvoiceProviderSuite struct {
	suite.Suite
	ctx      context.Context
	api      *fakeInvoiceAPI
	provider *InvoiceProvider
	request  *payment.CreateInvoiceRequest
}

func TestInvoiceProvider(t *testing.T) {
	suite.Run(t, new(InvoiceProviderSuite))
}

func (s *InvoiceProviderSuite) SetupTest() {
	s.ctx = context.Background()
	s.api = &fakeInvoiceAPI{
		invoice: draftInvoice("in_1", false),
	}
	s.provider = newInvoiceProvider(s.api, config.StripeConfig{}, logger.NewNoopLogger())
	s.request = &payment.CreateInvoiceRequest{
		IdempotencyKey: "lease:lease_1:2024-03",
		Amount:         decimal.RequireFromString("1500.00"),
		Currency:       "usd",
		PayeeID:        "cus_1",
		Description:    "Rent 2024-03",
		DueDate:        time.Date(2024, time.March, 8, 0, 0, 0, 0, time.UTC),
	}
}

func draftInvoice(id string, replayed bool) *stripe.Invoice {
	inv := &stripe.Invoice{ID: id, Status: stripe.InvoiceStatusDraft}
	inv.LastResponse = &stripe.APIResponse{Header: http.Header{}}
	if replayed {
		inv.LastResponse.Header.Set(idempotentReplayedHeader, "true")
	}
	return inv
}

func (s *InvoiceProviderSuite) TestCreateInvoice_Created() {
	result, err := s.provider.CreateInvoice(s.ctx, s.request)
	s.Require().NoError(err)
	s.Equal("in_1", result.ProviderInvoiceID)
	s.False(result.AlreadyExists)

	s.Equal([]int64{150000}, s.api.itemAmounts)
	s.Equal([]string{"in_1"}, s.api.finalizedIDs)

	// every step carries its own key derived from the lease invoice key
	s.Len(s.api.keys, 3)
	s.Len(lo.Uniq(s.api.keys), 3)
	for _, k := range s.api.keys {
		s.NotEmpty(k)
	}

	s.Equal([]string{"metadata['idempotency_key']:'lease:lease_1:2024-03'"}, s.api.queries)
	s.Require().Len(s.api.drafts, 1)
	s.Equal("lease:lease_1:2024-03", s.api.drafts[0].Metadata["idempotency_key"])
	s.Equal("leasebill", s.api.drafts[0].Metadata["sync_source"])
}

func (s *InvoiceProviderSuite) TestCreateInvoice_FoundAfterRequestKeysExpired() {
	s.api.searchable = make(map[string]*stripe.Invoice)

	first, err := s.provider.CreateInvoice(s.ctx, s.request)
	s.Require().NoError(err)
	s.False(first.AlreadyExists)

	// a day later the request keys are gone and a new draft would be created
	s.api.keys = nil
	s.api.invoice = draftInvoice("in_2", false)

	second, err := s.provider.CreateInvoice(s.ctx, s.request)
	s.Require().NoError(err)
	s.True(second.AlreadyExists)
	s.Equal("in_1", second.ProviderInvoiceID)
	s.Empty(s.api.keys)
	s.Len(s.api.drafts, 1)
	s.Equal([]string{"in_1"}, s.api.finalizedIDs)
}

func (s *InvoiceProviderSuite) TestCreateInvoice_FoundDraftIsCompleted() {
	tests := []struct {
		name      string
		lines     bool
		wantItems int
	}{
		{name: "item_already_added", lines: true, wantItems: 0},
		{name: "item_missing", lines: false, wantItems: 1},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			found := &stripe.Invoice{ID: "in_0", Status: stripe.InvoiceStatusDraft}
			if tt.lines {
				found.Lines = &stripe.InvoiceLineItemList{Data: []*stripe.InvoiceLineItem{{ID: "il_1"}}}
			}
			s.api.found = found

			result, err := s.provider.CreateInvoice(s.ctx, s.request)
			s.Require().NoError(err)
			s.True(result.AlreadyExists)
			s.Equal("in_0", result.ProviderInvoiceID)
			s.Empty(s.api.drafts)
			s.Len(s.api.itemAmounts, tt.wantItems)
			s.Equal([]string{"in_0"}, s.api.finalizedIDs)
		})
	}
}

func (s *InvoiceProviderSuite) TestCreateInvoice_KeysAreStableAcrossCalls() {
	_, err := s.provider.CreateInvoice(s.ctx, s.request)
	s.Require().NoError(err)
	first := append([]string(nil), s.api.keys...)

	s.api.keys = nil
	_, err = s.provider.CreateInvoice(s.ctx, s.request)
	s.Require().NoError(err)
	s.Equal(first, s.api.keys)
}

func (s *InvoiceProviderSuite) TestCreateInvoice_ReplayedFinalizedInvoice() {
	inv := draftInvoice("in_1", true)
	inv.Status = stripe.InvoiceStatusOpen
	s.api.invoice = inv

	result, err := s.provider.CreateInvoice(s.ctx, s.request)
	s.Require().NoError(err)
	s.True(result.AlreadyExists)
	s.Equal("in_1", result.ProviderInvoiceID)
	s.Empty(s.api.itemAmounts)
	s.Empty(s.api.finalizedIDs)
}

func (s *InvoiceProviderSuite) TestCreateInvoice_ReplayedDraftIsCompleted() {
	s.api.invoice = draftInvoice("in_1", true)

	result, err := s.provider.CreateInvoice(s.ctx, s.request)
	s.Require().NoError(err)
	s.True(result.AlreadyExists)
	s.Equal([]string{"in_1"}, s.api.finalizedIDs)
}

func (s *InvoiceProviderSuite) TestCreateInvoice_ErrorClassification() {
	tests := []struct {
		name      string
		setup     func(api *fakeInvoiceAPI)
		transient bool
	}{
		{
			name:      "rate_limited",
			setup:     func(api *fakeInvoiceAPI) { api.createErr = &stripe.Error{HTTPStatusCode: 429, Msg: "slow down"} },
			transient: true,
		},
		{
			name:      "server_error_on_item",
			setup:     func(api *fakeInvoiceAPI) { api.itemErr = &stripe.Error{HTTPStatusCode: 502} },
			transient: true,
		},
		{
			name:      "search_unavailable",
			setup:     func(api *fakeInvoiceAPI) { api.searchErr = &stripe.Error{HTTPStatusCode: 503} },
			transient: true,
		},
		{
			name:      "timeout",
			setup:     func(api *fakeInvoiceAPI) { api.createErr = context.DeadlineExceeded },
			transient: true,
		},
		{
			name:      "unknown_error",
			setup:     func(api *fakeInvoiceAPI) { api.finalizeErr = errors.New("connection reset") },
			transient: true,
		},
		{
			name: "bad_request",
			setup: func(api *fakeInvoiceAPI) {
				api.createErr = &stripe.Error{HTTPStatusCode: 400, Msg: "No such customer", Type: stripe.ErrorTypeInvalidRequest}
			},
		},
		{
			name:  "card_declined_on_finalize",
			setup: func(api *fakeInvoiceAPI) { api.finalizeErr = &stripe.Error{HTTPStatusCode: 402, Type: stripe.ErrorTypeCard} },
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			tt.setup(s.api)

			_, err := s.provider.CreateInvoice(s.ctx, s.request)
			s.Require().Error(err)
			s.Equal(tt.transient, ierr.IsTransientProvider(err))
			s.Equal(!tt.transient, ierr.IsPermanentProvider(err))
		})
	}
}

func (s *InvoiceProviderSuite) TestCreateInvoice_InvalidRequest() {
	tests := []struct {
		name   string
		mutate func(r *payment.CreateInvoiceRequest)
	}{
		{name: "unknown_payee", mutate: func(r *payment.CreateInvoiceRequest) { r.PayeeID = "" }},
		{name: "zero_amount", mutate: func(r *payment.CreateInvoiceRequest) { r.Amount = decimal.Zero }},
		{name: "missing_key", mutate: func(r *payment.CreateInvoiceRequest) { r.IdempotencyKey = "" }},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			tt.mutate(s.request)

			_, err := s.provider.CreateInvoice(s.ctx, s.request)
			s.Require().Error(err)
			s.True(ierr.IsPermanentProvider(err))
			s.Empty(s.api.keys)
		})
	}
}

func TestMetadataQuery(t *testing.T) {
	assert.Equal(t, "metadata['idempotency_key']:'lease:l1:2024-03-08'", metadataQuery("idempotency_key", "lease:l1:2024-03-08"))
	assert.Equal(t, `metadata['k']:'it\'s'`, metadataQuery("k", "it's"))
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     int64
	}{
		{"1500.00", "usd", 150000},
		{"19.995", "usd", 2000},
		{"1500", "jpy", 1500},
		{"1.234", "kwd", 1234},
	}
	for _, tt := range tests {
		t.Run(tt.amount+"_"+tt.currency, func(t *testing.T) {
			req := &payment.CreateInvoiceRequest{Amount: decimal.RequireFromString(tt.amount), Currency: tt.currency}
			assert.Equal(t, tt.want, toMinorUnits(req))
		})
	}
}

func TestNewInvoiceProvider_RequiresSecretKey(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Stripe.SecretKey = ""

	_, err := NewInvoiceProvider(cfg, logger.NewNoopLogger())
	require.Error(t, err)
	assert.True(t, ierr.IsConfiguration(err))
}
