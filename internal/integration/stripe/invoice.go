package stripe

import (
	"context"
	"strings"

	"github.com/flexprice/leasebill/internal/config"
	"github.com/flexprice/leasebill/internal/domain/payment"
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/idempotency"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/flexprice/leasebill/internal/types"
	"github.com/stripe/stripe-go/v82"
	"golang.org/x/time/rate"
)

const (
	idempotentReplayedHeader = "Idempotent-Replayed"

	// metadataIdempotencyKey holds the lease invoice key on every Stripe object
	metadataIdempotencyKey = "idempotency_key"
)

// InvoiceProvider issues lease invoices through Stripe.
// One lease charge is three calls (draft invoice, invoice item, finalize),
// each with its own key derived from the lease invoice key so a retried
// charge replays every step instead of creating new objects. Stripe forgets
// request keys after 24 hours, so the lease invoice key is also stored in the
// invoice metadata and searched before a new draft is created.
type InvoiceProvider struct {
	api     invoiceAPI
	limiter *rate.Limiter
	idem    *idempotency.Generator
	logger  *logger.Logger
}

// NewInvoiceProvider creates the Stripe provider from configuration.
// A missing secret key is a configuration error.
func NewInvoiceProvider(cfg *config.Configuration, logger *logger.Logger) (payment.Provider, error) {
	if err := cfg.ValidateProvider(); err != nil {
		return nil, err
	}
	return newInvoiceProvider(newSDKClient(cfg.Stripe.SecretKey), cfg.Stripe, logger), nil
}

func newInvoiceProvider(api invoiceAPI, cfg config.StripeConfig, logger *logger.Logger) *InvoiceProvider {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &InvoiceProvider{
		api:     api,
		limiter: rate.NewLimiter(limit, burst),
		idem:    idempotency.NewGenerator(),
		logger:  logger,
	}
}

func (p *InvoiceProvider) CreateInvoice(ctx context.Context, req *payment.CreateInvoiceRequest) (*payment.CreateInvoiceResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	details := map[string]any{
		"idempotency_key": req.IdempotencyKey,
		"payee_id":        req.PayeeID,
	}

	inv, err := p.findInvoice(ctx, req.IdempotencyKey, details)
	if err != nil {
		return nil, err
	}
	found := inv != nil
	if !found {
		inv, err = p.createDraft(ctx, req, details)
		if err != nil {
			return nil, err
		}
	}
	replayed := found || isReplayed(inv.LastResponse)
	details["stripe_invoice_id"] = inv.ID

	// an invoice from an earlier run may already be finalized
	if replayed && inv.Status != stripe.InvoiceStatusDraft {
		p.logger.Infow("stripe invoice already issued for key",
			"idempotency_key", req.IdempotencyKey,
			"stripe_invoice_id", inv.ID,
			"status", inv.Status)
		return &payment.CreateInvoiceResult{ProviderInvoiceID: inv.ID, AlreadyExists: true}, nil
	}

	// a draft found by search is only missing its item when it has no lines
	if !found || !hasLines(inv) {
		if err := p.addLeaseItem(ctx, req, inv.ID, details); err != nil {
			return nil, err
		}
	}

	// finalize so the invoice is issued to the payee
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, classifyError(err, details)
	}

	finalizeParams := &stripe.InvoiceFinalizeInvoiceParams{
		AutoAdvance: stripe.Bool(true),
	}
	finalizeParams.SetIdempotencyKey(p.idem.DeriveKey(idempotency.ScopeProviderFinalize, req.IdempotencyKey))

	finalized, err := p.api.FinalizeInvoice(ctx, inv.ID, finalizeParams)
	if err != nil {
		p.logger.Warnw("failed to finalize Stripe invoice",
			"error", err,
			"stripe_invoice_id", inv.ID)
		return nil, classifyError(err, details)
	}

	p.logger.Debugw("issued stripe invoice",
		"idempotency_key", req.IdempotencyKey,
		"stripe_invoice_id", finalized.ID,
		"replayed", replayed)

	return &payment.CreateInvoiceResult{
		ProviderInvoiceID: finalized.ID,
		AlreadyExists:     replayed,
	}, nil
}

// findInvoice looks up an invoice issued for the lease invoice key by an
// earlier run, nil when there is none
func (p *InvoiceProvider) findInvoice(ctx context.Context, key string, details map[string]any) (*stripe.Invoice, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, classifyError(err, details)
	}

	params := &stripe.InvoiceSearchParams{}
	params.Query = metadataQuery(metadataIdempotencyKey, key)
	params.Limit = stripe.Int64(1)

	inv, err := p.api.SearchInvoice(ctx, params)
	if err != nil {
		p.logger.Warnw("failed to search Stripe invoices",
			"error", err,
			"idempotency_key", key)
		return nil, classifyError(err, details)
	}
	return inv, nil
}

func (p *InvoiceProvider) createDraft(ctx context.Context, req *payment.CreateInvoiceRequest, details map[string]any) (*stripe.Invoice, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, classifyError(err, details)
	}

	params := &stripe.InvoiceCreateParams{
		Customer:                    stripe.String(req.PayeeID),
		Currency:                    stripe.String(strings.ToLower(req.Currency)),
		AutoAdvance:                 stripe.Bool(false),
		CollectionMethod:            stripe.String(string(stripe.InvoiceCollectionMethodSendInvoice)),
		Description:                 stripe.String(req.Description),
		PendingInvoiceItemsBehavior: stripe.String("exclude"),
		Metadata:                    invoiceMetadata(req),
	}
	if !req.DueDate.IsZero() {
		params.DueDate = stripe.Int64(req.DueDate.Unix())
	}
	params.SetIdempotencyKey(p.idem.DeriveKey(idempotency.ScopeProviderInvoice, req.IdempotencyKey))

	inv, err := p.api.CreateInvoice(ctx, params)
	if err != nil {
		p.logger.Warnw("failed to create draft invoice in Stripe",
			"error", err,
			"idempotency_key", req.IdempotencyKey)
		return nil, classifyError(err, details)
	}
	return inv, nil
}

// addLeaseItem adds the lease amount to a draft invoice
func (p *InvoiceProvider) addLeaseItem(ctx context.Context, req *payment.CreateInvoiceRequest, invoiceID string, details map[string]any) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return classifyError(err, details)
	}

	params := &stripe.InvoiceItemCreateParams{
		Customer:    stripe.String(req.PayeeID),
		Invoice:     stripe.String(invoiceID),
		Currency:    stripe.String(strings.ToLower(req.Currency)),
		Amount:      stripe.Int64(toMinorUnits(req)),
		Description: stripe.String(req.Description),
		Metadata:    invoiceMetadata(req),
	}
	params.SetIdempotencyKey(p.idem.DeriveKey(idempotency.ScopeProviderInvoiceItem, req.IdempotencyKey))

	if _, err := p.api.CreateInvoiceItem(ctx, params); err != nil {
		p.logger.Warnw("failed to add lease item to Stripe invoice",
			"error", err,
			"stripe_invoice_id", invoiceID)
		return classifyError(err, details)
	}
	return nil
}

func validateRequest(req *payment.CreateInvoiceRequest) error {
	switch {
	case req.IdempotencyKey == "":
		return ierr.NewError("idempotency key is required").
			Mark(ierr.ErrPermanentProvider)
	case req.PayeeID == "":
		return ierr.NewError("unknown payee").
			WithHint("Lease has no payment provider customer").
			WithReportableDetails(map[string]any{"idempotency_key": req.IdempotencyKey}).
			Mark(ierr.ErrPermanentProvider)
	case !req.Amount.IsPositive():
		return ierr.NewError("invalid amount").
			WithHintf("Invoice amount must be positive, got %s", req.Amount).
			WithReportableDetails(map[string]any{"idempotency_key": req.IdempotencyKey}).
			Mark(ierr.ErrPermanentProvider)
	}
	return nil
}

func toMinorUnits(req *payment.CreateInvoiceRequest) int64 {
	return req.Amount.Shift(types.GetCurrencyPrecision(req.Currency)).Round(0).IntPart()
}

func isReplayed(resp *stripe.APIResponse) bool {
	return resp != nil && resp.Header.Get(idempotentReplayedHeader) == "true"
}

func invoiceMetadata(req *payment.CreateInvoiceRequest) map[string]string {
	out := make(map[string]string, len(req.Metadata)+2)
	for k, v := range req.Metadata {
		out[k] = v
	}
	out["sync_source"] = "leasebill"
	out[metadataIdempotencyKey] = req.IdempotencyKey
	return out
}

func metadataQuery(field, value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, "'", `\'`)
	return "metadata['" + field + "']:'" + value + "'"
}

func hasLines(inv *stripe.Invoice) bool {
	return inv.Lines != nil && len(inv.Lines.Data) > 0
}
