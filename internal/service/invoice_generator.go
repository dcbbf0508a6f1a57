package service

import (
	"context"
	"fmt"
	"time"

	"github.com/flexprice/leasebill/internal/domain/billingrun"
	"github.com/flexprice/leasebill/internal/domain/invoice"
	"github.com/flexprice/leasebill/internal/domain/lease"
	"github.com/flexprice/leasebill/internal/domain/payment"
	"github.com/flexprice/leasebill/internal/domain/proration"
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/idempotency"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/flexprice/leasebill/internal/retry"
	"github.com/flexprice/leasebill/internal/types"
)

// InvoiceGenerator invoices a single due lease for the cycle its next billing
// date falls in and advances the lease to the following billing date.
type InvoiceGenerator interface {
	// Generate always returns an attempt in a terminal state
	Generate(ctx context.Context, l *lease.Lease, opts GenerateOptions) *billingrun.InvoiceAttempt
}

type GenerateOptions struct {
	// DryRun prices the lease without calling the provider or writing anything
	DryRun bool
}

type invoiceGenerator struct {
	ServiceParams
	idempGen *idempotency.Generator
	retrier  *retry.Retrier
}

func NewInvoiceGenerator(params ServiceParams) InvoiceGenerator {
	return &invoiceGenerator{
		ServiceParams: params,
		idempGen:      idempotency.NewGenerator(),
		retrier: retry.NewRetrier(
			retry.NewPolicy(params.Config.Billing),
			params.Sleeper,
			isRetryableProviderError,
		),
	}
}

// Anything not explicitly rejected by the provider is worth another try,
// including errors the adapter could not classify.
func isRetryableProviderError(err error) bool {
	return !ierr.IsPermanentProvider(err)
}

func (g *invoiceGenerator) Generate(ctx context.Context, l *lease.Lease, opts GenerateOptions) *billingrun.InvoiceAttempt {
	loc := g.Config.Billing.Location()
	cycle := types.NewBillingCycleForPeriod(l.TenantID, l.NextBillingDate, loc, l.Period())
	key := g.idempGen.LeaseInvoiceKey(l.ID, cycle)

	attempt := billingrun.NewInvoiceAttempt(l.ID, l.LandlordID, cycle, key)
	attempt.Currency = l.Currency

	ctx = types.SetLeaseID(ctx, l.ID)
	log := &logger.Logger{SugaredLogger: g.Logger.WithContext(ctx).With("cycle", cycle.ID())}

	if err := ctx.Err(); err != nil {
		g.deferAttempt(attempt, ierr.WithError(err).
			WithHint("Run deadline reached before the lease was started").
			Mark(ierr.ErrSystem))
		return attempt
	}

	// an invoice recorded by an earlier run only needs its billing date advanced
	existing, err := g.InvoiceRepo.GetByIdempotencyKey(ctx, key)
	if err == nil {
		log.Infow("invoice already recorded, finishing billing date advance",
			"invoice_id", existing.ID,
			"provider_invoice_id", existing.ProviderInvoiceID)
		attempt.Replayed = true
		attempt.InvoiceID = existing.ID
		attempt.Amount = existing.Amount
		if opts.DryRun {
			g.succeed(attempt)
			return attempt
		}
		g.finish(ctx, log, attempt, l)
		return attempt
	}
	if !ierr.IsNotFound(err) {
		g.deferAttempt(attempt, err)
		return attempt
	}

	periodEnd, err := l.FollowingBillingDate()
	if err != nil {
		g.fail(attempt, ierr.WithError(err).
			WithHint("Lease has an invalid billing period").
			Mark(ierr.ErrValidation))
		return attempt
	}

	priced, err := g.ProrationCalculator.Calculate(ctx, proration.ProrationParams{
		LeaseID:     l.ID,
		Amount:      l.AmountDue,
		Currency:    l.Currency,
		PeriodStart: l.NextBillingDate,
		PeriodEnd:   periodEnd,
		ActiveFrom:  l.StartDate,
		ActiveUntil: l.EndDate,
		Location:    loc,
	})
	if err != nil {
		g.fail(attempt, err)
		return attempt
	}
	attempt.Amount = priced.Amount

	if !priced.Amount.IsPositive() {
		g.fail(attempt, ierr.NewError("computed invoice amount is not positive").
			WithReportableDetails(map[string]any{
				"amount":       priced.Amount.String(),
				"covered_days": priced.CoveredDays,
			}).
			Mark(ierr.ErrValidation))
		return attempt
	}

	if opts.DryRun {
		log.Infow("dry run, lease priced", "amount", priced.Amount.String(), "prorated", priced.IsProrated)
		g.succeed(attempt)
		return attempt
	}

	dueDate := cycle.Start(loc).AddDate(0, 0, g.Config.Billing.DueDays)
	req := &payment.CreateInvoiceRequest{
		IdempotencyKey: key,
		Amount:         priced.Amount,
		Currency:       l.Currency,
		PayeeID:        l.ProviderCustomerID,
		Description:    fmt.Sprintf("Rent %s for lease %s", cycle.ID(), l.ID),
		DueDate:        dueDate,
		Metadata: map[string]string{
			"lease_id":    l.ID,
			"landlord_id": l.LandlordID,
			"property_id": l.PropertyID,
			"tenant_id":   l.TenantID,
			"cycle_id":    cycle.ID(),
		},
	}

	result, err := g.createAtProvider(ctx, log, attempt, req)
	if err != nil {
		g.classify(ctx, log, attempt, err)
		return attempt
	}

	inv := &invoice.Invoice{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		TenantID:          l.TenantID,
		LeaseID:           l.ID,
		LandlordID:        l.LandlordID,
		CycleID:           cycle.ID(),
		IdempotencyKey:    key,
		ProviderInvoiceID: result.ProviderInvoiceID,
		Amount:            priced.Amount,
		Currency:          l.Currency,
		Status:            types.InvoiceStatusPending,
		DueDate:           dueDate,
		PeriodStart:       l.NextBillingDate,
		PeriodEnd:         periodEnd,
		CreatedAt:         g.Clock.Now().UTC(),
		UpdatedAt:         g.Clock.Now().UTC(),
	}

	if err := g.InvoiceRepo.Create(ctx, inv); err != nil {
		if !ierr.IsAlreadyExists(err) {
			// the provider holds the invoice, the next run replays the key and records it
			log.Errorw("failed to record invoice", "provider_invoice_id", result.ProviderInvoiceID, "error", err)
			g.deferAttempt(attempt, err)
			return attempt
		}
		recorded, err := g.InvoiceRepo.GetByIdempotencyKey(ctx, key)
		if err != nil {
			g.deferAttempt(attempt, err)
			return attempt
		}
		inv = recorded
		attempt.Replayed = true
	}
	attempt.InvoiceID = inv.ID

	log.Infow("invoice created",
		"invoice_id", inv.ID,
		"provider_invoice_id", inv.ProviderInvoiceID,
		"amount", inv.Amount.String(),
		"currency", inv.Currency,
		"provider_replayed", result.AlreadyExists,
		"attempts", attempt.Attempts)

	g.finish(ctx, log, attempt, l)
	return attempt
}

// createAtProvider calls the provider under the retry policy. The attempt
// moves pending -> retryable_failed -> pending for every retried failure.
func (g *invoiceGenerator) createAtProvider(
	ctx context.Context,
	log *logger.Logger,
	attempt *billingrun.InvoiceAttempt,
	req *payment.CreateInvoiceRequest,
) (*payment.CreateInvoiceResult, error) {
	var result *payment.CreateInvoiceResult

	attempts, err := g.retrier.Do(ctx, func(ctx context.Context, n int) error {
		if n > 1 {
			if err := attempt.Transition(types.AttemptOutcomePending); err != nil {
				return err
			}
		}

		start := g.Clock.Now()
		res, err := g.PaymentProvider.CreateInvoice(ctx, req)
		g.Metrics.ObserveProviderCall(providerResult(err), g.Clock.Now().Sub(start))
		if err != nil {
			return err
		}
		result = res
		return nil
	}, func(n int, err error, next time.Duration) {
		attempt.LastError = err
		_ = attempt.Transition(types.AttemptOutcomeRetryableFailed)
		log.Warnw("payment provider call failed, retrying",
			"attempt", n,
			"retry_in", next,
			"error", err)
	})
	attempt.Attempts = attempts

	return result, err
}

func providerResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case ierr.IsPermanentProvider(err):
		return "permanent_error"
	default:
		return "transient_error"
	}
}

// classify maps a failed provider call onto the attempt's terminal state
func (g *invoiceGenerator) classify(ctx context.Context, log *logger.Logger, attempt *billingrun.InvoiceAttempt, err error) {
	switch {
	case ierr.IsPermanentProvider(err):
		log.Errorw("payment provider rejected invoice, lease needs review",
			"attempts", attempt.Attempts,
			"error", err)
		g.fail(attempt, err)
	case ctx.Err() != nil:
		log.Warnw("run deadline reached during provider call, deferring lease",
			"attempts", attempt.Attempts,
			"error", err)
		g.deferAttempt(attempt, err)
	default:
		log.Warnw("payment provider still failing after retries, deferring lease",
			"attempts", attempt.Attempts,
			"error", err)
		attempt.LastError = err
		if attempt.Outcome == types.AttemptOutcomePending {
			_ = attempt.Transition(types.AttemptOutcomeRetryableFailed)
		}
		g.deferAttempt(attempt, err)
	}
}

// finish advances the lease past the invoiced cycle and settles the attempt
func (g *invoiceGenerator) finish(ctx context.Context, log *logger.Logger, attempt *billingrun.InvoiceAttempt, l *lease.Lease) {
	next, err := l.FollowingBillingDate()
	if err != nil {
		g.fail(attempt, ierr.WithError(err).
			WithHint("Lease has an invalid billing period").
			Mark(ierr.ErrValidation))
		return
	}

	if err := g.advance(ctx, l, next); err != nil {
		log.Warnw("failed to advance billing date, deferring lease",
			"next_billing_date", next,
			"error", err)
		g.deferAttempt(attempt, err)
		return
	}

	log.Debugw("billing date advanced", "next_billing_date", next)
	g.succeed(attempt)
}

// advance moves the billing date with an optimistic version check. On a
// conflict the lease is re-read once: if another writer already moved it past
// the cycle the work is done, otherwise the advance is retried once more.
func (g *invoiceGenerator) advance(ctx context.Context, l *lease.Lease, next time.Time) error {
	err := g.LeaseRepo.AdvanceBillingDate(ctx, l.ID, l.Version, next)
	if err == nil || !ierr.IsVersionConflict(err) {
		return err
	}

	current, getErr := g.LeaseRepo.Get(ctx, l.ID)
	if getErr != nil {
		return getErr
	}
	if !current.NextBillingDate.Before(next) {
		return nil
	}
	if !current.NextBillingDate.Equal(l.NextBillingDate) {
		return ierr.NewError("lease billing date changed during the run").
			WithReportableDetails(map[string]any{
				"lease_id":          l.ID,
				"next_billing_date": current.NextBillingDate,
			}).
			Mark(ierr.ErrVersionConflict)
	}

	return g.LeaseRepo.AdvanceBillingDate(ctx, l.ID, current.Version, next)
}

func (g *invoiceGenerator) succeed(attempt *billingrun.InvoiceAttempt) {
	if attempt.Outcome != types.AttemptOutcomePending {
		_ = attempt.Transition(types.AttemptOutcomePending)
	}
	_ = attempt.Transition(types.AttemptOutcomeSucceeded)
}

func (g *invoiceGenerator) fail(attempt *billingrun.InvoiceAttempt, err error) {
	attempt.LastError = err
	if attempt.Outcome != types.AttemptOutcomePending {
		_ = attempt.Transition(types.AttemptOutcomePending)
	}
	_ = attempt.Transition(types.AttemptOutcomePermanentFailed)
}

func (g *invoiceGenerator) deferAttempt(attempt *billingrun.InvoiceAttempt, err error) {
	attempt.LastError = err
	_ = attempt.Transition(types.AttemptOutcomeDeferred)
}
