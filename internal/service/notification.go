package service

import (
	"context"
	"time"

	"github.com/flexprice/leasebill/internal/domain/invoice"
	"github.com/flexprice/leasebill/internal/domain/landlord"
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/notification"
	"github.com/flexprice/leasebill/internal/types"
)

// NotificationService dispatches landlord notifications. Failed triggers are
// logged and counted, they never fail the caller.
type NotificationService interface {
	// NotifyInvoiceCreated triggers invoice.created for a recorded invoice
	NotifyInvoiceCreated(ctx context.Context, invoiceID string) error

	// SweepOverdue reminds landlords of pending invoices due before asOf's day
	// and marks each invoice overdue so it is never reminded twice
	SweepOverdue(ctx context.Context, asOf time.Time) (*SweepResult, error)

	// SweepWelcome welcomes every landlord with a lease exactly once
	SweepWelcome(ctx context.Context) (*SweepResult, error)
}

// SweepResult counts the notifications of one sweep
type SweepResult struct {
	Kind     types.NotificationKind `json:"kind"`
	Selected int                    `json:"selected"`
	Sent     int                    `json:"sent"`
	Failed   int                    `json:"failed"`
}

func (r *SweepResult) record(err error) {
	if err != nil {
		r.Failed++
		return
	}
	r.Sent++
}

type notificationService struct {
	ServiceParams
}

func NewNotificationService(params ServiceParams) NotificationService {
	return &notificationService{ServiceParams: params}
}

func (s *notificationService) NotifyInvoiceCreated(ctx context.Context, invoiceID string) error {
	inv, err := s.InvoiceRepo.Get(ctx, invoiceID)
	if err != nil {
		return s.dispatchFailed(ctx, types.NotificationKindInvoiceCreated, err)
	}
	l, err := s.LandlordRepo.Get(ctx, inv.LandlordID)
	if err != nil {
		return s.dispatchFailed(ctx, types.NotificationKindInvoiceCreated, err)
	}
	return s.trigger(ctx, notification.NewInvoiceCreatedEvent(inv, l, s.Clock.Now()))
}

func (s *notificationService) SweepOverdue(ctx context.Context, asOf time.Time) (*SweepResult, error) {
	loc := s.Config.Billing.Location()
	if asOf.IsZero() {
		asOf = s.Clock.Now()
	}
	today := types.StartOfDay(asOf, loc)

	log := s.Logger.WithContext(ctx)
	result := &SweepResult{Kind: types.NotificationKindInvoiceOverdue}
	filter := &types.OverdueInvoiceFilter{
		AsOf:     today,
		TenantID: s.Config.Billing.TenantID,
		Limit:    s.Config.Billing.PageSize,
	}

	for {
		invoices, err := s.InvoiceRepo.ListOverdue(ctx, filter)
		if err != nil {
			if result.Selected == 0 {
				return nil, err
			}
			log.Errorw("failed to list overdue invoices, stopping sweep", "after_id", filter.AfterID, "error", err)
			break
		}
		if len(invoices) == 0 {
			break
		}

		result.Selected += len(invoices)
		for _, inv := range invoices {
			if err := ctx.Err(); err != nil {
				return result, nil
			}
			s.remindOverdue(ctx, inv, today, result)
		}

		filter.AfterID = invoices[len(invoices)-1].ID
		if len(invoices) < filter.Limit {
			break
		}
	}

	log.Infow("overdue sweep finished",
		"as_of", today.Format(time.DateOnly),
		"selected", result.Selected,
		"sent", result.Sent,
		"failed", result.Failed)
	return result, nil
}

// remindOverdue triggers the reminder and then marks the invoice overdue,
// also when the trigger failed.
func (s *notificationService) remindOverdue(ctx context.Context, inv *invoice.Invoice, today time.Time, result *SweepResult) {
	log := s.Logger.WithContext(ctx)

	l, err := s.LandlordRepo.Get(ctx, inv.LandlordID)
	if err != nil {
		// without a recipient the invoice is left pending for the next sweep
		result.record(s.dispatchFailed(ctx, types.NotificationKindInvoiceOverdue, err))
		return
	}

	result.record(s.trigger(ctx, notification.NewInvoiceOverdueEvent(inv, l, today)))

	err = s.InvoiceRepo.UpdateStatus(ctx, inv.ID, types.InvoiceStatusPending, types.InvoiceStatusOverdue)
	switch {
	case err == nil:
		s.Metrics.OverdueInvoices.WithLabelValues(inv.TenantID).Inc()
	case ierr.IsVersionConflict(err):
		log.Debugw("invoice status changed during sweep", "invoice_id", inv.ID)
	default:
		log.Errorw("failed to mark invoice overdue", "invoice_id", inv.ID, "error", err)
	}
}

func (s *notificationService) SweepWelcome(ctx context.Context) (*SweepResult, error) {
	log := s.Logger.WithContext(ctx)
	result := &SweepResult{Kind: types.NotificationKindWelcome}
	seen := make(map[string]bool)

	for {
		landlords, err := s.LandlordRepo.ListPendingWelcome(ctx, s.Config.Billing.TenantID, s.Config.Billing.PageSize)
		if err != nil {
			if result.Selected == 0 {
				return nil, err
			}
			log.Errorw("failed to list landlords pending welcome, stopping sweep", "error", err)
			break
		}

		// claimed landlords drop out of the list, a page of only seen ones means
		// the rest could not be claimed this sweep
		fresh := make([]*landlord.Landlord, 0, len(landlords))
		for _, l := range landlords {
			if !seen[l.ID] {
				seen[l.ID] = true
				fresh = append(fresh, l)
			}
		}
		if len(fresh) == 0 {
			break
		}

		result.Selected += len(fresh)
		for _, l := range fresh {
			if err := ctx.Err(); err != nil {
				return result, nil
			}
			s.welcome(ctx, l, result)
		}
	}

	log.Infow("welcome sweep finished",
		"selected", result.Selected,
		"sent", result.Sent,
		"failed", result.Failed)
	return result, nil
}

// welcome claims the landlord's guard before triggering. A failed trigger is
// not retried, the landlord is never welcomed twice.
func (s *notificationService) welcome(ctx context.Context, l *landlord.Landlord, result *SweepResult) {
	log := s.Logger.WithContext(ctx)
	now := s.Clock.Now().UTC()

	claimed, err := s.LandlordRepo.ClaimWelcome(ctx, l.ID, now)
	if err != nil {
		log.Errorw("failed to claim welcome notification", "landlord_id", l.ID, "error", err)
		result.Failed++
		return
	}
	if !claimed {
		log.Debugw("welcome already claimed", "landlord_id", l.ID)
		return
	}

	result.record(s.trigger(ctx, notification.NewWelcomeEvent(l, now)))
}

func (s *notificationService) trigger(ctx context.Context, event *notification.Event) error {
	err := s.Notifier.Trigger(ctx, event)
	s.Metrics.ObserveNotification(event.Kind, err)
	if err != nil {
		s.Logger.WithContext(ctx).Warnw("notification trigger failed",
			"event_id", event.ID,
			"kind", event.Kind,
			"landlord_id", event.Recipient.LandlordID,
			"error", err)
		return err
	}
	s.Logger.WithContext(ctx).Debugw("notification triggered", "event_id", event.ID, "kind", event.Kind)
	return nil
}

func (s *notificationService) dispatchFailed(ctx context.Context, kind types.NotificationKind, err error) error {
	err = ierr.WithError(err).
		WithHintf("Could not build %s notification", kind).
		Mark(ierr.ErrNotification)
	s.Metrics.ObserveNotification(kind, err)
	s.Logger.WithContext(ctx).Warnw("notification not sent", "kind", kind, "error", err)
	return err
}
