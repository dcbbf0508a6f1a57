package notification

import (
	"fmt"
	"time"

	"github.com/flexprice/leasebill/internal/domain/invoice"
	"github.com/flexprice/leasebill/internal/domain/landlord"
	"github.com/flexprice/leasebill/internal/types"
)

func recipientOf(l *landlord.Landlord) Recipient {
	return Recipient{
		LandlordID: l.ID,
		Name:       l.Name,
		Email:      l.Email,
	}
}

func invoicePayload(inv *invoice.Invoice) map[string]interface{} {
	return map[string]interface{}{
		"invoice_id":          inv.ID,
		"lease_id":            inv.LeaseID,
		"cycle_id":            inv.CycleID,
		"provider_invoice_id": inv.ProviderInvoiceID,
		"amount":              inv.Amount.String(),
		"currency":            inv.Currency,
		"due_date":            inv.DueDate.Format(time.DateOnly),
		"status":              string(inv.Status),
	}
}

// NewInvoiceCreatedEvent is emitted after a lease invoice is recorded
func NewInvoiceCreatedEvent(inv *invoice.Invoice, l *landlord.Landlord, at time.Time) *Event {
	return &Event{
		ID:         fmt.Sprintf("%s:%s", types.NotificationKindInvoiceCreated, inv.IdempotencyKey),
		Kind:       types.NotificationKindInvoiceCreated,
		TenantID:   inv.TenantID,
		Recipient:  recipientOf(l),
		Payload:    invoicePayload(inv),
		OccurredAt: at,
	}
}

// NewInvoiceOverdueEvent reminds the landlord of a pending invoice past its due date
func NewInvoiceOverdueEvent(inv *invoice.Invoice, l *landlord.Landlord, at time.Time) *Event {
	payload := invoicePayload(inv)
	payload["days_overdue"] = types.CalendarDaysBetween(inv.DueDate, at)

	return &Event{
		ID:         fmt.Sprintf("%s:%s", types.NotificationKindInvoiceOverdue, inv.IdempotencyKey),
		Kind:       types.NotificationKindInvoiceOverdue,
		TenantID:   inv.TenantID,
		Recipient:  recipientOf(l),
		Payload:    payload,
		OccurredAt: at,
	}
}

// NewWelcomeEvent greets a landlord once, after their first lease
func NewWelcomeEvent(l *landlord.Landlord, at time.Time) *Event {
	return &Event{
		ID:        fmt.Sprintf("%s:%s", types.NotificationKindWelcome, l.ID),
		Kind:      types.NotificationKindWelcome,
		TenantID:  l.TenantID,
		Recipient: recipientOf(l),
		Payload: map[string]interface{}{
			"landlord_id": l.ID,
			"name":        l.Name,
		},
		OccurredAt: at,
	}
}
