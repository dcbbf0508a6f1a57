package types

import (
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/samber/lo"
)

// NotificationKind is the workflow the notification engine runs for an event
type NotificationKind string

const (
	NotificationKindInvoiceCreated NotificationKind = "invoice.created"
	NotificationKindInvoiceOverdue NotificationKind = "invoice.overdue"
	NotificationKindWelcome        NotificationKind = "landlord.welcome"
)

func (k NotificationKind) String() string {
	return string(k)
}

// NotificationProvider selects the notification engine backend
type NotificationProvider string

const (
	NotificationProviderSvix   NotificationProvider = "svix"
	NotificationProviderPubSub NotificationProvider = "pubsub"
	NotificationProviderHTTP   NotificationProvider = "http"
	NotificationProviderEmail  NotificationProvider = "email"
	NotificationProviderNone   NotificationProvider = "none"
)

func (p NotificationProvider) Validate() error {
	allowed := []NotificationProvider{
		NotificationProviderSvix,
		NotificationProviderPubSub,
		NotificationProviderHTTP,
		NotificationProviderEmail,
		NotificationProviderNone,
	}
	if !lo.Contains(allowed, p) {
		return ierr.NewError("invalid notification provider").
			WithHint("Please provide a valid notification provider").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrConfiguration)
	}
	return nil
}
