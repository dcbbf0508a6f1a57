package notification

import (
	"context"

	"github.com/flexprice/leasebill/internal/logger"
	"github.com/flexprice/leasebill/internal/svix"
)

type svixNotifier struct {
	client *svix.Client
	logger *logger.Logger
}

// NewSvixNotifier sends each event as a svix message on the tenant's application
func NewSvixNotifier(client *svix.Client, logger *logger.Logger) Notifier {
	return &svixNotifier{client: client, logger: logger}
}

func (n *svixNotifier) Trigger(ctx context.Context, event *Event) error {
	appID, err := n.client.GetOrCreateApplication(ctx, event.TenantID)
	if err != nil {
		return err
	}

	payload := map[string]interface{}{
		"event_id":    event.ID,
		"recipient":   event.Recipient,
		"data":        event.Payload,
		"occurred_at": event.OccurredAt,
	}
	return n.client.SendMessage(ctx, appID, event.Kind.String(), event.ID, payload)
}
