package notification

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/flexprice/leasebill/internal/pubsub"
)

type pubsubNotifier struct {
	publisher pubsub.Publisher
	topic     string
	logger    *logger.Logger
}

// NewPubSubNotifier publishes events to a topic consumed by the notification engine
func NewPubSubNotifier(publisher pubsub.Publisher, topic string, logger *logger.Logger) Notifier {
	return &pubsubNotifier{publisher: publisher, topic: topic, logger: logger}
}

func (n *pubsubNotifier) Trigger(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to encode notification event").
			Mark(ierr.ErrNotification)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("event_id", event.ID)
	msg.Metadata.Set("kind", event.Kind.String())
	msg.Metadata.Set("tenant_id", event.TenantID)

	if err := n.publisher.Publish(ctx, n.topic, msg); err != nil {
		return ierr.WithError(err).
			WithHintf("Failed to publish %s", event.Kind).
			WithReportableDetails(map[string]any{
				"event_id": event.ID,
				"topic":    n.topic,
			}).
			Mark(ierr.ErrNotification)
	}
	return nil
}

// Close closes the underlying publisher
func (n *pubsubNotifier) Close() error {
	return n.publisher.Close()
}
