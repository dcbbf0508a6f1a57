package notification

import (
	"github.com/flexprice/leasebill/internal/config"
	"github.com/flexprice/leasebill/internal/email"
	"github.com/flexprice/leasebill/internal/httpclient"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/flexprice/leasebill/internal/pubsub/kafka"
	"github.com/flexprice/leasebill/internal/pubsub/memory"
	"github.com/flexprice/leasebill/internal/svix"
	"github.com/flexprice/leasebill/internal/types"
)

// NewNotifier builds the notifier selected by notifications.provider.
// Notifiers holding a connection implement io.Closer.
func NewNotifier(cfg *config.Configuration, logger *logger.Logger) (Notifier, error) {
	switch cfg.Notifications.Provider {
	case types.NotificationProviderSvix:
		client, err := svix.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		return NewSvixNotifier(client, logger), nil

	case types.NotificationProviderPubSub:
		if cfg.Notifications.PubSub == types.KafkaPubSub {
			publisher, err := kafka.NewPublisher(cfg, logger)
			if err != nil {
				return nil, err
			}
			return NewPubSubNotifier(publisher, cfg.Notifications.Topic, logger), nil
		}
		return NewPubSubNotifier(memory.NewPubSub(logger), cfg.Notifications.Topic, logger), nil

	case types.NotificationProviderHTTP:
		client := httpclient.NewDefaultClient(httpclient.ClientConfig{
			Timeout:    cfg.Notifications.HTTP.Timeout,
			MaxRetries: cfg.Notifications.HTTP.MaxRetries,
		}, logger)
		return NewHTTPNotifier(client, cfg.Notifications.HTTP.Endpoint, cfg.Notifications.HTTP.Headers, logger), nil

	case types.NotificationProviderEmail:
		client, err := email.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		return NewEmailNotifier(client, logger), nil

	default:
		return NewNoopNotifier(logger), nil
	}
}
