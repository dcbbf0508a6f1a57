package kafka

import (
	"context"
	"crypto/tls"

	"github.com/Shopify/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/leasebill/internal/config"
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/flexprice/leasebill/internal/pubsub"
)

// Publisher publishes notification events to Kafka
type Publisher struct {
	publisher message.Publisher
	logger    *logger.Logger
}

// NewPublisher creates a kafka backed publisher
func NewPublisher(cfg *config.Configuration, logger *logger.Logger) (pubsub.Publisher, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, ierr.NewError("kafka brokers are missing").
			WithHint("Set kafka.brokers when the kafka pubsub is selected").
			Mark(ierr.ErrConfiguration)
	}

	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:               cfg.Kafka.Brokers,
			Marshaler:             kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: GetSaramaConfig(cfg),
		},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to connect to kafka").
			Mark(ierr.ErrConfiguration)
	}

	return &Publisher{publisher: publisher, logger: logger}, nil
}

func (p *Publisher) Publish(ctx context.Context, topic string, msg *message.Message) error {
	msg.SetContext(ctx)
	return p.publisher.Publish(topic, msg)
}

func (p *Publisher) Close() error {
	return p.publisher.Close()
}

// GetSaramaConfig builds the producer config, SASL implies TLS
func GetSaramaConfig(cfg *config.Configuration) *sarama.Config {
	saramaConfig := kafka.DefaultSaramaSyncPublisherConfig()
	saramaConfig.Version = sarama.V2_1_0_0
	saramaConfig.ClientID = cfg.Kafka.ClientID

	if cfg.Kafka.TLS || cfg.Kafka.UseSASL {
		saramaConfig.Net.TLS.Enable = true
		saramaConfig.Net.TLS.Config = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	if !cfg.Kafka.UseSASL {
		return saramaConfig
	}

	saramaConfig.Net.SASL.Enable = true
	saramaConfig.Net.SASL.Mechanism = sarama.SASLMechanism(cfg.Kafka.SASLMechanism)
	saramaConfig.Net.SASL.User = cfg.Kafka.SASLUser
	saramaConfig.Net.SASL.Password = cfg.Kafka.SASLPassword

	return saramaConfig
}
