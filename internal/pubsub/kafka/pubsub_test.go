package kafka

import (
	"testing"

	"github.com/Shopify/sarama"
	"github.com/flexprice/leasebill/internal/config"
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSaramaConfig(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Kafka.ClientID = "leasebill-test"

	plain := GetSaramaConfig(cfg)
	assert.Equal(t, "leasebill-test", plain.ClientID)
	assert.False(t, plain.Net.TLS.Enable)
	assert.False(t, plain.Net.SASL.Enable)
	assert.True(t, plain.Producer.Return.Successes)

	cfg.Kafka.UseSASL = true
	cfg.Kafka.SASLMechanism = "SCRAM-SHA-512"
	cfg.Kafka.SASLUser = "user"
	cfg.Kafka.SASLPassword = "secret"

	sasl := GetSaramaConfig(cfg)
	assert.True(t, sasl.Net.TLS.Enable)
	assert.True(t, sasl.Net.SASL.Enable)
	assert.Equal(t, sarama.SASLMechanism("SCRAM-SHA-512"), sasl.Net.SASL.Mechanism)
	assert.Equal(t, "user", sasl.Net.SASL.User)
}

func TestNewPublisher_RequiresBrokers(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Kafka.Brokers = nil

	_, err := NewPublisher(cfg, logger.NewNoopLogger())
	require.Error(t, err)
	assert.True(t, ierr.IsConfiguration(err))
}
