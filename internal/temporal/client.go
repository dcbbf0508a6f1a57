package temporal

import (
	"context"
	"crypto/tls"

	"github.com/flexprice/leasebill/internal/config"
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/logger"
	"go.temporal.io/sdk/client"
)

// APIKeyProvider provides headers for API key authentication
type APIKeyProvider struct {
	APIKey    string
	Namespace string
}

// GetHeaders implements client.HeadersProvider
func (a *APIKeyProvider) GetHeaders(_ context.Context) (map[string]string, error) {
	if a.APIKey == "" {
		return map[string]string{}, nil
	}
	return map[string]string{
		"Authorization":      "Bearer " + a.APIKey,
		"temporal-namespace": a.Namespace,
	}, nil
}

// TemporalClient wraps the Temporal SDK client for application use.
type TemporalClient struct {
	Client client.Client
}

// NewTemporalClient dials the Temporal frontend described by cfg
func NewTemporalClient(cfg *config.TemporalConfig, log *logger.Logger) (*TemporalClient, error) {
	clientOptions := client.Options{
		HostPort:  cfg.Address,
		Namespace: cfg.Namespace,
		HeadersProvider: &APIKeyProvider{
			APIKey:    cfg.APIKey,
			Namespace: cfg.Namespace,
		},
		Logger: log.GetTemporalLogger(),
	}

	if cfg.TLS {
		clientOptions.ConnectionOptions.TLS = &tls.Config{}
	}

	c, err := client.Dial(clientOptions)
	if err != nil {
		log.Errorw("failed to create temporal client", "address", cfg.Address, "error", err)
		return nil, ierr.WithError(err).
			WithHintf("Could not connect to temporal at %s", cfg.Address).
			Mark(ierr.ErrConfiguration)
	}

	log.Infow("temporal client created", "address", cfg.Address, "namespace", cfg.Namespace)
	return &TemporalClient{Client: c}, nil
}

func (c *TemporalClient) Close() {
	if c != nil && c.Client != nil {
		c.Client.Close()
	}
}
