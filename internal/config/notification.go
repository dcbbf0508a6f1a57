package config

import (
	"strings"
	"time"

	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/types"
)

// NotificationConfig selects and configures the notification engine backend
type NotificationConfig struct {
	Provider         types.NotificationProvider `mapstructure:"provider"`
	OnInvoiceCreated bool                       `mapstructure:"on_invoice_created"`
	Topic            string                     `mapstructure:"topic"`
	PubSub           types.PubSubType           `mapstructure:"pubsub"`
	Svix             SvixConfig                 `mapstructure:"svix"`
	HTTP             HTTPNotifierConfig         `mapstructure:"http"`
	Email            EmailConfig                `mapstructure:"email"`
}

// SvixConfig represents the configuration for the Svix workflow engine
type SvixConfig struct {
	AuthToken string `mapstructure:"auth_token"`
	BaseURL   string `mapstructure:"base_url"`
}

// HTTPNotifierConfig posts notification events to a single endpoint
type HTTPNotifierConfig struct {
	Endpoint   string            `mapstructure:"endpoint"`
	Headers    map[string]string `mapstructure:"headers"`
	MaxRetries int               `mapstructure:"max_retries"`
	Timeout    time.Duration     `mapstructure:"timeout"`
}

// EmailConfig sends notifications straight to the landlord through Resend
type EmailConfig struct {
	APIKey      string `mapstructure:"api_key"`
	FromAddress string `mapstructure:"from_address"`
	ReplyTo     string `mapstructure:"reply_to"`
}

func (c NotificationConfig) Validate() error {
	if c.Provider == "" {
		return nil
	}
	if err := c.Provider.Validate(); err != nil {
		return err
	}

	switch c.Provider {
	case types.NotificationProviderSvix:
		if strings.TrimSpace(c.Svix.AuthToken) == "" {
			return ierr.NewError("svix auth token is missing").
				WithHint("Set notifications.svix.auth_token when the svix provider is selected").
				Mark(ierr.ErrConfiguration)
		}
	case types.NotificationProviderHTTP:
		if strings.TrimSpace(c.HTTP.Endpoint) == "" {
			return ierr.NewError("notification endpoint is missing").
				WithHint("Set notifications.http.endpoint when the http provider is selected").
				Mark(ierr.ErrConfiguration)
		}
	case types.NotificationProviderEmail:
		if strings.TrimSpace(c.Email.APIKey) == "" || strings.TrimSpace(c.Email.FromAddress) == "" {
			return ierr.NewError("email api key or from address is missing").
				WithHint("Set notifications.email.api_key and notifications.email.from_address when the email provider is selected").
				Mark(ierr.ErrConfiguration)
		}
	case types.NotificationProviderPubSub:
		if c.PubSub != types.MemoryPubSub && c.PubSub != types.KafkaPubSub {
			return ierr.NewErrorf("unknown pubsub %q", c.PubSub).
				WithHint("notifications.pubsub must be memory or kafka").
				Mark(ierr.ErrConfiguration)
		}
	}
	return nil
}
