package svix

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"

	"github.com/flexprice/leasebill/internal/config"
	ierr "github.com/flexprice/leasebill/internal/errors"
	svix "github.com/svix/svix-webhooks/go"
	"github.com/svix/svix-webhooks/go/models"
)

// Client wraps the Svix SDK client. Each tenant has its own Svix application
// so landlords of one tenant never receive another tenant's events.
type Client struct {
	client *svix.Svix

	mu   sync.Mutex
	apps map[string]string
}

// NewClient creates a new Svix client
func NewClient(cfg *config.Configuration) (*Client, error) {
	opts := &svix.SvixOptions{}
	if cfg.Notifications.Svix.BaseURL != "" {
		serverURL, err := url.Parse(cfg.Notifications.Svix.BaseURL)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHint("Invalid notifications.svix.base_url").
				Mark(ierr.ErrConfiguration)
		}
		opts.ServerUrl = serverURL
	}

	svixClient, err := svix.New(cfg.Notifications.Svix.AuthToken, opts)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to create svix client").
			Mark(ierr.ErrConfiguration)
	}

	return &Client{
		client: svixClient,
		apps:   make(map[string]string),
	}, nil
}

// GetOrCreateApplication returns the Svix application id for the tenant
func (c *Client) GetOrCreateApplication(ctx context.Context, tenantID string) (string, error) {
	c.mu.Lock()
	if id, ok := c.apps[tenantID]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	uid := "leasebill_" + tenantID

	app, err := c.client.Application.Get(ctx, uid)
	if err != nil {
		app, err = c.client.Application.Create(ctx, models.ApplicationIn{
			Name: uid,
			Uid:  &uid,
		}, &svix.ApplicationCreateOptions{})
		if err != nil {
			return "", ierr.WithError(err).
				WithHintf("Failed to create svix application for tenant %s", tenantID).
				Mark(ierr.ErrNotification)
		}
	}

	c.mu.Lock()
	c.apps[tenantID] = app.Id
	c.mu.Unlock()
	return app.Id, nil
}

// SendMessage sends one event to the tenant's application.
// idempotencyKey lets svix drop a resend of the same event.
func (c *Client) SendMessage(ctx context.Context, applicationID, eventType, idempotencyKey string, payload interface{}) error {
	payloadMap, err := toMap(payload)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to encode notification payload").
			Mark(ierr.ErrNotification)
	}

	opts := &svix.MessageCreateOptions{}
	if idempotencyKey != "" {
		opts.IdempotencyKey = &idempotencyKey
	}

	_, err = c.client.Message.Create(ctx, applicationID, models.MessageIn{
		EventType: eventType,
		Payload:   payloadMap,
	}, opts)
	if err != nil {
		return ierr.WithError(err).
			WithHintf("Failed to send %s to svix", eventType).
			Mark(ierr.ErrNotification)
	}
	return nil
}

func toMap(payload interface{}) (map[string]interface{}, error) {
	switch p := payload.(type) {
	case map[string]interface{}:
		return p, nil
	case json.RawMessage:
		var out map[string]interface{}
		err := json.Unmarshal(p, &out)
		return out, err
	case []byte:
		var out map[string]interface{}
		err := json.Unmarshal(p, &out)
		return out, err
	default:
		data, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		var out map[string]interface{}
		err = json.Unmarshal(data, &out)
		return out, err
	}
}
