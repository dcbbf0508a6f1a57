package email

import (
	"context"

	"github.com/flexprice/leasebill/internal/config"
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/resend/resend-go/v2"
)

// Message is a single rendered email addressed to one landlord
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
	// Tags are attached to the provider message so sends can be traced back to an event
	Tags map[string]string
}

// Sender delivers a rendered message and returns the provider message id
type Sender interface {
	Send(ctx context.Context, msg *Message) (string, error)
}

// Client sends email through Resend
type Client struct {
	client      *resend.Client
	fromAddress string
	replyTo     string
}

// NewClient creates a Resend backed sender from notifications.email
func NewClient(cfg *config.Configuration) (*Client, error) {
	emailCfg := cfg.Notifications.Email
	if emailCfg.APIKey == "" {
		return nil, ierr.NewError("email api key is missing").
			WithHint("Set notifications.email.api_key").
			Mark(ierr.ErrConfiguration)
	}

	return &Client{
		client:      resend.NewClient(emailCfg.APIKey),
		fromAddress: emailCfg.FromAddress,
		replyTo:     emailCfg.ReplyTo,
	}, nil
}

func (c *Client) Send(ctx context.Context, msg *Message) (string, error) {
	params := &resend.SendEmailRequest{
		From:    c.fromAddress,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}
	if c.replyTo != "" {
		params.ReplyTo = c.replyTo
	}
	for name, value := range msg.Tags {
		params.Tags = append(params.Tags, resend.Tag{Name: name, Value: value})
	}

	sent, err := c.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Email provider rejected the message").
			WithReportableDetails(map[string]any{"to": msg.To}).
			Mark(ierr.ErrNotification)
	}
	return sent.Id, nil
}
