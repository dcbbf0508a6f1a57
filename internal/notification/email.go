package notification

import (
	"context"

	"github.com/flexprice/leasebill/internal/email"
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/logger"
)

type emailNotifier struct {
	sender email.Sender
	logger *logger.Logger
}

// NewEmailNotifier renders each event into an email for its landlord
func NewEmailNotifier(sender email.Sender, logger *logger.Logger) Notifier {
	return &emailNotifier{sender: sender, logger: logger}
}

func (n *emailNotifier) Trigger(ctx context.Context, event *Event) error {
	if event.Recipient.Email == "" {
		return ierr.NewError("landlord has no email address").
			WithHintf("Cannot email %s to landlord %s", event.Kind, event.Recipient.LandlordID).
			WithReportableDetails(map[string]any{"event_id": event.ID}).
			Mark(ierr.ErrNotification)
	}

	data := make(map[string]interface{}, len(event.Payload)+1)
	for k, v := range event.Payload {
		data[k] = v
	}
	data["name"] = event.Recipient.Name

	msg, err := email.Render(event.Kind, data)
	if err != nil {
		return err
	}
	msg.To = event.Recipient.Email
	msg.Tags = map[string]string{
		"kind":      tagValue(event.Kind.String()),
		"tenant_id": tagValue(event.TenantID),
	}

	messageID, err := n.sender.Send(ctx, msg)
	if err != nil {
		return ierr.WithError(err).
			WithHintf("Failed to email %s", event.Kind).
			WithReportableDetails(map[string]any{"event_id": event.ID}).
			Mark(ierr.ErrNotification)
	}

	n.logger.Debugw("notification emailed",
		"event_id", event.ID,
		"landlord_id", event.Recipient.LandlordID,
		"message_id", messageID,
	)
	return nil
}

// Resend tags only allow ASCII letters, numbers, underscores and dashes
func tagValue(v string) string {
	out := []rune(v)
	for i, r := range out {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			out[i] = '_'
		}
	}
	return string(out)
}
