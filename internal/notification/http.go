package notification

import (
	"context"
	"encoding/json"
	"net/http"

	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/httpclient"
	"github.com/flexprice/leasebill/internal/logger"
)

type httpNotifier struct {
	client   httpclient.Client
	endpoint string
	headers  map[string]string
	logger   *logger.Logger
}

// NewHTTPNotifier posts each event as JSON to a single endpoint
func NewHTTPNotifier(client httpclient.Client, endpoint string, headers map[string]string, logger *logger.Logger) Notifier {
	return &httpNotifier{client: client, endpoint: endpoint, headers: headers, logger: logger}
}

func (n *httpNotifier) Trigger(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to encode notification event").
			Mark(ierr.ErrNotification)
	}

	headers := make(map[string]string, len(n.headers)+1)
	for k, v := range n.headers {
		headers[k] = v
	}
	headers["Idempotency-Key"] = event.ID

	_, err = n.client.Send(ctx, &httpclient.Request{
		Method:  http.MethodPost,
		URL:     n.endpoint,
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		details := map[string]any{"event_id": event.ID}
		if httpErr, ok := httpclient.IsHTTPError(err); ok {
			details["status_code"] = httpErr.StatusCode
		}
		return ierr.WithError(err).
			WithHintf("Notification endpoint rejected %s", event.Kind).
			WithReportableDetails(details).
			Mark(ierr.ErrNotification)
	}
	return nil
}
