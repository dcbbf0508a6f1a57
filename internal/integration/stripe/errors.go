package stripe

import (
	"context"
	"errors"
	"net"
	"net/http"

	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/stripe/stripe-go/v82"
)

// classifyError marks a Stripe call failure as transient or permanent.
// Rate limits, conflicts on in-flight idempotent requests, 5xx and network
// failures are transient. Any other 4xx is a rejection of the request itself.
// Errors we cannot recognise are treated as transient.
func classifyError(err error, details map[string]any) error {
	if err == nil {
		return nil
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		details["http_status"] = stripeErr.HTTPStatusCode
		details["stripe_code"] = string(stripeErr.Code)
		details["request_id"] = stripeErr.RequestID

		if isTransientStatus(stripeErr.HTTPStatusCode) || stripeErr.Type == stripe.ErrorTypeAPI {
			return ierr.WithError(err).
				WithHint("Stripe is temporarily unavailable").
				WithReportableDetails(details).
				Mark(ierr.ErrTransientProvider)
		}
		return ierr.WithError(err).
			WithHintf("Stripe rejected the invoice: %s", stripeErr.Msg).
			WithReportableDetails(details).
			Mark(ierr.ErrPermanentProvider)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ierr.WithError(err).
			WithHint("Stripe could not be reached").
			WithReportableDetails(details).
			Mark(ierr.ErrTransientProvider)
	}

	return ierr.WithError(err).
		WithHint("Unexpected Stripe failure").
		WithReportableDetails(details).
		Mark(ierr.ErrTransientProvider)
}

func isTransientStatus(status int) bool {
	return status == http.StatusTooManyRequests ||
		status == http.StatusConflict ||
		status == http.StatusRequestTimeout ||
		status >= http.StatusInternalServerError
}
