package errors

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

const detailsPrefix = "__json__:"

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Display string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// NewErrorResponse builds the response body for err. Only hints and
// reportable details reach the caller, never the wrapped error text.
func NewErrorResponse(err error) ErrorResponse {
	display := "An unexpected error occurred"
	// hints are collected post order, the innermost comes first
	for _, hint := range Hints(err) {
		if hint = strings.TrimSpace(hint); hint != "" {
			display = hint
			break
		}
	}

	details := ReportableDetails(err)
	if len(details) == 0 {
		details = nil
	}

	return ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Display: display,
			Details: details,
		},
	}
}

// ReportableDetails merges every WithReportableDetails payload in the chain
func ReportableDetails(err error) map[string]any {
	details := make(map[string]any)
	for _, sdp := range errors.GetAllSafeDetails(err) {
		for _, payload := range sdp.SafeDetails {
			raw, ok := strings.CutPrefix(payload, detailsPrefix)
			if !ok {
				continue
			}
			var m map[string]any
			if json.Unmarshal([]byte(raw), &m) != nil {
				continue
			}
			for k, v := range m {
				details[k] = v
			}
		}
	}
	return details
}
