package httpclient

import (
	"errors"
	"fmt"

	ierr "github.com/flexprice/leasebill/internal/errors"
)

// Error represents a non 2xx HTTP response
type Error struct {
	StatusCode int
	Response   []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("http client error: status %d", e.StatusCode)
}

// Is lets ierr.IsHTTPClient recognise response errors
func (e *Error) Is(target error) bool {
	return target == ierr.ErrHTTPClient
}

// NewError creates a new HTTP client error
func NewError(statusCode int, response []byte) *Error {
	return &Error{
		StatusCode: statusCode,
		Response:   response,
	}
}

// IsHTTPError checks if an error is an HTTP client error
func IsHTTPError(err error) (*Error, bool) {
	var httpErr *Error
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}
