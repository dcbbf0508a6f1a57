package errors

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Common error types that can be used across the application.
//
// The billing run reacts to these markers:
//   - ErrConfiguration aborts a run before any lease is touched
//   - ErrTransientProvider is retried with backoff, then deferred
//   - ErrPermanentProvider skips the lease for the cycle
//   - ErrVersionConflict is retried once, then deferred
//   - ErrNotification is logged only
var (
	ErrNotFound          = new(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists     = new(ErrCodeAlreadyExists, "resource already exists")
	ErrVersionConflict   = new(ErrCodeVersionConflict, "version conflict")
	ErrValidation        = new(ErrCodeValidation, "validation error")
	ErrInvalidOperation  = new(ErrCodeInvalidOperation, "invalid operation")
	ErrHTTPClient        = new(ErrCodeHTTPClient, "http client error")
	ErrDatabase          = new(ErrCodeDatabase, "database error")
	ErrSystem            = new(ErrCodeSystemError, "system error")
	ErrConfiguration     = new(ErrCodeConfiguration, "configuration error")
	ErrTransientProvider = new(ErrCodeTransientProvider, "transient payment provider error")
	ErrPermanentProvider = new(ErrCodePermanentProvider, "permanent payment provider error")
	ErrNotification      = new(ErrCodeNotification, "notification error")
	ErrLockNotObtained   = new(ErrCodeLockNotObtained, "run lock not obtained")
	// maps errors to http status codes
	statusCodeMap = map[error]int{
		ErrHTTPClient:        http.StatusInternalServerError,
		ErrDatabase:          http.StatusInternalServerError,
		ErrNotFound:          http.StatusNotFound,
		ErrAlreadyExists:     http.StatusConflict,
		ErrVersionConflict:   http.StatusConflict,
		ErrLockNotObtained:   http.StatusConflict,
		ErrValidation:        http.StatusBadRequest,
		ErrInvalidOperation:  http.StatusBadRequest,
		ErrConfiguration:     http.StatusInternalServerError,
		ErrTransientProvider: http.StatusBadGateway,
		ErrPermanentProvider: http.StatusUnprocessableEntity,
		ErrNotification:      http.StatusBadGateway,
		ErrSystem:            http.StatusInternalServerError,
	}
)

const (
	ErrCodeHTTPClient        = "http_client_error"
	ErrCodeSystemError       = "system_error"
	ErrCodeNotFound          = "not_found"
	ErrCodeAlreadyExists     = "already_exists"
	ErrCodeVersionConflict   = "version_conflict"
	ErrCodeValidation        = "validation_error"
	ErrCodeInvalidOperation  = "invalid_operation"
	ErrCodeDatabase          = "database_error"
	ErrCodeConfiguration     = "configuration_error"
	ErrCodeTransientProvider = "transient_provider_error"
	ErrCodePermanentProvider = "permanent_provider_error"
	ErrCodeNotification      = "notification_error"
	ErrCodeLockNotObtained   = "lock_not_obtained"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Op      string // Logical operation name
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsVersionConflict checks if an error is a version conflict error
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidOperation checks if an error is an invalid operation error
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsHTTPClient checks if an error is an http client error
func IsHTTPClient(err error) bool {
	return errors.Is(err, ErrHTTPClient)
}

// IsDatabase checks if an error is a database error
func IsDatabase(err error) bool {
	return errors.Is(err, ErrDatabase)
}

func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func IsTransientProvider(err error) bool {
	return errors.Is(err, ErrTransientProvider)
}

func IsPermanentProvider(err error) bool {
	return errors.Is(err, ErrPermanentProvider)
}

func IsNotification(err error) bool {
	return errors.Is(err, ErrNotification)
}

func IsLockNotObtained(err error) bool {
	return errors.Is(err, ErrLockNotObtained)
}

// IsContextDone reports whether err was caused by a cancelled or expired context
func IsContextDone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func HTTPStatusFromErr(err error) int {
	for e, status := range statusCodeMap {
		if errors.Is(err, e) {
			return status
		}
	}
	return http.StatusInternalServerError
}
