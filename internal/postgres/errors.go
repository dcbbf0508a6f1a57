package postgres

import (
	"database/sql"
	"errors"

	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/lib/pq"
)

const uniqueViolation = pq.ErrorCode("23505")

// IsUniqueViolation reports whether err is a postgres unique constraint violation
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

// TranslateError maps driver errors onto the application's sentinels
func TranslateError(err error, entity string, details map[string]any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ierr.WithError(err).
			WithHintf("%s not found", entity).
			WithReportableDetails(details).
			Mark(ierr.ErrNotFound)
	case IsUniqueViolation(err):
		return ierr.WithError(err).
			WithHintf("%s already exists", entity).
			WithReportableDetails(details).
			Mark(ierr.ErrAlreadyExists)
	default:
		return ierr.WithError(err).
			WithHintf("Failed to access %s", entity).
			WithReportableDetails(details).
			Mark(ierr.ErrDatabase)
	}
}
