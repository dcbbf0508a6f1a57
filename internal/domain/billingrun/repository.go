package billingrun

import "context"

// Repository persists finished run reports for operators
type Repository interface {
	// Save stores a built report
	Save(ctx context.Context, report *Report) error

	// GetLatest returns the most recent report for a tenant scope, empty for all tenants
	GetLatest(ctx context.Context, tenantID string) (*Report, error)
}

// Archive keeps a copy of every finished report outside the database
type Archive interface {
	Put(ctx context.Context, report *Report) error
}
