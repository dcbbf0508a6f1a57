package postgres

import (
	"context"
	"time"

	"github.com/flexprice/leasebill/internal/clock"
	"github.com/flexprice/leasebill/internal/domain/lease"
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/flexprice/leasebill/internal/postgres"
	"github.com/flexprice/leasebill/internal/types"
)

type leaseRepository struct {
	db     *postgres.DB
	logger *logger.Logger
	clock  clock.Clock
}

func NewLeaseRepository(db *postgres.DB, logger *logger.Logger, clk clock.Clock) lease.Repository {
	return &leaseRepository{db: db, logger: logger, clock: clk}
}

const leaseColumns = `
	id,
	tenant_id,
	landlord_id,
	property_id,
	status,
	currency,
	amount_due,
	billing_period,
	billing_period_count,
	start_date,
	end_date,
	next_billing_date,
	provider_customer_id,
	version,
	created_at,
	updated_at`

func (r *leaseRepository) Create(ctx context.Context, l *lease.Lease) error {
	if l.Version == 0 {
		l.Version = 1
	}

	query := `
		INSERT INTO leases (` + leaseColumns + `
		) VALUES (
			:id,
			:tenant_id,
			:landlord_id,
			:property_id,
			:status,
			:currency,
			:amount_due,
			:billing_period,
			:billing_period_count,
			:start_date,
			:end_date,
			:next_billing_date,
			:provider_customer_id,
			:version,
			:created_at,
			:updated_at
		)`

	_, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, l)
	return postgres.TranslateError(err, "lease", map[string]any{"lease_id": l.ID})
}

func (r *leaseRepository) Get(ctx context.Context, id string) (*lease.Lease, error) {
	query := `SELECT ` + leaseColumns + ` FROM leases WHERE id = $1`

	var l lease.Lease
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &l, query, id); err != nil {
		return nil, postgres.TranslateError(err, "lease", map[string]any{"lease_id": id})
	}
	return &l, nil
}

func (r *leaseRepository) ListDue(ctx context.Context, filter *types.DueLeaseFilter) ([]*lease.Lease, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	// keyset pagination on id keeps pages stable while billed leases drop out of the predicate
	query := `
		SELECT ` + leaseColumns + `
		FROM leases
		WHERE status = $1
			AND next_billing_date <= $2
			AND id > $3
			AND ($4 = '' OR tenant_id = $4)
		ORDER BY id ASC
		LIMIT $5`

	leases := make([]*lease.Lease, 0, filter.Limit)
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &leases, query,
		types.LeaseStatusActive,
		filter.CycleDate,
		filter.AfterID,
		filter.TenantID,
		filter.Limit,
	)
	if err != nil {
		return nil, postgres.TranslateError(err, "lease", map[string]any{
			"cycle_date": filter.CycleDate,
			"after_id":   filter.AfterID,
		})
	}
	return leases, nil
}

func (r *leaseRepository) AdvanceBillingDate(ctx context.Context, id string, expectedVersion int, next time.Time) error {
	query := `
		UPDATE leases
		SET next_billing_date = $1,
			version = version + 1,
			updated_at = $2
		WHERE id = $3 AND version = $4`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, next, r.clock.Now().UTC(), id, expectedVersion)
	if err != nil {
		return postgres.TranslateError(err, "lease", map[string]any{"lease_id": id})
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	if rows == 0 {
		return ierr.NewError("lease was modified concurrently").
			WithHintf("Lease %s no longer has version %d", id, expectedVersion).
			WithReportableDetails(map[string]any{
				"lease_id":         id,
				"expected_version": expectedVersion,
			}).
			Mark(ierr.ErrVersionConflict)
	}
	return nil
}
