package postgres

import (
	"context"
	"time"

	"github.com/flexprice/leasebill/internal/domain/landlord"
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/flexprice/leasebill/internal/postgres"
)

type landlordRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewLandlordRepository(db *postgres.DB, logger *logger.Logger) landlord.Repository {
	return &landlordRepository{db: db, logger: logger}
}

func (r *landlordRepository) Create(ctx context.Context, l *landlord.Landlord) error {
	query := `
		INSERT INTO landlords (
			id, tenant_id, name, email, welcome_sent_at, created_at, updated_at
		) VALUES (
			:id, :tenant_id, :name, :email, :welcome_sent_at, :created_at, :updated_at
		)`

	_, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, l)
	return postgres.TranslateError(err, "landlord", map[string]any{"landlord_id": l.ID})
}

func (r *landlordRepository) Get(ctx context.Context, id string) (*landlord.Landlord, error) {
	query := `
		SELECT id, tenant_id, name, email, welcome_sent_at, created_at, updated_at
		FROM landlords
		WHERE id = $1`

	var l landlord.Landlord
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &l, query, id); err != nil {
		return nil, postgres.TranslateError(err, "landlord", map[string]any{"landlord_id": id})
	}
	return &l, nil
}

func (r *landlordRepository) ListPendingWelcome(ctx context.Context, tenantID string, limit int) ([]*landlord.Landlord, error) {
	query := `
		SELECT ll.id, ll.tenant_id, ll.name, ll.email, ll.welcome_sent_at, ll.created_at, ll.updated_at
		FROM landlords ll
		WHERE ll.welcome_sent_at IS NULL
			AND ($1 = '' OR ll.tenant_id = $1)
			AND EXISTS (SELECT 1 FROM leases l WHERE l.landlord_id = ll.id)
		ORDER BY ll.id ASC
		LIMIT $2`

	landlords := make([]*landlord.Landlord, 0, limit)
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &landlords, query, tenantID, limit); err != nil {
		return nil, postgres.TranslateError(err, "landlord", map[string]any{"tenant_id": tenantID})
	}
	return landlords, nil
}

func (r *landlordRepository) ClaimWelcome(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `
		UPDATE landlords
		SET welcome_sent_at = $1, updated_at = $1
		WHERE id = $2 AND welcome_sent_at IS NULL`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, at, id)
	if err != nil {
		return false, postgres.TranslateError(err, "landlord", map[string]any{"landlord_id": id})
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return rows == 1, nil
}
