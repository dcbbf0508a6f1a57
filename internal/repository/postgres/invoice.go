package postgres

import (
	"context"

	"github.com/flexprice/leasebill/internal/clock"
	"github.com/flexprice/leasebill/internal/domain/invoice"
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/flexprice/leasebill/internal/postgres"
	"github.com/flexprice/leasebill/internal/types"
)

type invoiceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
	clock  clock.Clock
}

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger, clk clock.Clock) invoice.Repository {
	return &invoiceRepository{db: db, logger: logger, clock: clk}
}

const invoiceColumns = `
	id,
	tenant_id,
	lease_id,
	landlord_id,
	cycle_id,
	idempotency_key,
	provider_invoice_id,
	amount,
	currency,
	status,
	due_date,
	period_start,
	period_end,
	created_at,
	updated_at`

func (r *invoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	query := `
		INSERT INTO lease_invoices (` + invoiceColumns + `
		) VALUES (
			:id,
			:tenant_id,
			:lease_id,
			:landlord_id,
			:cycle_id,
			:idempotency_key,
			:provider_invoice_id,
			:amount,
			:currency,
			:status,
			:due_date,
			:period_start,
			:period_end,
			:created_at,
			:updated_at
		)`

	_, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, inv)
	return postgres.TranslateError(err, "invoice", map[string]any{
		"invoice_id":      inv.ID,
		"idempotency_key": inv.IdempotencyKey,
	})
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM lease_invoices WHERE id = $1`

	var inv invoice.Invoice
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &inv, query, id); err != nil {
		return nil, postgres.TranslateError(err, "invoice", map[string]any{"invoice_id": id})
	}
	return &inv, nil
}

func (r *invoiceRepository) GetByIdempotencyKey(ctx context.Context, key string) (*invoice.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM lease_invoices WHERE idempotency_key = $1`

	var inv invoice.Invoice
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &inv, query, key); err != nil {
		return nil, postgres.TranslateError(err, "invoice", map[string]any{"idempotency_key": key})
	}
	return &inv, nil
}

func (r *invoiceRepository) ListOverdue(ctx context.Context, filter *types.OverdueInvoiceFilter) ([]*invoice.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM lease_invoices
		WHERE status = $1
			AND due_date < $2
			AND id > $3
			AND ($4 = '' OR tenant_id = $4)
		ORDER BY id ASC
		LIMIT $5`

	invoices := make([]*invoice.Invoice, 0, filter.Limit)
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &invoices, query,
		types.InvoiceStatusPending,
		filter.AsOf,
		filter.AfterID,
		filter.TenantID,
		filter.Limit,
	)
	if err != nil {
		return nil, postgres.TranslateError(err, "invoice", map[string]any{"as_of": filter.AsOf})
	}
	return invoices, nil
}

func (r *invoiceRepository) UpdateStatus(ctx context.Context, id string, from, to types.InvoiceStatus) error {
	if err := to.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE lease_invoices
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, to, r.clock.Now().UTC(), id, from)
	if err != nil {
		return postgres.TranslateError(err, "invoice", map[string]any{"invoice_id": id})
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	if rows == 0 {
		return ierr.NewErrorf("invoice %s is not %s", id, from).
			WithHintf("Invoice status changed concurrently").
			Mark(ierr.ErrVersionConflict)
	}
	return nil
}
