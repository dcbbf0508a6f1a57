package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/flexprice/leasebill/internal/domain/billingrun"
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/flexprice/leasebill/internal/postgres"
	"github.com/flexprice/leasebill/internal/types"
)

type billingRunRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewBillingRunRepository(db *postgres.DB, logger *logger.Logger) billingrun.Repository {
	return &billingRunRepository{db: db, logger: logger}
}

// billingRunRow is the table shape of a report, failures are stored as jsonb
type billingRunRow struct {
	ID                  string    `db:"id"`
	TenantID            string    `db:"tenant_id"`
	CycleDate           time.Time `db:"cycle_date"`
	Status              string    `db:"status"`
	Selected            int       `db:"selected"`
	Created             int       `db:"created"`
	Skipped             int       `db:"skipped"`
	PermanentlyFailed   []byte    `db:"permanently_failed"`
	Deferred            []byte    `db:"deferred"`
	NotificationsSent   int       `db:"notifications_sent"`
	NotificationsFailed int       `db:"notifications_failed"`
	StartedAt           time.Time `db:"started_at"`
	CompletedAt         time.Time `db:"completed_at"`
}

func (r *billingRunRepository) Save(ctx context.Context, report *billingrun.Report) error {
	failed, err := json.Marshal(report.PermanentlyFailed)
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrSystem)
	}
	deferred, err := json.Marshal(report.Deferred)
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrSystem)
	}

	row := billingRunRow{
		ID:                  report.ID,
		TenantID:            report.TenantID,
		CycleDate:           report.CycleDate,
		Status:              string(report.Status),
		Selected:            report.Selected,
		Created:             report.Created,
		Skipped:             report.Skipped,
		PermanentlyFailed:   failed,
		Deferred:            deferred,
		NotificationsSent:   report.NotificationsSent,
		NotificationsFailed: report.NotificationsFailed,
		StartedAt:           report.StartedAt,
		CompletedAt:         report.CompletedAt,
	}

	query := `
		INSERT INTO billing_runs (
			id, tenant_id, cycle_date, status, selected, created, skipped,
			permanently_failed, deferred, notifications_sent, notifications_failed,
			started_at, completed_at
		) VALUES (
			:id, :tenant_id, :cycle_date, :status, :selected, :created, :skipped,
			:permanently_failed, :deferred, :notifications_sent, :notifications_failed,
			:started_at, :completed_at
		)`

	_, err = r.db.GetQuerier(ctx).NamedExecContext(ctx, query, row)
	return postgres.TranslateError(err, "billing run", map[string]any{"run_id": report.ID})
}

func (r *billingRunRepository) GetLatest(ctx context.Context, tenantID string) (*billingrun.Report, error) {
	query := `
		SELECT id, tenant_id, cycle_date, status, selected, created, skipped,
			permanently_failed, deferred, notifications_sent, notifications_failed,
			started_at, completed_at
		FROM billing_runs
		WHERE tenant_id = $1
		ORDER BY started_at DESC
		LIMIT 1`

	var row billingRunRow
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &row, query, tenantID); err != nil {
		return nil, postgres.TranslateError(err, "billing run", map[string]any{"tenant_id": tenantID})
	}

	report := &billingrun.Report{
		ID:                  row.ID,
		TenantID:            row.TenantID,
		CycleDate:           row.CycleDate,
		Status:              types.BillingRunStatus(row.Status),
		Selected:            row.Selected,
		Created:             row.Created,
		Skipped:             row.Skipped,
		NotificationsSent:   row.NotificationsSent,
		NotificationsFailed: row.NotificationsFailed,
		StartedAt:           row.StartedAt,
		CompletedAt:         row.CompletedAt,
	}
	if err := json.Unmarshal(row.PermanentlyFailed, &report.PermanentlyFailed); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	if err := json.Unmarshal(row.Deferred, &report.Deferred); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return report, nil
}
