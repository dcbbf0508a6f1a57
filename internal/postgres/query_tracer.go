package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/flexprice/leasebill/internal/logger"
	"github.com/jmoiron/sqlx"
)

// slowQueryThreshold promotes a completed query to a warning
const slowQueryThreshold = 500 * time.Millisecond

// queryTrace times one statement. Log lines carry the run, tenant and lease
// from ctx so a billing run can be followed through its queries.
type queryTrace struct {
	logger *logger.Logger
	query  string
	txID   string
	start  time.Time
}

func startTrace(ctx context.Context, log *logger.Logger, query, txID string) *queryTrace {
	return &queryTrace{
		logger: log.WithContext(ctx),
		query:  query,
		txID:   txID,
		start:  time.Now(),
	}
}

func (t *queryTrace) done(err error) {
	elapsed := time.Since(t.start)
	fields := []interface{}{"duration_ms", elapsed.Milliseconds(), "query", t.query}
	if t.txID != "" {
		fields = append(fields, "tx_id", t.txID)
	}

	switch {
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		t.logger.Errorw("database query failed", append(fields, "error", err.Error())...)
	case elapsed >= slowQueryThreshold:
		t.logger.Warnw("slow database query", fields...)
	default:
		t.logger.Debugw("database query completed", fields...)
	}
}

// TracedQuerier logs every statement run through the wrapped Querier.
// Arguments are not logged, they hold landlord contact details.
type TracedQuerier struct {
	Querier
	logger *logger.Logger
	txID   string
}

func NewTracedQuerier(q Querier, logger *logger.Logger, txID string) *TracedQuerier {
	return &TracedQuerier{Querier: q, logger: logger, txID: txID}
}

func (tq *TracedQuerier) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	t := startTrace(ctx, tq.logger, query, tq.txID)
	result, err := tq.Querier.ExecContext(ctx, query, args...)
	t.done(err)
	return result, err
}

func (tq *TracedQuerier) NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	t := startTrace(ctx, tq.logger, query, tq.txID)
	result, err := tq.Querier.NamedExecContext(ctx, query, arg)
	t.done(err)
	return result, err
}

func (tq *TracedQuerier) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	t := startTrace(ctx, tq.logger, query, tq.txID)
	rows, err := tq.Querier.QueryxContext(ctx, query, args...)
	t.done(err)
	return rows, err
}

func (tq *TracedQuerier) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	t := startTrace(ctx, tq.logger, query, tq.txID)
	err := tq.Querier.GetContext(ctx, dest, query, args...)
	t.done(err)
	return err
}

func (tq *TracedQuerier) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	t := startTrace(ctx, tq.logger, query, tq.txID)
	err := tq.Querier.SelectContext(ctx, dest, query, args...)
	t.done(err)
	return err
}
