package postgres

import (
	"context"

	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/migrations"
	"github.com/pressly/goose/v3"
)

// Migrate applies every pending embedded migration
func (db *DB) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrSystem)
	}
	if err := goose.UpContext(ctx, db.DB.DB, "."); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to apply database migrations").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// MigrationStatus logs the state of every migration
func (db *DB) MigrationStatus(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrSystem)
	}
	return goose.StatusContext(ctx, db.DB.DB, ".")
}
