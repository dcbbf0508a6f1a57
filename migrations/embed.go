package migrations

import "embed"

// FS holds the goose SQL migrations applied by cmd/migrate and postgres.DB.Migrate
//
//go:embed *.sql
var FS embed.FS
