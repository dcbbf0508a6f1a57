package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/flexprice/leasebill/internal/config"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/flexprice/leasebill/internal/postgres"
)

func main() {
	status := flag.Bool("status", false, "Print the state of every migration without applying any")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	logger.Infow("connecting to database", "host", cfg.Postgres.Host, "dbname", cfg.Postgres.DBName)
	db, err := postgres.NewDB(cfg, logger)
	if err != nil {
		logger.Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if *status {
		if err := db.MigrationStatus(ctx); err != nil {
			logger.Fatalw("failed to read migration status", "error", err)
		}
		return
	}

	logger.Info("running database migrations")
	if err := db.Migrate(ctx); err != nil {
		logger.Fatalw("failed to apply migrations", "error", err)
	}
	logger.Info("migrations completed")
}
