package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/flexprice/leasebill/internal/api"
	"github.com/flexprice/leasebill/internal/api/cron"
	v1 "github.com/flexprice/leasebill/internal/api/v1"
	"github.com/flexprice/leasebill/internal/cache"
	"github.com/flexprice/leasebill/internal/clock"
	"github.com/flexprice/leasebill/internal/config"
	"github.com/flexprice/leasebill/internal/domain/billingrun"
	"github.com/flexprice/leasebill/internal/domain/landlord"
	"github.com/flexprice/leasebill/internal/integration/stripe"
	"github.com/flexprice/leasebill/internal/lock"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/flexprice/leasebill/internal/metrics"
	"github.com/flexprice/leasebill/internal/notification"
	"github.com/flexprice/leasebill/internal/postgres"
	"github.com/flexprice/leasebill/internal/pyroscope"
	"github.com/flexprice/leasebill/internal/repository"
	"github.com/flexprice/leasebill/internal/s3"
	"github.com/flexprice/leasebill/internal/sentry"
	"github.com/flexprice/leasebill/internal/service"
	"github.com/flexprice/leasebill/internal/temporal"
	"github.com/flexprice/leasebill/internal/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			config.NewConfig,
			logger.NewLogger,
			metrics.NewBillingMetrics,
			cache.NewInMemoryCache,
			provideClock,

			// Postgres
			providePostgres,

			// Repositories
			repository.NewLeaseRepository,
			repository.NewInvoiceRepository,
			provideLandlordRepository,
			repository.NewBillingRunRepository,

			// Collaborators
			stripe.NewInvoiceProvider,
			provideNotifier,
			lock.NewLocker,
			provideReportArchive,

			// Temporal
			provideTemporalConfig,
			provideTemporalClient,
		),
		sentry.Module(),
		pyroscope.Module(),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,
			service.NewBillingRunService,
			service.NewNotificationService,
		),
	)

	// API and Temporal
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func providePostgres(lc fx.Lifecycle, cfg *config.Configuration, log *logger.Logger) (*postgres.DB, error) {
	db, err := postgres.NewDB(cfg, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			db.Close()
			return nil
		},
	})
	return db, nil
}

func provideClock() clock.Clock {
	return clock.New()
}

func provideLandlordRepository(db *postgres.DB, log *logger.Logger, c cache.Cache, cfg *config.Configuration) landlord.Repository {
	repo := repository.NewLandlordRepository(db, log)
	if !cfg.Cache.Enabled {
		return repo
	}
	return repository.NewCachedLandlordRepository(repo, c)
}

func provideNotifier(lc fx.Lifecycle, cfg *config.Configuration, log *logger.Logger) (notification.Notifier, error) {
	notifier, err := notification.NewNotifier(cfg, log)
	if err != nil {
		return nil, err
	}
	if closer, ok := notifier.(io.Closer); ok {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return closer.Close()
			},
		})
	}
	return notifier, nil
}

// provideReportArchive returns a nil archive when s3 is disabled
func provideReportArchive(cfg *config.Configuration) (billingrun.Archive, error) {
	archive, err := s3.NewReportArchive(context.Background(), cfg)
	if err != nil || archive == nil {
		return nil, err
	}
	return archive, nil
}

func provideHandlers(
	cfg *config.Configuration,
	logger *logger.Logger,
	db *postgres.DB,
	billingRunService service.BillingRunService,
	notificationService service.NotificationService,
) api.Handlers {
	return api.Handlers{
		Health:      v1.NewHealthHandler(db, logger),
		CronBilling: cron.NewBillingHandler(billingRunService, notificationService, cfg, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger, m *metrics.BillingMetrics) *gin.Engine {
	return api.NewRouter(handlers, cfg, logger, m)
}

func provideTemporalConfig(cfg *config.Configuration) *config.TemporalConfig {
	return &cfg.Temporal
}

// provideTemporalClient returns nil when temporal is disabled, the cron API
// alone then drives the billing run
func provideTemporalClient(lc fx.Lifecycle, cfg *config.TemporalConfig, log *logger.Logger) (*temporal.TemporalClient, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	c, err := temporal.NewTemporalClient(cfg, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			c.Close()
			return nil
		},
	})
	return c, nil
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	temporalClient *temporal.TemporalClient,
	params service.ServiceParams,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal:
		startAPIServer(lc, r, cfg, log)
		startTemporalWorker(lc, temporalClient, cfg, params, log)
	case types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
	case types.ModeTemporalWorker:
		if temporalClient == nil {
			log.Fatal("temporal must be enabled for temporal_worker mode")
		}
		startTemporalWorker(lc, temporalClient, cfg, params, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startTemporalWorker(
	lc fx.Lifecycle,
	temporalClient *temporal.TemporalClient,
	cfg *config.Configuration,
	params service.ServiceParams,
	log *logger.Logger,
) {
	if temporalClient == nil {
		log.Info("temporal disabled, skipping worker and schedule")
		return
	}

	worker := temporal.NewWorker(temporalClient, cfg.Temporal, params)
	worker.RegisterWithLifecycle(lc)

	schedules := temporal.NewScheduleService(temporalClient.Client.ScheduleClient(), cfg, log)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return schedules.Ensure(ctx)
		},
	})
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server")
			return srv.Shutdown(ctx)
		},
	})
}
