package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

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
)

const (
	exitOK         = 0
	exitPartial    = 1
	exitNotStarted = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	date := flag.String("date", "", "Cycle date to bill (YYYY-MM-DD in the billing time zone), today when empty")
	tenantID := flag.String("tenant", "", "Bill a single tenant, overrides billing.tenant_id")
	dryRun := flag.Bool("dry-run", false, "Select and price due leases without calling the provider or writing")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return exitNotStarted
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return exitNotStarted
	}
	defer log.Sync()

	req := &service.RunRequest{TenantID: *tenantID, DryRun: *dryRun}
	if *date != "" {
		d, err := time.ParseInLocation(time.DateOnly, *date, cfg.Billing.Location())
		if err != nil {
			log.Errorw("invalid --date, expected YYYY-MM-DD", "date", *date, "error", err)
			return exitNotStarted
		}
		req.CycleDate = d
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sentryService := sentry.NewSentryService(cfg, log)
	if err := sentryService.Init(); err != nil {
		log.Warnw("sentry disabled", "error", err)
	}
	defer sentryService.Flush(2)

	profiler := pyroscope.NewPyroscopeService(cfg, log)
	if err := profiler.Start(); err != nil {
		log.Warnw("profiling disabled", "error", err)
	}
	defer profiler.Stop()

	db, err := postgres.NewDB(cfg, log)
	if err != nil {
		log.Errorw("billing run not started, database unavailable", "error", err)
		return exitNotStarted
	}
	defer db.Close()

	provider, err := stripe.NewInvoiceProvider(cfg, log)
	if err != nil {
		log.Errorw("billing run not started, payment provider misconfigured", "error", err)
		return exitNotStarted
	}

	notifier, err := notification.NewNotifier(cfg, log)
	if err != nil {
		log.Errorw("billing run not started, notifier misconfigured", "error", err)
		return exitNotStarted
	}
	if closer, ok := notifier.(io.Closer); ok {
		defer closer.Close()
	}

	locker, err := lock.NewLocker(cfg, log)
	if err != nil {
		log.Errorw("billing run not started, run lock unavailable", "error", err)
		return exitNotStarted
	}

	var archive billingrun.Archive
	if a, err := s3.NewReportArchive(ctx, cfg); err != nil {
		log.Warnw("run report archive disabled", "error", err)
	} else if a != nil {
		archive = a
	}

	var landlordRepo landlord.Repository = repository.NewLandlordRepository(db, log)
	if cfg.Cache.Enabled {
		landlordRepo = repository.NewCachedLandlordRepository(landlordRepo, cache.NewInMemoryCache(cfg))
	}

	clk := clock.New()
	billingMetrics := metrics.NewBillingMetrics(cfg)
	params := service.NewServiceParams(
		log,
		cfg,
		repository.NewLeaseRepository(db, log, clk),
		repository.NewInvoiceRepository(db, log, clk),
		landlordRepo,
		repository.NewBillingRunRepository(db, log),
		provider,
		notifier,
		locker,
		billingMetrics,
		sentryService,
		archive,
	)

	report, err := service.NewBillingRunService(params).Run(ctx, req)
	if err != nil {
		pushMetrics(cfg, billingMetrics, log)
		log.Errorw("billing run not started", "error", err)
		return exitNotStarted
	}

	if !req.DryRun {
		runSweeps(ctx, service.NewNotificationService(params), report.CycleDate, log)
	}
	pushMetrics(cfg, billingMetrics, log)

	return exitCode(cfg.Billing, report)
}

// runSweeps sends overdue reminders and welcome notifications after a run.
// A failed sweep is logged and picked up by the next run.
func runSweeps(ctx context.Context, svc service.NotificationService, asOf time.Time, log *logger.Logger) {
	overdue, err := svc.SweepOverdue(ctx, asOf)
	if err != nil {
		log.Warnw("overdue sweep failed", "as_of", asOf, "error", err)
	} else {
		log.Infow("overdue sweep finished",
			"selected", overdue.Selected,
			"sent", overdue.Sent,
			"failed", overdue.Failed)
	}

	welcome, err := svc.SweepWelcome(ctx)
	if err != nil {
		log.Warnw("welcome sweep failed", "error", err)
		return
	}
	log.Infow("welcome sweep finished",
		"selected", welcome.Selected,
		"sent", welcome.Sent,
		"failed", welcome.Failed)
}

func exitCode(cfg config.BillingConfig, report *billingrun.Report) int {
	if report.HasFailures() && cfg.FailOnPartial {
		return exitPartial
	}
	return exitOK
}

func pushMetrics(cfg *config.Configuration, m *metrics.BillingMetrics, log *logger.Logger) {
	if cfg.Metrics.PushGateway == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := m.Push(ctx, cfg.Metrics.PushGateway, "billing_run"); err != nil {
		log.Warnw("failed to push metrics", "gateway", cfg.Metrics.PushGateway, "error", err)
	}
}
