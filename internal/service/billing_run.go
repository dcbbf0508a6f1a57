package service

import (
	"context"
	"time"

	"github.com/flexprice/leasebill/internal/domain/billingrun"
	"github.com/flexprice/leasebill/internal/domain/lease"
	"github.com/flexprice/leasebill/internal/lock"
	"github.com/flexprice/leasebill/internal/sentry"
	"github.com/flexprice/leasebill/internal/types"
	"github.com/sourcegraph/conc/pool"
)

// BillingRunService runs the recurring lease billing cycle
type BillingRunService interface {
	// Run bills every lease due on req.CycleDate once. Per lease failures are
	// reported, never returned. An error means the run could not start.
	Run(ctx context.Context, req *RunRequest) (*billingrun.Report, error)

	// GetLatestRun returns the last persisted report for a tenant scope
	GetLatestRun(ctx context.Context, tenantID string) (*billingrun.Report, error)
}

type RunRequest struct {
	// CycleDate is the date the run bills for, the clock's now when zero
	CycleDate time.Time
	// TenantID limits the run to one tenant, empty for billing.tenant_id
	TenantID string
	DryRun   bool
}

type billingRunService struct {
	ServiceParams
	generator     InvoiceGenerator
	notifications NotificationService
}

func NewBillingRunService(params ServiceParams) BillingRunService {
	return &billingRunService{
		ServiceParams: params,
		generator:     NewInvoiceGenerator(params),
		notifications: NewNotificationService(params),
	}
}

func (s *billingRunService) Run(ctx context.Context, req *RunRequest) (*billingrun.Report, error) {
	cfg := s.Config.Billing
	loc := cfg.Location()

	cycleDate := req.CycleDate
	if cycleDate.IsZero() {
		cycleDate = s.Clock.Now()
	}
	cycleDate = cycleDate.In(loc)

	tenantID := req.TenantID
	if tenantID == "" {
		tenantID = cfg.TenantID
	}

	runID := types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_RUN)
	ctx = types.SetRunID(ctx, runID)
	if tenantID != "" {
		ctx = types.SetTenantID(ctx, tenantID)
	}
	log := s.Logger.WithContext(ctx)

	lockKey := lock.RunKey(tenantID, cycleDate)
	runLock, err := s.Locker.Obtain(ctx, lockKey, s.lockTTL())
	if err != nil {
		log.Warnw("billing run not started, run lock unavailable", "key", lockKey, "error", err)
		return nil, err
	}
	defer func() {
		if err := runLock.Release(context.WithoutCancel(ctx)); err != nil {
			log.Warnw("failed to release run lock", "key", lockKey, "error", err)
		}
	}()

	runCtx := ctx
	if cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()
	}

	span, runCtx := s.Sentry.StartTransaction(runCtx, "billing.run")

	builder := billingrun.NewReportBuilder(runID, tenantID, cycleDate, s.Clock.Now())
	if req.DryRun {
		builder.MarkDryRun()
	}

	log.Infow("billing run started",
		"cycle_date", cycleDate.Format(time.DateOnly),
		"dry_run", req.DryRun,
		"worker_pool_size", cfg.WorkerPoolSize,
		"max_retries", cfg.MaxRetries)

	aborted, err := s.scan(ctx, runCtx, cycleDate, tenantID, req.DryRun, builder)
	if err != nil {
		sentry.FinishSpan(span, err)
		log.Errorw("billing run could not select leases", "error", err)
		return nil, err
	}

	if runCtx.Err() != nil {
		log.Warnw("billing run deadline reached, remaining leases deferred", "run_timeout", cfg.RunTimeout)
		aborted = true
	}

	report := builder.Build(s.Clock.Now(), aborted)
	sentry.FinishSpan(span, nil)

	s.finishRun(ctx, report)
	return report, nil
}

// scan pages through the due leases. Pages are listed with the parent ctx so
// leases left once the run deadline fires are still reported as deferred.
// It returns an error only when nothing could be selected at all.
func (s *billingRunService) scan(
	ctx, runCtx context.Context,
	cycleDate time.Time,
	tenantID string,
	dryRun bool,
	builder *billingrun.ReportBuilder,
) (bool, error) {
	log := s.Logger.WithContext(ctx)
	filter := &types.DueLeaseFilter{
		CycleDate: cycleDate,
		TenantID:  tenantID,
		Limit:     s.Config.Billing.PageSize,
	}

	selected := 0
	for {
		if ctx.Err() != nil {
			return true, nil
		}

		leases, err := s.LeaseRepo.ListDue(ctx, filter)
		if err != nil {
			if selected == 0 {
				return false, err
			}
			log.Errorw("failed to list due leases, aborting run", "after_id", filter.AfterID, "error", err)
			return true, nil
		}
		if len(leases) == 0 {
			return false, nil
		}

		selected += len(leases)
		builder.Selected(len(leases))
		s.processPage(runCtx, leases, dryRun, builder)

		filter.AfterID = leases[len(leases)-1].ID
		if len(leases) < filter.Limit {
			return false, nil
		}
	}
}

// processPage runs one page of leases through the worker pool
func (s *billingRunService) processPage(ctx context.Context, leases []*lease.Lease, dryRun bool, builder *billingrun.ReportBuilder) {
	p := pool.NewWithResults[*billingrun.InvoiceAttempt]().
		WithMaxGoroutines(s.Config.Billing.WorkerPoolSize)

	for _, l := range leases {
		p.Go(func() *billingrun.InvoiceAttempt {
			attempt := s.generator.Generate(ctx, l, GenerateOptions{DryRun: dryRun})
			if s.shouldNotifyCreated(attempt, dryRun) {
				builder.Notification(s.notifications.NotifyInvoiceCreated(ctx, attempt.InvoiceID))
			}
			return attempt
		})
	}

	for _, attempt := range p.Wait() {
		builder.Add(attempt)
	}
}

func (s *billingRunService) shouldNotifyCreated(attempt *billingrun.InvoiceAttempt, dryRun bool) bool {
	return !dryRun &&
		s.Config.Notifications.OnInvoiceCreated &&
		attempt.Outcome == types.AttemptOutcomeSucceeded &&
		!attempt.Replayed
}

// finishRun publishes the report to the log, metrics, sentry and run history
func (s *billingRunService) finishRun(ctx context.Context, report *billingrun.Report) {
	log := s.Logger.WithContext(ctx)

	log.Infow("billing run finished",
		"status", report.Status,
		"selected", report.Selected,
		"created", report.Created,
		"skipped", report.Skipped,
		"permanently_failed", report.PermanentlyFailedIDs(),
		"deferred", report.DeferredIDs(),
		"notifications_sent", report.NotificationsSent,
		"notifications_failed", report.NotificationsFailed,
		"duration", report.Duration())

	s.Metrics.ObserveRun(report)
	s.Sentry.CaptureRunFailures(report)

	if report.DryRun {
		return
	}
	if err := s.BillingRunRepo.Save(context.WithoutCancel(ctx), report); err != nil {
		log.Errorw("failed to persist billing run report", "error", err)
	}
	if s.ReportArchive != nil {
		if err := s.ReportArchive.Put(context.WithoutCancel(ctx), report); err != nil {
			log.Warnw("failed to archive billing run report", "error", err)
		}
	}
}

func (s *billingRunService) lockTTL() time.Duration {
	if s.Config.Redis.LockTTL > 0 {
		return s.Config.Redis.LockTTL
	}
	if s.Config.Billing.RunTimeout > 0 {
		return s.Config.Billing.RunTimeout + time.Minute
	}
	return time.Hour
}

func (s *billingRunService) GetLatestRun(ctx context.Context, tenantID string) (*billingrun.Report, error) {
	return s.BillingRunRepo.GetLatest(ctx, tenantID)
}
