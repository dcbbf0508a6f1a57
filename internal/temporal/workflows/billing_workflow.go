package workflows

import (
	"errors"
	"time"

	"github.com/flexprice/leasebill/internal/domain/billingrun"
	"github.com/flexprice/leasebill/internal/temporal/activities"
	"github.com/flexprice/leasebill/internal/temporal/models"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// BillingRunWorkflow is started by the billing-run schedule. It bills the due
// leases and then sweeps overdue reminders and welcome notifications. A run
// that could not start does not stop the sweeps.
func BillingRunWorkflow(ctx workflow.Context, input models.BillingRunWorkflowInput) (*models.BillingRunWorkflowResult, error) {
	logger := workflow.GetLogger(ctx)

	if err := input.Validate(); err != nil {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), "Validation", err)
	}

	cycleDate := input.CycleDate
	if cycleDate.IsZero() {
		cycleDate = workflow.Now(ctx)
	}
	logger.Info("Starting billing run workflow", "tenant_id", input.TenantID, "cycle_date", cycleDate, "dry_run", input.DryRun)

	runCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: input.ActivityTimeout(),
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
	sweepCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	})

	var a *activities.BillingActivities
	result := &models.BillingRunWorkflowResult{}

	var report billingrun.Report
	runErr := workflow.ExecuteActivity(runCtx, a.RunBilling, models.RunBillingActivityInput{
		TenantID:  input.TenantID,
		CycleDate: cycleDate,
		DryRun:    input.DryRun,
	}).Get(ctx, &report)
	switch {
	case runErr == nil:
		result.Report = &report
		logger.Info("Billing run finished",
			"run_id", report.ID,
			"status", report.Status,
			"created", report.Created,
			"deferred", len(report.Deferred),
			"permanently_failed", len(report.PermanentlyFailed))
	case isRunLockHeld(runErr):
		result.Skipped = true
		runErr = nil
		logger.Warn("Billing run skipped, another run holds the lock")
	default:
		logger.Error("Billing run failed", "error", runErr)
	}

	if input.DryRun {
		return result, runErr
	}

	if !input.SkipOverdue {
		var overdue models.SweepSummary
		err := workflow.ExecuteActivity(sweepCtx, a.SweepOverdue, models.SweepOverdueActivityInput{AsOf: cycleDate}).Get(ctx, &overdue)
		if err != nil {
			logger.Error("Overdue sweep failed", "error", err)
		} else {
			result.Overdue = &overdue
		}
	}

	if !input.SkipWelcome {
		var welcome models.SweepSummary
		err := workflow.ExecuteActivity(sweepCtx, a.SweepWelcome).Get(ctx, &welcome)
		if err != nil {
			logger.Error("Welcome sweep failed", "error", err)
		} else {
			result.Welcome = &welcome
		}
	}

	return result, runErr
}

func isRunLockHeld(err error) bool {
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Type() == models.ErrTypeRunLockHeld
}
