package activities

import (
	"context"

	"github.com/flexprice/leasebill/internal/domain/billingrun"
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/service"
	"github.com/flexprice/leasebill/internal/temporal/models"
	"go.temporal.io/sdk/temporal"
)

// BillingActivities runs the billing cycle and the notification sweeps.
// Registered methods are called as "RunBilling", "SweepOverdue" and "SweepWelcome".
type BillingActivities struct {
	billingRunService   service.BillingRunService
	notificationService service.NotificationService
}

func NewBillingActivities(billingRunService service.BillingRunService, notificationService service.NotificationService) *BillingActivities {
	return &BillingActivities{
		billingRunService:   billingRunService,
		notificationService: notificationService,
	}
}

// RunBilling executes one billing run. Lease level retries happen inside the
// run, so every error returned here is non retryable for the activity.
func (a *BillingActivities) RunBilling(ctx context.Context, input models.RunBillingActivityInput) (*billingrun.Report, error) {
	if input.CycleDate.IsZero() {
		return nil, temporal.NewNonRetryableApplicationError("cycle date is required", "Validation", nil)
	}

	report, err := a.billingRunService.Run(ctx, &service.RunRequest{
		CycleDate: input.CycleDate,
		TenantID:  input.TenantID,
		DryRun:    input.DryRun,
	})
	if err != nil {
		if ierr.IsLockNotObtained(err) {
			return nil, temporal.NewNonRetryableApplicationError("billing run already in progress", models.ErrTypeRunLockHeld, err)
		}
		return nil, temporal.NewNonRetryableApplicationError("billing run could not start", "RunNotStarted", err)
	}
	return report, nil
}

func (a *BillingActivities) SweepOverdue(ctx context.Context, input models.SweepOverdueActivityInput) (*models.SweepSummary, error) {
	result, err := a.notificationService.SweepOverdue(ctx, input.AsOf)
	if err != nil {
		return nil, err
	}
	return toSummary(result), nil
}

func (a *BillingActivities) SweepWelcome(ctx context.Context) (*models.SweepSummary, error) {
	result, err := a.notificationService.SweepWelcome(ctx)
	if err != nil {
		return nil, err
	}
	return toSummary(result), nil
}

func toSummary(r *service.SweepResult) *models.SweepSummary {
	return &models.SweepSummary{
		Kind:     string(r.Kind),
		Selected: r.Selected,
		Sent:     r.Sent,
		Failed:   r.Failed,
	}
}
