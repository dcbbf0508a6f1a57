package temporal

import (
	"github.com/flexprice/leasebill/internal/service"
	"github.com/flexprice/leasebill/internal/temporal/activities"
	"github.com/flexprice/leasebill/internal/temporal/models"
	"github.com/flexprice/leasebill/internal/temporal/workflows"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

// RegisterWorkflowsAndActivities registers all workflows and activities with a Temporal worker.
func RegisterWorkflowsAndActivities(w worker.Registry, params service.ServiceParams) {
	w.RegisterWorkflowWithOptions(workflows.BillingRunWorkflow, workflow.RegisterOptions{
		Name: models.BillingRunWorkflowName,
	})

	billingActivities := activities.NewBillingActivities(
		service.NewBillingRunService(params),
		service.NewNotificationService(params),
	)
	// methods register under their own names: RunBilling, SweepOverdue, SweepWelcome
	w.RegisterActivityWithOptions(billingActivities, activity.RegisterOptions{})

	params.Logger.Infow("registered temporal workflows and activities",
		"workflows", []string{models.BillingRunWorkflowName},
		"activities", []string{"RunBilling", "SweepOverdue", "SweepWelcome"})
}
