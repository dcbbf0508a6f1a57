package temporal

import (
	"context"
	"errors"
	"time"

	"github.com/flexprice/leasebill/internal/config"
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/flexprice/leasebill/internal/temporal/models"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
)

const (
	DefaultScheduleID = "billing-run"

	// a firing missed by more than this is dropped, the next one bills the backlog
	defaultCatchupWindow = time.Minute
)

// ScheduleService manages the Temporal schedule that fires the billing run
type ScheduleService struct {
	schedules client.ScheduleClient
	cfg       *config.Configuration
	log       *logger.Logger
}

func NewScheduleService(schedules client.ScheduleClient, cfg *config.Configuration, log *logger.Logger) *ScheduleService {
	return &ScheduleService{
		schedules: schedules,
		cfg:       cfg,
		log:       log,
	}
}

func (s *ScheduleService) scheduleID() string {
	if s.cfg.Temporal.ScheduleID != "" {
		return s.cfg.Temporal.ScheduleID
	}
	return DefaultScheduleID
}

func (s *ScheduleService) spec() client.ScheduleSpec {
	return client.ScheduleSpec{
		CronExpressions: []string{s.cfg.Billing.ScheduleExpression},
		TimeZoneName:    s.cfg.Billing.Timezone,
	}
}

func (s *ScheduleService) action() *client.ScheduleWorkflowAction {
	return &client.ScheduleWorkflowAction{
		ID:        s.scheduleID(),
		Workflow:  models.BillingRunWorkflowName,
		TaskQueue: s.cfg.Temporal.TaskQueue,
		Args: []interface{}{
			models.BillingRunWorkflowInput{
				TenantID:   s.cfg.Billing.TenantID,
				RunTimeout: s.cfg.Billing.RunTimeout,
			},
		},
	}
}

// Ensure creates the billing schedule, or rewrites its spec, action and
// policies when it already exists. Overlapping firings are skipped.
func (s *ScheduleService) Ensure(ctx context.Context) error {
	id := s.scheduleID()
	spec := s.spec()
	action := s.action()

	_, err := s.schedules.Create(ctx, client.ScheduleOptions{
		ID:            id,
		Spec:          spec,
		Action:        action,
		Overlap:       enumspb.SCHEDULE_OVERLAP_POLICY_SKIP,
		CatchupWindow: defaultCatchupWindow,
		Note:          "recurring lease billing",
	})
	if err == nil {
		s.log.Infow("temporal schedule created",
			"schedule_id", id,
			"cron", s.cfg.Billing.ScheduleExpression,
			"timezone", s.cfg.Billing.Timezone)
		return nil
	}
	if !isScheduleExists(err) {
		s.log.Errorw("failed to create temporal schedule", "schedule_id", id, "error", err)
		return ierr.WithError(err).
			WithHint("Failed to create Temporal schedule").
			WithReportableDetails(map[string]any{"schedule_id": id}).
			Mark(ierr.ErrSystem)
	}

	handle := s.schedules.GetHandle(ctx, id)
	err = handle.Update(ctx, client.ScheduleUpdateOptions{
		DoUpdate: func(input client.ScheduleUpdateInput) (*client.ScheduleUpdate, error) {
			schedule := input.Description.Schedule
			schedule.Spec = &spec
			schedule.Action = action
			if schedule.Policy == nil {
				schedule.Policy = &client.SchedulePolicies{}
			}
			schedule.Policy.Overlap = enumspb.SCHEDULE_OVERLAP_POLICY_SKIP
			schedule.Policy.CatchupWindow = defaultCatchupWindow
			return &client.ScheduleUpdate{Schedule: &schedule}, nil
		},
	})
	if err != nil {
		s.log.Errorw("failed to update temporal schedule", "schedule_id", id, "error", err)
		return ierr.WithError(err).
			WithHint("Failed to update Temporal schedule").
			WithReportableDetails(map[string]any{"schedule_id": id}).
			Mark(ierr.ErrSystem)
	}

	s.log.Infow("temporal schedule updated",
		"schedule_id", id,
		"cron", s.cfg.Billing.ScheduleExpression,
		"timezone", s.cfg.Billing.Timezone)
	return nil
}

func (s *ScheduleService) Pause(ctx context.Context, note string) error {
	id := s.scheduleID()
	if err := s.schedules.GetHandle(ctx, id).Pause(ctx, client.SchedulePauseOptions{Note: note}); err != nil {
		return s.handleErr(err, "Failed to pause Temporal schedule", id)
	}
	s.log.Infow("temporal schedule paused", "schedule_id", id)
	return nil
}

func (s *ScheduleService) Unpause(ctx context.Context, note string) error {
	id := s.scheduleID()
	if err := s.schedules.GetHandle(ctx, id).Unpause(ctx, client.ScheduleUnpauseOptions{Note: note}); err != nil {
		return s.handleErr(err, "Failed to unpause Temporal schedule", id)
	}
	s.log.Infow("temporal schedule unpaused", "schedule_id", id)
	return nil
}

func (s *ScheduleService) Delete(ctx context.Context) error {
	id := s.scheduleID()
	if err := s.schedules.GetHandle(ctx, id).Delete(ctx); err != nil {
		return s.handleErr(err, "Failed to delete Temporal schedule", id)
	}
	s.log.Infow("temporal schedule deleted", "schedule_id", id)
	return nil
}

// Trigger fires the schedule now. The overlap policy still applies.
func (s *ScheduleService) Trigger(ctx context.Context) error {
	id := s.scheduleID()
	err := s.schedules.GetHandle(ctx, id).Trigger(ctx, client.ScheduleTriggerOptions{
		Overlap: enumspb.SCHEDULE_OVERLAP_POLICY_SKIP,
	})
	if err != nil {
		return s.handleErr(err, "Failed to trigger Temporal schedule", id)
	}
	s.log.Infow("temporal schedule triggered", "schedule_id", id)
	return nil
}

func (s *ScheduleService) handleErr(err error, hint, id string) error {
	var notFound *serviceerror.NotFound
	if errors.As(err, &notFound) {
		return ierr.WithError(err).
			WithHintf("Schedule %s does not exist", id).
			Mark(ierr.ErrNotFound)
	}
	s.log.Errorw(hint, "schedule_id", id, "error", err)
	return ierr.WithError(err).
		WithHint(hint).
		WithReportableDetails(map[string]any{"schedule_id": id}).
		Mark(ierr.ErrSystem)
}

func isScheduleExists(err error) bool {
	if errors.Is(err, temporal.ErrScheduleAlreadyRunning) {
		return true
	}
	var exists *serviceerror.AlreadyExists
	return errors.As(err, &exists)
}
