package temporal

import (
	"context"
	"testing"
	"time"

	"github.com/flexprice/leasebill/internal/config"
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/flexprice/leasebill/internal/temporal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
)

type fakeScheduleHandle struct {
	client.ScheduleHandle
	id       string
	existing client.Schedule
	updated  *client.Schedule
	paused   bool
	deleted  bool
	err      error
}

func (h *fakeScheduleHandle) GetID() string { return h.id }

func (h *fakeScheduleHandle) Update(ctx context.Context, options client.ScheduleUpdateOptions) error {
	if h.err != nil {
		return h.err
	}
	update, err := options.DoUpdate(client.ScheduleUpdateInput{
		Description: client.ScheduleDescription{Schedule: h.existing},
	})
	if err != nil {
		return err
	}
	h.updated = update.Schedule
	return nil
}

func (h *fakeScheduleHandle) Pause(ctx context.Context, options client.SchedulePauseOptions) error {
	if h.err != nil {
		return h.err
	}
	h.paused = true
	return nil
}

func (h *fakeScheduleHandle) Unpause(ctx context.Context, options client.ScheduleUnpauseOptions) error {
	if h.err != nil {
		return h.err
	}
	h.paused = false
	return nil
}

func (h *fakeScheduleHandle) Delete(ctx context.Context) error {
	if h.err != nil {
		return h.err
	}
	h.deleted = true
	return nil
}

type fakeScheduleClient struct {
	client.ScheduleClient
	createErr error
	created   []client.ScheduleOptions
	handle    *fakeScheduleHandle
}

func (c *fakeScheduleClient) Create(ctx context.Context, options client.ScheduleOptions) (client.ScheduleHandle, error) {
	if c.createErr != nil {
		return nil, c.createErr
	}
	c.created = append(c.created, options)
	return c.handle, nil
}

func (c *fakeScheduleClient) GetHandle(ctx context.Context, scheduleID string) client.ScheduleHandle {
	c.handle.id = scheduleID
	return c.handle
}

func newTestScheduleService(t *testing.T) (*ScheduleService, *fakeScheduleClient) {
	cfg := config.GetDefaultConfig()
	cfg.Billing.Timezone = "Europe/Berlin"
	cfg.Billing.ScheduleExpression = "0 6 * * *"
	cfg.Billing.RunTimeout = 2 * time.Hour
	cfg.Temporal.TaskQueue = "billing"
	require.NoError(t, cfg.Billing.Validate())

	fake := &fakeScheduleClient{handle: &fakeScheduleHandle{}}
	return NewScheduleService(fake, cfg, logger.NewNoopLogger()), fake
}

func TestScheduleService_EnsureCreates(t *testing.T) {
	svc, fake := newTestScheduleService(t)

	require.NoError(t, svc.Ensure(context.Background()))

	require.Len(t, fake.created, 1)
	opts := fake.created[0]
	assert.Equal(t, DefaultScheduleID, opts.ID)
	assert.Equal(t, []string{"0 6 * * *"}, opts.Spec.CronExpressions)
	assert.Equal(t, "Europe/Berlin", opts.Spec.TimeZoneName)
	assert.Equal(t, enumspb.SCHEDULE_OVERLAP_POLICY_SKIP, opts.Overlap)
	assert.Equal(t, time.Minute, opts.CatchupWindow)

	action, ok := opts.Action.(*client.ScheduleWorkflowAction)
	require.True(t, ok)
	assert.Equal(t, models.BillingRunWorkflowName, action.Workflow)
	assert.Equal(t, "billing", action.TaskQueue)
	require.Len(t, action.Args, 1)
	input := action.Args[0].(models.BillingRunWorkflowInput)
	assert.Equal(t, 2*time.Hour, input.RunTimeout)
}

func TestScheduleService_EnsureUpdatesExisting(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "sdk sentinel", err: temporal.ErrScheduleAlreadyRunning},
		{name: "service error", err: serviceerror.NewAlreadyExist("schedule exists")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, fake := newTestScheduleService(t)
			fake.createErr = tt.err
			fake.handle.existing = client.Schedule{
				Spec:   &client.ScheduleSpec{CronExpressions: []string{"0 0 * * *"}},
				Policy: &client.SchedulePolicies{Overlap: enumspb.SCHEDULE_OVERLAP_POLICY_ALLOW_ALL},
				State:  &client.ScheduleState{Paused: true},
			}

			require.NoError(t, svc.Ensure(context.Background()))

			updated := fake.handle.updated
			require.NotNil(t, updated)
			assert.Equal(t, []string{"0 6 * * *"}, updated.Spec.CronExpressions)
			assert.Equal(t, "Europe/Berlin", updated.Spec.TimeZoneName)
			assert.Equal(t, enumspb.SCHEDULE_OVERLAP_POLICY_SKIP, updated.Policy.Overlap)
			// an operator pause survives a redeploy
			assert.True(t, updated.State.Paused)
		})
	}
}

func TestScheduleService_EnsureCreateFailure(t *testing.T) {
	svc, fake := newTestScheduleService(t)
	fake.createErr = serviceerror.NewUnavailable("frontend down")

	err := svc.Ensure(context.Background())
	require.Error(t, err)
	assert.Nil(t, fake.handle.updated)
}

func TestScheduleService_Lifecycle(t *testing.T) {
	svc, fake := newTestScheduleService(t)
	ctx := context.Background()

	require.NoError(t, svc.Pause(ctx, "maintenance"))
	assert.True(t, fake.handle.paused)
	assert.Equal(t, DefaultScheduleID, fake.handle.id)

	require.NoError(t, svc.Unpause(ctx, "done"))
	assert.False(t, fake.handle.paused)

	require.NoError(t, svc.Delete(ctx))
	assert.True(t, fake.handle.deleted)
}

func TestScheduleService_MissingSchedule(t *testing.T) {
	svc, fake := newTestScheduleService(t)
	fake.handle.err = serviceerror.NewNotFound("schedule not found")

	err := svc.Pause(context.Background(), "")
	require.Error(t, err)
	assert.True(t, ierr.IsNotFound(err))
}

func TestScheduleService_ConfiguredID(t *testing.T) {
	svc, fake := newTestScheduleService(t)
	svc.cfg.Temporal.ScheduleID = "billing-run-eu"

	require.NoError(t, svc.Ensure(context.Background()))
	assert.Equal(t, "billing-run-eu", fake.created[0].ID)
}
