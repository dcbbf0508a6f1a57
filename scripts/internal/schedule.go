package internal

import (
	"context"
	"os"
	"time"

	"github.com/flexprice/leasebill/internal/config"
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/flexprice/leasebill/internal/temporal"
)

func withSchedule(fn func(ctx context.Context, s *temporal.ScheduleService) error) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	if !cfg.Temporal.Enabled {
		return ierr.NewError("temporal is disabled").
			WithHint("Set temporal.enabled to manage the billing schedule").
			Mark(ierr.ErrConfiguration)
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return err
	}

	client, err := temporal.NewTemporalClient(&cfg.Temporal, log)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return fn(ctx, temporal.NewScheduleService(client.Client.ScheduleClient(), cfg, log))
}

func EnsureSchedule() error {
	return withSchedule(func(ctx context.Context, s *temporal.ScheduleService) error {
		return s.Ensure(ctx)
	})
}

func PauseSchedule() error {
	return withSchedule(func(ctx context.Context, s *temporal.ScheduleService) error {
		return s.Pause(ctx, os.Getenv("SCHEDULE_NOTE"))
	})
}

func UnpauseSchedule() error {
	return withSchedule(func(ctx context.Context, s *temporal.ScheduleService) error {
		return s.Unpause(ctx, os.Getenv("SCHEDULE_NOTE"))
	})
}

func TriggerSchedule() error {
	return withSchedule(func(ctx context.Context, s *temporal.ScheduleService) error {
		return s.Trigger(ctx)
	})
}

func DeleteSchedule() error {
	return withSchedule(func(ctx context.Context, s *temporal.ScheduleService) error {
		return s.Delete(ctx)
	})
}
