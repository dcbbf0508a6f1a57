package temporal

import (
	"context"

	"github.com/flexprice/leasebill/internal/config"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/flexprice/leasebill/internal/service"
	"go.temporal.io/sdk/worker"
	"go.uber.org/fx"
)

// Worker manages the Temporal worker instance.
type Worker struct {
	worker worker.Worker
	log    *logger.Logger
}

// NewWorker creates a worker on the billing task queue and registers the
// billing workflow and its activities.
func NewWorker(client *TemporalClient, cfg config.TemporalConfig, params service.ServiceParams) *Worker {
	w := worker.New(client.Client, cfg.TaskQueue, worker.Options{
		// a single run per worker, the run fans out to its own pool
		MaxConcurrentActivityExecutionSize: 2,
	})

	RegisterWorkflowsAndActivities(w, params)

	return &Worker{
		worker: w,
		log:    params.Logger,
	}
}

func (w *Worker) Start() error {
	w.log.Info("starting temporal worker")
	return w.worker.Start()
}

func (w *Worker) Stop() {
	w.log.Info("stopping temporal worker")
	if w.worker != nil {
		w.worker.Stop()
	}
}

// RegisterWithLifecycle registers the worker with the fx lifecycle.
func (w *Worker) RegisterWithLifecycle(lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return w.Start()
		},
		OnStop: func(ctx context.Context) error {
			done := make(chan struct{})
			go func() {
				w.Stop()
				close(done)
			}()

			select {
			case <-done:
				w.log.Info("temporal worker stopped")
			case <-ctx.Done():
				w.log.Error("timeout while stopping temporal worker")
			}
			return nil
		},
	})
}
