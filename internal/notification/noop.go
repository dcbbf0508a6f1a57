package notification

import (
	"context"

	"github.com/flexprice/leasebill/internal/logger"
)

type noopNotifier struct {
	logger *logger.Logger
}

// NewNoopNotifier only logs events, used when no engine is configured
func NewNoopNotifier(logger *logger.Logger) Notifier {
	return &noopNotifier{logger: logger}
}

func (n *noopNotifier) Trigger(ctx context.Context, event *Event) error {
	n.logger.Debugw("notification engine disabled, dropping event",
		"event_id", event.ID,
		"kind", event.Kind)
	return nil
}
