package testutil

import (
	"context"
	"sync"

	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/notification"
	"github.com/flexprice/leasebill/internal/types"
)

var _ notification.Notifier = (*RecordingNotifier)(nil)

// RecordingNotifier keeps every triggered event in memory
type RecordingNotifier struct {
	mu     sync.Mutex
	events []*notification.Event
	fail   map[types.NotificationKind]error
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{fail: make(map[types.NotificationKind]error)}
}

func (n *RecordingNotifier) Trigger(ctx context.Context, event *notification.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err, ok := n.fail[event.Kind]; ok {
		return ierr.WithError(err).
			WithHintf("Failed to trigger %s", event.Kind).
			Mark(ierr.ErrNotification)
	}
	n.events = append(n.events, event)
	return nil
}

// FailKind makes triggers of kind fail with err
func (n *RecordingNotifier) FailKind(kind types.NotificationKind, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fail[kind] = err
}

// Events returns the recorded events of a kind, all events for an empty kind
func (n *RecordingNotifier) Events(kind types.NotificationKind) []*notification.Event {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]*notification.Event, 0, len(n.events))
	for _, e := range n.events {
		if kind == "" || e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (n *RecordingNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = nil
	n.fail = make(map[types.NotificationKind]error)
}
