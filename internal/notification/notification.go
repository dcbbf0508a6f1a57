package notification

import (
	"context"
	"time"

	"github.com/flexprice/leasebill/internal/types"
)

// Recipient is the landlord contact a notification is addressed to
type Recipient struct {
	LandlordID string `json:"landlord_id"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
}

// Event is a single notification workflow trigger.
// It is fire and forget: delivery is never tracked.
type Event struct {
	// ID is stable for a logical event so engines can drop resends
	ID         string                 `json:"id"`
	Kind       types.NotificationKind `json:"kind"`
	TenantID   string                 `json:"tenant_id"`
	Recipient  Recipient              `json:"recipient"`
	Payload    map[string]interface{} `json:"payload"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Notifier triggers a workflow in the notification engine.
// Returned errors are marked ierr.ErrNotification.
type Notifier interface {
	Trigger(ctx context.Context, event *Event) error
}
