package landlord

import "time"

// Landlord owns properties and leases and is the recipient of billing notifications
type Landlord struct {
	ID       string `db:"id" json:"id"`
	TenantID string `db:"tenant_id" json:"tenant_id"`
	Name     string `db:"name" json:"name"`
	Email    string `db:"email" json:"email"`

	// WelcomeSentAt guards the welcome notification, it is set exactly once
	WelcomeSentAt *time.Time `db:"welcome_sent_at" json:"welcome_sent_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
