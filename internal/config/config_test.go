package config

import (
	"testing"
	"time"

	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillingConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *BillingConfig)
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *BillingConfig) {},
		},
		{
			name:    "unknown time zone",
			mutate:  func(c *BillingConfig) { c.Timezone = "Mars/Olympus_Mons" },
			wantErr: true,
		},
		{
			name:    "bad schedule",
			mutate:  func(c *BillingConfig) { c.ScheduleExpression = "every day" },
			wantErr: true,
		},
		{
			name:    "negative retries",
			mutate:  func(c *BillingConfig) { c.MaxRetries = -1 },
			wantErr: true,
		},
		{
			name:    "empty worker pool",
			mutate:  func(c *BillingConfig) { c.WorkerPoolSize = 0 },
			wantErr: true,
		},
		{
			name: "base delay above cap",
			mutate: func(c *BillingConfig) {
				c.BaseDelay = time.Minute
				c.MaxDelay = time.Second
			},
			wantErr: true,
		},
		{
			name:    "unknown proration",
			mutate:  func(c *BillingConfig) { c.Proration = "weekly" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultBillingConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, ierr.IsConfiguration(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestBillingConfigLocationAndNextFire(t *testing.T) {
	c := DefaultBillingConfig()
	c.Timezone = "America/New_York"
	require.NoError(t, c.Validate())

	loc := c.Location()
	assert.Equal(t, "America/New_York", loc.String())

	// 05:00 local on 2024-03-01 fires at 06:00 local the same day
	from := time.Date(2024, time.March, 1, 5, 0, 0, 0, loc)
	next, err := c.NextFire(from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 1, 6, 0, 0, 0, loc), next)
}

func TestEmptyProrationDefaultsToNone(t *testing.T) {
	c := DefaultBillingConfig()
	c.Proration = ""
	require.NoError(t, c.Validate())
	assert.Equal(t, types.ProrationPolicyNone, c.Proration)
}

func TestNewConfigReadsFileAndEnv(t *testing.T) {
	t.Setenv("LEASEBILL_BILLING_MAX_RETRIES", "5")
	t.Setenv("LEASEBILL_STRIPE_SECRET_KEY", "sk_test_123")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Billing.MaxRetries)
	assert.Equal(t, "America/New_York", cfg.Billing.Timezone)
	assert.Equal(t, 4, cfg.Billing.WorkerPoolSize)
	assert.Equal(t, 30*time.Second, cfg.Billing.MaxDelay)
	assert.Equal(t, types.NotificationProviderPubSub, cfg.Notifications.Provider)
	assert.NoError(t, cfg.ValidateProvider())
}

func TestValidateProviderRequiresSecret(t *testing.T) {
	cfg := GetDefaultConfig()
	err := cfg.ValidateProvider()
	require.Error(t, err)
	assert.True(t, ierr.IsConfiguration(err))
}

func TestNotificationConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     NotificationConfig
		wantErr bool
	}{
		{name: "unset", cfg: NotificationConfig{}},
		{name: "none", cfg: NotificationConfig{Provider: types.NotificationProviderNone}},
		{name: "svix without token", cfg: NotificationConfig{Provider: types.NotificationProviderSvix}, wantErr: true},
		{name: "svix with token", cfg: NotificationConfig{Provider: types.NotificationProviderSvix, Svix: SvixConfig{AuthToken: "tok"}}},
		{name: "email without sender", cfg: NotificationConfig{Provider: types.NotificationProviderEmail, Email: EmailConfig{APIKey: "re_123"}}, wantErr: true},
		{name: "email", cfg: NotificationConfig{Provider: types.NotificationProviderEmail, Email: EmailConfig{APIKey: "re_123", FromAddress: "billing@example.com"}}},
		{name: "http without endpoint", cfg: NotificationConfig{Provider: types.NotificationProviderHTTP}, wantErr: true},
		{name: "pubsub kafka", cfg: NotificationConfig{Provider: types.NotificationProviderPubSub, PubSub: types.KafkaPubSub}},
		{name: "pubsub unknown", cfg: NotificationConfig{Provider: types.NotificationProviderPubSub, PubSub: "nats"}, wantErr: true},
		{name: "unknown provider", cfg: NotificationConfig{Provider: "pigeon"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
