package notification

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flexprice/leasebill/internal/config"
	"github.com/flexprice/leasebill/internal/domain/invoice"
	"github.com/flexprice/leasebill/internal/domain/landlord"
	"github.com/flexprice/leasebill/internal/email"
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/httpclient"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/flexprice/leasebill/internal/pubsub/memory"
	"github.com/flexprice/leasebill/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testLandlord = &landlord.Landlord{ID: "ll_1", TenantID: "t1", Name: "Ada", Email: "ada@example.com"}
	testInvoice  = &invoice.Invoice{
		ID:                "inv_rec_1",
		TenantID:          "t1",
		LeaseID:           "lease_n",
		LandlordID:        "ll_1",
		CycleID:           "2024-03",
		IdempotencyKey:    "lease:lease_n:2024-03",
		ProviderInvoiceID: "in_1",
		Amount:            decimal.RequireFromString("1500.00"),
		Currency:          "usd",
		Status:            types.InvoiceStatusPending,
		DueDate:           time.Date(2024, time.March, 8, 0, 0, 0, 0, time.UTC),
	}
)

func TestEvents(t *testing.T) {
	at := time.Date(2024, time.March, 12, 6, 0, 0, 0, time.UTC)

	overdue := NewInvoiceOverdueEvent(testInvoice, testLandlord, at)
	assert.Equal(t, types.NotificationKindInvoiceOverdue, overdue.Kind)
	assert.Equal(t, "invoice.overdue:lease:lease_n:2024-03", overdue.ID)
	assert.Equal(t, "ll_1", overdue.Recipient.LandlordID)
	assert.Equal(t, 4, overdue.Payload["days_overdue"])
	assert.Equal(t, "1500", overdue.Payload["amount"])

	// the id of a logical event does not depend on when it fired
	again := NewInvoiceOverdueEvent(testInvoice, testLandlord, at.Add(24*time.Hour))
	assert.Equal(t, overdue.ID, again.ID)

	created := NewInvoiceCreatedEvent(testInvoice, testLandlord, at)
	assert.NotEqual(t, overdue.ID, created.ID)

	welcome := NewWelcomeEvent(testLandlord, at)
	assert.Equal(t, "landlord.welcome:ll_1", welcome.ID)
	assert.Equal(t, "t1", welcome.TenantID)
}

func TestPubSubNotifier_Trigger(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ps := memory.NewPubSub(logger.NewNoopLogger())
	defer ps.Close()

	messages, err := ps.Subscribe(ctx, "lease_notifications")
	require.NoError(t, err)

	n := NewPubSubNotifier(ps, "lease_notifications", logger.NewNoopLogger())
	event := NewWelcomeEvent(testLandlord, time.Now().UTC())
	require.NoError(t, n.Trigger(ctx, event))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, event.ID, msg.Metadata.Get("event_id"))
		assert.Equal(t, "landlord.welcome", msg.Metadata.Get("kind"))

		var got Event
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, event.Recipient, got.Recipient)
	case <-ctx.Done():
		t.Fatal("no message published")
	}
}

func TestHTTPNotifier_Trigger(t *testing.T) {
	var gotKey string
	var got Event
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := httpclient.NewDefaultClient(httpclient.ClientConfig{Timeout: time.Second}, logger.NewNoopLogger())
	n := NewHTTPNotifier(client, server.URL, map[string]string{"X-Api-Key": "k"}, logger.NewNoopLogger())

	event := NewInvoiceOverdueEvent(testInvoice, testLandlord, time.Now().UTC())
	require.NoError(t, n.Trigger(context.Background(), event))
	assert.Equal(t, event.ID, gotKey)
	assert.Equal(t, types.NotificationKindInvoiceOverdue, got.Kind)
}

func TestHTTPNotifier_FailureIsNotificationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := httpclient.NewDefaultClient(httpclient.ClientConfig{Timeout: time.Second}, logger.NewNoopLogger())
	n := NewHTTPNotifier(client, server.URL, nil, logger.NewNoopLogger())

	err := n.Trigger(context.Background(), NewWelcomeEvent(testLandlord, time.Now()))
	require.Error(t, err)
	assert.True(t, ierr.IsNotification(err))
}

func TestNewNotifier(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(cfg *config.Configuration)
		wantType interface{}
	}{
		{name: "none", mutate: func(cfg *config.Configuration) {}, wantType: &noopNotifier{}},
		{
			name: "memory_pubsub",
			mutate: func(cfg *config.Configuration) {
				cfg.Notifications.Provider = types.NotificationProviderPubSub
				cfg.Notifications.PubSub = types.MemoryPubSub
			},
			wantType: &pubsubNotifier{},
		},
		{
			name: "http",
			mutate: func(cfg *config.Configuration) {
				cfg.Notifications.Provider = types.NotificationProviderHTTP
				cfg.Notifications.HTTP.Endpoint = "http://localhost:9000/notify"
			},
			wantType: &httpNotifier{},
		},
		{
			name: "email",
			mutate: func(cfg *config.Configuration) {
				cfg.Notifications.Provider = types.NotificationProviderEmail
				cfg.Notifications.Email = config.EmailConfig{APIKey: "re_test", FromAddress: "billing@example.com"}
			},
			wantType: &emailNotifier{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.GetDefaultConfig()
			tt.mutate(cfg)

			n, err := NewNotifier(cfg, logger.NewNoopLogger())
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, n)
		})
	}
}

type fakeSender struct {
	sent []*email.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg *email.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "msg_1", nil
}

func TestEmailNotifier_Trigger(t *testing.T) {
	sender := &fakeSender{}
	n := NewEmailNotifier(sender, logger.NewNoopLogger())

	event := NewInvoiceCreatedEvent(testInvoice, testLandlord, time.Now().UTC())
	require.NoError(t, n.Trigger(context.Background(), event))

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "ada@example.com", msg.To)
	assert.Equal(t, "Rent invoice 2024-03 for lease lease_n", msg.Subject)
	assert.Contains(t, msg.Text, "Hi Ada,")
	assert.Equal(t, "invoice_created", msg.Tags["kind"])
	// the event payload is not modified
	_, hasName := event.Payload["name"]
	assert.False(t, hasName)
}

func TestEmailNotifier_Failures(t *testing.T) {
	tests := []struct {
		name     string
		landlord *landlord.Landlord
		sendErr  error
	}{
		{name: "no address", landlord: &landlord.Landlord{ID: "ll_2", TenantID: "t1", Name: "Bo"}},
		{name: "provider rejects", landlord: testLandlord, sendErr: assert.AnError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{err: tt.sendErr}
			n := NewEmailNotifier(sender, logger.NewNoopLogger())

			err := n.Trigger(context.Background(), NewWelcomeEvent(tt.landlord, time.Now()))
			require.Error(t, err)
			assert.True(t, ierr.IsNotification(err))
			assert.Empty(t, sender.sent)
		})
	}
}
