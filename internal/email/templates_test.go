package email

import (
	"testing"

	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	data := map[string]interface{}{
		"name":                "Ada <Lovelace>",
		"lease_id":            "lease_n",
		"cycle_id":            "2024-03",
		"amount":              "1500",
		"currency":            "usd",
		"due_date":            "2024-03-08",
		"provider_invoice_id": "in_1",
		"days_overdue":        4,
	}

	msg, err := Render(types.NotificationKindInvoiceOverdue, data)
	require.NoError(t, err)
	assert.Equal(t, "Rent invoice 2024-03 is 4 days overdue", msg.Subject)
	assert.Contains(t, msg.Text, "Hi Ada <Lovelace>,")
	assert.Contains(t, msg.Text, "1500 USD")
	assert.Contains(t, msg.HTML, "Ada &lt;Lovelace&gt;")
	assert.Empty(t, msg.To)
}

func TestRenderEveryLandlordKind(t *testing.T) {
	for _, kind := range []types.NotificationKind{
		types.NotificationKindInvoiceCreated,
		types.NotificationKindInvoiceOverdue,
		types.NotificationKindWelcome,
	} {
		t.Run(kind.String(), func(t *testing.T) {
			assert.True(t, HasTemplate(kind))
			msg, err := Render(kind, map[string]interface{}{"name": "Ada", "currency": "usd"})
			require.NoError(t, err)
			assert.NotEmpty(t, msg.Subject)
			assert.NotEmpty(t, msg.HTML)
		})
	}
}

func TestRenderUnknownKind(t *testing.T) {
	assert.False(t, HasTemplate("lease.terminated"))

	_, err := Render("lease.terminated", nil)
	require.Error(t, err)
	assert.True(t, ierr.IsNotification(err))
}
