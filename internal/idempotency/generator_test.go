package idempotency

import (
	"testing"
	"time"

	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaseInvoiceKey(t *testing.T) {
	g := NewGenerator()
	cycle := types.BillingCycle{TenantID: "t1", Year: 2024, Month: time.March}

	key := g.LeaseInvoiceKey("lease_1", cycle)
	assert.Equal(t, "lease:lease_1:2024-03", key)

	// same inputs always give the same key
	assert.Equal(t, key, g.LeaseInvoiceKey("lease_1", cycle))
	assert.NotEqual(t, key, g.LeaseInvoiceKey("lease_1", cycle.Next()))
	assert.NotEqual(t, key, g.LeaseInvoiceKey("lease_2", cycle))

	leaseID, cycleID, err := g.ParseLeaseInvoiceKey(key)
	require.NoError(t, err)
	assert.Equal(t, "lease_1", leaseID)
	assert.Equal(t, "2024-03", cycleID)
}

func TestParseLeaseInvoiceKeyRejectsMalformed(t *testing.T) {
	g := NewGenerator()
	for _, key := range []string{"", "lease:x", "sub:x:2024-03", "lease::2024-03"} {
		_, _, err := g.ParseLeaseInvoiceKey(key)
		require.Error(t, err, key)
		assert.True(t, ierr.IsValidation(err))
	}
}

func TestDeriveKey(t *testing.T) {
	g := NewGenerator()
	base := "lease:lease_1:2024-03"

	invoiceKey := g.DeriveKey(ScopeProviderInvoice, base)
	itemKey := g.DeriveKey(ScopeProviderInvoiceItem, base)

	assert.Equal(t, invoiceKey, g.DeriveKey(ScopeProviderInvoice, base))
	assert.NotEqual(t, invoiceKey, itemKey)
	assert.Contains(t, invoiceKey, string(ScopeProviderInvoice)+"-")
	assert.Equal(t, invoiceKey, g.GenerateKey(ScopeProviderInvoice, map[string]interface{}{"key": base}))
}
