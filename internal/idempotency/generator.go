package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/types"
)

// Scope represents the scope of idempotency
type Scope string

const (
	ScopeLeaseInvoice Scope = "lease"

	// Derived keys for the individual provider calls made for one lease invoice
	ScopeProviderInvoice     Scope = "provider_invoice"
	ScopeProviderInvoiceItem Scope = "provider_invoice_item"
	ScopeProviderFinalize    Scope = "provider_finalize"
)

// Generator generates idempotency keys
type Generator struct{}

// NewGenerator creates a new idempotency key generator
func NewGenerator() *Generator {
	return &Generator{}
}

// LeaseInvoiceKey returns the key identifying the single invoice a lease may
// receive for a billing cycle, ex lease:lease_01H...:2024-03
func (g *Generator) LeaseInvoiceKey(leaseID string, cycle types.BillingCycle) string {
	return fmt.Sprintf("%s:%s:%s", ScopeLeaseInvoice, leaseID, cycle.ID())
}

// ParseLeaseInvoiceKey splits a lease invoice key into its lease id and cycle id
func (g *Generator) ParseLeaseInvoiceKey(key string) (leaseID string, cycleID string, err error) {
	parts := strings.Split(key, ":")
	if len(parts) != 3 || parts[0] != string(ScopeLeaseInvoice) || parts[1] == "" || parts[2] == "" {
		return "", "", ierr.NewErrorf("malformed lease invoice key %q", key).
			WithHint("Lease invoice keys have the form lease:{leaseId}:{cycleId}").
			Mark(ierr.ErrValidation)
	}
	return parts[1], parts[2], nil
}

// DeriveKey returns a stable key for a sub operation of a lease invoice.
// Providers that need one key per request get distinct but deterministic keys.
func (g *Generator) DeriveKey(scope Scope, leaseInvoiceKey string) string {
	return g.GenerateKey(scope, map[string]interface{}{"key": leaseInvoiceKey})
}

// GenerateKey generates an idempotency key from a scope and parameters
func (g *Generator) GenerateKey(scope Scope, params map[string]interface{}) string {
	// Sort params for consistent hashing
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(scope))
	for _, k := range keys {
		b.WriteString(fmt.Sprintf(":%s=%v", k, params[k]))
	}

	hash := sha256.Sum256([]byte(b.String()))
	// first 8 bytes, provider keys are shown in dashboards
	return fmt.Sprintf("%s-%s", scope, hex.EncodeToString(hash[:8]))
}
