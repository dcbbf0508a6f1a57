package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flexprice/leasebill/internal/config"
	"github.com/flexprice/leasebill/internal/domain/billingrun"
	"github.com/flexprice/leasebill/internal/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillingMetrics_ObserveRun(t *testing.T) {
	m := NewBillingMetrics(config.GetDefaultConfig())
	start := time.Date(2024, time.March, 1, 6, 0, 0, 0, time.UTC)

	report := &billingrun.Report{
		ID:                "run_1",
		Status:            types.BillingRunStatusCompleted,
		Selected:          4,
		Created:           2,
		Skipped:           1,
		PermanentlyFailed: []billingrun.FailedLease{{LeaseID: "lease_m"}},
		Deferred:          []billingrun.FailedLease{},
		StartedAt:         start,
		CompletedAt:       start.Add(time.Minute),
	}
	m.ObserveRun(report)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.RunsTotal.WithLabelValues("", "completed")))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.LeasesSelected.WithLabelValues("")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.LeaseOutcomes.WithLabelValues("", "created")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LeaseOutcomes.WithLabelValues("", "permanent_failed")))
	assert.Equal(t, float64(start.Add(time.Minute).Unix()), testutil.ToFloat64(m.RunLastSuccess.WithLabelValues("")))
}

func TestBillingMetrics_Push(t *testing.T) {
	var pushedPath string
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pushedPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	m := NewBillingMetrics(config.GetDefaultConfig())
	m.ObserveNotification(types.NotificationKindInvoiceOverdue, nil)

	require.NoError(t, m.Push(context.Background(), gateway.URL, "billing_run"))
	assert.Equal(t, "/metrics/job/billing_run", pushedPath)
}
