package metrics

import (
	"context"
	"time"

	"github.com/flexprice/leasebill/internal/config"
	"github.com/flexprice/leasebill/internal/domain/billingrun"
	"github.com/flexprice/leasebill/internal/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// BillingMetrics holds Prometheus metrics for billing runs.
// Run level metrics carry a tenant_id label, empty when a run covers every tenant.
type BillingMetrics struct {
	registry *prometheus.Registry

	RunsTotal        *prometheus.CounterVec
	RunDuration      *prometheus.HistogramVec
	RunLastSuccess   *prometheus.GaugeVec
	LeasesSelected   *prometheus.CounterVec
	LeaseOutcomes    *prometheus.CounterVec
	ProviderAttempts *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec
	Notifications    *prometheus.CounterVec
	OverdueInvoices  *prometheus.CounterVec
}

// NewBillingMetrics creates and registers all billing metrics on a dedicated registry
func NewBillingMetrics(cfg *config.Configuration) *BillingMetrics {
	namespace := cfg.Metrics.Namespace
	if namespace == "" {
		namespace = "leasebill"
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &BillingMetrics{
		registry: reg,
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "billing",
				Name:      "runs_total",
				Help:      "Billing runs by final status",
			},
			[]string{"tenant_id", "status"},
		),
		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "billing",
				Name:      "run_duration_seconds",
				Help:      "Wall time of a billing run",
				Buckets:   []float64{1, 5, 15, 60, 300, 900, 3600, 4 * 3600},
			},
			[]string{"tenant_id"},
		),
		RunLastSuccess: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "billing",
				Name:      "run_last_success_timestamp_seconds",
				Help:      "Completion time of the last billing run that finished, alert when stale",
			},
			[]string{"tenant_id"},
		),
		LeasesSelected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "billing",
				Name:      "leases_selected_total",
				Help:      "Due leases selected by billing runs",
			},
			[]string{"tenant_id"},
		),
		LeaseOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "billing",
				Name:      "lease_outcomes_total",
				Help:      "Terminal lease outcomes (created, skipped, permanent_failed, deferred)",
			},
			[]string{"tenant_id", "outcome"},
		),
		ProviderAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "invoice_attempts_total",
				Help:      "Payment provider create invoice calls by result",
			},
			[]string{"result"},
		),
		ProviderLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "invoice_latency_seconds",
				Help:      "Latency of payment provider create invoice calls",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"result"},
		),
		Notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "notifications",
				Name:      "triggers_total",
				Help:      "Notification triggers by kind and result",
			},
			[]string{"kind", "result"},
		),
		OverdueInvoices: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "billing",
				Name:      "overdue_invoices_total",
				Help:      "Invoices marked overdue by the sweep",
			},
			[]string{"tenant_id"},
		),
	}
}

// Registry is served on /metrics and pushed by the one shot command
func (m *BillingMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRun records the counts of a finished run report
func (m *BillingMetrics) ObserveRun(report *billingrun.Report) {
	tenant := report.TenantID
	m.RunsTotal.WithLabelValues(tenant, string(report.Status)).Inc()
	m.RunDuration.WithLabelValues(tenant).Observe(report.Duration().Seconds())
	m.LeasesSelected.WithLabelValues(tenant).Add(float64(report.Selected))

	m.LeaseOutcomes.WithLabelValues(tenant, "created").Add(float64(report.Created))
	m.LeaseOutcomes.WithLabelValues(tenant, "skipped").Add(float64(report.Skipped))
	m.LeaseOutcomes.WithLabelValues(tenant, "permanent_failed").Add(float64(len(report.PermanentlyFailed)))
	m.LeaseOutcomes.WithLabelValues(tenant, "deferred").Add(float64(len(report.Deferred)))

	if report.Status == types.BillingRunStatusCompleted {
		m.RunLastSuccess.WithLabelValues(tenant).Set(float64(report.CompletedAt.Unix()))
	}
}

// ObserveProviderCall records one payment provider round trip
func (m *BillingMetrics) ObserveProviderCall(result string, took time.Duration) {
	m.ProviderAttempts.WithLabelValues(result).Inc()
	m.ProviderLatency.WithLabelValues(result).Observe(took.Seconds())
}

// ObserveNotification records one notification trigger
func (m *BillingMetrics) ObserveNotification(kind types.NotificationKind, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.Notifications.WithLabelValues(kind.String(), result).Inc()
}

// Push sends the registry to a Prometheus pushgateway, used by short lived runs
func (m *BillingMetrics) Push(ctx context.Context, gatewayURL, job string) error {
	return push.New(gatewayURL, job).
		Gatherer(m.registry).
		PushContext(ctx)
}
