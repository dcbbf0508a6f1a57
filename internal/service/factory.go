package service

import (
	"github.com/flexprice/leasebill/internal/clock"
	"github.com/flexprice/leasebill/internal/config"
	"github.com/flexprice/leasebill/internal/domain/billingrun"
	"github.com/flexprice/leasebill/internal/domain/invoice"
	"github.com/flexprice/leasebill/internal/domain/landlord"
	"github.com/flexprice/leasebill/internal/domain/lease"
	"github.com/flexprice/leasebill/internal/domain/payment"
	"github.com/flexprice/leasebill/internal/domain/proration"
	"github.com/flexprice/leasebill/internal/lock"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/flexprice/leasebill/internal/metrics"
	"github.com/flexprice/leasebill/internal/notification"
	"github.com/flexprice/leasebill/internal/sentry"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger  *logger.Logger
	Config  *config.Configuration
	Clock   clock.Clock
	Sleeper clock.Sleeper

	// Repositories
	LeaseRepo      lease.Repository
	InvoiceRepo    invoice.Repository
	LandlordRepo   landlord.Repository
	BillingRunRepo billingrun.Repository

	// Collaborators
	PaymentProvider     payment.Provider
	Notifier            notification.Notifier
	Locker              lock.Locker
	ProrationCalculator proration.Calculator
	Metrics             *metrics.BillingMetrics
	Sentry              *sentry.Service
	// ReportArchive is optional
	ReportArchive billingrun.Archive
}

// NewServiceParams fills the defaults a caller did not set
func NewServiceParams(
	logger *logger.Logger,
	cfg *config.Configuration,
	leaseRepo lease.Repository,
	invoiceRepo invoice.Repository,
	landlordRepo landlord.Repository,
	billingRunRepo billingrun.Repository,
	provider payment.Provider,
	notifier notification.Notifier,
	locker lock.Locker,
	m *metrics.BillingMetrics,
	sentryService *sentry.Service,
	archive billingrun.Archive,
) ServiceParams {
	c := clock.New()
	return ServiceParams{
		Logger:              logger,
		Config:              cfg,
		Clock:               c,
		Sleeper:             c,
		LeaseRepo:           leaseRepo,
		InvoiceRepo:         invoiceRepo,
		LandlordRepo:        landlordRepo,
		BillingRunRepo:      billingRunRepo,
		PaymentProvider:     provider,
		Notifier:            notifier,
		Locker:              locker,
		ProrationCalculator: proration.NewCalculator(cfg.Billing.Proration),
		Metrics:             m,
		Sentry:              sentryService,
		ReportArchive:       archive,
	}
}
