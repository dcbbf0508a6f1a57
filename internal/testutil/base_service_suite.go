package testutil

import (
	"context"
	"time"

	"github.com/flexprice/leasebill/internal/config"
	"github.com/flexprice/leasebill/internal/domain/landlord"
	"github.com/flexprice/leasebill/internal/domain/lease"
	"github.com/flexprice/leasebill/internal/lock"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/flexprice/leasebill/internal/metrics"
	"github.com/flexprice/leasebill/internal/sentry"
	"github.com/flexprice/leasebill/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository fakes for testing
type Stores struct {
	LeaseRepo      *InMemoryLeaseStore
	InvoiceRepo    *InMemoryInvoiceStore
	LandlordRepo   *InMemoryLandlordStore
	BillingRunRepo *InMemoryBillingRunStore
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	stores   Stores
	logger   *logger.Logger
	config   *config.Configuration
	clock    *FakeClock
	provider *FakePaymentProvider
	notifier *RecordingNotifier
	locker   lock.Locker
	metrics  *metrics.BillingMetrics
	sentry   *sentry.Service
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	s.logger = logger.NewNoopLogger()
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupConfig()
	s.setupContext()
	s.setupStores()

	s.clock = NewFakeClock(time.Date(2024, time.March, 1, 6, 0, 0, 0, time.UTC))
	s.provider = NewFakePaymentProvider()
	s.notifier = NewRecordingNotifier()
	s.locker = lock.NewMemoryLocker()
	s.metrics = metrics.NewBillingMetrics(s.config)
	s.sentry = sentry.NewSentryService(s.config, s.logger)
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupConfig() {
	cfg := config.GetDefaultConfig()
	cfg.Billing.BaseDelay = 100 * time.Millisecond
	cfg.Billing.MaxDelay = 300 * time.Millisecond
	cfg.Billing.RunTimeout = time.Hour
	if err := cfg.Billing.Validate(); err != nil {
		s.T().Fatalf("invalid billing config: %v", err)
	}
	s.config = cfg
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = SetupContext()
}

func (s *BaseServiceTestSuite) setupStores() {
	leases := NewInMemoryLeaseStore()
	s.stores = Stores{
		LeaseRepo:      leases,
		InvoiceRepo:    NewInMemoryInvoiceStore(),
		LandlordRepo:   NewInMemoryLandlordStore(leases),
		BillingRunRepo: NewInMemoryBillingRunStore(),
	}
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.LeaseRepo.Clear()
	s.stores.InvoiceRepo.Clear()
	s.stores.LandlordRepo.Clear()
	s.stores.BillingRunRepo.Clear()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetClock returns the fake clock, it is also the sleeper
func (s *BaseServiceTestSuite) GetClock() *FakeClock {
	return s.clock
}

func (s *BaseServiceTestSuite) GetProvider() *FakePaymentProvider {
	return s.provider
}

func (s *BaseServiceTestSuite) GetNotifier() *RecordingNotifier {
	return s.notifier
}

func (s *BaseServiceTestSuite) GetLocker() lock.Locker {
	return s.locker
}

func (s *BaseServiceTestSuite) GetMetrics() *metrics.BillingMetrics {
	return s.metrics
}

func (s *BaseServiceTestSuite) GetSentry() *sentry.Service {
	return s.sentry
}

// CreateTestLandlord stores a landlord that has not been welcomed yet
func (s *BaseServiceTestSuite) CreateTestLandlord(id string) *landlord.Landlord {
	l := &landlord.Landlord{
		ID:        id,
		TenantID:  types.DefaultTenantID,
		Name:      "Landlord " + id,
		Email:     id + "@example.com",
		CreatedAt: s.clock.Now(),
		UpdatedAt: s.clock.Now(),
	}
	s.Require().NoError(s.stores.LandlordRepo.Create(s.ctx, l))
	return l
}

// CreateTestLease stores an active monthly lease due on nextBillingDate
func (s *BaseServiceTestSuite) CreateTestLease(id, landlordID string, amount string, nextBillingDate time.Time) *lease.Lease {
	l := &lease.Lease{
		ID:                 id,
		TenantID:           types.DefaultTenantID,
		LandlordID:         landlordID,
		PropertyID:         "prop_" + id,
		Status:             types.LeaseStatusActive,
		Currency:           "usd",
		AmountDue:          decimal.RequireFromString(amount),
		BillingPeriod:      types.BILLING_PERIOD_MONTHLY,
		BillingPeriodCount: 1,
		StartDate:          nextBillingDate.AddDate(0, -6, 0),
		NextBillingDate:    nextBillingDate,
		ProviderCustomerID: "cus_" + id,
		CreatedAt:          s.clock.Now(),
		UpdatedAt:          s.clock.Now(),
	}
	s.Require().NoError(s.stores.LeaseRepo.Create(s.ctx, l))
	return l
}
