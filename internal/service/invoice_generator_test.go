package service

import (
	"context"
	"testing"
	"time"

	"github.com/flexprice/leasebill/internal/domain/proration"
	"github.com/flexprice/leasebill/internal/testutil"
	"github.com/flexprice/leasebill/internal/types"
	"github.com/stretchr/testify/suite"
)

type InvoiceGeneratorSuite struct {
	testutil.BaseServiceTestSuite
	generator InvoiceGenerator
}

func TestInvoiceGenerator(t *testing.T) {
	suite.Run(t, new(InvoiceGeneratorSuite))
}

func (s *InvoiceGeneratorSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupGenerator()
}

func (s *InvoiceGeneratorSuite) TestGenerate_SameLeaseTwiceChargesOnce() {
	s.CreateTestLandlord("ll_1")
	l := s.CreateTestLease("lease_L", "ll_1", "1500.00", march(1))

	// two overlapping runs holding the same snapshot of the lease
	first := s.generator.Generate(s.GetContext(), l, GenerateOptions{})
	second := s.generator.Generate(s.GetContext(), l, GenerateOptions{})

	s.Equal(types.AttemptOutcomeSucceeded, first.Outcome)
	s.False(first.Replayed)
	s.Equal(types.AttemptOutcomeSucceeded, second.Outcome)
	s.True(second.Replayed)
	s.Equal(first.InvoiceID, second.InvoiceID)

	s.Equal(1, s.GetProvider().Calls("lease_L"))
	s.Len(s.GetStores().InvoiceRepo.All(s.GetContext()), 1)

	stored, err := s.GetStores().LeaseRepo.Get(s.GetContext(), "lease_L")
	s.Require().NoError(err)
	s.Equal(time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), stored.NextBillingDate)
}

func (s *InvoiceGeneratorSuite) TestGenerate_KeyUsesBillingTimezone() {
	s.GetConfig().Billing.Timezone = "America/Los_Angeles"
	s.Require().NoError(s.GetConfig().Billing.Validate())
	s.setupGenerator()

	s.CreateTestLandlord("ll_1")
	// 2024-03-01 02:00 UTC is still February in Los Angeles
	l := s.CreateTestLease("lease_L", "ll_1", "1500.00", time.Date(2024, time.March, 1, 2, 0, 0, 0, time.UTC))

	attempt := s.generator.Generate(s.GetContext(), l, GenerateOptions{})

	s.Equal("lease:lease_L:2024-02", attempt.IdempotencyKey)
	s.Equal(types.AttemptOutcomeSucceeded, attempt.Outcome)
}

func (s *InvoiceGeneratorSuite) TestGenerate_TerminalOutcomes() {
	tests := []struct {
		name    string
		script  []error
		always  error
		want    types.AttemptOutcome
		attempt int
	}{
		{name: "success", want: types.AttemptOutcomeSucceeded, attempt: 1},
		{name: "retried success", script: []error{testutil.TransientError("timeout")}, want: types.AttemptOutcomeSucceeded, attempt: 2},
		{name: "permanent", always: testutil.PermanentError("400"), want: types.AttemptOutcomePermanentFailed, attempt: 1},
		{name: "exhausted", always: testutil.TransientError("502"), want: types.AttemptOutcomeDeferred, attempt: 4},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			s.CreateTestLandlord("ll_1")
			l := s.CreateTestLease("lease_L", "ll_1", "1500.00", march(1))
			if tt.script != nil {
				s.GetProvider().Script("lease_L", tt.script...)
			}
			if tt.always != nil {
				s.GetProvider().FailAlways("lease_L", tt.always)
			}

			attempt := s.generator.Generate(s.GetContext(), l, GenerateOptions{})

			s.Equal(tt.want, attempt.Outcome)
			s.True(attempt.Outcome.IsTerminal())
			s.Equal(tt.attempt, attempt.Attempts)
		})
	}
}

func (s *InvoiceGeneratorSuite) TestGenerate_CancelledContextDefers() {
	s.CreateTestLandlord("ll_1")
	l := s.CreateTestLease("lease_L", "ll_1", "1500.00", march(1))

	ctx, cancel := context.WithCancel(s.GetContext())
	cancel()

	attempt := s.generator.Generate(ctx, l, GenerateOptions{})

	s.Equal(types.AttemptOutcomeDeferred, attempt.Outcome)
	s.Equal(0, s.GetProvider().Calls("lease_L"))
}

func (s *InvoiceGeneratorSuite) TestGenerate_InvalidBillingPeriodIsPermanent() {
	s.CreateTestLandlord("ll_1")
	l := s.CreateTestLease("lease_L", "ll_1", "1500.00", march(1))
	l.BillingPeriod = types.BillingPeriod("HOURLY")

	attempt := s.generator.Generate(s.GetContext(), l, GenerateOptions{})

	s.Equal(types.AttemptOutcomePermanentFailed, attempt.Outcome)
	s.Equal(0, s.GetProvider().Calls("lease_L"))
}

func (s *InvoiceGeneratorSuite) setupGenerator() {
	s.generator = NewInvoiceGenerator(ServiceParams{
		Logger:              s.GetLogger(),
		Config:              s.GetConfig(),
		Clock:               s.GetClock(),
		Sleeper:             s.GetClock(),
		LeaseRepo:           s.GetStores().LeaseRepo,
		InvoiceRepo:         s.GetStores().InvoiceRepo,
		LandlordRepo:        s.GetStores().LandlordRepo,
		PaymentProvider:     s.GetProvider(),
		ProrationCalculator: proration.NewCalculator(s.GetConfig().Billing.Proration),
		Metrics:             s.GetMetrics(),
	})
}
