package repository

import (
	"github.com/flexprice/leasebill/internal/clock"
	"github.com/flexprice/leasebill/internal/domain/billingrun"
	"github.com/flexprice/leasebill/internal/domain/invoice"
	"github.com/flexprice/leasebill/internal/domain/landlord"
	"github.com/flexprice/leasebill/internal/domain/lease"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/flexprice/leasebill/internal/postgres"
	postgresRepo "github.com/flexprice/leasebill/internal/repository/postgres"
)

func NewLeaseRepository(db *postgres.DB, logger *logger.Logger, clk clock.Clock) lease.Repository {
	return postgresRepo.NewLeaseRepository(db, logger, clk)
}

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger, clk clock.Clock) invoice.Repository {
	return postgresRepo.NewInvoiceRepository(db, logger, clk)
}

func NewLandlordRepository(db *postgres.DB, logger *logger.Logger) landlord.Repository {
	return postgresRepo.NewLandlordRepository(db, logger)
}

func NewBillingRunRepository(db *postgres.DB, logger *logger.Logger) billingrun.Repository {
	return postgresRepo.NewBillingRunRepository(db, logger)
}
