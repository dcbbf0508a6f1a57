package internal

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/flexprice/leasebill/internal/clock"
	"github.com/flexprice/leasebill/internal/config"
	"github.com/flexprice/leasebill/internal/domain/landlord"
	"github.com/flexprice/leasebill/internal/domain/lease"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/flexprice/leasebill/internal/postgres"
	"github.com/flexprice/leasebill/internal/repository"
	"github.com/flexprice/leasebill/internal/types"
	"github.com/shopspring/decimal"
)

const leasesPerLandlord = 3

// SeedLeases creates SEED_COUNT active monthly leases due today, spread over
// landlords that have not been welcomed yet
func SeedLeases() error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	log, err := logger.NewLogger(cfg)
	if err != nil {
		return err
	}

	db, err := postgres.NewDB(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	count := 10
	if v := os.Getenv("SEED_COUNT"); v != "" {
		if count, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("invalid SEED_COUNT %q: %w", v, err)
		}
	}
	tenantID := os.Getenv("TENANT_ID")
	if tenantID == "" {
		tenantID = types.DefaultTenantID
	}

	ctx := types.SetTenantID(context.Background(), tenantID)
	clk := clock.New()
	leaseRepo := repository.NewLeaseRepository(db, log, clk)
	landlordRepo := repository.NewLandlordRepository(db, log)

	now := clk.Now().UTC()
	today := types.StartOfDay(now, cfg.Billing.Location())

	return db.WithTx(ctx, func(ctx context.Context) error {
		var current *landlord.Landlord
		for i := 0; i < count; i++ {
			if i%leasesPerLandlord == 0 {
				current = &landlord.Landlord{
					ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LANDLORD),
					TenantID:  tenantID,
					Name:      fmt.Sprintf("Landlord %d", i/leasesPerLandlord+1),
					Email:     fmt.Sprintf("landlord%d@example.com", i/leasesPerLandlord+1),
					CreatedAt: now,
					UpdatedAt: now,
				}
				if err := landlordRepo.Create(ctx, current); err != nil {
					return err
				}
			}

			l := &lease.Lease{
				ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEASE),
				TenantID:           tenantID,
				LandlordID:         current.ID,
				PropertyID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PROPERTY),
				Status:             types.LeaseStatusActive,
				Currency:           "usd",
				AmountDue:          decimal.NewFromInt(int64(1000 + 100*(i%5))),
				BillingPeriod:      types.BILLING_PERIOD_MONTHLY,
				BillingPeriodCount: 1,
				StartDate:          today.AddDate(0, -1, 0),
				NextBillingDate:    today,
				ProviderCustomerID: fmt.Sprintf("cus_seed_%d", i+1),
				CreatedAt:          now,
				UpdatedAt:          now,
			}
			if err := leaseRepo.Create(ctx, l); err != nil {
				return err
			}
		}

		log.Infow("seeded leases", "tenant_id", tenantID, "count", count, "next_billing_date", today.Format(time.DateOnly))
		return nil
	})
}
