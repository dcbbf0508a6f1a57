package repository

import (
	"context"
	"time"

	"github.com/flexprice/leasebill/internal/cache"
	"github.com/flexprice/leasebill/internal/domain/landlord"
)

// cachedLandlordRepository serves landlord lookups from cache. The billing run
// looks up the same landlord once per lease, and a run rarely sees a landlord change.
type cachedLandlordRepository struct {
	landlord.Repository
	cache cache.Cache
}

// NewCachedLandlordRepository wraps repo with a read through cache on Get
func NewCachedLandlordRepository(repo landlord.Repository, c cache.Cache) landlord.Repository {
	return &cachedLandlordRepository{Repository: repo, cache: c}
}

func (r *cachedLandlordRepository) Get(ctx context.Context, id string) (*landlord.Landlord, error) {
	key := cache.GenerateKey(cache.PrefixLandlord, id)
	if v, ok := r.cache.Get(ctx, key); ok {
		if l, ok := v.(*landlord.Landlord); ok {
			return l, nil
		}
	}

	l, err := r.Repository.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.Set(ctx, key, l, 0)
	return l, nil
}

func (r *cachedLandlordRepository) ClaimWelcome(ctx context.Context, id string, at time.Time) (bool, error) {
	r.cache.Delete(ctx, cache.GenerateKey(cache.PrefixLandlord, id))
	return r.Repository.ClaimWelcome(ctx, id, at)
}
