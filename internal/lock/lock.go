package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/cockroachdb/errors"
	"github.com/flexprice/leasebill/internal/config"
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/redis/go-redis/v9"
)

// Lock is a held run lock
type Lock interface {
	Release(ctx context.Context) error
}

// Locker guards a billing run so two runs for the same cycle never overlap.
// Obtain fails with an error marked ierr.ErrLockNotObtained when the key is held.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// RunKey is the lock key of a billing run for a tenant scope and cycle date
func RunKey(tenantID string, cycleDate time.Time) string {
	if tenantID == "" {
		tenantID = "all"
	}
	return fmt.Sprintf("billing-run:%s:%s", tenantID, cycleDate.Format(time.DateOnly))
}

// NewLocker returns a redis locker when redis is enabled and an in process one otherwise
func NewLocker(cfg *config.Configuration, logger *logger.Logger) (Locker, error) {
	if !cfg.Redis.Enabled {
		logger.Infow("redis disabled, using in process run lock")
		return NewMemoryLocker(), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return NewRedisLocker(rdb, logger), nil
}

type redisLocker struct {
	client *redislock.Client
	logger *logger.Logger
}

func NewRedisLocker(rdb redis.UniversalClient, logger *logger.Logger) Locker {
	return &redisLocker{client: redislock.New(rdb), logger: logger}
}

func (l *redisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	lk, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ierr.NewErrorf("run lock %s is held", key).
			WithHint("Another billing run for this cycle is still active").
			Mark(ierr.ErrLockNotObtained)
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to reach redis for the run lock").
			Mark(ierr.ErrConfiguration)
	}
	l.logger.Debugw("obtained run lock", "key", key, "ttl", ttl)
	return lk, nil
}

type memoryLocker struct {
	mu   sync.Mutex
	seq  uint64
	held map[string]memoryHold
}

// memoryHold is one holder of a key. The token tells a holder whose lock
// expired apart from the one that took the key over.
type memoryHold struct {
	token   uint64
	expires time.Time
}

// NewMemoryLocker only excludes runs within one process
func NewMemoryLocker() Locker {
	return &memoryLocker{held: make(map[string]memoryHold)}
}

func (l *memoryLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if h, ok := l.held[key]; ok && now.Before(h.expires) {
		return nil, ierr.NewErrorf("run lock %s is held", key).
			WithHint("Another billing run for this cycle is still active").
			Mark(ierr.ErrLockNotObtained)
	}
	l.seq++
	l.held[key] = memoryHold{token: l.seq, expires: now.Add(ttl)}
	return &memoryLock{locker: l, key: key, token: l.seq}, nil
}

type memoryLock struct {
	locker *memoryLocker
	key    string
	token  uint64
}

// Release frees the key unless another holder obtained it after this lock expired
func (m *memoryLock) Release(ctx context.Context) error {
	m.locker.mu.Lock()
	defer m.locker.mu.Unlock()
	if h, ok := m.locker.held[m.key]; ok && h.token == m.token {
		delete(m.locker.held, m.key)
	}
	return nil
}
