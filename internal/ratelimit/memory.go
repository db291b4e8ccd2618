package ratelimit

import (
	"context"
	"time"

	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// MemoryLimiter is a fixed-window, in-process limiter used when Redis is not configured.
type MemoryLimiter struct {
	store limiter.Store
}

// NewMemoryLimiter constructs a limiter backed by ulule's memory store.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{store: memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          "theater",
		CleanUpInterval: time.Minute,
	})}
}

// Allow counts an event for key.
func (m *MemoryLimiter) Allow(ctx context.Context, key string, rate Rate) (Decision, error) {
	if m == nil || rate.Disabled() {
		return unlimited(rate, time.Now()), nil
	}
	lc, err := limiter.New(m.store, limiter.Rate{Period: rate.Window, Limit: int64(rate.Limit)}).Get(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	return Decision{Allowed: !lc.Reached, Remaining: int(lc.Remaining), Reset: time.Unix(lc.Reset, 0)}, nil
}
