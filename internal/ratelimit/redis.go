package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// RedisLimiter keeps a sliding window per key in a Redis sorted set, so the
// budget is shared by every API instance.
type RedisLimiter struct {
	Client redis.UniversalClient
	Prefix string
	Now    func() time.Time
}

// Allow trims events older than the window, records this one and counts
// what is left.
func (l RedisLimiter) Allow(ctx context.Context, key string, rate Rate) (Decision, error) {
	now := time.Now()
	if l.Now != nil {
		now = l.Now()
	}
	if l.Client == nil || rate.Disabled() {
		return unlimited(rate, now), nil
	}

	zkey := l.Prefix + key
	oldest := strconv.FormatInt(now.Add(-rate.Window).UnixNano(), 10)

	var card *redis.IntCmd
	_, err := l.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRemRangeByScore(ctx, zkey, "-inf", "("+oldest)
		p.ZAdd(ctx, zkey, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
		card = p.ZCard(ctx, zkey)
		p.PExpire(ctx, zkey, rate.Window)
		return nil
	})
	if err != nil {
		return Decision{}, err
	}

	seen := int(card.Val())
	return Decision{
		Allowed:   seen <= rate.Limit,
		Remaining: max(rate.Limit-seen, 0),
		Reset:     now.Add(rate.Window),
	}, nil
}
