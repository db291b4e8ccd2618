package statement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const cachePrefix = "statement:"

// cachedStatement is the Redis value for one priced invoice.
type cachedStatement struct {
	Statement Statement `json:"statement"`
	Text      string    `json:"text"`
}

// Cache keeps priced statements in Redis keyed by a digest of their inputs.
// A Cache without a client or with a non-positive TTL stores nothing.
type Cache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewCache returns a cache writing entries that expire after ttl.
func NewCache(client redis.UniversalClient, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

func (c *Cache) get(ctx context.Context, key string) (cachedStatement, bool, error) {
	var entry cachedStatement
	if !c.enabled() {
		return entry, false, nil
	}
	raw, err := c.client.Get(ctx, cachePrefix+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return entry, false, nil
	case err != nil:
		return entry, false, err
	}
	if err := json.Unmarshal(raw, &entry); err != nil {
		return entry, false, fmt.Errorf("decode cached statement: %w", err)
	}
	return entry, true, nil
}

func (c *Cache) put(ctx context.Context, key string, entry cachedStatement) error {
	if !c.enabled() {
		return nil
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cachePrefix+key, raw, c.ttl).Err()
}
