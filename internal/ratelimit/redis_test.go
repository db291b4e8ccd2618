package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newRedisLimiter(t *testing.T) (RedisLimiter, *fakeClock) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	return RedisLimiter{Client: client, Prefix: "test:", Now: clock.Now}, clock
}

func TestRedisLimiterSlidingWindow(t *testing.T) {
	l, clock := newRedisLimiter(t)
	ctx := context.Background()
	rate := Rate{Window: 2 * time.Second, Limit: 2}

	for want := 1; want >= 0; want-- {
		d, err := l.Allow(ctx, "key", rate)
		require.NoError(t, err)
		require.True(t, d.Allowed)
		require.Equal(t, want, d.Remaining)
		clock.Advance(500 * time.Millisecond)
	}

	d, err := l.Allow(ctx, "key", rate)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Zero(t, d.Remaining)

	// Only the first event has left the window.
	clock.Advance(1100 * time.Millisecond)
	d, err = l.Allow(ctx, "key", rate)
	require.NoError(t, err)
	require.False(t, d.Allowed)

	clock.Advance(3 * time.Second)
	d, err = l.Allow(ctx, "key", rate)
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, 1, d.Remaining)
}

func TestRedisLimiterKeysAreIndependent(t *testing.T) {
	l, _ := newRedisLimiter(t)
	ctx := context.Background()
	rate := Rate{Window: time.Minute, Limit: 1}

	for _, key := range []string{"a", "b"} {
		d, err := l.Allow(ctx, key, rate)
		require.NoError(t, err)
		require.True(t, d.Allowed, key)
	}
}

func TestRedisLimiterWithoutClient(t *testing.T) {
	d, err := RedisLimiter{}.Allow(context.Background(), "key", Rate{Window: time.Second, Limit: 3})
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, 3, d.Remaining)
}
