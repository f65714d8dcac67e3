package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hexix23/webhook-catcher-workers/internal/metrics"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func setupLimiter(t *testing.T, limit int, window time.Duration) (*RedisRateLimiter, *manualClock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter, err := NewRedisRateLimiter(client, "t:", limit, window)
	require.NoError(t, err)

	clock := &manualClock{now: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
	limiter.now = clock.Now
	return limiter, clock, mr
}

func TestNoOpRateLimiter(t *testing.T) {
	limiter := NoOpRateLimiter{}
	ctx := context.Background()

	for _, ns := range []string{"demo", "", "NO-KEY"} {
		for i := 0; i < 10; i++ {
			allowed, err := limiter.Allow(ctx, ns)
			require.NoError(t, err)
			assert.True(t, allowed)
		}
	}
	assert.NoError(t, limiter.Close())
}

func TestNewRedisRateLimiter_InvalidSettings(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	_, err := NewRedisRateLimiter(client, "", 0, time.Minute)
	assert.Error(t, err)

	_, err = NewRedisRateLimiter(client, "", 10, 0)
	assert.Error(t, err)
}

func TestRedisRateLimiter_LimitAndSlide(t *testing.T) {
	limiter, clock, _ := setupLimiter(t, 3, 2*time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "demo")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i+1)
		clock.Advance(500 * time.Millisecond)
	}

	hits := testutil.ToFloat64(metrics.RateLimitHits.WithLabelValues("demo"))
	allowed, err := limiter.Allow(ctx, "demo")
	require.NoError(t, err)
	assert.False(t, allowed, "fourth request within the window")
	assert.Equal(t, hits+1, testutil.ToFloat64(metrics.RateLimitHits.WithLabelValues("demo")))

	// The first request leaves the window, freeing exactly one slot.
	clock.Advance(600 * time.Millisecond)
	allowed, err = limiter.Allow(ctx, "demo")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "demo")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestRedisRateLimiter_NamespacesAreIndependent(t *testing.T) {
	limiter, _, mr := setupLimiter(t, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		for _, ns := range []string{"a", "b"} {
			allowed, err := limiter.Allow(ctx, ns)
			require.NoError(t, err)
			assert.True(t, allowed)
		}
	}

	for _, ns := range []string{"a", "b"} {
		allowed, err := limiter.Allow(ctx, ns)
		require.NoError(t, err)
		assert.False(t, allowed)
	}

	assert.True(t, mr.Exists("t:ratelimit:a"))
	assert.True(t, mr.Exists("t:ratelimit:b"))
	assert.Greater(t, mr.TTL("t:ratelimit:a"), time.Duration(0))
}

func TestRedisRateLimiter_SameInstantRequests(t *testing.T) {
	limiter, _, _ := setupLimiter(t, 5, time.Minute)
	ctx := context.Background()

	// The clock is frozen, so members must stay distinct for each request.
	allowedCount := 0
	for i := 0; i < 8; i++ {
		allowed, err := limiter.Allow(ctx, "demo")
		require.NoError(t, err)
		if allowed {
			allowedCount++
		}
	}
	assert.Equal(t, 5, allowedCount)
}

func TestRedisRateLimiter_RedisDown(t *testing.T) {
	limiter, _, mr := setupLimiter(t, 5, time.Minute)
	mr.Close()

	allowed, err := limiter.Allow(context.Background(), "demo")
	assert.Error(t, err)
	assert.False(t, allowed)
}
