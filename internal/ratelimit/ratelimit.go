package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Hexix23/webhook-catcher-workers/internal/metrics"
)

// RateLimiter decides whether one more webhook may be accepted for a namespace.
type RateLimiter interface {
	Allow(ctx context.Context, namespace string) (bool, error)
	Close() error
}

// slidingWindow keeps one sorted set per namespace scored by arrival time.
// Entries older than the window are trimmed before counting.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local ttl_ms = tonumber(ARGV[4])
	local member = ARGV[5]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local current = redis.call('ZCARD', key)
	if current < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, ttl_ms)
		return 1
	end
	return 0
`)

// RedisRateLimiter is a sliding window limiter shared by every replica
// through Redis.
type RedisRateLimiter struct {
	client    *redis.Client
	keyPrefix string
	limit     int64
	window    time.Duration
	now       func() time.Time
}

// NewRedisRateLimiter allows limit requests per namespace within window.
// The caller owns client.
func NewRedisRateLimiter(client *redis.Client, keyPrefix string, limit int, window time.Duration) (*RedisRateLimiter, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("rate limit must be positive, got %d", limit)
	}
	if window <= 0 {
		return nil, fmt.Errorf("rate limit window must be positive, got %s", window)
	}
	return &RedisRateLimiter{
		client:    client,
		keyPrefix: keyPrefix,
		limit:     int64(limit),
		window:    window,
		now:       time.Now,
	}, nil
}

// Allow records one request for namespace and reports whether it is within
// the limit. Rejected requests are not recorded.
func (r *RedisRateLimiter) Allow(ctx context.Context, namespace string) (bool, error) {
	// Milliseconds keep scores exact inside Lua's float64 numbers.
	now := r.now().UnixMilli()
	windowStart := now - r.window.Milliseconds()
	member := strconv.FormatInt(now, 10) + "-" + uuid.NewString()

	result, err := slidingWindow.Run(ctx, r.client,
		[]string{r.keyPrefix + "ratelimit:" + namespace},
		now, windowStart, r.limit, r.window.Milliseconds()+1, member,
	).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	allowed := result == 1
	if !allowed {
		metrics.RateLimitHits.WithLabelValues(namespace).Inc()
	}
	return allowed, nil
}

func (r *RedisRateLimiter) Close() error {
	return nil
}

// NoOpRateLimiter always allows requests (for testing or disabled rate limiting)
type NoOpRateLimiter struct{}

func (NoOpRateLimiter) Allow(context.Context, string) (bool, error) {
	return true, nil
}

func (NoOpRateLimiter) Close() error {
	return nil
}

var (
	_ RateLimiter = (*RedisRateLimiter)(nil)
	_ RateLimiter = NoOpRateLimiter{}
)
