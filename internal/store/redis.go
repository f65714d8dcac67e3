package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix namespaces everything the store writes in Redis.
const DefaultRedisKeyPrefix = "webhooks:"

// RedisStore keeps each event value in its own string key and every storage
// key in one sorted set whose members all score 0. ZRANGEBYLEX over that set
// yields keys in lexicographic order, which drives prefix listing and
// cursors. Value keys carry the TTL; index members of expired values linger
// until the IndexReaper removes them and are seen as vanished keys meanwhile.
// Until that sweep, namespace discovery may still report a namespace whose
// events have all expired.
//
// Redis key layout:
//
//	<prefix>ev:<storage key>  - JSON encoded event (string, optional TTL)
//	<prefix>index             - sorted set of storage keys
type RedisStore struct {
	client *redis.Client
	prefix string
}

// ConnectRedis parses redisURL and verifies the connection with PING.
func ConnectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return client, nil
}

// NewRedisStore wraps an existing client. The caller owns the client and
// closes it; Close on the store is a no-op.
func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = DefaultRedisKeyPrefix
	}
	return &RedisStore{client: client, prefix: keyPrefix}
}

func (r *RedisStore) valueKey(key string) string {
	return r.prefix + "ev:" + key
}

func (r *RedisStore) indexKey() string {
	return r.prefix + "index"
}

func (r *RedisStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		// go-redis treats -1 as KEEPTTL
		ttl = 0
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.valueKey(key), value, ttl)
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: 0, Member: key})
		return nil
	})
	if err != nil {
		return unavailable("redis put", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.valueKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("redis get", err)
	}
	return data, nil
}

func (r *RedisStore) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	limit := ClampLimit(opts.Limit)

	lexMin, lexMax := "-", "+"
	if opts.Prefix != "" {
		lexMin = "[" + opts.Prefix
		// 0xff never occurs in UTF-8, so this bounds every key with the prefix.
		lexMax = "[" + opts.Prefix + "\xff"
	}
	if opts.Cursor != "" {
		lastKey, err := DecodeCursor(opts.Cursor, opts.Prefix)
		if err != nil {
			return nil, err
		}
		lexMin = "(" + lastKey
	}

	keys, err := r.client.ZRangeByLex(ctx, r.indexKey(), &redis.ZRangeBy{
		Min:   lexMin,
		Max:   lexMax,
		Count: int64(limit + 1),
	}).Result()
	if err != nil {
		return nil, unavailable("redis list", err)
	}
	return page(keys, limit), nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.valueKey(key))
		pipe.ZRem(ctx, r.indexKey(), key)
		return nil
	})
	if err != nil {
		return unavailable("redis delete", err)
	}
	return nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return unavailable("redis ping", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

var _ EventStore = (*RedisStore)(nil)
