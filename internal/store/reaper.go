package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Hexix23/webhook-catcher-workers/internal/metrics"
)

const reaperBatchSize = 500

// IndexReaper removes index members of a RedisStore whose value key has
// expired. Without it the index grows with every ingested event.
type IndexReaper struct {
	store *RedisStore
}

// NewIndexReaper creates a reaper for s. Drive it with RunSweeps.
func NewIndexReaper(s *RedisStore) *IndexReaper {
	return &IndexReaper{store: s}
}

// Sweeper removes expired data a backend cannot drop on its own.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// RunSweeps calls s.Sweep on every tick until ctx is cancelled.
func RunSweeps(ctx context.Context, s Sweeper, interval time.Duration, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.Sweep(ctx)
			if err != nil {
				logger.Warn("expiry sweep failed", slog.String("error", err.Error()))
				continue
			}
			if removed > 0 {
				logger.Info("expiry sweep removed stale entries", slog.Int("count", removed))
			}
		}
	}
}

// Sweep walks the whole index once and returns how many members it removed.
func (r *IndexReaper) Sweep(ctx context.Context) (int, error) {
	client := r.store.client
	indexKey := r.store.indexKey()

	removed := 0
	lexMin := "-"
	for {
		keys, err := client.ZRangeByLex(ctx, indexKey, &redis.ZRangeBy{
			Min:   lexMin,
			Max:   "+",
			Count: reaperBatchSize,
		}).Result()
		if err != nil {
			return removed, fmt.Errorf("scan index: %w", err)
		}
		if len(keys) == 0 {
			return removed, nil
		}

		pipe := client.Pipeline()
		exists := make([]*redis.IntCmd, len(keys))
		for i, key := range keys {
			exists[i] = pipe.Exists(ctx, r.store.valueKey(key))
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return removed, fmt.Errorf("check values: %w", err)
		}

		var stale []any
		for i, cmd := range exists {
			if cmd.Val() == 0 {
				stale = append(stale, keys[i])
			}
		}
		if len(stale) > 0 {
			n, err := client.ZRem(ctx, indexKey, stale...).Result()
			if err != nil {
				return removed, fmt.Errorf("prune index: %w", err)
			}
			removed += int(n)
			metrics.IndexReaped.Add(float64(n))
		}

		if len(keys) < reaperBatchSize {
			return removed, nil
		}
		lexMin = "(" + keys[len(keys)-1]
	}
}
