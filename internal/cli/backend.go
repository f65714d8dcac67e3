package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Hexix23/webhook-catcher-workers/common/logging"
	natsclient "github.com/Hexix23/webhook-catcher-workers/common/messaging/nats"
	"github.com/Hexix23/webhook-catcher-workers/internal/config"
	"github.com/Hexix23/webhook-catcher-workers/internal/notify"
	"github.com/Hexix23/webhook-catcher-workers/internal/ratelimit"
	"github.com/Hexix23/webhook-catcher-workers/internal/store"
)

// Backend holds the storage side of the process: the event store, the
// optional shared Redis client and the sweeper that prunes expired data.
type Backend struct {
	Store   store.EventStore
	Sweeper store.Sweeper
	Redis   *redis.Client

	closers []func() error
}

// Close releases every connection opened by OpenBackend.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenBackend connects the store selected by cfg.Storage.Backend. A Redis
// client is opened whenever some component needs one and is shared by the
// store and the rate limiter.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Backend, error) {
	b := &Backend{}

	if cfg.NeedsRedis() {
		client, err := store.ConnectRedis(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		b.Redis = client
		b.closers = append(b.closers, client.Close)
	}

	switch cfg.Storage.Backend {
	case config.BackendRedis:
		rs := store.NewRedisStore(b.Redis, cfg.Storage.KeyPrefix)
		b.Store = rs
		b.Sweeper = store.NewIndexReaper(rs)

	case config.BackendPostgres:
		if cfg.Postgres.AutoMigrate {
			version, err := store.Migrate(cfg.Postgres.URL)
			if err != nil {
				_ = b.Close()
				return nil, err
			}
			logger.Info("database migrations applied", "version", version)
		}
		ps, err := store.NewPostgresStore(ctx, cfg.Postgres.URL)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.Store = ps
		b.Sweeper = ps
		b.closers = append(b.closers, ps.Close)

	case config.BackendMemory:
		b.Store = store.NewMemoryStore()

	default:
		_ = b.Close()
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}

	b.Store = store.Instrument(b.Store)
	logger.Info("event store ready", logging.Backend(cfg.Storage.Backend))
	return b, nil
}

// newRateLimiter returns the Redis limiter when enabled, otherwise a no-op.
func newRateLimiter(cfg *config.Config, b *Backend, logger *logging.Logger) ratelimit.RateLimiter {
	if !cfg.Ingestion.RateLimitEnabled || b.Redis == nil {
		logger.Info("rate limiting disabled")
		return ratelimit.NoOpRateLimiter{}
	}

	limiter, err := ratelimit.NewRedisRateLimiter(b.Redis, cfg.Storage.KeyPrefix,
		cfg.Ingestion.RateLimitRequests, cfg.Ingestion.RateLimitWindow)
	if err != nil {
		logger.Warn("failed to initialize rate limiter, continuing without rate limiting", logging.Error(err))
		return ratelimit.NoOpRateLimiter{}
	}
	logger.Info("rate limiting enabled",
		"requests", cfg.Ingestion.RateLimitRequests,
		"window", cfg.Ingestion.RateLimitWindow.String())
	return limiter
}

// connectNATS opens a NATS client for cfg.NATS.
func connectNATS(cfg *config.Config, logger *logging.Logger, name string) (*natsclient.Client, error) {
	natsCfg := natsclient.DefaultConfig()
	natsCfg.URL = cfg.NATS.URL
	natsCfg.Token = cfg.NATS.Token
	natsCfg.Name = name
	natsCfg.Logger = logger.Logger
	return natsclient.NewClient(natsCfg)
}

// newNotifier publishes to NATS when enabled. A connection failure is
// logged and notifications are skipped; ingestion does not depend on them.
func newNotifier(cfg *config.Config, logger *logging.Logger) (notify.Notifier, func() error) {
	noop := func() error { return nil }
	if !cfg.NATS.Enabled {
		return notify.NoOp{}, noop
	}

	client, err := connectNATS(cfg, logger, "webhook-catcher")
	if err != nil {
		logger.Warn("failed to connect to NATS, continuing without notifications", logging.Error(err))
		return notify.NoOp{}, noop
	}
	logger.Info("event notifications enabled", "nats_url", cfg.NATS.URL)
	return notify.NewBusNotifier(client, "webhook-catcher"), client.Close
}
