package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore keeps events in one table keyed by storage key. The key
// column uses the "C" collation so ORDER BY matches byte-wise lexicographic
// order. Expired rows are filtered on read and removed by Sweep.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore opens a connection pool and verifies it with a ping.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 2
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Migrate applies the embedded schema migrations to databaseURL.
// It returns the resulting schema version.
func Migrate(databaseURL string) (uint, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("load migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return 0, fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("run migrations: %w", err)
	}

	version, _, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	return version, nil
}

func (p *PostgresStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	query := `
		INSERT INTO webhook_events (key, value, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
	`

	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl)
		expiresAt = &t
	}

	if _, err := p.pool.Exec(ctx, query, key, value, expiresAt); err != nil {
		return unavailable("postgres put", err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT value FROM webhook_events
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())
	`

	var value []byte
	err := p.pool.QueryRow(ctx, query, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("postgres get", err)
	}
	return value, nil
}

func (p *PostgresStore) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	limit := ClampLimit(opts.Limit)

	after := ""
	if opts.Cursor != "" {
		lastKey, err := DecodeCursor(opts.Cursor, opts.Prefix)
		if err != nil {
			return nil, err
		}
		after = lastKey
	}

	query := `
		SELECT key FROM webhook_events
		WHERE starts_with(key, $1)
		  AND key > $2
		  AND (expires_at IS NULL OR expires_at > now())
		ORDER BY key
		LIMIT $3
	`

	rows, err := p.pool.Query(ctx, query, opts.Prefix, after, limit+1)
	if err != nil {
		return nil, unavailable("postgres list", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, unavailable("postgres list", err)
	}
	return page(keys, limit), nil
}

func (p *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM webhook_events WHERE key = $1`, key); err != nil {
		return unavailable("postgres delete", err)
	}
	return nil
}

// Sweep deletes expired rows and returns how many were removed.
func (p *PostgresStore) Sweep(ctx context.Context) (int, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM webhook_events WHERE expires_at <= now()`)
	if err != nil {
		return 0, unavailable("postgres sweep", err)
	}
	return int(tag.RowsAffected()), nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return unavailable("postgres ping", err)
	}
	return nil
}

func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

var (
	_ EventStore = (*PostgresStore)(nil)
	_ Sweeper    = (*PostgresStore)(nil)
	_ Sweeper    = (*IndexReaper)(nil)
)
