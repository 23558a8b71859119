package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Option tunes the pool configuration before it is opened.
type Option func(*pgxpool.Config)

// WithMaxConns caps the pool size. n <= 0 keeps the current value.
func WithMaxConns(n int32) Option {
	return func(cfg *pgxpool.Config) {
		if n > 0 {
			cfg.MaxConns = n
		}
	}
}

// Connect opens a pgx pool for dsn and pings it. Options run after the
// defaults and may override them.
func Connect(ctx context.Context, dsn string, opts ...Option) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(normalizeDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	applyDefaults(cfg)
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: new pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return pool, nil
}

func applyDefaults(cfg *pgxpool.Config) {
	if cfg.ConnConfig.RuntimeParams == nil {
		cfg.ConnConfig.RuntimeParams = map[string]string{}
	}
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = "recruitchat"
	}
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = time.Hour
	cfg.HealthCheckPeriod = time.Minute
}

// driverSuffixes are SQLAlchemy-style schemes found in shared .env files.
var driverSuffixes = map[string]string{
	"postgresql+asyncpg://": "postgresql://",
	"postgres+asyncpg://":   "postgres://",
	"postgresql+pgx://":     "postgresql://",
	"postgres+pgx://":       "postgres://",
}

// normalizeDSN rewrites driver-qualified schemes into ones pgx parses.
func normalizeDSN(dsn string) string {
	s := strings.TrimSpace(dsn)
	for from, to := range driverSuffixes {
		if rest, ok := strings.CutPrefix(s, from); ok {
			return to + rest
		}
	}
	return s
}
