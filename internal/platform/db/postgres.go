// Package db owns the PostgreSQL pool and the transaction helper every
// repository in the module builds on.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig carries pool tuning that the DSN does not express. Zero
// values keep the pgx defaults.
type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// New opens a connection pool, applies the tuning overrides and verifies
// connectivity with a ping before handing the pool out.
func New(ctx context.Context, dsn string, tuning PoolConfig) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("platform/db: parse config: %w", err)
	}
	if tuning.MaxConns > 0 {
		config.MaxConns = tuning.MaxConns
	}
	if tuning.MinConns > 0 {
		config.MinConns = tuning.MinConns
	}
	if tuning.MaxConnLifetime > 0 {
		config.MaxConnLifetime = tuning.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("platform/db: new pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("platform/db: ping: %w", err)
	}

	return pool, nil
}
