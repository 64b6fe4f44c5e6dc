package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolSettings configures the Postgres connection pool.
type PoolSettings struct {
	URL string
	// MaxConns caps the pool. Zero keeps the pgxpool default.
	MaxConns int32
	// ConnectTimeout bounds dialing each connection, and the startup ping.
	ConnectTimeout time.Duration
}

// Connect builds a pool from s and pings the database once.
func Connect(ctx context.Context, s PoolSettings) (*pgxpool.Pool, error) {
	cfg, err := poolConfig(s)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating pgxpool: %w", err)
	}

	pingCtx := ctx
	if s.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, s.ConnectTimeout)
		defer cancel()
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

func poolConfig(s PoolSettings) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(s.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}
	if s.MaxConns > 0 {
		cfg.MaxConns = s.MaxConns
	}
	if s.ConnectTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = s.ConnectTimeout
	}
	return cfg, nil
}
