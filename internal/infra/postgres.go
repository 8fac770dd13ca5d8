package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
)

// Pool sizing for the chunk store. Retrieval runs one vector query and one
// candidate fetch per request, so a small pool is enough.
const (
	poolMaxConns       = 10
	poolMinConns       = 2
	poolConnLifetime   = 1 * time.Hour
	poolConnIdleTime   = 30 * time.Minute
	poolStartupTimeout = 10 * time.Second
)

// NewPostgresDB creates the connection pool backing the chunk repository.
// Every connection registers the pgvector types so embedding columns scan
// natively.
func NewPostgresDB(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.MaxConns = poolMaxConns
	config.MinConns = poolMinConns
	config.MaxConnLifetime = poolConnLifetime
	config.MaxConnIdleTime = poolConnIdleTime

	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, poolStartupTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return pool, nil
}
