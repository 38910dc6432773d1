package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresOptions tunes the connection pool.
type PostgresOptions struct {
	MaxConns int32
	// SimpleProtocol disables server-side prepared statements, required behind pgbouncer.
	SimpleProtocol bool
}

// OpenPostgres connects a pgx pool and returns the Postgres-backed Store.
func OpenPostgres(ctx context.Context, dsn string, opts PostgresOptions) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	cfg.MaxConnIdleTime = 5 * time.Minute
	if opts.SimpleProtocol {
		cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return NewPostgresStore(pool), nil
}

// NewPostgresStore wires every repository onto one pool. Close closes the pool.
func NewPostgresStore(pool *pgxpool.Pool) *Store {
	return NewStore(
		NewUserRepo(pool),
		NewUsageRepo(pool),
		NewSubscriptionRepo(pool),
		NewTelemetryRepo(pool),
		func() error {
			pool.Close()
			return nil
		},
	)
}
