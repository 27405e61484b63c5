// Package database provides connection management for the PostgreSQL and
// MongoDB backends.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/Himansh-u2000/QPlan/internal/config"
)

const connectAttempts = 5

// NewPool creates and validates a pgxpool connection pool.
// It retries a few times to accommodate containers starting up.
func NewPool(ctx context.Context, opts config.DatabaseOptions, log logrus.FieldLogger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(opts.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	poolCfg.MaxConns = 20
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		log.WithFields(logrus.Fields{
			"attempt": attempt,
			"max":     connectAttempts,
		}).WithError(err).Warn("db connect failed, retrying in 2s")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	return nil, fmt.Errorf("connect to postgres: %w", err)
}

// schema is idempotent. Statuses are plain text so that records written by
// other tools are validated when read rather than rejected on write.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT NOT NULL,
		date        TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS resources (
		id       TEXT PRIMARY KEY,
		name     TEXT NOT NULL,
		location TEXT NOT NULL,
		status   TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS resource_requests (
		id            TEXT PRIMARY KEY,
		resource_id   TEXT NOT NULL,
		resource_name TEXT NOT NULL,
		user_id       TEXT NOT NULL,
		user_name     TEXT NOT NULL,
		status        TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL,
		decided_at    TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS resource_requests_one_pending
		ON resource_requests (user_id, resource_id)
		WHERE status = 'pending'`,
	`CREATE INDEX IF NOT EXISTS resource_requests_status
		ON resource_requests (status, created_at)`,
}

// Migrate creates the tables and indexes the postgres store relies on.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
