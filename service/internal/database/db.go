// internal/database/db.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// DB is the shared Postgres pool. Nil when DATABASE_URL is not configured;
// callers check before persisting.
var DB *pgxpool.Pool

const schema = `
CREATE TABLE IF NOT EXISTS night_games (
	id            UUID PRIMARY KEY,
	room_code     TEXT NOT NULL,
	initial_state JSONB,
	final_state   JSONB,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	ended_at      TIMESTAMPTZ
)`

// ConnectDB opens the pool, pings it and makes sure the schema exists.
func ConnectDB(ctx context.Context, url string) error {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return fmt.Errorf("open postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return fmt.Errorf("create schema: %w", err)
	}

	DB = pool
	log.Info("Connected to Postgres")
	return nil
}

// Close releases the pool, if any.
func Close() {
	if DB != nil {
		DB.Close()
		DB = nil
	}
}
