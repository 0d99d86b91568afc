package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Advisory lock key guarding schema bootstrap across replicas.
const schemaLockID int64 = 727201905

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		api_key TEXT NOT NULL UNIQUE,
		balance DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS zones (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		rate_per_min DOUBLE PRECISION NOT NULL,
		max_minutes INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		plate TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, plate)
	)`,
	`CREATE TABLE IF NOT EXISTS parking_sessions (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		vehicle_id BIGINT NOT NULL REFERENCES vehicles(id),
		zone_id BIGINT NOT NULL REFERENCES zones(id),
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ,
		minutes INTEGER,
		cost DOUBLE PRECISION,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	// One active session per vehicle, enforced at the storage level so
	// concurrent starts cannot both succeed.
	`CREATE UNIQUE INDEX IF NOT EXISTS parking_sessions_one_active
		ON parking_sessions (vehicle_id)
		WHERE status = 'active'`,
	`CREATE INDEX IF NOT EXISTS parking_sessions_user_started
		ON parking_sessions (user_id, started_at DESC)`,
}

// EnsureSchema creates tables and indexes if they do not exist yet. An
// advisory lock serializes bootstrap when several instances start at once.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("db: acquire conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("db: acquire schema lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, schemaLockID)
	}()

	for _, stmt := range schemaStatements {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("db: ensure schema: %w", err)
		}
	}
	return nil
}
