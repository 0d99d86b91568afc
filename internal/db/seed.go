package db

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

const (
	seedUserEmail   = "demo@iberopuebla.mx"
	seedUserAPIKey  = "testkey"
	seedUserBalance = 300.0
)

// Seed provisions the demo user and the two default zones. Inserts are
// idempotent so repeated startups leave existing rows untouched.
func Seed(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO users (email, api_key, balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO NOTHING
	`, seedUserEmail, seedUserAPIKey, seedUserBalance)
	if err != nil {
		return fmt.Errorf("db: seed user: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		logger.Info("seeded demo user", zap.String("email", seedUserEmail))
	}

	var zoneCount int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM zones`).Scan(&zoneCount); err != nil {
		return fmt.Errorf("db: count zones: %w", err)
	}
	if zoneCount > 0 {
		return nil
	}

	if _, err := db.ExecContext(ctx, `
		INSERT INTO zones (name, rate_per_min, max_minutes)
		VALUES ('A', 1.5, 120), ('B', 1.0, 180)
		ON CONFLICT (name) DO NOTHING
	`); err != nil {
		return fmt.Errorf("db: seed zones: %w", err)
	}
	logger.Info("seeded default zones", zap.Strings("zones", []string{"A", "B"}))
	return nil
}
