package repository

import (
	"context"
	"database/sql"
	"errors"

	"parklite/internal/models"
)

// ZoneRepository handles zone lookups.
type ZoneRepository struct {
	db *sql.DB
}

// NewZoneRepository returns repository.
func NewZoneRepository(db *sql.DB) *ZoneRepository {
	return &ZoneRepository{db: db}
}

// List returns all zones ordered by name.
func (r *ZoneRepository) List(ctx context.Context) ([]models.Zone, error) {
	const query = `
		SELECT id, name, rate_per_min, max_minutes
		FROM zones
		ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []models.Zone
	for rows.Next() {
		var z models.Zone
		if err := rows.Scan(&z.ID, &z.Name, &z.RatePerMin, &z.MaxMinutes); err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return zones, nil
}

// GetByID fetches a zone by primary key.
func (r *ZoneRepository) GetByID(ctx context.Context, id int64) (*models.Zone, error) {
	const query = `
		SELECT id, name, rate_per_min, max_minutes
		FROM zones
		WHERE id = $1
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, id)
	var z models.Zone
	if err := row.Scan(&z.ID, &z.Name, &z.RatePerMin, &z.MaxMinutes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrZoneNotFound
		}
		return nil, err
	}
	return &z, nil
}
