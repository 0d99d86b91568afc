package repository

import (
	"context"
	"database/sql"
	"errors"

	"parklite/internal/models"
)

// VehicleRepository handles persistence of vehicles.
type VehicleRepository struct {
	db *sql.DB
}

// NewVehicleRepository returns repository.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// Create inserts a vehicle. The (user_id, plate) unique constraint turns a
// duplicate registration into ErrDuplicatePlate, also under concurrency.
func (r *VehicleRepository) Create(ctx context.Context, vehicle *models.Vehicle) error {
	const query = `
		INSERT INTO vehicles (user_id, plate)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, vehicle.UserID, vehicle.Plate).
		Scan(&vehicle.ID, &vehicle.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "vehicles_user_id_plate_key") {
			return ErrDuplicatePlate
		}
		return err
	}
	return nil
}

// ListByUser returns all vehicles owned by the user.
func (r *VehicleRepository) ListByUser(ctx context.Context, userID int64) ([]models.Vehicle, error) {
	const query = `
		SELECT id, user_id, plate, created_at
		FROM vehicles
		WHERE user_id = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []models.Vehicle
	for rows.Next() {
		var v models.Vehicle
		if err := rows.Scan(&v.ID, &v.UserID, &v.Plate, &v.CreatedAt); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// GetByUserAndPlate fetches the user's vehicle with this exact plate.
func (r *VehicleRepository) GetByUserAndPlate(ctx context.Context, userID int64, plate string) (*models.Vehicle, error) {
	const query = `
		SELECT id, user_id, plate, created_at
		FROM vehicles
		WHERE user_id = $1 AND plate = $2
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, userID, plate)
	var v models.Vehicle
	if err := row.Scan(&v.ID, &v.UserID, &v.Plate, &v.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}
	return &v, nil
}
