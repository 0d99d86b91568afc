package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors surfaced by repositories. Services translate these into
// their own policy errors where needed; handlers map them to HTTP statuses.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrZoneNotFound    = errors.New("zone not found")
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrSessionNotFound = errors.New("session not found")

	// ErrDuplicatePlate means the owner already registered this exact plate.
	ErrDuplicatePlate = errors.New("plate already registered for user")
	// ErrActiveSessionExists means the vehicle already has an active session.
	ErrActiveSessionExists = errors.New("active session already exists for vehicle")
	// ErrSessionNotActive means the session was already finalized.
	ErrSessionNotActive = errors.New("session is not active")
)

const uniqueViolationCode = "23505"

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != uniqueViolationCode {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
