package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parklite/internal/models"
)

// SessionRepository handles persistence of parking sessions.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository returns repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, user_id, vehicle_id, zone_id, started_at, ended_at, minutes, cost, status, created_at`

func scanSession(row interface{ Scan(...any) error }, s *models.ParkingSession) error {
	return row.Scan(
		&s.ID,
		&s.UserID,
		&s.VehicleID,
		&s.ZoneID,
		&s.StartedAt,
		&s.EndedAt,
		&s.Minutes,
		&s.Cost,
		&s.Status,
		&s.CreatedAt,
	)
}

// Create inserts a new active session. The partial unique index on
// (vehicle_id) WHERE status='active' turns a concurrent double start into
// ErrActiveSessionExists.
func (r *SessionRepository) Create(ctx context.Context, session *models.ParkingSession) error {
	const query = `
		INSERT INTO parking_sessions (user_id, vehicle_id, zone_id, started_at, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		session.UserID,
		session.VehicleID,
		session.ZoneID,
		session.StartedAt,
		session.Status,
	).Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "parking_sessions_one_active") {
			return ErrActiveSessionExists
		}
		return err
	}
	return nil
}

// GetByID fetches a session by primary key.
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.ParkingSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM parking_sessions WHERE id = $1 LIMIT 1`, sessionColumns)
	var s models.ParkingSession
	if err := scanSession(r.db.QueryRowContext(ctx, query, id), &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// HasActiveForVehicle reports whether the vehicle currently has an active
// session.
func (r *SessionRepository) HasActiveForVehicle(ctx context.Context, vehicleID int64) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM parking_sessions
			WHERE vehicle_id = $1 AND status = 'active'
		)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, vehicleID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ListByUser returns the user's most recent sessions.
func (r *SessionRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.ParkingSession, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
		SELECT %s FROM parking_sessions
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, sessionColumns)
	return r.querySessions(ctx, query, userID, limit)
}

// ListActive returns currently active sessions, newest first.
func (r *SessionRepository) ListActive(ctx context.Context, limit int) ([]models.ParkingSession, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
		SELECT %s FROM parking_sessions
		WHERE status = 'active'
		ORDER BY started_at DESC
		LIMIT $1
	`, sessionColumns)
	return r.querySessions(ctx, query, limit)
}

func (r *SessionRepository) querySessions(ctx context.Context, query string, args ...any) ([]models.ParkingSession, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.ParkingSession
	for rows.Next() {
		var s models.ParkingSession
		if err := scanSession(rows, &s); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// FinalizeSessionInput carries the outcome computed by the billing policy.
type FinalizeSessionInput struct {
	SessionID int64
	UserID    int64
	EndedAt   time.Time
	Minutes   int
	Cost      float64
	Status    string
	// DebitAmount > 0 means the user pays Cost from balance; it only
	// applies when Status is completed.
	DebitAmount float64
}

// Finalize writes the terminal session state and, when due, debits the
// user's balance — both in one transaction. The debit is conditional on
// sufficient balance so a concurrent spend downgrades the outcome to
// pending_payment instead of driving the balance negative. The session
// update is guarded by status='active'; losing that race returns
// ErrSessionNotActive and rolls everything back.
func (r *SessionRepository) Finalize(ctx context.Context, input FinalizeSessionInput) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	finalStatus := input.Status
	if finalStatus == models.SessionStatusCompleted && input.DebitAmount > 0 {
		const debit = `
			UPDATE users
			SET balance = balance - $2
			WHERE id = $1 AND balance >= $2
		`
		res, err := tx.ExecContext(ctx, debit, input.UserID, input.DebitAmount)
		if err != nil {
			return "", err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return "", err
		}
		if affected == 0 {
			finalStatus = models.SessionStatusPendingPayment
		}
	}

	const update = `
		UPDATE parking_sessions
		SET ended_at = $2,
		    minutes = $3,
		    cost = $4,
		    status = $5
		WHERE id = $1 AND status = 'active'
	`
	res, err := tx.ExecContext(ctx, update,
		input.SessionID,
		input.EndedAt,
		input.Minutes,
		input.Cost,
		finalStatus,
	)
	if err != nil {
		return "", err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return "", err
	}
	if affected == 0 {
		return "", ErrSessionNotActive
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return finalStatus, nil
}
