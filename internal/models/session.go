package models

import "time"

// Session status values. A session is created active and finalized exactly
// once into one of the terminal states.
const (
	SessionStatusActive         = "active"
	SessionStatusCompleted      = "completed"
	SessionStatusFined          = "fined"
	SessionStatusPendingPayment = "pending_payment"
)

// ParkingSession represents one metered stay of a vehicle in a zone.
// EndedAt, Minutes and Cost stay nil while the session is active and are
// set exactly once on stop.
type ParkingSession struct {
	ID        int64      `db:"id" json:"id"`
	UserID    int64      `db:"user_id" json:"user_id"`
	VehicleID int64      `db:"vehicle_id" json:"vehicle_id"`
	ZoneID    int64      `db:"zone_id" json:"zone_id"`
	StartedAt time.Time  `db:"started_at" json:"started_at"`
	EndedAt   *time.Time `db:"ended_at" json:"ended_at"`
	Minutes   *int       `db:"minutes" json:"minutes"`
	Cost      *float64   `db:"cost" json:"cost"`
	Status    string     `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// IsTerminal reports whether the session left the active state.
func (s *ParkingSession) IsTerminal() bool {
	return s.Status != SessionStatusActive
}
