package models

import "time"

// Vehicle belongs to exactly one user. Plates are unique per owner, not
// globally, and are compared as exact strings.
type Vehicle struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Plate     string    `db:"plate" json:"plate"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
