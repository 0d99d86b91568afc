package models

// Zone is a billing policy: per-minute rate plus the maximum stay before
// a fine applies.
type Zone struct {
	ID         int64   `db:"id" json:"id"`
	Name       string  `db:"name" json:"name"`
	RatePerMin float64 `db:"rate_per_min" json:"rate_per_min"`
	MaxMinutes int     `db:"max_minutes" json:"max_minutes"`
}
