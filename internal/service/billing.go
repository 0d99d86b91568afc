package service

import (
	"math"
	"time"

	"parklite/internal/models"
)

// Billing policy constants.
const (
	// GraceMinutes is the free allowance: sessions at or under it cost
	// nothing regardless of the zone rate.
	GraceMinutes = 3
	// FineSurcharge is the flat amount added on top of the base cost when
	// a session overstays the zone's maximum.
	FineSurcharge = 100.0
)

// BillingInput is everything the policy needs to settle a session.
type BillingInput struct {
	StartedAt  time.Time
	EndedAt    time.Time
	RatePerMin float64
	MaxMinutes int
	Balance    float64
}

// BillingOutcome is the settled result: billable minutes, base cost and the
// terminal status. Cost excludes the fine surcharge; that stays a derived
// display amount (see CostTotal).
type BillingOutcome struct {
	Minutes int
	Cost    float64
	Status  string
}

// ComputeBilling settles a session. Any partial minute rounds up, so the
// minimum billable unit is one minute for any positive elapsed time.
// Policy order: grace period first, then overstay fine, then balance check.
func ComputeBilling(in BillingInput) BillingOutcome {
	minutes := 0
	if elapsed := in.EndedAt.Sub(in.StartedAt); elapsed > 0 {
		minutes = int(math.Ceil(elapsed.Seconds() / 60))
	}

	if minutes <= GraceMinutes {
		return BillingOutcome{
			Minutes: minutes,
			Cost:    0,
			Status:  models.SessionStatusCompleted,
		}
	}

	cost := float64(minutes) * in.RatePerMin
	status := models.SessionStatusCompleted
	switch {
	case minutes > in.MaxMinutes:
		status = models.SessionStatusFined
	case in.Balance < cost:
		status = models.SessionStatusPendingPayment
	}

	return BillingOutcome{
		Minutes: minutes,
		Cost:    cost,
		Status:  status,
	}
}

// CostTotal derives the display total for a session view: base cost plus
// the fine surcharge when fined, absent otherwise.
func CostTotal(session *models.ParkingSession) *float64 {
	if session.Status != models.SessionStatusFined || session.Cost == nil {
		return nil
	}
	total := *session.Cost + FineSurcharge
	return &total
}
