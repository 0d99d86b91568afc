package service

import "errors"

var (
	// ErrInvalidAPIKey covers missing, empty and unknown credentials alike.
	ErrInvalidAPIKey = errors.New("auth: invalid api key")
	// ErrNotSessionOwner is returned when the caller does not own the session.
	ErrNotSessionOwner = errors.New("sessions: session does not belong to user")
	// ErrInvalidAmount rejects non-positive wallet deposits.
	ErrInvalidAmount = errors.New("wallet: amount must be greater than zero")
)
