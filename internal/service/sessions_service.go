package service

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"parklite/internal/clock"
	"parklite/internal/models"
	redisstore "parklite/internal/redis"
	"parklite/internal/repository"
)

// SessionRepository defines the storage contract for parking sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *models.ParkingSession) error
	GetByID(ctx context.Context, id int64) (*models.ParkingSession, error)
	HasActiveForVehicle(ctx context.Context, vehicleID int64) (bool, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.ParkingSession, error)
	ListActive(ctx context.Context, limit int) ([]models.ParkingSession, error)
	Finalize(ctx context.Context, input repository.FinalizeSessionInput) (string, error)
}

// VehicleFinder resolves a user's vehicle by plate.
type VehicleFinder interface {
	GetByUserAndPlate(ctx context.Context, userID int64, plate string) (*models.Vehicle, error)
}

// ZoneFinder resolves zones by id.
type ZoneFinder interface {
	GetByID(ctx context.Context, id int64) (*models.Zone, error)
}

// UserFinder reloads a user by id. Stop reads the balance fresh through it
// so a deposit made after authentication still counts at settlement.
type UserFinder interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// ActiveSessionCache mirrors which vehicles have a running session so that
// other consumers can read it cheaply. Postgres stays authoritative; the
// session lifecycle keeps the mirror in sync and repairs stale markers.
type ActiveSessionCache interface {
	Save(ctx context.Context, session redisstore.ActiveSession) error
	Get(ctx context.Context, vehicleID int64) (*redisstore.ActiveSession, error)
	Delete(ctx context.Context, vehicleID int64) error
}

// SessionsService drives the session lifecycle: start, stop with billing,
// and reads guarded by ownership.
type SessionsService struct {
	repo     SessionRepository
	vehicles VehicleFinder
	zones    ZoneFinder
	users    UserFinder
	cache    ActiveSessionCache
	clock    clock.Clock
	logger   *zap.Logger
}

// NewSessionsService builds service. cache may be nil.
func NewSessionsService(
	repo SessionRepository,
	vehicles VehicleFinder,
	zones ZoneFinder,
	users UserFinder,
	cache ActiveSessionCache,
	clk clock.Clock,
	logger *zap.Logger,
) *SessionsService {
	return &SessionsService{
		repo:     repo,
		vehicles: vehicles,
		zones:    zones,
		users:    users,
		cache:    cache,
		clock:    clk,
		logger:   logger,
	}
}

// Start opens a session for the user's vehicle in the zone. At most one
// active session may exist per vehicle; the database decides that, and the
// unique index on active sessions settles concurrent starts. A cache marker
// can outlive its session when eviction fails, so it never rejects a start
// on its own; a marker the database contradicts is dropped.
func (s *SessionsService) Start(ctx context.Context, user *models.User, plate string, zoneID int64) (*models.ParkingSession, error) {
	vehicle, err := s.vehicles.GetByUserAndPlate(ctx, user.ID, plate)
	if err != nil {
		return nil, err
	}

	active, err := s.repo.HasActiveForVehicle(ctx, vehicle.ID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, repository.ErrActiveSessionExists
	}

	if s.cache != nil {
		if marker, err := s.cache.Get(ctx, vehicle.ID); err != nil && err != redis.Nil {
			s.logger.Warn("active session cache lookup failed", zap.Error(err))
		} else if marker != nil {
			s.logger.Warn("dropping stale active session marker",
				zap.Int64("vehicle_id", vehicle.ID),
				zap.Int64("session_id", marker.SessionID),
			)
			if delErr := s.cache.Delete(ctx, vehicle.ID); delErr != nil && delErr != redis.Nil {
				s.logger.Warn("failed to evict stale active session marker", zap.Error(delErr))
			}
		}
	}

	zone, err := s.zones.GetByID(ctx, zoneID)
	if err != nil {
		return nil, err
	}

	session := &models.ParkingSession{
		UserID:    user.ID,
		VehicleID: vehicle.ID,
		ZoneID:    zone.ID,
		StartedAt: s.clock.Now(),
		Status:    models.SessionStatusActive,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}

	if s.cache != nil {
		cacheErr := s.cache.Save(ctx, redisstore.ActiveSession{
			SessionID: session.ID,
			VehicleID: vehicle.ID,
			UserID:    user.ID,
			ZoneID:    zone.ID,
			StartedAt: session.StartedAt,
		})
		if cacheErr != nil && cacheErr != redis.Nil {
			s.logger.Warn("failed to cache active session", zap.Error(cacheErr))
		}
	}

	s.logger.Info("session started",
		zap.Int64("session_id", session.ID),
		zap.Int64("user_id", user.ID),
		zap.Int64("vehicle_id", vehicle.ID),
		zap.Int64("zone_id", zone.ID),
	)
	return session, nil
}

// Stop finalizes the session: computes billable minutes and cost from a
// single time read, settles the billing policy and persists session and
// balance atomically. Terminal sessions cannot be stopped again.
func (s *SessionsService) Stop(ctx context.Context, user *models.User, sessionID int64) (*models.ParkingSession, error) {
	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != user.ID {
		return nil, ErrNotSessionOwner
	}
	if session.IsTerminal() {
		return nil, repository.ErrSessionNotActive
	}

	zone, err := s.zones.GetByID(ctx, session.ZoneID)
	if err != nil {
		return nil, err
	}

	// The balance on the authenticated user is a snapshot from request
	// auth; reload it so a deposit made in between still counts here.
	owner, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	endedAt := s.clock.Now()
	outcome := ComputeBilling(BillingInput{
		StartedAt:  session.StartedAt,
		EndedAt:    endedAt,
		RatePerMin: zone.RatePerMin,
		MaxMinutes: zone.MaxMinutes,
		Balance:    owner.Balance,
	})

	var debit float64
	if outcome.Status == models.SessionStatusCompleted {
		debit = outcome.Cost
	}

	finalStatus, err := s.repo.Finalize(ctx, repository.FinalizeSessionInput{
		SessionID:   session.ID,
		UserID:      user.ID,
		EndedAt:     endedAt,
		Minutes:     outcome.Minutes,
		Cost:        outcome.Cost,
		Status:      outcome.Status,
		DebitAmount: debit,
	})
	if err != nil {
		return nil, err
	}

	session.EndedAt = &endedAt
	session.Minutes = &outcome.Minutes
	session.Cost = &outcome.Cost
	session.Status = finalStatus

	if s.cache != nil {
		if err := s.cache.Delete(ctx, session.VehicleID); err != nil && err != redis.Nil {
			s.logger.Warn("failed to evict active session cache", zap.Error(err))
		}
	}

	s.logger.Info("session stopped",
		zap.Int64("session_id", session.ID),
		zap.Int("minutes", outcome.Minutes),
		zap.Float64("cost", outcome.Cost),
		zap.String("status", finalStatus),
	)
	return session, nil
}

// Get returns the session if the caller owns it.
func (s *SessionsService) Get(ctx context.Context, user *models.User, sessionID int64) (*models.ParkingSession, error) {
	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != user.ID {
		return nil, ErrNotSessionOwner
	}
	return session, nil
}

// ListByUser returns the caller's session history, newest first.
func (s *SessionsService) ListByUser(ctx context.Context, user *models.User, limit int) ([]models.ParkingSession, error) {
	return s.repo.ListByUser(ctx, user.ID, limit)
}

// ListActive returns currently running sessions.
func (s *SessionsService) ListActive(ctx context.Context, limit int) ([]models.ParkingSession, error) {
	return s.repo.ListActive(ctx, limit)
}
