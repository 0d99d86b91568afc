package service

import (
	"context"

	"go.uber.org/zap"

	"parklite/internal/models"
)

// VehicleRepository defines the storage contract used by the registry.
type VehicleRepository interface {
	Create(ctx context.Context, vehicle *models.Vehicle) error
	ListByUser(ctx context.Context, userID int64) ([]models.Vehicle, error)
}

// VehiclesService manages a user's registered vehicles.
type VehiclesService struct {
	repo   VehicleRepository
	logger *zap.Logger
}

// NewVehiclesService builds service.
func NewVehiclesService(repo VehicleRepository, logger *zap.Logger) *VehiclesService {
	return &VehiclesService{repo: repo, logger: logger}
}

// Register creates a vehicle owned by the user. Plates are stored exactly
// as presented; case or format variants count as distinct plates. A repeat
// of the same plate for the same owner surfaces repository.ErrDuplicatePlate.
func (s *VehiclesService) Register(ctx context.Context, user *models.User, plate string) (*models.Vehicle, error) {
	vehicle := &models.Vehicle{
		UserID: user.ID,
		Plate:  plate,
	}
	if err := s.repo.Create(ctx, vehicle); err != nil {
		return nil, err
	}

	s.logger.Info("vehicle registered",
		zap.Int64("user_id", user.ID),
		zap.Int64("vehicle_id", vehicle.ID),
		zap.String("plate", plate),
	)
	return vehicle, nil
}

// List returns all vehicles owned by the user.
func (s *VehiclesService) List(ctx context.Context, user *models.User) ([]models.Vehicle, error) {
	return s.repo.ListByUser(ctx, user.ID)
}
