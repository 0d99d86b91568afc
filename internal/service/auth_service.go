package service

import (
	"context"
	"errors"

	"parklite/internal/models"
	"parklite/internal/repository"
)

// APIKeyLookup defines the storage contract used by the guard. The scheme
// is a shared-secret equality check; keeping it behind this interface lets
// a stronger credential store replace it without touching callers.
type APIKeyLookup interface {
	GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error)
}

// AuthService maps a presented credential to a user.
type AuthService struct {
	users APIKeyLookup
}

// NewAuthService builds AuthService.
func NewAuthService(users APIKeyLookup) *AuthService {
	return &AuthService{users: users}
}

// Authenticate resolves the user owning the key. Empty and unknown keys
// both come back as ErrInvalidAPIKey.
func (s *AuthService) Authenticate(ctx context.Context, apiKey string) (*models.User, error) {
	if apiKey == "" {
		return nil, ErrInvalidAPIKey
	}

	user, err := s.users.GetByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidAPIKey
		}
		return nil, err
	}
	return user, nil
}
