package repository

import (
	"context"
	"database/sql"
	"errors"

	"parklite/internal/models"
)

// UserRepository handles persistence of users.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository returns repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByAPIKey fetches the user whose stored key equals the presented one.
// Comparison is exact and case-sensitive.
func (r *UserRepository) GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	const query = `
		SELECT id, email, api_key, balance, created_at
		FROM users
		WHERE api_key = $1
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, apiKey)
	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.APIKey, &user.Balance, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByID fetches a user by primary key.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	const query = `
		SELECT id, email, api_key, balance, created_at
		FROM users
		WHERE id = $1
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, id)
	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.APIKey, &user.Balance, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Credit atomically adds amount to the user's balance and returns the new
// balance. Amount validation happens in the service layer.
func (r *UserRepository) Credit(ctx context.Context, userID int64, amount float64) (float64, error) {
	const query = `
		UPDATE users
		SET balance = balance + $2
		WHERE id = $1
		RETURNING balance
	`
	var balance float64
	if err := r.db.QueryRowContext(ctx, query, userID, amount).Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return balance, nil
}
