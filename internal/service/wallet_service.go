package service

import (
	"context"

	"go.uber.org/zap"

	"parklite/internal/models"
)

// BalanceRepository defines the storage contract used by the wallet.
type BalanceRepository interface {
	Credit(ctx context.Context, userID int64, amount float64) (float64, error)
}

// WalletService handles prepaid balance top-ups.
type WalletService struct {
	repo   BalanceRepository
	logger *zap.Logger
}

// NewWalletService builds service.
func NewWalletService(repo BalanceRepository, logger *zap.Logger) *WalletService {
	return &WalletService{repo: repo, logger: logger}
}

// Deposit adds amount to the user's balance and returns the new balance.
// Non-positive amounts are rejected with ErrInvalidAmount.
func (s *WalletService) Deposit(ctx context.Context, user *models.User, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	balance, err := s.repo.Credit(ctx, user.ID, amount)
	if err != nil {
		return 0, err
	}

	s.logger.Info("wallet deposit",
		zap.Int64("user_id", user.ID),
		zap.Float64("amount", amount),
		zap.Float64("balance", balance),
	)
	return balance, nil
}
