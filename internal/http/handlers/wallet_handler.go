package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"parklite/internal/http/middleware"
	"parklite/internal/models"
)

// Wallet credits a user's prepaid balance.
type Wallet interface {
	Deposit(ctx context.Context, user *models.User, amount float64) (float64, error)
}

// NewWalletDepositHandler returns POST /wallet/deposit handler.
func NewWalletDepositHandler(wallet Wallet) http.HandlerFunc {
	type request struct {
		Amount float64 `json:"amount"`
	}
	type response struct {
		Message string  `json:"message"`
		Balance float64 `json:"balance"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		balance, err := wallet.Deposit(r.Context(), user, req.Amount)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, response{
			Message: "deposit successful",
			Balance: balance,
		})
	}
}
