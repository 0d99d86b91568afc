package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"parklite/internal/models"
	"parklite/internal/service"
)

// APIKeyHeader carries the caller's credential.
const APIKeyHeader = "X-API-Key"

type contextKey string

const userKey contextKey = "user"

// Authenticator resolves a presented API key to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, apiKey string) (*models.User, error)
}

// Auth validates the API key header and stores the resolved user in the
// request context.
func Auth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.Authenticate(r.Context(), r.Header.Get(APIKeyHeader))
			if err != nil {
				if errors.Is(err, service.ErrInvalidAPIKey) {
					unauthorized(w, "invalid or missing api key")
					return
				}
				writeJSONError(w, http.StatusInternalServerError, "authentication failed")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// ContextWithUser stores the authenticated user in the context.
func ContextWithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext retrieves the authenticated user from the request context.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}

func unauthorized(w http.ResponseWriter, message string) {
	writeJSONError(w, http.StatusUnauthorized, message)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
