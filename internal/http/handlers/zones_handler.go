package handlers

import (
	"context"
	"net/http"

	"parklite/internal/http/middleware"
	"parklite/internal/models"
)

// ZoneLister lists available parking zones.
type ZoneLister interface {
	List(ctx context.Context) ([]models.Zone, error)
}

// NewZonesHandler returns GET /zones handler.
func NewZonesHandler(zones ZoneLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.UserFromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		list, err := zones.List(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if list == nil {
			list = []models.Zone{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}
