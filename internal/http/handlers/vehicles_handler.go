package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"parklite/internal/http/middleware"
	"parklite/internal/models"
)

// VehicleRegistry creates and lists a user's vehicles.
type VehicleRegistry interface {
	Register(ctx context.Context, user *models.User, plate string) (*models.Vehicle, error)
	List(ctx context.Context, user *models.User) ([]models.Vehicle, error)
}

type vehicleResponse struct {
	ID     int64  `json:"id"`
	Plate  string `json:"plate"`
	UserID int64  `json:"user_id"`
}

func newVehicleResponse(v *models.Vehicle) vehicleResponse {
	return vehicleResponse{ID: v.ID, Plate: v.Plate, UserID: v.UserID}
}

// NewVehicleCreateHandler returns POST /vehicles handler.
func NewVehicleCreateHandler(vehicles VehicleRegistry) http.HandlerFunc {
	type request struct {
		Plate string `json:"plate"`
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
		// Plates are taken verbatim; only a fully empty value is rejected.
		if req.Plate == "" {
			writeError(w, http.StatusBadRequest, "plate is required")
			return
		}

		vehicle, err := vehicles.Register(r.Context(), user, req.Plate)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, newVehicleResponse(vehicle))
	}
}

// NewVehicleListHandler returns GET /vehicles handler.
func NewVehicleListHandler(vehicles VehicleRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		list, err := vehicles.List(r.Context(), user)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		out := make([]vehicleResponse, 0, len(list))
		for i := range list {
			out = append(out, newVehicleResponse(&list[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}
