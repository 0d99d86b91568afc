package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"parklite/internal/http/middleware"
	"parklite/internal/models"
	"parklite/internal/service"
)

// SessionManager drives the session lifecycle for the API layer.
type SessionManager interface {
	Start(ctx context.Context, user *models.User, plate string, zoneID int64) (*models.ParkingSession, error)
	Stop(ctx context.Context, user *models.User, sessionID int64) (*models.ParkingSession, error)
	Get(ctx context.Context, user *models.User, sessionID int64) (*models.ParkingSession, error)
	ListByUser(ctx context.Context, user *models.User, limit int) ([]models.ParkingSession, error)
	ListActive(ctx context.Context, limit int) ([]models.ParkingSession, error)
}

const defaultSessionListLimit = 50

type sessionResponse struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	VehicleID int64      `json:"vehicle_id"`
	ZoneID    int64      `json:"zone_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
	Minutes   *int       `json:"minutes"`
	Cost      *float64   `json:"cost"`
	Status    string     `json:"status"`
	// CostTotal is derived: cost plus the fine surcharge, present only for
	// fined sessions.
	CostTotal *float64 `json:"cost_total,omitempty"`
}

func newSessionResponse(s *models.ParkingSession) sessionResponse {
	return sessionResponse{
		ID:        s.ID,
		UserID:    s.UserID,
		VehicleID: s.VehicleID,
		ZoneID:    s.ZoneID,
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
		Minutes:   s.Minutes,
		Cost:      s.Cost,
		Status:    s.Status,
		CostTotal: service.CostTotal(s),
	}
}

func newSessionListResponse(sessions []models.ParkingSession) []sessionResponse {
	out := make([]sessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, newSessionResponse(&sessions[i]))
	}
	return out
}

// NewSessionStartHandler returns POST /sessions/start handler.
func NewSessionStartHandler(sessions SessionManager) http.HandlerFunc {
	type request struct {
		Plate  string `json:"plate"`
		ZoneID int64  `json:"zone_id"`
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
		if req.Plate == "" {
			writeError(w, http.StatusBadRequest, "plate is required")
			return
		}
		if req.ZoneID == 0 {
			writeError(w, http.StatusBadRequest, "zone_id is required")
			return
		}

		session, err := sessions.Start(r.Context(), user, req.Plate, req.ZoneID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, newSessionResponse(session))
	}
}

// NewSessionStopHandler returns POST /sessions/stop handler.
func NewSessionStopHandler(sessions SessionManager) http.HandlerFunc {
	type request struct {
		SessionID int64 `json:"session_id"`
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
		if req.SessionID == 0 {
			writeError(w, http.StatusBadRequest, "session_id is required")
			return
		}

		session, err := sessions.Stop(r.Context(), user, req.SessionID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, newSessionResponse(session))
	}
}

// NewSessionGetHandler returns GET /sessions/{id} handler.
func NewSessionGetHandler(sessions SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		sessionID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid session id")
			return
		}

		session, err := sessions.Get(r.Context(), user, sessionID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, newSessionResponse(session))
	}
}

// NewSessionListHandler returns GET /sessions handler with the caller's
// history, newest first.
func NewSessionListHandler(sessions SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		list, err := sessions.ListByUser(r.Context(), user, defaultSessionListLimit)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, newSessionListResponse(list))
	}
}

// NewActiveSessionsHandler returns GET /sessions/active handler.
func NewActiveSessionsHandler(sessions SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.UserFromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		list, err := sessions.ListActive(r.Context(), defaultSessionListLimit)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, newSessionListResponse(list))
	}
}
