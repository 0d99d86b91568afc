package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ActiveSession is the cached marker for a vehicle's running session,
// a cheap mirror for dashboards and external consumers. Postgres stays
// authoritative; markers can go stale and are repaired on the start path.
type ActiveSession struct {
	SessionID int64     `json:"session_id"`
	VehicleID int64     `json:"vehicle_id"`
	UserID    int64     `json:"user_id"`
	ZoneID    int64     `json:"zone_id"`
	StartedAt time.Time `json:"started_at"`
}

// Store manages the active-session cache.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore returns redis-backed store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) key(vehicleID int64) string {
	return fmt.Sprintf("parking:active:vehicle:%d", vehicleID)
}

// Save caches the active-session marker for the vehicle.
func (s *Store) Save(ctx context.Context, session ActiveSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(session.VehicleID), data, s.ttl).Err()
}

// Get returns the cached marker, or redis.Nil if the vehicle has none.
func (s *Store) Get(ctx context.Context, vehicleID int64) (*ActiveSession, error) {
	result, err := s.client.Get(ctx, s.key(vehicleID)).Result()
	if err != nil {
		return nil, err
	}
	var session ActiveSession
	if err := json.Unmarshal([]byte(result), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Delete removes the marker once the session is finalized.
func (s *Store) Delete(ctx context.Context, vehicleID int64) error {
	return s.client.Del(ctx, s.key(vehicleID)).Err()
}
