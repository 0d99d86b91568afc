package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"parklite/internal/clock"
	"parklite/internal/models"
	redisstore "parklite/internal/redis"
	"parklite/internal/repository"
)

type fakeSessionRepo struct {
	createFn    func(ctx context.Context, session *models.ParkingSession) error
	getByIDFn   func(ctx context.Context, id int64) (*models.ParkingSession, error)
	hasActiveFn func(ctx context.Context, vehicleID int64) (bool, error)
	listUserFn  func(ctx context.Context, userID int64, limit int) ([]models.ParkingSession, error)
	listActFn   func(ctx context.Context, limit int) ([]models.ParkingSession, error)
	finalizeFn  func(ctx context.Context, input repository.FinalizeSessionInput) (string, error)
}

func (f *fakeSessionRepo) Create(ctx context.Context, session *models.ParkingSession) error {
	if f.createFn == nil {
		session.ID = 1
		return nil
	}
	return f.createFn(ctx, session)
}

func (f *fakeSessionRepo) GetByID(ctx context.Context, id int64) (*models.ParkingSession, error) {
	if f.getByIDFn == nil {
		return nil, repository.ErrSessionNotFound
	}
	return f.getByIDFn(ctx, id)
}

func (f *fakeSessionRepo) HasActiveForVehicle(ctx context.Context, vehicleID int64) (bool, error) {
	if f.hasActiveFn == nil {
		return false, nil
	}
	return f.hasActiveFn(ctx, vehicleID)
}

func (f *fakeSessionRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]models.ParkingSession, error) {
	if f.listUserFn == nil {
		return nil, nil
	}
	return f.listUserFn(ctx, userID, limit)
}

func (f *fakeSessionRepo) ListActive(ctx context.Context, limit int) ([]models.ParkingSession, error) {
	if f.listActFn == nil {
		return nil, nil
	}
	return f.listActFn(ctx, limit)
}

func (f *fakeSessionRepo) Finalize(ctx context.Context, input repository.FinalizeSessionInput) (string, error) {
	if f.finalizeFn == nil {
		return input.Status, nil
	}
	return f.finalizeFn(ctx, input)
}

type fakeVehicleFinder struct {
	vehicles map[string]*models.Vehicle
}

func (f *fakeVehicleFinder) GetByUserAndPlate(ctx context.Context, userID int64, plate string) (*models.Vehicle, error) {
	v, ok := f.vehicles[plate]
	if !ok || v.UserID != userID {
		return nil, repository.ErrVehicleNotFound
	}
	return v, nil
}

type fakeZoneFinder struct {
	zones map[int64]*models.Zone
}

func (f *fakeZoneFinder) GetByID(ctx context.Context, id int64) (*models.Zone, error) {
	z, ok := f.zones[id]
	if !ok {
		return nil, repository.ErrZoneNotFound
	}
	return z, nil
}

type fakeUserFinder struct {
	users map[int64]*models.User
}

func (f *fakeUserFinder) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

type fakeCache struct {
	entries   map[int64]redisstore.ActiveSession
	saves     int
	deletes   int
	deleteErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[int64]redisstore.ActiveSession)}
}

func (f *fakeCache) Save(ctx context.Context, session redisstore.ActiveSession) error {
	f.saves++
	f.entries[session.VehicleID] = session
	return nil
}

func (f *fakeCache) Get(ctx context.Context, vehicleID int64) (*redisstore.ActiveSession, error) {
	s, ok := f.entries[vehicleID]
	if !ok {
		return nil, redis.Nil
	}
	return &s, nil
}

func (f *fakeCache) Delete(ctx context.Context, vehicleID int64) error {
	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.entries, vehicleID)
	return nil
}

var testNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func testUser() *models.User {
	return &models.User{ID: 7, Email: "demo@iberopuebla.mx", Balance: 300}
}

func testZones() *fakeZoneFinder {
	return &fakeZoneFinder{zones: map[int64]*models.Zone{
		1: {ID: 1, Name: "A", RatePerMin: 1.5, MaxMinutes: 120},
		2: {ID: 2, Name: "B", RatePerMin: 1.0, MaxMinutes: 180},
	}}
}

func testVehicles() *fakeVehicleFinder {
	return &fakeVehicleFinder{vehicles: map[string]*models.Vehicle{
		"ABC-123": {ID: 11, UserID: 7, Plate: "ABC-123"},
	}}
}

func newTestSessionsService(repo *fakeSessionRepo, cache ActiveSessionCache, at time.Time) *SessionsService {
	return newTestSessionsServiceWithBalance(repo, cache, at, 300)
}

// newTestSessionsServiceWithBalance sets the balance the user store reports,
// independent of whatever snapshot the caller hands to Stop.
func newTestSessionsServiceWithBalance(repo *fakeSessionRepo, cache ActiveSessionCache, at time.Time, balance float64) *SessionsService {
	owner := testUser()
	owner.Balance = balance
	users := &fakeUserFinder{users: map[int64]*models.User{owner.ID: owner}}
	return NewSessionsService(repo, testVehicles(), testZones(), users, cache, clock.NewFixed(at), zap.NewNop())
}

func TestStartCreatesActiveSession(t *testing.T) {
	repo := &fakeSessionRepo{}
	cache := newFakeCache()
	svc := newTestSessionsService(repo, cache, testNow)

	session, err := svc.Start(context.Background(), testUser(), "ABC-123", 1)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if session.Status != models.SessionStatusActive {
		t.Errorf("Status = %q, want active", session.Status)
	}
	if !session.StartedAt.Equal(testNow) {
		t.Errorf("StartedAt = %v, want %v", session.StartedAt, testNow)
	}
	if session.VehicleID != 11 || session.ZoneID != 1 || session.UserID != 7 {
		t.Errorf("unexpected references: %+v", session)
	}
	if session.EndedAt != nil || session.Minutes != nil || session.Cost != nil {
		t.Error("ended_at/minutes/cost must be unset on start")
	}
	if cache.saves != 1 {
		t.Errorf("cache saves = %d, want 1", cache.saves)
	}
}

func TestStartUnknownVehicle(t *testing.T) {
	svc := newTestSessionsService(&fakeSessionRepo{}, nil, testNow)

	_, err := svc.Start(context.Background(), testUser(), "NOPE-1", 1)
	if !errors.Is(err, repository.ErrVehicleNotFound) {
		t.Fatalf("err = %v, want ErrVehicleNotFound", err)
	}
}

func TestStartUnknownZone(t *testing.T) {
	svc := newTestSessionsService(&fakeSessionRepo{}, nil, testNow)

	_, err := svc.Start(context.Background(), testUser(), "ABC-123", 99)
	if !errors.Is(err, repository.ErrZoneNotFound) {
		t.Fatalf("err = %v, want ErrZoneNotFound", err)
	}
}

func TestStartRejectsSecondActiveSession(t *testing.T) {
	repo := &fakeSessionRepo{
		hasActiveFn: func(ctx context.Context, vehicleID int64) (bool, error) {
			return true, nil
		},
	}
	svc := newTestSessionsService(repo, nil, testNow)

	_, err := svc.Start(context.Background(), testUser(), "ABC-123", 1)
	if !errors.Is(err, repository.ErrActiveSessionExists) {
		t.Fatalf("err = %v, want ErrActiveSessionExists", err)
	}
}

func TestStartIgnoresStaleCacheMarker(t *testing.T) {
	// A marker left behind by a failed eviction must not block new starts
	// when the database says no session is active.
	repo := &fakeSessionRepo{
		hasActiveFn: func(ctx context.Context, vehicleID int64) (bool, error) {
			return false, nil
		},
	}
	cache := newFakeCache()
	cache.entries[11] = redisstore.ActiveSession{SessionID: 5, VehicleID: 11}
	svc := newTestSessionsService(repo, cache, testNow)

	session, err := svc.Start(context.Background(), testUser(), "ABC-123", 1)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if cache.deletes != 1 {
		t.Errorf("cache deletes = %d, want 1 for the stale marker", cache.deletes)
	}
	if got := cache.entries[11].SessionID; got != session.ID {
		t.Errorf("cached session id = %d, want %d", got, session.ID)
	}
}

func TestStartSucceedsAfterFailedEviction(t *testing.T) {
	hasActive := true
	repo := &fakeSessionRepo{
		getByIDFn: func(ctx context.Context, id int64) (*models.ParkingSession, error) {
			return activeSession(testNow.Add(-2 * time.Minute)), nil
		},
		hasActiveFn: func(ctx context.Context, vehicleID int64) (bool, error) {
			return hasActive, nil
		},
		finalizeFn: func(ctx context.Context, input repository.FinalizeSessionInput) (string, error) {
			hasActive = false
			return input.Status, nil
		},
	}
	cache := newFakeCache()
	cache.entries[11] = redisstore.ActiveSession{SessionID: 42, VehicleID: 11}
	cache.deleteErr = errors.New("connection refused")
	svc := newTestSessionsService(repo, cache, testNow)

	if _, err := svc.Stop(context.Background(), testUser(), 42); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if _, ok := cache.entries[11]; !ok {
		t.Fatal("marker should have survived the failed eviction")
	}

	cache.deleteErr = nil
	session, err := svc.Start(context.Background(), testUser(), "ABC-123", 1)
	if err != nil {
		t.Fatalf("Start after failed eviction: %v", err)
	}
	if got := cache.entries[11].SessionID; got != session.ID {
		t.Errorf("cached session id = %d, want %d", got, session.ID)
	}
}

func activeSession(startedAt time.Time) *models.ParkingSession {
	return &models.ParkingSession{
		ID:        42,
		UserID:    7,
		VehicleID: 11,
		ZoneID:    1,
		StartedAt: startedAt,
		Status:    models.SessionStatusActive,
	}
}

func TestStopCompletedDebitsBalance(t *testing.T) {
	var finalized repository.FinalizeSessionInput
	repo := &fakeSessionRepo{
		getByIDFn: func(ctx context.Context, id int64) (*models.ParkingSession, error) {
			return activeSession(testNow.Add(-4 * time.Minute)), nil
		},
		finalizeFn: func(ctx context.Context, input repository.FinalizeSessionInput) (string, error) {
			finalized = input
			return input.Status, nil
		},
	}
	cache := newFakeCache()
	svc := newTestSessionsService(repo, cache, testNow)

	session, err := svc.Stop(context.Background(), testUser(), 42)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if session.Status != models.SessionStatusCompleted {
		t.Errorf("Status = %q, want completed", session.Status)
	}
	if session.Minutes == nil || *session.Minutes != 4 {
		t.Errorf("Minutes = %v, want 4", session.Minutes)
	}
	if session.Cost == nil || *session.Cost != 6.0 {
		t.Errorf("Cost = %v, want 6.0", session.Cost)
	}
	if session.EndedAt == nil || !session.EndedAt.Equal(testNow) {
		t.Errorf("EndedAt = %v, want %v", session.EndedAt, testNow)
	}
	if finalized.DebitAmount != 6.0 {
		t.Errorf("DebitAmount = %v, want 6.0", finalized.DebitAmount)
	}
	if cache.deletes != 1 {
		t.Errorf("cache deletes = %d, want 1", cache.deletes)
	}
}

func TestStopFinedSkipsDebit(t *testing.T) {
	var finalized repository.FinalizeSessionInput
	repo := &fakeSessionRepo{
		getByIDFn: func(ctx context.Context, id int64) (*models.ParkingSession, error) {
			s := activeSession(testNow.Add(-200 * time.Minute))
			s.ZoneID = 2
			return s, nil
		},
		finalizeFn: func(ctx context.Context, input repository.FinalizeSessionInput) (string, error) {
			finalized = input
			return input.Status, nil
		},
	}
	svc := newTestSessionsService(repo, nil, testNow)

	session, err := svc.Stop(context.Background(), testUser(), 42)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if session.Status != models.SessionStatusFined {
		t.Errorf("Status = %q, want fined", session.Status)
	}
	if session.Cost == nil || *session.Cost != 200.0 {
		t.Errorf("Cost = %v, want 200.0", session.Cost)
	}
	if finalized.DebitAmount != 0 {
		t.Errorf("DebitAmount = %v, want 0 for fined session", finalized.DebitAmount)
	}
	if total := CostTotal(session); total == nil || *total != 300.0 {
		t.Errorf("CostTotal = %v, want 300.0", total)
	}
}

func TestStopInsufficientBalancePendingPayment(t *testing.T) {
	var finalized repository.FinalizeSessionInput
	repo := &fakeSessionRepo{
		getByIDFn: func(ctx context.Context, id int64) (*models.ParkingSession, error) {
			return activeSession(testNow.Add(-4 * time.Minute)), nil
		},
		finalizeFn: func(ctx context.Context, input repository.FinalizeSessionInput) (string, error) {
			finalized = input
			return input.Status, nil
		},
	}
	svc := newTestSessionsServiceWithBalance(repo, nil, testNow, 5)

	session, err := svc.Stop(context.Background(), testUser(), 42)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if session.Status != models.SessionStatusPendingPayment {
		t.Errorf("Status = %q, want pending_payment", session.Status)
	}
	if finalized.DebitAmount != 0 {
		t.Errorf("DebitAmount = %v, want 0 for pending payment", finalized.DebitAmount)
	}
}

func TestStopReloadsBalanceForBilling(t *testing.T) {
	// A deposit landing between authentication and stop must count at
	// settlement, so billing reads the stored balance, not the snapshot.
	var finalized repository.FinalizeSessionInput
	repo := &fakeSessionRepo{
		getByIDFn: func(ctx context.Context, id int64) (*models.ParkingSession, error) {
			return activeSession(testNow.Add(-4 * time.Minute)), nil
		},
		finalizeFn: func(ctx context.Context, input repository.FinalizeSessionInput) (string, error) {
			finalized = input
			return input.Status, nil
		},
	}
	svc := newTestSessionsServiceWithBalance(repo, nil, testNow, 300)

	snapshot := testUser()
	snapshot.Balance = 0

	session, err := svc.Stop(context.Background(), snapshot, 42)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if session.Status != models.SessionStatusCompleted {
		t.Errorf("Status = %q, want completed with the reloaded balance", session.Status)
	}
	if finalized.DebitAmount != 6.0 {
		t.Errorf("DebitAmount = %v, want 6.0", finalized.DebitAmount)
	}
}

func TestStopDowngradesWhenDebitRacesAway(t *testing.T) {
	// Balance looked sufficient at read time but the conditional debit
	// found it spent; Finalize reports the downgraded status.
	repo := &fakeSessionRepo{
		getByIDFn: func(ctx context.Context, id int64) (*models.ParkingSession, error) {
			return activeSession(testNow.Add(-4 * time.Minute)), nil
		},
		finalizeFn: func(ctx context.Context, input repository.FinalizeSessionInput) (string, error) {
			return models.SessionStatusPendingPayment, nil
		},
	}
	svc := newTestSessionsService(repo, nil, testNow)

	session, err := svc.Stop(context.Background(), testUser(), 42)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if session.Status != models.SessionStatusPendingPayment {
		t.Errorf("Status = %q, want pending_payment after failed debit", session.Status)
	}
}

func TestStopGracePeriodIsFree(t *testing.T) {
	var finalized repository.FinalizeSessionInput
	repo := &fakeSessionRepo{
		getByIDFn: func(ctx context.Context, id int64) (*models.ParkingSession, error) {
			return activeSession(testNow.Add(-2 * time.Minute)), nil
		},
		finalizeFn: func(ctx context.Context, input repository.FinalizeSessionInput) (string, error) {
			finalized = input
			return input.Status, nil
		},
	}
	svc := newTestSessionsService(repo, nil, testNow)

	session, err := svc.Stop(context.Background(), testUser(), 42)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if session.Status != models.SessionStatusCompleted {
		t.Errorf("Status = %q, want completed", session.Status)
	}
	if session.Cost == nil || *session.Cost != 0 {
		t.Errorf("Cost = %v, want 0", session.Cost)
	}
	if finalized.DebitAmount != 0 {
		t.Errorf("DebitAmount = %v, want 0 in grace period", finalized.DebitAmount)
	}
}

func TestStopRejectsForeignSession(t *testing.T) {
	repo := &fakeSessionRepo{
		getByIDFn: func(ctx context.Context, id int64) (*models.ParkingSession, error) {
			s := activeSession(testNow.Add(-time.Hour))
			s.UserID = 99
			return s, nil
		},
	}
	svc := newTestSessionsService(repo, nil, testNow)

	_, err := svc.Stop(context.Background(), testUser(), 42)
	if !errors.Is(err, ErrNotSessionOwner) {
		t.Fatalf("err = %v, want ErrNotSessionOwner", err)
	}
}

func TestStopRejectsFinalizedSession(t *testing.T) {
	repo := &fakeSessionRepo{
		getByIDFn: func(ctx context.Context, id int64) (*models.ParkingSession, error) {
			s := activeSession(testNow.Add(-time.Hour))
			s.Status = models.SessionStatusCompleted
			return s, nil
		},
	}
	svc := newTestSessionsService(repo, nil, testNow)

	_, err := svc.Stop(context.Background(), testUser(), 42)
	if !errors.Is(err, repository.ErrSessionNotActive) {
		t.Fatalf("err = %v, want ErrSessionNotActive", err)
	}
}

func TestStopUnknownSession(t *testing.T) {
	svc := newTestSessionsService(&fakeSessionRepo{}, nil, testNow)

	_, err := svc.Stop(context.Background(), testUser(), 42)
	if !errors.Is(err, repository.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestGetChecksOwnership(t *testing.T) {
	repo := &fakeSessionRepo{
		getByIDFn: func(ctx context.Context, id int64) (*models.ParkingSession, error) {
			s := activeSession(testNow)
			s.UserID = 99
			return s, nil
		},
	}
	svc := newTestSessionsService(repo, nil, testNow)

	if _, err := svc.Get(context.Background(), testUser(), 42); !errors.Is(err, ErrNotSessionOwner) {
		t.Fatalf("err = %v, want ErrNotSessionOwner", err)
	}
}
