package storage

import (
	"context"
	"sync"
	"time"

	"github.com/example/ride-hail/internal/models"
)

// MemoryStore keeps everything in maps under a single mutex. The mutex
// gives the same conditional-update atomicity the Postgres store gets
// from its WHERE clause, so lifecycle tests exercise real CAS semantics.
type MemoryStore struct {
	mu      sync.Mutex
	rides   map[string]*models.Ride
	riders  map[string]*models.Rider
	drivers map[string]*models.Driver
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rides:   make(map[string]*models.Ride),
		riders:  make(map[string]*models.Rider),
		drivers: make(map[string]*models.Driver),
	}
}

func (m *MemoryStore) CreateRide(_ context.Context, r *models.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.rides[r.ID] = &cp
	return nil
}

func (m *MemoryStore) GetRide(_ context.Context, id string) (*models.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) AssignDriver(_ context.Context, rideID, driverID string) (*models.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[rideID]
	if !ok {
		return nil, ErrNotFound
	}
	if r.Status != models.StatusRequested {
		return nil, ErrPrecondition
	}
	r.DriverID = driverID
	r.Status = models.StatusConfirmed
	r.UpdatedAt = time.Now()
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, rideID string, from, to models.RideStatus) (*models.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[rideID]
	if !ok {
		return nil, ErrNotFound
	}
	if r.Status != from {
		return nil, ErrPrecondition
	}
	r.Status = to
	r.UpdatedAt = time.Now()
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) DriverStats(_ context.Context, driverID string) (models.DriverStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s models.DriverStats
	for _, r := range m.rides {
		if r.DriverID != driverID || r.Status != models.StatusCompleted {
			continue
		}
		s.TotalRides++
		s.TotalEarnings += r.Fare
		s.TotalDistance += r.DistanceKm
		s.TotalHours += r.DurationSec / 3600
	}
	return s, nil
}

func (m *MemoryStore) GetRider(_ context.Context, id string) (*models.Rider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.riders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) GetDriver(_ context.Context, id string) (*models.Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *MemoryStore) PutRider(_ context.Context, r *models.Rider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.riders[r.ID] = &cp
	return nil
}

func (m *MemoryStore) PutDriver(_ context.Context, d *models.Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.drivers[d.ID] = &cp
	return nil
}

func (m *MemoryStore) UpdateDriverStatus(_ context.Context, id string, status models.DriverStatus) (*models.Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[id]
	if !ok {
		return nil, ErrNotFound
	}
	d.Status = status
	d.Updated = time.Now()
	cp := *d
	return &cp, nil
}

func (m *MemoryStore) UpdateDriverLocation(_ context.Context, id string, loc models.Coord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[id]
	if !ok {
		return ErrNotFound
	}
	d.Loc = loc
	d.Updated = time.Now()
	return nil
}
