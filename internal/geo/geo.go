package geo

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/example/ride-hail/internal/models"
)

// Index is the minimal spatial contract dispatch needs: who is near a
// point, and keeping driver positions current. FindNearby must report
// store failures as errors — an unavailable index is not the same thing
// as zero drivers nearby, and callers rely on the distinction.
type Index interface {
	FindNearby(ctx context.Context, center models.Coord, radiusKm float64) ([]string, error)
	Upsert(ctx context.Context, driverID string, loc models.Coord) error
	Remove(ctx context.Context, driverID string) error
}

type entry struct {
	loc     models.Coord
	updated time.Time
}

// MemoryIndex is a naive haversine scan over all known drivers. Fine for
// tests and single-node runs; production uses the Redis implementation.
type MemoryIndex struct {
	mu      sync.RWMutex
	drivers map[string]entry
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{drivers: make(map[string]entry)}
}

func (m *MemoryIndex) Upsert(_ context.Context, driverID string, loc models.Coord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driverID] = entry{loc: loc, updated: time.Now()}
	return nil
}

func (m *MemoryIndex) Remove(_ context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drivers, driverID)
	return nil
}

func (m *MemoryIndex) FindNearby(_ context.Context, center models.Coord, radiusKm float64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	type hit struct {
		id   string
		dist float64
	}
	hits := make([]hit, 0, len(m.drivers))
	for id, e := range m.drivers {
		d := HaversineKm(center, e.loc)
		if d <= radiusKm {
			hits = append(hits, hit{id, d})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.id
	}
	return out, nil
}

// HaversineKm is the great-circle distance between two coordinates in km.
func HaversineKm(a, b models.Coord) float64 {
	const earthRadiusKm = 6371.0
	toRad := func(deg float64) float64 { return deg * math.Pi / 180.0 }
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}
