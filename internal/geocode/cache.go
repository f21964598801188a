package geocode

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/example/ride-hail/internal/models"
	"github.com/example/ride-hail/internal/observability"
)

func decodeJSON(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}

type cacheEntry struct {
	coord models.Coord
	names []string
	ts    time.Time
}

// CachedResolver wraps a Resolver with a TTL and size bounded cache.
// When the cache overflows, the oldest-inserted entry is evicted.
type CachedResolver struct {
	inner Resolver
	ttl   time.Duration
	max   int

	mu      sync.Mutex
	entries map[string]cacheEntry
	order   []string
}

func NewCachedResolver(inner Resolver, ttl time.Duration, maxEntries int) *CachedResolver {
	return &CachedResolver{
		inner:   inner,
		ttl:     ttl,
		max:     maxEntries,
		entries: make(map[string]cacheEntry),
	}
}

func cacheKey(kind, s string) string {
	return kind + ":" + strings.ToLower(strings.TrimSpace(s))
}

func (c *CachedResolver) get(key string) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return cacheEntry{}, false
	}
	if time.Since(e.ts) > c.ttl {
		delete(c.entries, key)
		return cacheEntry{}, false
	}
	return e, true
}

func (c *CachedResolver) put(key string, e cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	e.ts = time.Now()
	c.entries[key] = e
	for len(c.entries) > c.max && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

func (c *CachedResolver) Resolve(ctx context.Context, address string) (models.Coord, error) {
	key := cacheKey("coord", address)
	if e, ok := c.get(key); ok {
		observability.GeocodeCacheHits.Inc()
		return e.coord, nil
	}
	observability.GeocodeCacheMisses.Inc()
	coord, err := c.inner.Resolve(ctx, address)
	if err != nil {
		return models.Coord{}, err
	}
	c.put(key, cacheEntry{coord: coord})
	return coord, nil
}

func (c *CachedResolver) Suggest(ctx context.Context, input string) ([]string, error) {
	key := cacheKey("suggest", input)
	if e, ok := c.get(key); ok {
		observability.GeocodeCacheHits.Inc()
		return e.names, nil
	}
	observability.GeocodeCacheMisses.Inc()
	names, err := c.inner.Suggest(ctx, input)
	if err != nil {
		return nil, err
	}
	c.put(key, cacheEntry{names: names})
	return names, nil
}
