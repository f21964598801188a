package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/ride-hail/internal/models"
)

func TestClientResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "connaught place" {
			t.Errorf("unexpected query %q", got)
		}
		fmt.Fprint(w, `[{"lat":"28.6315","lon":"77.2167","display_name":"Connaught Place, New Delhi"}]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "ride-hail-test/1.0", 2*time.Second)
	coord, err := c.Resolve(context.Background(), "connaught place")
	if err != nil {
		t.Fatal(err)
	}
	if coord.Lat != 28.6315 || coord.Lon != 77.2167 {
		t.Fatalf("unexpected coord %+v", coord)
	}
}

func TestClientResolveNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	if _, err := c.Resolve(context.Background(), "nowhere"); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}

func TestClientSuggestShortInput(t *testing.T) {
	c := NewClient("http://unused", "", time.Second)
	if _, err := c.Suggest(context.Background(), "ab"); !errors.Is(err, ErrShortInput) {
		t.Fatalf("expected ErrShortInput, got %v", err)
	}
}

type countingResolver struct {
	resolves int
	suggests int
}

func (f *countingResolver) Resolve(_ context.Context, address string) (models.Coord, error) {
	f.resolves++
	return models.Coord{Lat: 1, Lon: float64(f.resolves)}, nil
}

func (f *countingResolver) Suggest(_ context.Context, input string) ([]string, error) {
	f.suggests++
	return []string{input}, nil
}

func TestCachedResolverHit(t *testing.T) {
	inner := &countingResolver{}
	c := NewCachedResolver(inner, time.Minute, 10)
	ctx := context.Background()

	first, _ := c.Resolve(ctx, "Some Street")
	second, _ := c.Resolve(ctx, "some street") // case/space insensitive key
	if inner.resolves != 1 {
		t.Fatalf("expected 1 upstream call, got %d", inner.resolves)
	}
	if first != second {
		t.Fatalf("cache returned different coords: %+v vs %+v", first, second)
	}
}

func TestCachedResolverTTLExpiry(t *testing.T) {
	inner := &countingResolver{}
	c := NewCachedResolver(inner, 10*time.Millisecond, 10)
	ctx := context.Background()

	if _, err := c.Resolve(ctx, "a street"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := c.Resolve(ctx, "a street"); err != nil {
		t.Fatal(err)
	}
	if inner.resolves != 2 {
		t.Fatalf("expected expired entry to re-resolve, got %d calls", inner.resolves)
	}
}

func TestCachedResolverEvictsOldest(t *testing.T) {
	inner := &countingResolver{}
	c := NewCachedResolver(inner, time.Minute, 2)
	ctx := context.Background()

	c.Resolve(ctx, "first")
	c.Resolve(ctx, "second")
	c.Resolve(ctx, "third") // evicts "first"

	inner.resolves = 0
	c.Resolve(ctx, "second")
	c.Resolve(ctx, "third")
	if inner.resolves != 0 {
		t.Fatalf("recent entries should still be cached, got %d calls", inner.resolves)
	}
	c.Resolve(ctx, "first")
	if inner.resolves != 1 {
		t.Fatalf("oldest entry should have been evicted, got %d calls", inner.resolves)
	}
}
