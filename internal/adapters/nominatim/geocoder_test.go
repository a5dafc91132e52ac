package nominatim

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samirrijal/mapframe/internal/core/domain"
)

type memCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemCache() *memCache { return &memCache{m: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m[key], nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
	return nil
}

func TestResolve(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`[{"lat": "41.3874", "lon": "2.1686", "display_name": "Barcelona, Spain"}]`))
	}))
	defer srv.Close()

	g := New(srv.URL, "mapframe-test/1.0", 5*time.Second, 0, newMemCache())

	pt, err := g.Resolve(context.Background(), "Barcelona", "Spain")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pt.Lat != 41.3874 || pt.Lon != 2.1686 {
		t.Errorf("unexpected coordinates: %+v", pt)
	}
	if gotQuery != "Barcelona, Spain" {
		t.Errorf("expected free-text query, got %q", gotQuery)
	}
	if gotUA != "mapframe-test/1.0" {
		t.Errorf("expected identifying user agent, got %q", gotUA)
	}
}

func TestResolveCachesCoordinates(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`[{"lat": "52.52", "lon": "13.405", "display_name": "Berlin"}]`))
	}))
	defer srv.Close()

	cache := newMemCache()
	g := New(srv.URL, "mapframe-test/1.0", 5*time.Second, 0, cache)
	ctx := context.Background()

	if _, err := g.Resolve(ctx, "Berlin", "Germany"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pt, err := g.Resolve(ctx, "Berlin", "Germany")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls.Load() != 1 {
		t.Errorf("expected exactly 1 remote lookup, got %d", calls.Load())
	}
	if pt.Lat != 52.52 {
		t.Errorf("unexpected cached lat: %v", pt.Lat)
	}

	// The key is lowercased, so casing differences share the entry.
	if _, err := g.Resolve(ctx, "BERLIN", "GERMANY"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("case variants should share the cache entry, got %d calls", calls.Load())
	}
}

func TestResolveNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	g := New(srv.URL, "mapframe-test/1.0", 5*time.Second, 0, newMemCache())

	_, err := g.Resolve(context.Background(), "Atlantis", "Ocean")
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.City != "Atlantis" {
		t.Errorf("expected city in error, got %q", nf.City)
	}
}

func TestResolveServiceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := New(srv.URL, "mapframe-test/1.0", 5*time.Second, 0, newMemCache())

	_, err := g.Resolve(context.Background(), "Barcelona", "Spain")
	var ge *domain.GeocodingError
	if !errors.As(err, &ge) {
		t.Fatalf("expected GeocodingError, got %v", err)
	}
}
