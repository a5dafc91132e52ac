// Package nominatim resolves place names to coordinates via the public
// Nominatim API, with cached lookups paced per its usage policy.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/samirrijal/mapframe/internal/core/domain"
	"github.com/samirrijal/mapframe/internal/core/ports"
	"github.com/samirrijal/mapframe/internal/pkg/metrics"
	"github.com/samirrijal/mapframe/internal/pkg/ratelimit"
)

// Nominatim returns coordinates as JSON strings.
type searchResult struct {
	Lat         float64 `json:"lat,string"`
	Lon         float64 `json:"lon,string"`
	DisplayName string  `json:"display_name"`
}

// Geocoder implements ports.Geocoder.
type Geocoder struct {
	endpoint  string
	userAgent string
	session   *http.Client
	cache     ports.CacheStore
	pace      *ratelimit.Limiter
}

// New wires a geocoder. delay is the minimum interval between remote
// lookups; Nominatim's policy asks for at most one request per second.
func New(endpoint, userAgent string, timeout, delay time.Duration, cache ports.CacheStore) *Geocoder {
	return &Geocoder{
		endpoint:  endpoint,
		userAgent: userAgent,
		session:   &http.Client{Timeout: timeout},
		cache:     cache,
		pace:      ratelimit.New(delay),
	}
}

// Resolve returns the coordinates for "city, country". A place the service
// cannot resolve is *domain.NotFoundError; an unreachable or failing service
// is *domain.GeocodingError. Results cache without expiry.
func (g *Geocoder) Resolve(ctx context.Context, city, country string) (domain.GeoPoint, error) {
	key := domain.CoordsCacheKey(city, country)

	var pt domain.GeoPoint
	if data, err := g.cache.Get(ctx, key); err == nil && data != nil {
		if jerr := json.Unmarshal(data, &pt); jerr == nil {
			metrics.CacheHits.WithLabelValues("coords").Inc()
			slog.Info("using cached coordinates", "city", city, "country", country)
			return pt, nil
		}
	}
	metrics.CacheMisses.WithLabelValues("coords").Inc()

	if err := g.pace.Wait(ctx); err != nil {
		return domain.GeoPoint{}, err
	}

	slog.Info("looking up coordinates", "city", city, "country", country)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"/search", nil)
	if err != nil {
		return domain.GeoPoint{}, &domain.GeocodingError{City: city, Country: country, Err: err}
	}
	q := req.URL.Query()
	q.Set("q", city+", "+country)
	q.Set("format", "json")
	q.Set("limit", "1")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.session.Do(req)
	if err != nil {
		metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeoPoint{}, &domain.GeocodingError{City: city, Country: country, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeoPoint{}, &domain.GeocodingError{
			City: city, Country: country,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeoPoint{}, &domain.GeocodingError{
			City: city, Country: country,
			Err: fmt.Errorf("decode response: %w", err),
		}
	}

	if len(results) == 0 {
		metrics.GeocodeRequests.WithLabelValues("not_found").Inc()
		return domain.GeoPoint{}, &domain.NotFoundError{City: city, Country: country}
	}

	pt = domain.GeoPoint{Lat: results[0].Lat, Lon: results[0].Lon}
	slog.Info("coordinates resolved", "lat", pt.Lat, "lon", pt.Lon, "place", results[0].DisplayName)

	if data, merr := json.Marshal(pt); merr == nil {
		if serr := g.cache.Set(ctx, key, data, 0); serr != nil {
			slog.Warn("cache write failed", "error", &domain.CacheWriteError{Key: key, Err: serr})
		}
	}

	metrics.GeocodeRequests.WithLabelValues("ok").Inc()
	return pt, nil
}
