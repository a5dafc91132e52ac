package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/samirrijal/mapframe/internal/core/domain"
	"github.com/samirrijal/mapframe/internal/core/ports"
	"github.com/samirrijal/mapframe/internal/pkg/geospatial"
	"github.com/samirrijal/mapframe/internal/pkg/metrics"
	"github.com/samirrijal/mapframe/internal/pkg/ratelimit"
)

// Ways tagged with these highway values are construction noise, not streets.
const excludedHighways = "abandoned|construction|no|planned|platform|proposed|raceway|razed"

// Fetcher retrieves street networks and feature layers, reading through the
// cache and pacing remote queries. Network and feature queries carry separate
// minimum delays because the heavier network query weighs more on the server.
type Fetcher struct {
	client      *Client
	cache       ports.CacheStore
	networkPace *ratelimit.Limiter
	featurePace *ratelimit.Limiter
}

// NewFetcher wires a Fetcher. networkDelay and featureDelay are the minimum
// intervals between successive remote queries of each kind.
func NewFetcher(client *Client, cache ports.CacheStore, networkDelay, featureDelay time.Duration) *Fetcher {
	return &Fetcher{
		client:      client,
		cache:       cache,
		networkPace: ratelimit.New(networkDelay),
		featurePace: ratelimit.New(featureDelay),
	}
}

// cached loads key into v, reporting hit/miss. Backend errors and corrupt
// entries count as misses so a broken cache degrades to refetching.
func (f *Fetcher) cached(ctx context.Context, key, kind string, v any) bool {
	data, err := f.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("cache read failed", "key", key, "error", err)
	}
	if err == nil && data != nil {
		if jerr := json.Unmarshal(data, v); jerr == nil {
			metrics.CacheHits.WithLabelValues(kind).Inc()
			return true
		}
		slog.Warn("cache entry corrupt, refetching", "key", key)
	}
	metrics.CacheMisses.WithLabelValues(kind).Inc()
	return false
}

// store writes v through to the cache. Write failures are logged and
// swallowed: a failed cache write must never abort a successful fetch.
func (f *Fetcher) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := f.cache.Set(ctx, key, data, 0); err != nil {
		slog.Warn("cache write failed", "error", &domain.CacheWriteError{Key: key, Err: err})
	}
}

// networkQL builds the street-network query: every way carrying a usable
// highway tag inside the bounding box, with referenced nodes resolved.
func (f *Fetcher) networkQL(center domain.GeoPoint, distMeters float64) string {
	south, west, north, east := geospatial.BoundingBox(center.Lat, center.Lon, distMeters)
	return fmt.Sprintf(
		`[out:json][timeout:%d];`+
			`(way["highway"]["area"!~"yes"]["access"!~"private"]["highway"!~"%s"](%f,%f,%f,%f););`+
			`out body;>;out skel qt;`,
		int(f.client.timeout.Seconds()), excludedHighways, south, west, north, east)
}

// featureQL builds a union query over the filter's tag keys. Keys are sorted
// so identical filters produce identical programs.
func (f *Fetcher) featureQL(center domain.GeoPoint, distMeters float64, filter domain.TagFilter) string {
	south, west, north, east := geospatial.BoundingBox(center.Lat, center.Lon, distMeters)

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, `[out:json][timeout:%d];(`, int(f.client.timeout.Seconds()))
	for _, k := range keys {
		values := append([]string(nil), filter[k]...)
		sort.Strings(values)
		fmt.Fprintf(&b, `nwr["%s"~"^(%s)$"](%f,%f,%f,%f);`,
			k, strings.Join(values, "|"), south, west, north, east)
	}
	b.WriteString(`);out body;>;out skel qt;`)
	return b.String()
}
