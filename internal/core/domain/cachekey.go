package domain

import (
	"fmt"
	"strings"
)

// Cache keys are the semantic identity of a remote request: two logically
// identical requests must produce the same key no matter how their inputs
// were constructed. Floats use Go's shortest representation, which is stable
// for a given value.

// GraphCacheKey identifies a street-network fetch.
func GraphCacheKey(center GeoPoint, dist float64) string {
	return fmt.Sprintf("graph_%v_%v_%v", center.Lat, center.Lon, dist)
}

// FeatureCacheKey identifies a feature-layer fetch. The filter is serialized
// canonically so key/value ordering never splits the cache.
func FeatureCacheKey(label string, center GeoPoint, dist float64, filter TagFilter) string {
	return fmt.Sprintf("%s_%v_%v_%v_%s", label, center.Lat, center.Lon, dist, filter.Canonical())
}

// CoordsCacheKey identifies a geocoding lookup.
func CoordsCacheKey(city, country string) string {
	return fmt.Sprintf("coords_%s_%s", strings.ToLower(city), strings.ToLower(country))
}

// JobCacheKey identifies a render-job status entry.
func JobCacheKey(id string) string {
	return "job_" + id
}
