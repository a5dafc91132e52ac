package domain_test

import (
	"testing"

	"github.com/samirrijal/mapframe/internal/core/domain"
)

func TestGraphCacheKey(t *testing.T) {
	key := domain.GraphCacheKey(domain.GeoPoint{Lat: 43.263, Lon: -2.935}, 18000)
	if key != "graph_43.263_-2.935_18000" {
		t.Errorf("key = %q", key)
	}
}

func TestCoordsCacheKeyLowercases(t *testing.T) {
	key := domain.CoordsCacheKey("Bilbao", "Spain")
	if key != "coords_bilbao_spain" {
		t.Errorf("key = %q", key)
	}
	if key != domain.CoordsCacheKey("BILBAO", "SPAIN") {
		t.Error("case variants of the same place split the cache")
	}
}

func TestFeatureCacheKeyIgnoresFilterOrder(t *testing.T) {
	center := domain.GeoPoint{Lat: 43.263, Lon: -2.935}

	a := domain.TagFilter{
		"natural":  {"water", "bay", "strait"},
		"waterway": {"riverbank"},
	}
	b := domain.TagFilter{
		"waterway": {"riverbank"},
		"natural":  {"strait", "water", "bay"},
	}

	ka := domain.FeatureCacheKey("water", center, 18000, a)
	kb := domain.FeatureCacheKey("water", center, 18000, b)
	if ka != kb {
		t.Errorf("equivalent filters produced different keys:\n  %q\n  %q", ka, kb)
	}
	if ka == domain.FeatureCacheKey("parks", center, 18000, a) {
		t.Error("label does not separate layers")
	}
}

func TestTagFilterCanonical(t *testing.T) {
	f := domain.TagFilter{
		"leisure": {"park"},
		"landuse": {"grass"},
	}
	if got := f.Canonical(); got != "landuse=grass;leisure=park" {
		t.Errorf("canonical = %q", got)
	}
	if got := domain.TagFilter(nil).Canonical(); got != "" {
		t.Errorf("nil filter canonical = %q, expected empty", got)
	}
}

func TestJobCacheKey(t *testing.T) {
	if got := domain.JobCacheKey("abc-123"); got != "job_abc-123" {
		t.Errorf("key = %q", got)
	}
}
