package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmgeojson"

	"github.com/samirrijal/mapframe/internal/core/domain"
)

// FetchFeatures returns one layer's tagged geometries, from cache when
// possible. Remote failures wrap into *domain.FetchError; callers degrade to
// an absent layer for everything but the street network.
func (f *Fetcher) FetchFeatures(ctx context.Context, center domain.GeoPoint, distMeters float64, filter domain.TagFilter, label string) (*domain.FeatureSet, error) {
	key := domain.FeatureCacheKey(label, center, distMeters, filter)

	var cachedSet domain.FeatureSet
	if f.cached(ctx, key, label, &cachedSet) {
		return &cachedSet, nil
	}

	if err := f.featurePace.Wait(ctx); err != nil {
		return nil, err
	}

	slog.Info("fetching features", "layer", label, "lat", center.Lat, "lon", center.Lon)
	body, err := f.client.Query(ctx, f.featureQL(center, distMeters, filter), label)
	if err != nil {
		return nil, &domain.FetchError{Layer: label, Err: err}
	}

	o := &osm.OSM{}
	if err := json.Unmarshal(body, o); err != nil {
		return nil, &domain.FetchError{Layer: label, Err: fmt.Errorf("decode overpass response: %w", err)}
	}

	fc, err := osmgeojson.Convert(o,
		osmgeojson.NoID(true),
		osmgeojson.NoMeta(true),
		osmgeojson.NoRelationMembership(true))
	if err != nil {
		return nil, &domain.FetchError{Layer: label, Err: fmt.Errorf("assemble geometries: %w", err)}
	}

	set := buildFeatureSet(label, fc)
	f.store(ctx, key, set)
	slog.Info("features fetched", "layer", label, "count", len(set.Features))
	return set, nil
}

// buildFeatureSet keeps polygon and line geometries; bare points carry
// nothing drawable on a poster.
func buildFeatureSet(label string, fc *geojson.FeatureCollection) *domain.FeatureSet {
	set := &domain.FeatureSet{Label: label}
	for _, feat := range fc.Features {
		df := domain.Feature{Tags: featureTags(feat)}
		switch g := feat.Geometry.(type) {
		case orb.Polygon:
			df.Polygons = append(df.Polygons, toPolygon(g))
		case orb.MultiPolygon:
			for _, poly := range g {
				df.Polygons = append(df.Polygons, toPolygon(poly))
			}
		case orb.LineString:
			df.Lines = append(df.Lines, toLine(g))
		case orb.MultiLineString:
			for _, ls := range g {
				df.Lines = append(df.Lines, toLine(ls))
			}
		default:
			continue
		}
		set.Features = append(set.Features, df)
	}
	return set
}

func featureTags(f *geojson.Feature) domain.Tags {
	switch raw := f.Properties["tags"].(type) {
	case map[string]string:
		return domain.NewTags(raw)
	case map[string]interface{}:
		// Cache round trips decode the tag map as interface values.
		kv := make(map[string]string, len(raw))
		for k, v := range raw {
			if s, ok := v.(string); ok {
				kv[k] = s
			}
		}
		return domain.NewTags(kv)
	default:
		return nil
	}
}

func toPolygon(p orb.Polygon) domain.GeoPolygon {
	var out domain.GeoPolygon
	for i, ring := range p {
		ls := toLine(orb.LineString(ring))
		if i == 0 {
			out.Outer = ls
		} else {
			out.Holes = append(out.Holes, ls)
		}
	}
	return out
}

func toLine(ls orb.LineString) domain.GeoLineString {
	pts := make([]domain.GeoPoint, len(ls))
	for i, p := range ls {
		pts[i] = domain.GeoPoint{Lat: p.Lat(), Lon: p.Lon()}
	}
	return domain.GeoLineString{Coordinates: pts}
}
