package ports

import (
	"context"

	"github.com/samirrijal/mapframe/internal/core/domain"
)

// CacheStore persists opaque payloads under semantic keys across runs.
// Get returns (nil, nil) when the key is absent; a real backend failure is
// reported as an error and callers treat it as a miss. Set with ttlSeconds 0
// stores the entry without expiry — geodata entries never go stale.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// Geocoder resolves a place name to coordinates. Failures are typed:
// *domain.NotFoundError when the place cannot be resolved,
// *domain.GeocodingError when the service is unreachable.
type Geocoder interface {
	Resolve(ctx context.Context, city, country string) (domain.GeoPoint, error)
}

// GeoDataFetcher retrieves map data for a center point and radius, cached
// and rate-limited. FetchNetwork failures are fatal to a render;
// FetchFeatures failures degrade to an absent layer.
type GeoDataFetcher interface {
	FetchNetwork(ctx context.Context, center domain.GeoPoint, distMeters float64) (*domain.StreetGraph, error)
	FetchFeatures(ctx context.Context, center domain.GeoPoint, distMeters float64, filter domain.TagFilter, label string) (*domain.FeatureSet, error)
}

// SceneRenderer turns a composed scene into an image file.
type SceneRenderer interface {
	Render(ctx context.Context, scene *domain.Scene, path string) error
}

// ThemeSource loads poster palettes.
type ThemeSource interface {
	Available() ([]string, error)
	Load(name string) (*domain.Theme, error)
}

// JobQueue publishes render jobs and per-job progress events.
type JobQueue interface {
	PublishJob(ctx context.Context, job *domain.RenderJob) error
	PublishProgress(ctx context.Context, event *domain.ProgressEvent) error
}

// JobConsumer delivers queued render jobs to a handler. The handler's error
// decides redelivery: nil acks the message, non-nil naks it.
type JobConsumer interface {
	ConsumeJobs(ctx context.Context, handler func(ctx context.Context, job *domain.RenderJob) error) error
}
