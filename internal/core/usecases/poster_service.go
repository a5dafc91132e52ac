package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/mapframe/internal/core/domain"
	"github.com/samirrijal/mapframe/internal/core/ports"
	"github.com/samirrijal/mapframe/internal/pkg/metrics"
)

// PosterService runs the full render pipeline: geocode, fetch, compose,
// render. One call produces one poster file.
type PosterService struct {
	geocoder  ports.Geocoder
	fetcher   ports.GeoDataFetcher
	themes    ports.ThemeSource
	renderer  ports.SceneRenderer
	outputDir string
}

// NewPosterService creates a new PosterService writing posters to outputDir.
func NewPosterService(geocoder ports.Geocoder, fetcher ports.GeoDataFetcher, themes ports.ThemeSource, renderer ports.SceneRenderer, outputDir string) *PosterService {
	return &PosterService{
		geocoder:  geocoder,
		fetcher:   fetcher,
		themes:    themes,
		renderer:  renderer,
		outputDir: outputDir,
	}
}

// Themes exposes the configured theme source for listing and validation.
func (s *PosterService) Themes() ports.ThemeSource {
	return s.themes
}

// Render generates one poster. The street network is required and its fetch
// failure aborts the render; water, parks, and rail are each optional and
// degrade to an absent layer with a warning. Progress may be nil.
func (s *PosterService) Render(ctx context.Context, req *domain.PosterRequest, progress domain.ProgressFunc) (*domain.RenderResult, error) {
	start := time.Now()

	req.ApplyDefaults()
	for _, note := range req.ClampDimensions() {
		slog.Warn(note, "city", req.City)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	// Load the theme before any network work so an unknown name fails fast.
	theme, err := s.themes.Load(req.Theme)
	if err != nil {
		return nil, err
	}

	center, err := s.resolveCenter(ctx, req, progress)
	if err != nil {
		return nil, err
	}

	dist := req.CompensatedDistance()

	report(progress, domain.StageNetwork, "downloading street network")
	graph, err := s.fetcher.FetchNetwork(ctx, center, dist)
	if err != nil {
		return nil, fmt.Errorf("street network fetch failed: %w", err)
	}

	water := s.optionalLayer(ctx, center, dist, domain.WaterTags, domain.LayerWater, progress, domain.StageWater, "downloading water features")
	parks := s.optionalLayer(ctx, center, dist, domain.ParkTags, domain.LayerParks, progress, domain.StageParks, "downloading parks")
	rails := s.optionalLayer(ctx, center, dist, domain.RailTags, domain.LayerRail, progress, domain.StageRail, "downloading railways")

	report(progress, domain.StageCompose, "composing layers")
	scene, err := BuildScene(req, theme, center, graph, water, parks, rails)
	if err != nil {
		return nil, err
	}

	path := domain.OutputPath(s.outputDir, req.City, req.Theme, req.Format, time.Now())
	report(progress, domain.StageRender, "rendering "+path)
	if err := s.renderer.Render(ctx, scene, path); err != nil {
		return nil, fmt.Errorf("rendering poster: %w", err)
	}
	metrics.PostersRendered.WithLabelValues(req.Theme, string(req.Format)).Inc()
	report(progress, domain.StageDone, path)

	slog.Info("poster rendered",
		"city", req.City,
		"theme", req.Theme,
		"format", req.Format,
		"file", path,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	return &domain.RenderResult{
		File:    path,
		Theme:   req.Theme,
		City:    req.City,
		Country: req.Country,
		Center:  center,
		Format:  req.Format,
		Elapsed: time.Since(start).Seconds(),
	}, nil
}

func (s *PosterService) resolveCenter(ctx context.Context, req *domain.PosterRequest, progress domain.ProgressFunc) (domain.GeoPoint, error) {
	if req.Point != nil {
		return *req.Point, nil
	}
	report(progress, domain.StageGeocode, fmt.Sprintf("locating %s, %s", req.City, req.Country))
	return s.geocoder.Resolve(ctx, req.City, req.Country)
}

// optionalLayer fetches one feature layer, degrading to nil on failure. The
// poster still renders without it.
func (s *PosterService) optionalLayer(ctx context.Context, center domain.GeoPoint, dist float64, filter domain.TagFilter, label string, progress domain.ProgressFunc, stage domain.Stage, message string) *domain.FeatureSet {
	report(progress, stage, message)
	fs, err := s.fetcher.FetchFeatures(ctx, center, dist, filter, label)
	if err != nil {
		slog.Warn("optional layer unavailable", "layer", label, "error", err)
		return nil
	}
	return fs
}

func report(progress domain.ProgressFunc, stage domain.Stage, message string) {
	if progress != nil {
		progress(stage, message)
	}
}
