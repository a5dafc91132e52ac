package usecases_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/samirrijal/mapframe/internal/core/domain"
	"github.com/samirrijal/mapframe/internal/core/usecases"
)

// --- Mock ports ---

type mockGeocoder struct {
	resolveFn func(ctx context.Context, city, country string) (domain.GeoPoint, error)
	calls     int
}

func (m *mockGeocoder) Resolve(ctx context.Context, city, country string) (domain.GeoPoint, error) {
	m.calls++
	if m.resolveFn != nil {
		return m.resolveFn(ctx, city, country)
	}
	return testCenter, nil
}

type mockFetcher struct {
	networkFn  func(ctx context.Context, center domain.GeoPoint, dist float64) (*domain.StreetGraph, error)
	featuresFn func(ctx context.Context, center domain.GeoPoint, dist float64, filter domain.TagFilter, label string) (*domain.FeatureSet, error)
}

func (m *mockFetcher) FetchNetwork(ctx context.Context, center domain.GeoPoint, dist float64) (*domain.StreetGraph, error) {
	if m.networkFn != nil {
		return m.networkFn(ctx, center, dist)
	}
	return smallGraph(), nil
}

func (m *mockFetcher) FetchFeatures(ctx context.Context, center domain.GeoPoint, dist float64, filter domain.TagFilter, label string) (*domain.FeatureSet, error) {
	if m.featuresFn != nil {
		return m.featuresFn(ctx, center, dist, filter, label)
	}
	switch label {
	case domain.LayerRail:
		return railSet(), nil
	default:
		return polygonSet(label), nil
	}
}

type mockThemes struct {
	loadFn func(name string) (*domain.Theme, error)
	calls  int
}

func (m *mockThemes) Available() ([]string, error) { return []string{"test"}, nil }

func (m *mockThemes) Load(name string) (*domain.Theme, error) {
	m.calls++
	if m.loadFn != nil {
		return m.loadFn(name)
	}
	return testTheme(), nil
}

type mockRenderer struct {
	renderFn  func(ctx context.Context, scene *domain.Scene, path string) error
	lastScene *domain.Scene
	lastPath  string
	calls     int
}

func (m *mockRenderer) Render(ctx context.Context, scene *domain.Scene, path string) error {
	m.calls++
	m.lastScene = scene
	m.lastPath = path
	if m.renderFn != nil {
		return m.renderFn(ctx, scene, path)
	}
	return nil
}

type testPorts struct {
	geocoder *mockGeocoder
	fetcher  *mockFetcher
	themes   *mockThemes
	renderer *mockRenderer
}

func newTestPosterService(outputDir string) (*usecases.PosterService, *testPorts) {
	p := &testPorts{
		geocoder: &mockGeocoder{},
		fetcher:  &mockFetcher{},
		themes:   &mockThemes{},
		renderer: &mockRenderer{},
	}
	svc := usecases.NewPosterService(p.geocoder, p.fetcher, p.themes, p.renderer, outputDir)
	return svc, p
}

// --- Tests ---

func TestPosterService_Render(t *testing.T) {
	svc, ports := newTestPosterService("posters")

	var stages []domain.Stage
	progress := func(stage domain.Stage, message string) {
		stages = append(stages, stage)
	}

	result, err := svc.Render(context.Background(), baseRequest(), progress)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.File != ports.renderer.lastPath {
		t.Errorf("result file %q does not match rendered path %q", result.File, ports.renderer.lastPath)
	}
	if !strings.Contains(result.File, "bilbao_test_") || !strings.HasSuffix(result.File, ".png") {
		t.Errorf("unexpected output path %q", result.File)
	}
	if result.Center != testCenter {
		t.Errorf("result center %+v, expected geocoded %+v", result.Center, testCenter)
	}

	expected := []domain.Stage{
		domain.StageGeocode, domain.StageNetwork, domain.StageWater,
		domain.StageParks, domain.StageRail, domain.StageCompose,
		domain.StageRender, domain.StageDone,
	}
	if len(stages) != len(expected) {
		t.Fatalf("got stages %v, expected %v", stages, expected)
	}
	for i := range expected {
		if stages[i] != expected[i] {
			t.Fatalf("stage %d = %s, expected %s", i, stages[i], expected[i])
		}
	}
}

func TestPosterService_Render_NetworkFailureIsFatal(t *testing.T) {
	svc, ports := newTestPosterService("posters")
	ports.fetcher.networkFn = func(ctx context.Context, center domain.GeoPoint, dist float64) (*domain.StreetGraph, error) {
		return nil, &domain.FetchError{Layer: "street_network", Err: errors.New("gateway timeout")}
	}

	_, err := svc.Render(context.Background(), baseRequest(), nil)
	if err == nil {
		t.Fatal("expected error when the street network fetch fails")
	}
	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) {
		t.Errorf("expected a FetchError in the chain, got %v", err)
	}
	if ports.renderer.calls != 0 {
		t.Error("renderer must not run without a street network")
	}
}

func TestPosterService_Render_OptionalLayerDegrades(t *testing.T) {
	svc, ports := newTestPosterService("posters")
	ports.fetcher.featuresFn = func(ctx context.Context, center domain.GeoPoint, dist float64, filter domain.TagFilter, label string) (*domain.FeatureSet, error) {
		if label == domain.LayerWater {
			return nil, &domain.FetchError{Layer: label, Err: errors.New("rate limited")}
		}
		if label == domain.LayerRail {
			return railSet(), nil
		}
		return polygonSet(label), nil
	}

	_, err := svc.Render(context.Background(), baseRequest(), nil)
	if err != nil {
		t.Fatalf("water failure should not abort the render: %v", err)
	}

	var water, parks bool
	for _, op := range ports.renderer.lastScene.Ops {
		if poly, ok := op.(domain.PolygonOp); ok {
			switch poly.Color {
			case "#000002":
				water = true
			case "#000003":
				parks = true
			}
		}
	}
	if water {
		t.Error("scene has water polygons despite the fetch failure")
	}
	if !parks {
		t.Error("scene lost the parks layer")
	}
}

func TestPosterService_Render_PointBypassesGeocoding(t *testing.T) {
	svc, ports := newTestPosterService("posters")

	req := baseRequest()
	req.Point = &domain.GeoPoint{Lat: 51.5074, Lon: -0.1278}

	result, err := svc.Render(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ports.geocoder.calls != 0 {
		t.Error("explicit coordinates must not trigger geocoding")
	}
	if result.Center != *req.Point {
		t.Errorf("result center %+v, expected %+v", result.Center, *req.Point)
	}
}

func TestPosterService_Render_UnknownThemeFailsBeforeFetch(t *testing.T) {
	svc, ports := newTestPosterService("posters")
	ports.themes.loadFn = func(name string) (*domain.Theme, error) {
		return nil, errors.New("unknown theme \"brutalist\"")
	}

	req := baseRequest()
	req.Theme = "brutalist"
	_, err := svc.Render(context.Background(), req, nil)
	if err == nil {
		t.Fatal("expected error for unknown theme")
	}
	if ports.geocoder.calls != 0 {
		t.Error("theme validation must happen before geocoding")
	}
}

func TestPosterService_Render_InvalidDistance(t *testing.T) {
	svc, ports := newTestPosterService("posters")

	req := baseRequest()
	req.DistanceMeters = -100
	_, err := svc.Render(context.Background(), req, nil)
	var vpErr *domain.InvalidViewportError
	if !errors.As(err, &vpErr) {
		t.Fatalf("expected InvalidViewportError, got %v", err)
	}
	if ports.themes.calls != 0 {
		t.Error("validation must reject the request before loading the theme")
	}
}

func TestPosterService_Render_RendererErrorPropagates(t *testing.T) {
	svc, ports := newTestPosterService("posters")
	ports.renderer.renderFn = func(ctx context.Context, scene *domain.Scene, path string) error {
		return errors.New("disk full")
	}

	_, err := svc.Render(context.Background(), baseRequest(), nil)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected renderer error, got %v", err)
	}
}

func TestPosterService_Render_ClampsOversizeDimensions(t *testing.T) {
	svc, ports := newTestPosterService("posters")

	req := baseRequest()
	req.WidthIn = 30
	req.HeightIn = 40
	if _, err := svc.Render(context.Background(), req, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	scene := ports.renderer.lastScene
	if scene.WidthIn != domain.MaxDimensionIn || scene.HeightIn != domain.MaxDimensionIn {
		t.Errorf("scene %vx%v inches, expected both capped at %v", scene.WidthIn, scene.HeightIn, domain.MaxDimensionIn)
	}
}
