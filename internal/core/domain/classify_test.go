package domain_test

import (
	"testing"

	"github.com/samirrijal/mapframe/internal/core/domain"
)

func TestClassifyEdgeRailwayTable(t *testing.T) {
	cases := []struct {
		railway string
		role    string
		width   float64
	}{
		{"rail", "rail_heavy", 1.0},
		{"subway", "rail_heavy", 1.0},
		{"light_rail", "rail_light", 0.8},
		{"tram", "rail_light", 0.8},
		{"narrow_gauge", "rail_special", 0.6},
		{"funicular", "rail_special", 0.6},
		{"monorail", "rail_special", 0.6},
		{"service", "rail_service", 0.4},
		{"yard", "rail_service", 0.4},
		{"siding", "rail_service", 0.4},
		{"abandoned", "rail_default", 0.5},
	}
	for _, tc := range cases {
		got := domain.ClassifyEdge(domain.Tags{"railway": {tc.railway}})
		if got.Role != tc.role || got.Width != tc.width {
			t.Errorf("railway=%q: got %s/%v, expected %s/%v", tc.railway, got.Role, got.Width, tc.role, tc.width)
		}
	}
}

func TestClassifyEdgeHighwayTable(t *testing.T) {
	cases := []struct {
		highway string
		role    string
		width   float64
	}{
		{"motorway", "road_motorway", 1.2},
		{"motorway_link", "road_motorway", 1.2},
		{"trunk", "road_primary", 1.0},
		{"trunk_link", "road_primary", 1.0},
		{"primary", "road_primary", 1.0},
		{"primary_link", "road_primary", 1.0},
		{"secondary", "road_secondary", 0.8},
		{"secondary_link", "road_secondary", 0.8},
		{"tertiary", "road_tertiary", 0.6},
		{"tertiary_link", "road_tertiary", 0.6},
		{"residential", "road_residential", 0.4},
		{"living_street", "road_residential", 0.4},
		{"unclassified", "road_residential", 0.4},
		{"footway", "road_default", 0.4},
		{"cycleway", "road_default", 0.4},
	}
	for _, tc := range cases {
		got := domain.ClassifyEdge(domain.Tags{"highway": {tc.highway}})
		if got.Role != tc.role || got.Width != tc.width {
			t.Errorf("highway=%q: got %s/%v, expected %s/%v", tc.highway, got.Role, got.Width, tc.role, tc.width)
		}
	}
}

func TestClassifyEdgeRailwayOverridesHighway(t *testing.T) {
	// A rail line running along a motorway is still a rail line.
	got := domain.ClassifyEdge(domain.Tags{
		"railway": {"rail"},
		"highway": {"motorway"},
	})
	if got.Role != "rail_heavy" {
		t.Errorf("got %s, expected railway to take precedence over highway", got.Role)
	}
}

func TestClassifyEdgeMultiValuedTakesFirst(t *testing.T) {
	got := domain.ClassifyEdge(domain.Tags{"railway": {"subway", "service"}})
	if got.Role != "rail_heavy" || got.Width != 1.0 {
		t.Errorf("got %s/%v, expected the first value to classify as rail_heavy/1", got.Role, got.Width)
	}
}

func TestClassifyEdgeEmptyRailwayFallsThrough(t *testing.T) {
	// An empty value list counts as absent, so highway classification runs.
	got := domain.ClassifyEdge(domain.Tags{
		"railway": {},
		"highway": {"primary"},
	})
	if got.Role != "road_primary" {
		t.Errorf("got %s, expected road_primary", got.Role)
	}
}

func TestClassifyEdgeMissingHighway(t *testing.T) {
	// No recognizable tags at all: treated as an unclassified road.
	for _, tags := range []domain.Tags{
		nil,
		{},
		{"bridge": {"yes"}},
		{"highway": {}},
	} {
		got := domain.ClassifyEdge(tags)
		if got.Role != "road_residential" || got.Width != 0.4 {
			t.Errorf("tags=%v: got %s/%v, expected road_residential/0.4", tags, got.Role, got.Width)
		}
	}
}

func TestClassifyEdgeIsTotal(t *testing.T) {
	bags := []domain.Tags{
		nil,
		{},
		{"railway": {"rail"}},
		{"railway": {"hyperloop"}},
		{"railway": {""}},
		{"highway": {"motorway"}},
		{"highway": {"goat_track"}},
		{"highway": {""}},
		{"waterway": {"canal"}},
		{"railway": {}, "highway": {}},
	}
	for _, tags := range bags {
		got := domain.ClassifyEdge(tags)
		if got.Role == "" || got.Width <= 0 {
			t.Errorf("tags=%v: classification must always yield a role and width, got %s/%v", tags, got.Role, got.Width)
		}
	}
}

func TestClassifyPolygonLayer(t *testing.T) {
	cases := []struct {
		label string
		role  string
	}{
		{domain.LayerWater, "water"},
		{domain.LayerParks, "parks"},
		{domain.LayerRail, "bg"},
		{"buildings", "bg"},
		{"", "bg"},
	}
	for _, tc := range cases {
		if got := domain.ClassifyPolygonLayer(tc.label); got != tc.role {
			t.Errorf("label=%q: got %s, expected %s", tc.label, got, tc.role)
		}
	}
}
