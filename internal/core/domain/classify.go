package domain

// StyleClass is the classification result for one edge or polygon layer:
// a theme color role plus a stroke width. Widths are in typographic points
// at the reference poster size.
type StyleClass struct {
	Role  string
	Width float64
}

// ClassifyEdge assigns a style class from an edge's tag bag. A railway tag
// takes precedence over highway and skips highway classification entirely;
// multi-valued tags classify by their first value; a missing highway tag is
// treated as "unclassified". The function is total: every tag bag, including
// nil, resolves to some class.
func ClassifyEdge(tags Tags) StyleClass {
	if railway, ok := tags.First("railway"); ok {
		switch railway {
		case "rail", "subway":
			return StyleClass{Role: "rail_heavy", Width: 1.0}
		case "light_rail", "tram":
			return StyleClass{Role: "rail_light", Width: 0.8}
		case "narrow_gauge", "funicular", "monorail":
			return StyleClass{Role: "rail_special", Width: 0.6}
		case "service", "yard", "siding":
			return StyleClass{Role: "rail_service", Width: 0.4}
		default:
			return StyleClass{Role: "rail_default", Width: 0.5}
		}
	}

	highway, ok := tags.First("highway")
	if !ok {
		highway = "unclassified"
	}
	switch highway {
	case "motorway", "motorway_link":
		return StyleClass{Role: "road_motorway", Width: 1.2}
	case "trunk", "trunk_link", "primary", "primary_link":
		return StyleClass{Role: "road_primary", Width: 1.0}
	case "secondary", "secondary_link":
		return StyleClass{Role: "road_secondary", Width: 0.8}
	case "tertiary", "tertiary_link":
		return StyleClass{Role: "road_tertiary", Width: 0.6}
	case "residential", "living_street", "unclassified":
		return StyleClass{Role: "road_residential", Width: 0.4}
	default:
		return StyleClass{Role: "road_default", Width: 0.4}
	}
}

// ClassifyPolygonLayer maps a polygon layer label to its theme color role.
// Unknown labels fall back to the background role so a mislabeled layer is
// invisible rather than wrongly colored.
func ClassifyPolygonLayer(label string) string {
	switch label {
	case LayerWater:
		return "water"
	case LayerParks:
		return "parks"
	default:
		return "bg"
	}
}

// Layer labels used for cache keys, logging and layer classification.
const (
	LayerWater = "water"
	LayerParks = "parks"
	LayerRail  = "railways"
)
