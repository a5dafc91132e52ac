package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GeoLineString represents an ordered sequence of geographic coordinates.
type GeoLineString struct {
	Coordinates []GeoPoint `json:"coordinates"`
}

// GeoPolygon is a single polygon: one outer ring plus zero or more holes.
// Rings are not required to be explicitly closed.
type GeoPolygon struct {
	Outer GeoLineString   `json:"outer"`
	Holes []GeoLineString `json:"holes,omitempty"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// XY is a point in a projected planar coordinate system.
type XY struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GraphEdge is a street or rail segment with its polyline shape and tag bag.
type GraphEdge struct {
	From  int64         `json:"from"`
	To    int64         `json:"to"`
	Shape GeoLineString `json:"shape"`
	Tags  Tags          `json:"tags,omitempty"`
}

// StreetGraph is the routable network fetched for one center point and
// radius. Nodes are keyed by their OSM ID. The graph is read-only once
// fetched; a render never mutates it.
type StreetGraph struct {
	Nodes map[int64]GeoPoint `json:"nodes"`
	Edges []GraphEdge        `json:"edges"`
}

// Feature is one tagged geometry from a feature layer. A feature carries
// either polygons (water, parks) or lines (rail), depending on the source
// geometry type.
type Feature struct {
	Polygons []GeoPolygon    `json:"polygons,omitempty"`
	Lines    []GeoLineString `json:"lines,omitempty"`
	Tags     Tags            `json:"tags,omitempty"`
}

// FeatureSet is everything fetched for one layer (water, parks, railways)
// of one request. Immutable after fetch.
type FeatureSet struct {
	Label    string    `json:"label"`
	Features []Feature `json:"features"`
}
