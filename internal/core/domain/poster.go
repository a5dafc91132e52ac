package domain

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"
)

// OutputFormat is the poster file format. DPI only matters for raster
// output; SVG and PDF are vector.
type OutputFormat string

const (
	FormatPNG OutputFormat = "png"
	FormatSVG OutputFormat = "svg"
	FormatPDF OutputFormat = "pdf"
)

// Valid reports whether f is a supported output format.
func (f OutputFormat) Valid() bool {
	switch f {
	case FormatPNG, FormatSVG, FormatPDF:
		return true
	}
	return false
}

// Poster dimension defaults and cap, in inches.
const (
	DefaultWidthIn  = 12.0
	DefaultHeightIn = 16.0
	MaxDimensionIn  = 20.0

	// DefaultDistance is the default map radius in meters.
	DefaultDistance = 18000.0
)

// PosterRequest describes one poster to generate. City and Country are
// required even with an explicit center point: they drive the typography
// and the output filename.
type PosterRequest struct {
	City    string `json:"city"`
	Country string `json:"country"`

	// Point, when set, bypasses geocoding.
	Point *GeoPoint `json:"point,omitempty"`

	// Display overrides for localized posters.
	DisplayCity    string `json:"display_city,omitempty"`
	DisplayCountry string `json:"display_country,omitempty"`
	CountryLabel   string `json:"country_label,omitempty"`

	Theme          string       `json:"theme"`
	DistanceMeters float64      `json:"distance_meters"`
	WidthIn        float64      `json:"width_in"`
	HeightIn       float64      `json:"height_in"`
	FontFamily     string       `json:"font_family,omitempty"`
	Format         OutputFormat `json:"format"`
	TextMode       TextMode     `json:"text_mode"`
}

// ApplyDefaults fills zero-valued fields with the standard defaults.
func (r *PosterRequest) ApplyDefaults() {
	if r.Theme == "" {
		r.Theme = "terracotta"
	}
	if r.DistanceMeters == 0 {
		r.DistanceMeters = DefaultDistance
	}
	if r.WidthIn == 0 {
		r.WidthIn = DefaultWidthIn
	}
	if r.HeightIn == 0 {
		r.HeightIn = DefaultHeightIn
	}
	if r.Format == "" {
		r.Format = FormatPNG
	}
	if r.TextMode == "" {
		r.TextMode = TextKeepAll
	}
}

// ClampDimensions enforces the maximum poster size, returning a note for
// each dimension it had to cap.
func (r *PosterRequest) ClampDimensions() []string {
	var notes []string
	if r.WidthIn > MaxDimensionIn {
		notes = append(notes, fmt.Sprintf("width %v exceeds the maximum of %v inches, capping", r.WidthIn, MaxDimensionIn))
		r.WidthIn = MaxDimensionIn
	}
	if r.HeightIn > MaxDimensionIn {
		notes = append(notes, fmt.Sprintf("height %v exceeds the maximum of %v inches, capping", r.HeightIn, MaxDimensionIn))
		r.HeightIn = MaxDimensionIn
	}
	return notes
}

// Validate rejects requests that cannot possibly render.
func (r *PosterRequest) Validate() error {
	if r.City == "" || r.Country == "" {
		return fmt.Errorf("city and country are required")
	}
	if r.DistanceMeters <= 0 {
		return &InvalidViewportError{Radius: r.DistanceMeters, Aspect: r.Aspect(), Reason: "distance must be positive"}
	}
	if r.WidthIn <= 0 || r.HeightIn <= 0 {
		return &InvalidViewportError{Radius: r.DistanceMeters, Aspect: r.Aspect(), Reason: "width and height must be positive"}
	}
	if !r.Format.Valid() {
		return fmt.Errorf("unsupported output format %q", r.Format)
	}
	if !r.TextMode.Valid() {
		return fmt.Errorf("unknown text mode %q", r.TextMode)
	}
	return nil
}

// Aspect is the figure aspect ratio, width over height.
func (r *PosterRequest) Aspect() float64 {
	if r.HeightIn == 0 {
		return 0
	}
	return r.WidthIn / r.HeightIn
}

// ScaleFactor scales typography with the smaller output dimension against
// the 12-inch reference size, keeping portrait and landscape consistent.
func (r *PosterRequest) ScaleFactor() float64 {
	return math.Min(r.WidthIn, r.HeightIn) / 12.0
}

// CompensatedDistance widens the fetch radius for elongated posters so the
// long axis still reaches the requested distance after cropping.
func (r *PosterRequest) CompensatedDistance() float64 {
	longSide := math.Max(r.WidthIn, r.HeightIn)
	shortSide := math.Min(r.WidthIn, r.HeightIn)
	return r.DistanceMeters * (longSide / shortSide) / 4
}

// TitleCity is the name rendered in the title slot.
func (r *PosterRequest) TitleCity() string {
	if r.DisplayCity != "" {
		return r.DisplayCity
	}
	return r.City
}

// TitleCountry is the name rendered in the country slot.
func (r *PosterRequest) TitleCountry() string {
	if r.DisplayCountry != "" {
		return r.DisplayCountry
	}
	if r.CountryLabel != "" {
		return r.CountryLabel
	}
	return r.Country
}

// OutputFilename builds the poster filename: lower-cased city with spaces
// as underscores, theme, and a second-resolution timestamp.
func OutputFilename(city, theme string, format OutputFormat, now time.Time) string {
	slug := strings.ReplaceAll(strings.ToLower(city), " ", "_")
	return fmt.Sprintf("%s_%s_%s.%s", slug, theme, now.Format("20060102_150405"), format)
}

// OutputPath joins the output directory and a generated filename.
func OutputPath(dir, city, theme string, format OutputFormat, now time.Time) string {
	return filepath.Join(dir, OutputFilename(city, theme, format, now))
}

// RenderResult reports a finished poster.
type RenderResult struct {
	File    string       `json:"file"`
	Theme   string       `json:"theme"`
	City    string       `json:"city"`
	Country string       `json:"country"`
	Center  GeoPoint     `json:"center"`
	Format  OutputFormat `json:"format"`
	Elapsed float64      `json:"elapsed_seconds"`
}

// Stage identifies a pipeline step for progress reporting.
type Stage string

const (
	StageGeocode Stage = "geocoding"
	StageNetwork Stage = "street_network"
	StageWater   Stage = "water"
	StageParks   Stage = "parks"
	StageRail    Stage = "railways"
	StageCompose Stage = "compose"
	StageRender  Stage = "render"
	StageDone    Stage = "done"
)

// ProgressFunc receives per-stage progress during a render. Implementations
// must be cheap; the pipeline calls them synchronously.
type ProgressFunc func(stage Stage, message string)
