package domain

// Scene is the fully composed poster: page geometry, the projected
// viewport, and an ordered list of draw commands. The rendering backend
// executes the commands in order; it makes no layering decisions of its own.
type Scene struct {
	WidthIn    float64
	HeightIn   float64
	Viewport   Viewport
	Format     OutputFormat
	DPI        int
	FontFamily string
	Ops        []DrawOp
}

// DrawOp is one draw command. Concrete ops are executed strictly in slice
// order, which encodes the z-order of the poster.
type DrawOp interface {
	drawOp()
}

// BackgroundOp fills the whole page.
type BackgroundOp struct {
	Color string
}

// PolygonOp fills a projected polygon (water, parks).
type PolygonOp struct {
	Outer []XY
	Holes [][]XY
	Color string
}

// PolylineOp strokes a projected polyline (street edges, rail lines).
// WidthPt is the final stroke width in points.
type PolylineOp struct {
	Points  []XY
	Color   string
	WidthPt float64
}

// FadeLocation places a gradient fade strip.
type FadeLocation string

const (
	FadeBottom FadeLocation = "bottom"
	FadeTop    FadeLocation = "top"
)

// FadeOp overlays a gradient that fades from opaque at the page edge to
// transparent toward the center, covering a quarter of the page height.
type FadeOp struct {
	Color    string
	Location FadeLocation
}

// FontFace selects one of the loaded poster faces.
type FontFace string

const (
	FaceBold    FontFace = "bold"
	FaceRegular FontFace = "regular"
	FaceLight   FontFace = "light"
)

// TextAlign is the horizontal anchor of a text op.
type TextAlign string

const (
	AlignCenter TextAlign = "center"
	AlignRight  TextAlign = "right"
)

// TextOp draws a text line. X and Y are fractions of the page, origin at
// the bottom-left; SizePt is the final size in points.
type TextOp struct {
	Text   string
	X, Y   float64
	Face   FontFace
	SizePt float64
	Color  string
	Alpha  float64
	Align  TextAlign
}

// RuleOp draws a straight decorative line in page fractions.
type RuleOp struct {
	X1, Y1  float64
	X2, Y2  float64
	Color   string
	WidthPt float64
}

func (BackgroundOp) drawOp() {}
func (PolygonOp) drawOp()    {}
func (PolylineOp) drawOp()   {}
func (FadeOp) drawOp()       {}
func (TextOp) drawOp()       {}
func (RuleOp) drawOp()       {}
