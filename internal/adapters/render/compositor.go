package render

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers"

	"github.com/samirrijal/mapframe/internal/core/domain"
	"github.com/samirrijal/mapframe/internal/pkg/metrics"
)

const (
	mmPerInch = 25.4
	mmPerPt   = 25.4 / 72.0

	// strokeTolerance is the flattening tolerance in millimeters used when
	// converting stroked centerlines to fill outlines.
	strokeTolerance = 0.01

	// fadeSteps is the number of alpha bands in a gradient fade. The fade
	// covers a quarter of the page height, so each band stays well under a
	// millimeter on any sane poster size.
	fadeSteps = 256

	defaultDPI = 300
)

// Compositor executes scene draw commands onto a canvas and writes the
// result to disk. It implements ports.SceneRenderer. The op slice already
// encodes the z-order, so execution is a straight pass over it.
type Compositor struct {
	fonts     *FontSet
	downloads *FontDownloader
	fontsDir  string
}

// NewCompositor builds a renderer drawing text with the given font set.
func NewCompositor(fonts *FontSet) *Compositor {
	return &Compositor{fonts: fonts}
}

// WithFontDownloads lets scenes name a font family: the family is fetched
// into dir on first use and loaded for that render. Any fetch or load
// failure falls back to the base font set.
func (r *Compositor) WithFontDownloads(d *FontDownloader, dir string) *Compositor {
	r.downloads = d
	r.fontsDir = dir
	return r
}

// sceneFonts resolves the font set for one render. Families already on disk
// load without touching the network.
func (r *Compositor) sceneFonts(ctx context.Context, scene *domain.Scene) *FontSet {
	if scene.FontFamily == "" || r.downloads == nil {
		return r.fonts
	}
	dir, err := r.downloads.FetchFamily(ctx, scene.FontFamily, r.fontsDir)
	if err != nil {
		slog.Warn("font family unavailable, using built-in fonts", "family", scene.FontFamily, "error", err)
		return r.fonts
	}
	fonts, err := LoadFonts(dir)
	if err != nil {
		slog.Warn("font family failed to load, using built-in fonts", "family", scene.FontFamily, "error", err)
		return r.fonts
	}
	return fonts
}

// Render draws scene and writes it to path, creating parent directories as
// needed. The output format follows the scene, which also matches the path
// extension produced by domain.OutputPath.
func (r *Compositor) Render(ctx context.Context, scene *domain.Scene, path string) error {
	start := time.Now()

	pageW := scene.WidthIn * mmPerInch
	pageH := scene.HeightIn * mmPerInch
	c := canvas.New(pageW, pageH)
	cc := canvas.NewContext(c)
	// Water and park polygons carry holes as separate rings.
	cc.SetFillRule(canvas.EvenOdd)

	view := viewMatrix(scene.Viewport, pageW, pageH)
	fonts := r.sceneFonts(ctx, scene)

	for _, op := range scene.Ops {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		switch op := op.(type) {
		case domain.BackgroundOp:
			err = r.background(cc, op, pageW, pageH)
		case domain.PolygonOp:
			err = r.polygon(cc, op, view)
		case domain.PolylineOp:
			err = r.polyline(cc, op, view)
		case domain.FadeOp:
			err = r.fade(cc, op, pageW, pageH, fadeStepCount(scene, pageH))
		case domain.TextOp:
			err = r.text(cc, fonts, op, pageW, pageH)
		case domain.RuleOp:
			err = r.rule(cc, op, pageW, pageH)
		default:
			err = fmt.Errorf("unknown draw op %T", op)
		}
		if err != nil {
			return fmt.Errorf("rendering scene: %w", err)
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := r.write(scene, c, path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	metrics.RenderDuration.WithLabelValues(string(scene.Format)).Observe(time.Since(start).Seconds())
	return nil
}

func (r *Compositor) write(scene *domain.Scene, c *canvas.Canvas, path string) error {
	if scene.Format == domain.FormatPNG {
		dpi := scene.DPI
		if dpi <= 0 {
			dpi = defaultDPI
		}
		return renderers.Write(path, c, canvas.DPI(float64(dpi)))
	}
	// Vector formats carry their own units; DPI does not apply.
	return renderers.Write(path, c)
}

func (r *Compositor) background(cc *canvas.Context, op domain.BackgroundOp, w, h float64) error {
	col, err := parseHexColor(op.Color, 1)
	if err != nil {
		return err
	}
	cc.SetFillColor(col)
	cc.DrawPath(0, 0, canvas.Rectangle(w, h))
	return nil
}

func (r *Compositor) polygon(cc *canvas.Context, op domain.PolygonOp, view canvas.Matrix) error {
	if len(op.Outer) < 3 {
		return nil
	}
	col, err := parseHexColor(op.Color, 1)
	if err != nil {
		return err
	}
	p := ringPath(op.Outer)
	for _, hole := range op.Holes {
		if len(hole) < 3 {
			continue
		}
		p = p.Append(ringPath(hole))
	}
	cc.SetFillColor(col)
	cc.DrawPath(0, 0, p.Transform(view))
	return nil
}

func (r *Compositor) polyline(cc *canvas.Context, op domain.PolylineOp, view canvas.Matrix) error {
	if len(op.Points) < 2 {
		return nil
	}
	col, err := parseHexColor(op.Color, 1)
	if err != nil {
		return err
	}
	p := &canvas.Path{}
	p.MoveTo(op.Points[0].X, op.Points[0].Y)
	for _, pt := range op.Points[1:] {
		p.LineTo(pt.X, pt.Y)
	}
	// Transform before stroking so the width is in page millimeters, not
	// projected meters.
	stroked := p.Transform(view).Stroke(op.WidthPt*mmPerPt, canvas.RoundCap, canvas.RoundJoin, strokeTolerance)
	cc.SetFillColor(col)
	cc.DrawPath(0, 0, stroked)
	return nil
}

func (r *Compositor) fade(cc *canvas.Context, op domain.FadeOp, w, h float64, steps int) error {
	base, err := parseHexColor(op.Color, 1)
	if err != nil {
		return err
	}
	band := h / 4
	step := band / float64(steps)
	for i := 0; i < steps; i++ {
		var frac float64
		if steps > 1 {
			frac = float64(i) / float64(steps-1)
		}
		var y float64
		var alpha float64
		if op.Location == domain.FadeTop {
			// transparent at the band's lower edge, opaque at the page top
			y = h - band + float64(i)*step
			alpha = frac
		} else {
			y = float64(i) * step
			alpha = 1 - frac
		}
		strip := base
		strip.A = uint8(alpha*255 + 0.5)
		cc.SetFillColor(strip)
		cc.DrawPath(0, y, canvas.Rectangle(w, step))
	}
	return nil
}

// fadeStepCount caps the strip count so each strip stays at least a pixel
// tall on raster output. Sub-pixel strips never composite to full opacity
// at the page edge, which softens the fade where it should be solid.
func fadeStepCount(scene *domain.Scene, pageH float64) int {
	steps := fadeSteps
	if scene.Format == domain.FormatPNG {
		dpi := scene.DPI
		if dpi <= 0 {
			dpi = defaultDPI
		}
		bandPx := int(pageH / 4 / mmPerInch * float64(dpi))
		if bandPx < 1 {
			bandPx = 1
		}
		if bandPx < steps {
			steps = bandPx
		}
	}
	return steps
}

func (r *Compositor) text(cc *canvas.Context, fonts *FontSet, op domain.TextOp, w, h float64) error {
	if op.Text == "" {
		return nil
	}
	alpha := op.Alpha
	if alpha <= 0 {
		alpha = 1
	}
	col, err := parseHexColor(op.Color, alpha)
	if err != nil {
		return err
	}
	align := canvas.Center
	if op.Align == domain.AlignRight {
		align = canvas.Right
	}
	face := fonts.Face(op.Face, op.SizePt, col)
	cc.DrawText(op.X*w, op.Y*h, canvas.NewTextLine(face, op.Text, align))
	return nil
}

func (r *Compositor) rule(cc *canvas.Context, op domain.RuleOp, w, h float64) error {
	col, err := parseHexColor(op.Color, 1)
	if err != nil {
		return err
	}
	p := &canvas.Path{}
	p.MoveTo(op.X1*w, op.Y1*h)
	p.LineTo(op.X2*w, op.Y2*h)
	cc.SetFillColor(col)
	cc.DrawPath(0, 0, p.Stroke(op.WidthPt*mmPerPt, canvas.ButtCap, canvas.RoundJoin, strokeTolerance))
	return nil
}

// viewMatrix maps projected viewport coordinates onto the page in
// millimeters. The viewport aspect matches the page aspect when composed
// with ComputeViewport, so x and y scale equally up to rounding.
func viewMatrix(vp domain.Viewport, pageW, pageH float64) canvas.Matrix {
	if vp.Width() <= 0 || vp.Height() <= 0 {
		return canvas.Identity
	}
	sx := pageW / vp.Width()
	sy := pageH / vp.Height()
	return canvas.Identity.Scale(sx, sy).Translate(-vp.MinX, -vp.MinY)
}

func ringPath(ring []domain.XY) *canvas.Path {
	p := &canvas.Path{}
	p.MoveTo(ring[0].X, ring[0].Y)
	for _, pt := range ring[1:] {
		p.LineTo(pt.X, pt.Y)
	}
	p.Close()
	return p
}

// parseHexColor converts a #RRGGBB theme color and an alpha fraction into
// an NRGBA value.
func parseHexColor(s string, alpha float64) (color.NRGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.NRGBA{}, fmt.Errorf("invalid color %q, want #RRGGBB", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if alpha < 0 {
		alpha = 0
	} else if alpha > 1 {
		alpha = 1
	}
	return color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: uint8(alpha*255 + 0.5),
	}, nil
}
