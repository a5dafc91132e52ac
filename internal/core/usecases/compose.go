package usecases

import (
	"strings"

	"github.com/samirrijal/mapframe/internal/core/domain"
	"github.com/samirrijal/mapframe/internal/pkg/geospatial"
)

// Typography layout, in page fractions and base points at the 12-inch
// reference size.
const (
	titleY   = 0.14
	countryY = 0.10
	coordsY  = 0.07
	ruleY    = 0.125
	ruleX1   = 0.4
	ruleX2   = 0.6

	countrySizePt = 22.0
	coordsSizePt  = 14.0
	attrSizePt    = 8.0

	coordsAlpha = 0.7
	attrAlpha   = 0.5

	attribution = "© OpenStreetMap contributors"

	posterDPI = 300
)

// BuildScene composes the full draw-command list for one poster: background,
// water and park polygons, the street network, rail lines, the two gradient
// fades, and typography. Op order encodes the z-order; the renderer executes
// it verbatim. Optional layers may be nil and simply contribute nothing.
func BuildScene(req *domain.PosterRequest, theme *domain.Theme, center domain.GeoPoint, graph *domain.StreetGraph, water, parks, rails *domain.FeatureSet) (*domain.Scene, error) {
	cx, cy := geospatial.MercatorXY(center.Lat, center.Lon)
	// Mercator stretches distances by 1/cos(lat), so the crop radius has to
	// stretch with it or high-latitude posters would cover too little city.
	radius := req.CompensatedDistance() * geospatial.MercatorScale(center.Lat)
	viewport, err := domain.ComputeViewport(domain.XY{X: cx, Y: cy}, radius, req.Aspect())
	if err != nil {
		return nil, err
	}

	ops := make([]domain.DrawOp, 0, 1+len(graph.Edges))
	ops = append(ops, domain.BackgroundOp{Color: theme.Color("bg")})
	ops = append(ops, polygonOps(water, theme.Color(domain.ClassifyPolygonLayer(domain.LayerWater)))...)
	ops = append(ops, polygonOps(parks, theme.Color(domain.ClassifyPolygonLayer(domain.LayerParks)))...)

	for _, edge := range graph.Edges {
		if len(edge.Shape.Coordinates) < 2 {
			continue
		}
		style := domain.ClassifyEdge(edge.Tags)
		ops = append(ops, domain.PolylineOp{
			Points:  projectLine(edge.Shape),
			Color:   theme.Color(style.Role),
			WidthPt: style.Width,
		})
	}

	if rails != nil {
		for _, f := range rails.Features {
			style := domain.ClassifyEdge(f.Tags)
			for _, line := range f.Lines {
				if len(line.Coordinates) < 2 {
					continue
				}
				ops = append(ops, domain.PolylineOp{
					Points:  projectLine(line),
					Color:   theme.Color(style.Role),
					WidthPt: style.Width,
				})
			}
		}
	}

	gradient := theme.Color("gradient_color")
	ops = append(ops,
		domain.FadeOp{Color: gradient, Location: domain.FadeBottom},
		domain.FadeOp{Color: gradient, Location: domain.FadeTop},
	)
	ops = append(ops, textOps(req, theme, center)...)

	return &domain.Scene{
		WidthIn:    req.WidthIn,
		HeightIn:   req.HeightIn,
		Viewport:   viewport,
		Format:     req.Format,
		DPI:        posterDPI,
		FontFamily: req.FontFamily,
		Ops:        ops,
	}, nil
}

// textOps lays out the typography block for the request's text mode. The
// attribution is not optional; every mode carries it.
func textOps(req *domain.PosterRequest, theme *domain.Theme, center domain.GeoPoint) []domain.DrawOp {
	scale := req.ScaleFactor()
	textColor := theme.Color("text")

	title := domain.TextOp{
		Text:   domain.FormatTitle(req.TitleCity()),
		X:      0.5,
		Y:      titleY,
		Face:   domain.FaceBold,
		SizePt: domain.TitleSizePt(req.TitleCity(), scale),
		Color:  textColor,
		Alpha:  1,
		Align:  domain.AlignCenter,
	}
	country := domain.TextOp{
		Text:   strings.ToUpper(req.TitleCountry()),
		X:      0.5,
		Y:      countryY,
		Face:   domain.FaceLight,
		SizePt: countrySizePt * scale,
		Color:  textColor,
		Alpha:  1,
		Align:  domain.AlignCenter,
	}
	coords := domain.TextOp{
		Text:   domain.FormatCoordinates(center),
		X:      0.5,
		Y:      coordsY,
		Face:   domain.FaceRegular,
		SizePt: coordsSizePt * scale,
		Color:  textColor,
		Alpha:  coordsAlpha,
		Align:  domain.AlignCenter,
	}
	rule := domain.RuleOp{
		X1: ruleX1, Y1: ruleY,
		X2: ruleX2, Y2: ruleY,
		Color:   textColor,
		WidthPt: 1 * scale,
	}

	var ops []domain.DrawOp
	switch req.TextMode {
	case domain.TextKeepAll:
		ops = append(ops, title, country, coords, rule)
	case domain.TextNoCoords:
		ops = append(ops, title, country, rule)
	case domain.TextNoCountry:
		coords.Y = countryY
		ops = append(ops, title, coords, rule)
	case domain.TextNoCityCountry:
		// The coordinate string takes over the title slot, keeping the
		// length-adjusted title size.
		coords.Y = titleY
		coords.Face = domain.FaceBold
		coords.SizePt = title.SizePt
		ops = append(ops, coords)
	case domain.TextClearAll:
		// attribution only
	}

	ops = append(ops, domain.TextOp{
		Text:   attribution,
		X:      0.98,
		Y:      0.02,
		Face:   domain.FaceLight,
		SizePt: attrSizePt * scale,
		Color:  textColor,
		Alpha:  attrAlpha,
		Align:  domain.AlignRight,
	})
	return ops
}

// polygonOps projects a feature set's polygons into draw ops. Line
// geometries in a polygon layer (unclosed coastline ways and such) are
// skipped rather than force-closed.
func polygonOps(fs *domain.FeatureSet, color string) []domain.DrawOp {
	if fs == nil {
		return nil
	}
	var ops []domain.DrawOp
	for _, f := range fs.Features {
		for _, poly := range f.Polygons {
			if len(poly.Outer.Coordinates) < 3 {
				continue
			}
			op := domain.PolygonOp{Outer: projectLine(poly.Outer), Color: color}
			for _, hole := range poly.Holes {
				if len(hole.Coordinates) < 3 {
					continue
				}
				op.Holes = append(op.Holes, projectLine(hole))
			}
			ops = append(ops, op)
		}
	}
	return ops
}

func projectLine(line domain.GeoLineString) []domain.XY {
	pts := make([]domain.XY, len(line.Coordinates))
	for i, c := range line.Coordinates {
		x, y := geospatial.MercatorXY(c.Lat, c.Lon)
		pts[i] = domain.XY{X: x, Y: y}
	}
	return pts
}
