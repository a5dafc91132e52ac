package domain

// Viewport is the rectangle of projected space visible in the final image.
type Viewport struct {
	MinX float64 `json:"min_x"`
	MaxX float64 `json:"max_x"`
	MinY float64 `json:"min_y"`
	MaxY float64 `json:"max_y"`
}

// Width returns the horizontal extent of the viewport.
func (v Viewport) Width() float64 { return v.MaxX - v.MinX }

// Height returns the vertical extent of the viewport.
func (v Viewport) Height() float64 { return v.MaxY - v.MinY }

// ComputeViewport crops inward around a projected center point so that the
// viewport matches the figure aspect ratio while still covering the full
// requested radius on the unconstrained axis. Both half-extents start at
// radius; a landscape figure (aspect > 1) trims the vertical half-extent to
// radius/aspect, a portrait one trims the horizontal half-extent to
// radius*aspect. A square figure keeps the full square. Cutting inward,
// never outward, guarantees the smaller half-extent equals the requested
// radius exactly.
func ComputeViewport(center XY, radius, aspect float64) (Viewport, error) {
	if radius <= 0 {
		return Viewport{}, &InvalidViewportError{Radius: radius, Aspect: aspect, Reason: "radius must be positive"}
	}
	if aspect <= 0 {
		return Viewport{}, &InvalidViewportError{Radius: radius, Aspect: aspect, Reason: "aspect ratio must be positive"}
	}

	halfX := radius
	halfY := radius
	if aspect > 1 {
		halfY = halfX / aspect
	} else {
		halfX = halfY * aspect
	}

	return Viewport{
		MinX: center.X - halfX,
		MaxX: center.X + halfX,
		MinY: center.Y - halfY,
		MaxY: center.Y + halfY,
	}, nil
}
