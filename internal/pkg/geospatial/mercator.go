package geospatial

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// MercatorXY projects a WGS84 coordinate onto the spherical-Mercator plane.
// Projected units are meters at the equator and stretch by MercatorScale(lat)
// away from it.
func MercatorXY(lat, lon float64) (x, y float64) {
	p := project.WGS84.ToMercator(orb.Point{lon, lat})
	return p[0], p[1]
}

// MercatorScale returns the Mercator distance distortion factor at the given
// latitude. A ground span of d meters covers d*MercatorScale(lat) projected
// units there.
func MercatorScale(lat float64) float64 {
	return 1 / math.Cos(toRad(lat))
}
