package geospatial

import "math"

// BoundingBox returns the (south, west, north, east) box spanning radiusMeters
// around a point. Overpass bbox filters take exactly this order.
func BoundingBox(lat, lon, radiusMeters float64) (south, west, north, east float64) {
	latDelta := radiusMeters / 111320.0
	lonDelta := radiusMeters / (111320.0 * math.Cos(toRad(lat)))

	return lat - latDelta, lon - lonDelta, lat + latDelta, lon + lonDelta
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
