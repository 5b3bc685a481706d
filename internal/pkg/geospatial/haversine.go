package geospatial

import "math"

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two points.
// Arguments are latitude first, then longitude.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// boxMargin widens the box slightly so float rounding never excludes a
// point that Haversine places on the circle.
const boxMargin = 1.0001

// BoundingBox returns a box enclosing every point within radiusMeters of
// (lat, lon) on the same sphere Haversine uses. Callers filter the box
// with Haversine for the exact result. When the circle reaches a pole the
// longitude span is the whole range.
func BoundingBox(lat, lon, radiusMeters float64) (minLat, minLon, maxLat, maxLon float64) {
	d := radiusMeters / (earthRadiusKm * 1000) * boxMargin // angular radius

	latDelta := toDeg(d)
	minLat, maxLat = math.Max(lat-latDelta, -90), math.Min(lat+latDelta, 90)
	if minLat == -90 || maxLat == 90 {
		return minLat, -180, maxLat, 180
	}

	// Widest longitude reached by a spherical cap of angular radius d.
	s := math.Sin(d) / math.Cos(toRad(lat))
	if s >= 1 {
		return minLat, -180, maxLat, 180
	}
	lonDelta := toDeg(math.Asin(s))
	return minLat, lon - lonDelta, maxLat, lon + lonDelta
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
