package geospatial

import "math"

// EarthRadiusMeters is the mean Earth radius used for all surface distances.
const EarthRadiusMeters = 6371000.0

// Haversine calculates the great-circle distance in meters between two points.
// The haversine term is clamped to [0, 1] before the inverse sine so that
// coincident and antipodal points never produce NaN.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	a = clamp(a, 0, 1)

	c := 2 * math.Asin(math.Sqrt(a))
	return EarthRadiusMeters * c
}

// IsWithinRadius reports whether the two points are at most radiusMeters apart.
func IsWithinRadius(lat1, lon1, lat2, lon2, radiusMeters float64) bool {
	return Haversine(lat1, lon1, lat2, lon2) <= radiusMeters
}

// Antipode returns the point on the opposite side of the globe.
func Antipode(lat, lon float64) (float64, float64) {
	aLon := lon + 180
	if aLon > 180 {
		aLon -= 360
	}
	return -lat, aLon
}

// OffsetMeters moves a point by the given north/east offsets in meters using an
// equirectangular approximation. Good enough for the tens-of-meters scale.
func OffsetMeters(lat, lon, north, east float64) (float64, float64) {
	dLat := north / 111320.0
	dLon := east / (111320.0 * math.Cos(toRad(lat)))
	return lat + dLat, lon + dLon
}

// BoundingBox returns a bounding box around a point with the given radius in meters.
func BoundingBox(lat, lon, radiusMeters float64) (minLat, minLon, maxLat, maxLon float64) {
	latDelta := radiusMeters / 111320.0
	lonDelta := radiusMeters / (111320.0 * math.Cos(toRad(lat)))

	return lat - latDelta, lon - lonDelta, lat + latDelta, lon + lonDelta
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
