package geospatial

import "math"

// Normalize360 maps any angle in degrees into [0, 360).
func Normalize360(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	// math.Mod can return 360 after the correction for tiny negatives.
	if d >= 360 {
		d = 0
	}
	return d
}

// Wrap180 maps any angle difference in degrees into (-180, 180].
// Applying it twice yields the same value.
func Wrap180(deg float64) float64 {
	d := Normalize360(deg)
	if d > 180 {
		d -= 360
	}
	return d
}

// BearingFromOffsets returns the compass bearing, clockwise from north in [0, 360),
// of a displacement given as north and east components.
func BearingFromOffsets(north, east float64) float64 {
	return Normalize360(toDeg(math.Atan2(east, north)))
}

// InitialBearing returns the forward azimuth from point 1 to point 2 in [0, 360).
func InitialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	φ1, φ2 := toRad(lat1), toRad(lat2)
	Δλ := toRad(lon2 - lon1)
	y := math.Sin(Δλ) * math.Cos(φ2)
	x := math.Cos(φ1)*math.Sin(φ2) - math.Sin(φ1)*math.Cos(φ2)*math.Cos(Δλ)
	return Normalize360(toDeg(math.Atan2(y, x)))
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return clamp(v, lo, hi)
}
