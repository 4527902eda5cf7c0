package domain

import "github.com/samirrijal/cityhunt/internal/pkg/geospatial"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DistanceTo returns the great-circle distance in meters to q.
func (p GeoPoint) DistanceTo(q GeoPoint) float64 {
	return geospatial.Haversine(p.Lat, p.Lon, q.Lat, q.Lon)
}

// Within reports whether p lies inside the geofence centered at center.
func (p GeoPoint) Within(center GeoPoint, radiusMeters float64) bool {
	return geospatial.IsWithinRadius(p.Lat, p.Lon, center.Lat, center.Lon, radiusMeters)
}

// Valid reports whether the coordinate is inside the WGS 84 range.
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Geofence is a circular region used to gate access by real-world position.
type Geofence struct {
	Center       GeoPoint `json:"center"`
	RadiusMeters float64  `json:"radius_meters"`
}

// Contains reports whether p is inside the fence.
func (g Geofence) Contains(p GeoPoint) bool {
	return p.Within(g.Center, g.RadiusMeters)
}

// Bounds returns the fence's bounding box.
func (g Geofence) Bounds() Bounds {
	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(g.Center.Lat, g.Center.Lon, g.RadiusMeters)
	return Bounds{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon}
}
