// Package geo provides coordinate helpers shared by the store, the refresh
// orchestrator and the nearby service.
package geo

import (
	"errors"
	"math"
)

// ErrInvalidCoordinates is returned when a latitude or longitude is out of range.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// earthRadiusKm is the mean Earth radius used by Haversine.
const earthRadiusKm = 6371.0

// Coordinates is a point in decimal degrees.
type Coordinates struct {
	Lat float64
	Lon float64
}

// Validate checks latitude ∈ [-90,90] and longitude ∈ [-180,180].
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return ErrInvalidCoordinates
	}
	if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

// DegreeDistance returns the Euclidean distance between two points measured in
// degrees. It is only meaningful for small tolerances (≈0.01° ≈ 1 km).
func DegreeDistance(a, b Coordinates) float64 {
	return math.Hypot(a.Lat-b.Lat, a.Lon-b.Lon)
}

// Haversine returns the great-circle distance between two points in kilometres.
func Haversine(a, b Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}
