package geo

import (
	"errors"
	"fmt"
	"math"
)

// earthRadiusKm is the mean Earth radius used by the great-circle
// distance computation.
const earthRadiusKm = 6371

var (
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrInvalidZone       = errors.New("invalid zone")
	ErrNoZoneConfigured  = errors.New("no zone configured")
)

// Point is a reported device coordinate in signed degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Zone is a circular geofence: a center plus a radius in kilometers.
type Zone struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusKm  float64 `json:"radiusKm"`
	Label     string  `json:"label,omitempty"`
}

// Verdict is the result of evaluating a point against a zone.
type Verdict struct {
	WithinZone bool    `json:"withinZone"`
	DistanceKm float64 `json:"distanceKm"`
}

func validPoint(p Point) bool {
	switch {
	case math.IsNaN(p.Latitude) || math.IsInf(p.Latitude, 0):
		return false
	case math.IsNaN(p.Longitude) || math.IsInf(p.Longitude, 0):
		return false
	case p.Latitude < -90 || p.Latitude > 90:
		return false
	case p.Longitude < -180 || p.Longitude > 180:
		return false
	}
	return true
}

// Distance computes the great-circle (haversine) distance between two
// points in kilometers.
func Distance(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Evaluate reports whether point lies within zone. The boundary is
// inclusive: a point exactly RadiusKm away is inside. Pure and total
// over valid inputs; acquiring the coordinate is the caller's problem.
func Evaluate(point Point, zone Zone) (Verdict, error) {
	if !validPoint(point) {
		return Verdict{}, fmt.Errorf("%w: %+v", ErrInvalidCoordinate, point)
	}
	center := Point{Latitude: zone.Latitude, Longitude: zone.Longitude}
	if !validPoint(center) || math.IsNaN(zone.RadiusKm) || zone.RadiusKm <= 0 {
		return Verdict{}, fmt.Errorf("%w: %+v", ErrInvalidZone, zone)
	}

	d := Distance(point, center)
	return Verdict{WithinZone: d <= zone.RadiusKm, DistanceKm: d}, nil
}

// Resolve picks the zone a course submission is checked against: the
// course override when present, otherwise the global default. When
// neither exists it fails with ErrNoZoneConfigured — the caller decides
// whether that is fatal; a permissive zone is never invented here.
func Resolve(course, global *Zone) (Zone, error) {
	switch {
	case course != nil:
		return *course, nil
	case global != nil:
		return *global, nil
	}
	return Zone{}, ErrNoZoneConfigured
}
