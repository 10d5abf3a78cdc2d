package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceSymmetry(t *testing.T) {
	pairs := []struct {
		name string
		a, b Point
	}{
		{"campus to station", Point{33.1751332, 131.6138803}, Point{33.2, 131.6}},
		{"across the equator", Point{-12.5, 45.0}, Point{30.0, -100.0}},
		{"across the date line", Point{35.0, 179.9}, Point{35.0, -179.9}},
		{"pole to pole", Point{90, 0}, Point{-90, 0}},
	}
	for _, tt := range pairs {
		t.Run(tt.name, func(t *testing.T) {
			ab := Distance(tt.a, tt.b)
			ba := Distance(tt.b, tt.a)
			assert.InDelta(t, ab, ba, 1e-6)
		})
	}
}

func TestEvaluateSamePoint(t *testing.T) {
	zone := Zone{Latitude: 33.1751332, Longitude: 131.6138803, RadiusKm: 0.5}
	point := Point{Latitude: 33.1751332, Longitude: 131.6138803}

	v, err := Evaluate(point, zone)
	require.NoError(t, err)
	assert.True(t, v.WithinZone)
	assert.InDelta(t, 0, v.DistanceKm, 1e-9)
}

func TestEvaluateFarAway(t *testing.T) {
	// ~0.09 degrees of latitude is about 10 km
	zone := Zone{Latitude: 33.1751332, Longitude: 131.6138803, RadiusKm: 0.5}
	point := Point{Latitude: 33.1751332 + 0.09, Longitude: 131.6138803}

	v, err := Evaluate(point, zone)
	require.NoError(t, err)
	assert.False(t, v.WithinZone)
	assert.InDelta(t, 10, v.DistanceKm, 0.5)
}

func TestEvaluateInclusiveBoundary(t *testing.T) {
	zone := Zone{Latitude: 35.0, Longitude: 139.0}
	point := Point{Latitude: 35.01, Longitude: 139.0}
	d := Distance(point, Point{Latitude: zone.Latitude, Longitude: zone.Longitude})

	t.Run("exactly on the boundary is inside", func(t *testing.T) {
		zone := zone
		zone.RadiusKm = d
		v, err := Evaluate(point, zone)
		require.NoError(t, err)
		assert.True(t, v.WithinZone)
	})

	t.Run("just beyond the boundary is outside", func(t *testing.T) {
		zone := zone
		zone.RadiusKm = d - 1e-9
		v, err := Evaluate(point, zone)
		require.NoError(t, err)
		assert.False(t, v.WithinZone)
	})
}

func TestEvaluateRejectsBadInput(t *testing.T) {
	okZone := Zone{Latitude: 35, Longitude: 139, RadiusKm: 1}
	okPoint := Point{Latitude: 35, Longitude: 139}

	tests := []struct {
		name    string
		point   Point
		zone    Zone
		wantErr error
	}{
		{"NaN latitude", Point{math.NaN(), 139}, okZone, ErrInvalidCoordinate},
		{"infinite longitude", Point{35, math.Inf(1)}, okZone, ErrInvalidCoordinate},
		{"latitude out of range", Point{90.1, 139}, okZone, ErrInvalidCoordinate},
		{"longitude out of range", Point{35, -180.5}, okZone, ErrInvalidCoordinate},
		{"zero radius", okPoint, Zone{Latitude: 35, Longitude: 139, RadiusKm: 0}, ErrInvalidZone},
		{"negative radius", okPoint, Zone{Latitude: 35, Longitude: 139, RadiusKm: -2}, ErrInvalidZone},
		{"NaN radius", okPoint, Zone{Latitude: 35, Longitude: 139, RadiusKm: math.NaN()}, ErrInvalidZone},
		{"bad zone center", okPoint, Zone{Latitude: 95, Longitude: 139, RadiusKm: 1}, ErrInvalidZone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.point, tt.zone)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestResolve(t *testing.T) {
	course := &Zone{Latitude: 33.17, Longitude: 131.61, RadiusKm: 0.5, Label: "lecture hall"}
	global := &Zone{Latitude: 33.18, Longitude: 131.62, RadiusKm: 2, Label: "campus"}

	t.Run("course override wins", func(t *testing.T) {
		z, err := Resolve(course, global)
		require.NoError(t, err)
		assert.Equal(t, *course, z)
	})

	t.Run("falls back to global", func(t *testing.T) {
		z, err := Resolve(nil, global)
		require.NoError(t, err)
		assert.Equal(t, *global, z)
	})

	t.Run("no zone configured", func(t *testing.T) {
		_, err := Resolve(nil, nil)
		assert.ErrorIs(t, err, ErrNoZoneConfigured)
	})
}
