package gate

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yokan/rollcall/geo"
)

var (
	hall    = geo.Zone{Latitude: 33.1751332, Longitude: 131.6138803, RadiusKm: 0.5, Label: "lecture hall"}
	inHall  = geo.Point{Latitude: 33.1751332, Longitude: 131.6138803}
	farAway = geo.Point{Latitude: 33.2651332, Longitude: 131.6138803}
)

func attemptAt(ts time.Time, p geo.Point) Attempt {
	return Attempt{
		DeviceKey:  "device-1",
		Scope:      "course:7",
		Timestamp:  ts,
		Coordinate: p,
	}
}

func TestDecideAcceptsFirstSubmission(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	d, err := Decide(attemptAt(t0, inHall), hall, DefaultCooldownWindow, nil, false)
	require.NoError(t, err)
	assert.Equal(t, Accepted, d.Outcome)
	require.NotNil(t, d.Record)
	assert.Equal(t, "device-1", d.Record.DeviceKey)
	assert.Equal(t, "course:7", d.Record.Scope)
	assert.Equal(t, t0, d.Record.LastAcceptedAt)
}

func TestDecideCooldownSequence(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	window := 15 * time.Minute

	first, err := Decide(attemptAt(t0, inHall), hall, window, nil, false)
	require.NoError(t, err)
	require.Equal(t, Accepted, first.Outcome)

	// 10 minutes later: rejected with 5 minutes remaining
	second, err := Decide(attemptAt(t0.Add(10*time.Minute), inHall), hall, window, first.Record, false)
	require.NoError(t, err)
	assert.Equal(t, RejectedCooldown, second.Outcome)
	assert.Equal(t, 5*time.Minute, second.Remaining)
	assert.Equal(t, 5, second.RemainingMinutes())
	assert.Nil(t, second.Record)

	// 16 minutes later: accepted again
	third, err := Decide(attemptAt(t0.Add(16*time.Minute), inHall), hall, window, first.Record, false)
	require.NoError(t, err)
	assert.Equal(t, Accepted, third.Outcome)
	assert.Equal(t, t0.Add(16*time.Minute), third.Record.LastAcceptedAt)
}

func TestDecideCooldownBoundary(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	window := 15 * time.Minute
	prior := &Record{DeviceKey: "device-1", Scope: "course:7", LastAcceptedAt: t0}

	t.Run("elapsed equal to the window is accepted", func(t *testing.T) {
		d, err := Decide(attemptAt(t0.Add(window), inHall), hall, window, prior, false)
		require.NoError(t, err)
		assert.Equal(t, Accepted, d.Outcome)
	})

	t.Run("a hair short of the window is rejected", func(t *testing.T) {
		d, err := Decide(attemptAt(t0.Add(window-time.Nanosecond), inHall), hall, window, prior, false)
		require.NoError(t, err)
		assert.Equal(t, RejectedCooldown, d.Outcome)
		assert.Equal(t, time.Nanosecond, d.Remaining)
		assert.Equal(t, 1, d.RemainingMinutes(), "remaining wait is rounded up for display")
	})
}

func TestDecideOutsideZoneBeatsCooldown(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	prior := &Record{DeviceKey: "device-1", Scope: "course:7", LastAcceptedAt: t0.Add(-time.Minute)}

	d, err := Decide(attemptAt(t0, farAway), hall, DefaultCooldownWindow, prior, false)
	require.NoError(t, err)
	assert.Equal(t, RejectedOutsideZone, d.Outcome)
	assert.InDelta(t, 10, d.DistanceKm, 0.5)
	assert.Zero(t, d.Remaining, "cooldown is not even checked")
}

func TestDecideFailsClosedOnBadInput(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	_, err := Decide(attemptAt(t0, geo.Point{Latitude: math.NaN()}), hall, DefaultCooldownWindow, nil, false)
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinate)

	_, err = Decide(attemptAt(t0, inHall), geo.Zone{}, DefaultCooldownWindow, nil, false)
	assert.ErrorIs(t, err, geo.ErrInvalidZone)
}

func TestDecideSkipGeofence(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	// far outside the zone, and no usable zone at all: still accepted
	d, err := Decide(attemptAt(t0, farAway), geo.Zone{}, DefaultCooldownWindow, nil, true)
	require.NoError(t, err)
	assert.Equal(t, Accepted, d.Outcome)

	// the cooldown still applies with the geofence bypassed
	prior := d.Record
	d, err = Decide(attemptAt(t0.Add(time.Minute), farAway), geo.Zone{}, DefaultCooldownWindow, prior, true)
	require.NoError(t, err)
	assert.Equal(t, RejectedCooldown, d.Outcome)
}
