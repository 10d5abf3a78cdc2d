// Package gate decides whether an attendance submission attempt is
// accepted. It composes the geofence verdict with a per-device cooldown
// into a single decision and owns no state: the caller supplies the
// prior cooldown record and persists the new one.
package gate

import (
	"time"

	"github.com/yokan/rollcall/geo"
)

// DefaultCooldownWindow is the minimum time between two accepted
// submissions from the same device scope, unless overridden per
// deployment.
const DefaultCooldownWindow = 15 * time.Minute

type Outcome int

const (
	Accepted Outcome = iota
	RejectedOutsideZone
	RejectedCooldown
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case RejectedOutsideZone:
		return "outside_zone"
	case RejectedCooldown:
		return "cooldown"
	}
	return "unknown"
}

// Attempt is one ephemeral submission attempt. Timestamp is supplied by
// the caller — the gate never reads a clock. DeviceKey is an opaque
// scoping token, not a trust anchor.
type Attempt struct {
	DeviceKey  string
	Scope      string
	Timestamp  time.Time
	Coordinate geo.Point
}

// Record is the cooldown state of one (device, scope) pair. It is
// overwritten on every accepted submission and expires implicitly once
// the window elapses.
type Record struct {
	DeviceKey      string
	Scope          string
	LastAcceptedAt time.Time
}

// Decision is the outcome of a gate evaluation. DistanceKm is set for
// every geofence-checked attempt; Remaining only for cooldown
// rejections; Record only on acceptance.
type Decision struct {
	Outcome    Outcome
	DistanceKm float64
	Remaining  time.Duration
	Record     *Record
}

// Decide gates one submission attempt.
//
// The geofence is evaluated first: an out-of-zone attempt is rejected
// before the cooldown is even looked at. A cooldown rejection carries
// the remaining wait; elapsed time equal to the window already counts
// as expired. Geofence input errors propagate — the gate fails closed
// rather than inventing a permissive default.
//
// skipGeofence is the explicit development override. It bypasses the
// zone check entirely and must never be the default in production.
func Decide(att Attempt, zone geo.Zone, window time.Duration, prior *Record, skipGeofence bool) (Decision, error) {
	var distance float64
	if !skipGeofence {
		verdict, err := geo.Evaluate(att.Coordinate, zone)
		if err != nil {
			return Decision{}, err
		}
		distance = verdict.DistanceKm
		if !verdict.WithinZone {
			return Decision{Outcome: RejectedOutsideZone, DistanceKm: distance}, nil
		}
	}

	if prior != nil {
		elapsed := att.Timestamp.Sub(prior.LastAcceptedAt)
		if elapsed < window {
			return Decision{
				Outcome:    RejectedCooldown,
				DistanceKm: distance,
				Remaining:  window - elapsed,
			}, nil
		}
	}

	return Decision{
		Outcome:    Accepted,
		DistanceKm: distance,
		Record: &Record{
			DeviceKey:      att.DeviceKey,
			Scope:          att.Scope,
			LastAcceptedAt: att.Timestamp,
		},
	}, nil
}

// RemainingMinutes renders the cooldown wait for the student, rounded
// up so "less than a minute left" never reads as zero.
func (d Decision) RemainingMinutes() int {
	if d.Remaining <= 0 {
		return 0
	}
	mins := int(d.Remaining / time.Minute)
	if d.Remaining%time.Minute != 0 {
		mins++
	}
	return mins
}
