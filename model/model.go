package model

import (
	"time"

	"github.com/yokan/rollcall/form"
	"github.com/yokan/rollcall/geo"
)

type Course struct {
	ID        int       `json:"id,omitempty"`
	Version   int       `json:"version,omitempty"`
	Name      string    `json:"name" validate:"required"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Zone is the admin-facing geofence payload. Range checks live in the
// validate tags; the geo package re-checks at evaluation time anyway.
type Zone struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	RadiusKm  float64 `json:"radiusKm" validate:"gt=0"`
	Label     string  `json:"label,omitempty"`
}

func (z Zone) Geo() geo.Zone {
	return geo.Zone{Latitude: z.Latitude, Longitude: z.Longitude, RadiusKm: z.RadiusKm, Label: z.Label}
}

func ZoneFrom(z geo.Zone) Zone {
	return Zone{Latitude: z.Latitude, Longitude: z.Longitude, RadiusKm: z.RadiusKm, Label: z.Label}
}

// Coordinate is the device-reported position attached to a submission.
type Coordinate struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// FormView is what the student form renders from: the compiled field
// list plus initial values.
type FormView struct {
	Course   string               `json:"course"`
	Fields   []form.CompiledField `json:"fields"`
	Defaults map[string]any       `json:"defaults"`
}

// SubmissionRequest is one attendance submission attempt. DeviceKey is
// a client-chosen opaque token, only ever used for cooldown scoping.
type SubmissionRequest struct {
	DeviceKey  string         `json:"deviceKey" validate:"required"`
	Coordinate *Coordinate    `json:"coordinate" validate:"required"`
	Values     map[string]any `json:"values"`
}

// SubmissionResult tells the student what happened, with actionable
// detail on rejection: how far outside the zone, or how long to wait.
type SubmissionResult struct {
	Status           string            `json:"status"`
	ID               string            `json:"id,omitempty"`
	DistanceKm       float64           `json:"distanceKm,omitempty"`
	RemainingMinutes int               `json:"remainingMinutes,omitempty"`
	FieldErrors      map[string]string `json:"fieldErrors,omitempty"`
	Message          string            `json:"message,omitempty"`
}

// AttendanceRecord is one collected submission, as listed to admins.
type AttendanceRecord struct {
	ID          string         `json:"id"`
	CourseID    int            `json:"courseId"`
	DeviceKey   string         `json:"deviceKey"`
	SubmittedAt time.Time      `json:"submittedAt"`
	Coordinate  Coordinate     `json:"coordinate"`
	DistanceKm  float64        `json:"distanceKm"`
	Values      map[string]any `json:"values"`
}
