package routes

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/yokan/rollcall/app"
	"github.com/yokan/rollcall/form"
	"github.com/yokan/rollcall/gate"
	"github.com/yokan/rollcall/geo"
	"github.com/yokan/rollcall/httpx"
	"github.com/yokan/rollcall/log"
	"github.com/yokan/rollcall/model"
)

// PublicGetCourseForm serves the compiled field list a student form
// renders from: merged builtin + custom fields plus initial values.
func PublicGetCourseForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		course, err := getCourse(r.Context(), app, courseID)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_course", courseID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_course", err)
			return
		}

		cfg, _, err := loadFormConfig(r.Context(), app, courseID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_form_config", err)
			return
		}

		set, err := cfg.Merge()
		if err != nil {
			// A stored blob violating the merge invariants is an admin
			// configuration bug, never auto-corrected here.
			httpx.LogInternalError(w, "form.merge", err)
			return
		}
		schema, err := form.Compile(set)
		if err != nil {
			httpx.LogInternalError(w, "form.compile", err)
			return
		}
		defaults, err := form.Defaults(set, time.Now())
		if err != nil {
			httpx.LogInternalError(w, "form.defaults", err)
			return
		}

		render.JSON(w, r, model.FormView{
			Course:   course.Name,
			Fields:   schema.Fields,
			Defaults: defaults,
		})
	}
}

// PublicSubmitAttendance gates and records one submission attempt:
// field validation against the compiled schema, then geofence, then
// per-device cooldown. Rejections are normal outcomes and answer with
// actionable detail rather than a bare error.
func PublicSubmitAttendance(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		req := model.SubmissionRequest{}
		if err := httpx.DecodeValid(r.Body, &req); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "%s", err)
			return
		}

		if _, err := getCourse(r.Context(), app, courseID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				httpx.LogNotFound(w, "get_course", courseID)
			} else {
				httpx.LogInternalError(w, "db.get_course", err)
			}
			return
		}

		cfg, _, err := loadFormConfig(r.Context(), app, courseID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_form_config", err)
			return
		}
		set, err := cfg.Merge()
		if err != nil {
			httpx.LogInternalError(w, "form.merge", err)
			return
		}
		schema, err := form.Compile(set)
		if err != nil {
			httpx.LogInternalError(w, "form.compile", err)
			return
		}

		if err := schema.Validate(req.Values); err != nil {
			fieldErrs := form.ValidationErrors{}
			errors.As(err, &fieldErrs)
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, model.SubmissionResult{
				Status:      "invalid_fields",
				FieldErrors: fieldErrs,
				Message:     "please correct the highlighted fields",
			})
			return
		}

		zone, err := resolveZone(r.Context(), app, courseID)
		if err != nil && !app.SkipGeofence {
			if errors.Is(err, geo.ErrNoZoneConfigured) {
				// Fail closed: no zone means no acceptance, never a
				// silently invented permissive default.
				httpx.LogStatusMsg(w, http.StatusServiceUnavailable, log.WarnLevel,
					"zone.resolve", "attendance zone is not configured for this course")
			} else {
				httpx.LogInternalError(w, "zone.resolve", err)
			}
			return
		}

		scope := courseScope(courseID)
		prior, err := loadCooldown(r.Context(), app, req.DeviceKey, scope)
		if err != nil {
			httpx.LogInternalError(w, "db.get_cooldown", err)
			return
		}

		attempt := gate.Attempt{
			DeviceKey: req.DeviceKey,
			Scope:     scope,
			// Server clock: the submission time is not taken from the
			// client.
			Timestamp: time.Now(),
			Coordinate: geo.Point{
				Latitude:  req.Coordinate.Latitude,
				Longitude: req.Coordinate.Longitude,
			},
		}
		decision, err := gate.Decide(attempt, zone, app.CooldownWindow, prior, app.SkipGeofence)
		if err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "gate.decide", "%s", err)
			return
		}

		switch decision.Outcome {
		case gate.RejectedOutsideZone:
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, model.SubmissionResult{
				Status:     decision.Outcome.String(),
				DistanceKm: decision.DistanceKm,
				Message:    fmt.Sprintf("you are %.2f km from %s, outside the %.2f km attendance zone", decision.DistanceKm, zoneLabel(zone), zone.RadiusKm),
			})
			return

		case gate.RejectedCooldown:
			w.WriteHeader(http.StatusTooManyRequests)
			render.JSON(w, r, model.SubmissionResult{
				Status:           decision.Outcome.String(),
				RemainingMinutes: decision.RemainingMinutes(),
				Message:          fmt.Sprintf("this device already submitted recently, try again in %d min", decision.RemainingMinutes()),
			})
			return
		}

		record := model.AttendanceRecord{
			ID:          uuid.NewString(),
			CourseID:    courseID,
			DeviceKey:   req.DeviceKey,
			SubmittedAt: attempt.Timestamp,
			Coordinate:  *req.Coordinate,
			DistanceKm:  decision.DistanceKm,
			Values:      req.Values,
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		if err := insertAttendance(r.Context(), tx, record); err != nil {
			httpx.LogInternalError(w, "db.insert_attendance", err)
			return
		}
		if err := storeCooldown(r.Context(), tx, *decision.Record); err != nil {
			httpx.LogInternalError(w, "db.store_cooldown", err)
			return
		}
		if err := tx.Commit(); err != nil {
			httpx.LogInternalError(w, "db.insert_attendance.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, model.SubmissionResult{
			Status:     decision.Outcome.String(),
			ID:         record.ID,
			DistanceKm: decision.DistanceKm,
			Message:    "attendance recorded",
		})
	}
}

func zoneLabel(z geo.Zone) string {
	if z.Label != "" {
		return z.Label
	}
	return "the attendance zone"
}
