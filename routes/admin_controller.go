package routes

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/yokan/rollcall/app"
	"github.com/yokan/rollcall/form"
	"github.com/yokan/rollcall/httpx"
	"github.com/yokan/rollcall/log"
	"github.com/yokan/rollcall/model"
)

func CreateCourse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		course := model.Course{}
		if err := httpx.DecodeValid(r.Body, &course); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "%s", err)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var courseID int
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO course (name) VALUES (?)
			RETURNING id`,
			course.Name,
		).Scan(&courseID)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_course", err)
			return
		}

		// A fresh course starts with every builtin field enabled.
		if err := storeFormConfig(r.Context(), tx, courseID, form.DefaultConfig(), -1); err != nil {
			httpx.LogInternalError(w, "db.insert_course.form_config", err)
			return
		}

		if err := tx.Commit(); err != nil {
			httpx.LogInternalError(w, "db.insert_course.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": courseID,
		})
	}
}

func ListCourses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT id, version, name, created_at
			FROM course`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_courses", err)
			return
		}
		defer rows.Close()

		courses := []model.Course{}
		for rows.Next() {
			c := model.Course{}
			err = rows.Scan(&c.ID, &c.Version, &c.Name, &c.CreatedAt)
			if err != nil {
				httpx.LogInternalError(w, "db.get_courses.scan", err)
				return
			}

			courses = append(courses, c)
		}

		render.JSON(w, r, map[string]any{
			"courses": courses,
		})
	}
}

func GetCourseById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, ok := urlID(w, r)
		if !ok {
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

		render.JSON(w, r, course)
	}
}

// formConfigPayload is the admin wire shape of a form configuration:
// the opaque blob plus its optimistic-lock version, and on responses
// the effective merged field set.
type formConfigPayload struct {
	Version int          `json:"version"`
	Config  form.Config  `json:"config"`
	Fields  []form.Field `json:"fields,omitempty"`
}

func GetFormConfig(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, ok := urlID(w, r)
		if !ok {
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

		cfg, version, err := loadFormConfig(r.Context(), app, courseID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_form_config", err)
			return
		}
		set, err := cfg.Merge()
		if err != nil {
			httpx.LogInternalError(w, "form.merge", err)
			return
		}

		render.JSON(w, r, formConfigPayload{Version: version, Config: cfg, Fields: set})
	}
}

// ReplaceFormConfig swaps the whole blob. The merge runs before the
// write so a payload violating field-key uniqueness never lands in the
// store, and the version check rejects concurrent edits.
func ReplaceFormConfig(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, ok := urlID(w, r)
		if !ok {
			return
		}

		payload := formConfigPayload{}
		if err := render.DecodeJSON(r.Body, &payload); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
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

		set, err := payload.Config.Merge()
		if err != nil {
			renderFormError(w, "form.merge", err)
			return
		}

		err = storeFormConfig(r.Context(), app, courseID, payload.Config, payload.Version)
		if errors.Is(err, errVersionConflict) {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "db.store_form_config.conflict")
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.store_form_config", err)
			return
		}

		render.JSON(w, r, formConfigPayload{Version: payload.Version + 1, Config: payload.Config, Fields: set})
	}
}

// mutateFormConfig is the shared read-modify-write of the field-level
// operations: load the blob in a transaction, apply the operation,
// re-merge to defend the invariants, store with a version bump.
func mutateFormConfig(app app.App, w http.ResponseWriter, r *http.Request, mutate func(form.Config) (form.Config, error)) {
	courseID, ok := urlID(w, r)
	if !ok {
		return
	}

	tx, err := app.BeginTx(r.Context(), nil)
	if err != nil {
		httpx.LogInternalError(w, "db.begin_tx", err)
		return
	}
	defer tx.Rollback()

	if _, err := getCourse(r.Context(), tx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_course", courseID)
		} else {
			httpx.LogInternalError(w, "db.get_course", err)
		}
		return
	}

	cfg, version, err := loadFormConfig(r.Context(), tx, courseID)
	if err != nil {
		httpx.LogInternalError(w, "db.get_form_config", err)
		return
	}

	next, err := mutate(cfg)
	if err != nil {
		renderFormError(w, "form.mutate", err)
		return
	}
	set, err := next.Merge()
	if err != nil {
		renderFormError(w, "form.merge", err)
		return
	}

	if err := storeFormConfig(r.Context(), tx, courseID, next, -1); err != nil {
		httpx.LogInternalError(w, "db.store_form_config", err)
		return
	}
	if err := tx.Commit(); err != nil {
		httpx.LogInternalError(w, "db.store_form_config.commit", err)
		return
	}

	render.JSON(w, r, formConfigPayload{Version: version + 1, Config: next, Fields: set})
}

func AddFormField(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		field := form.Field{}
		if err := httpx.DecodeValid(r.Body, &field); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "%s", err)
			return
		}

		mutateFormConfig(app, w, r, func(cfg form.Config) (form.Config, error) {
			return cfg.AddCustomField(field)
		})
	}
}

func UpdateFormField(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")

		field := form.Field{}
		if err := httpx.DecodeValid(r.Body, &field); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "%s", err)
			return
		}

		mutateFormConfig(app, w, r, func(cfg form.Config) (form.Config, error) {
			return cfg.UpdateCustomField(key, field)
		})
	}
}

func DeleteFormField(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")

		mutateFormConfig(app, w, r, func(cfg form.Config) (form.Config, error) {
			return cfg.RemoveCustomField(key)
		})
	}
}

func ToggleBuiltinField(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")

		toggle := struct {
			Enabled bool `json:"enabled"`
		}{}
		if err := render.DecodeJSON(r.Body, &toggle); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		mutateFormConfig(app, w, r, func(cfg form.Config) (form.Config, error) {
			if toggle.Enabled {
				return cfg.EnableBuiltin(key)
			}
			return cfg.DisableBuiltin(key)
		})
	}
}

func ReorderFormFields(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order := struct {
			Keys []string `json:"keys"`
		}{}
		if err := render.DecodeJSON(r.Body, &order); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		mutateFormConfig(app, w, r, func(cfg form.Config) (form.Config, error) {
			return cfg.ReorderFields(order.Keys)
		})
	}
}

func renderFormError(w http.ResponseWriter, code string, err error) {
	switch {
	case errors.Is(err, form.ErrDuplicateFieldKey):
		httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, code, "%s", err)
	case errors.Is(err, form.ErrUnknownKey), errors.Is(err, form.ErrUnsupportedFieldType):
		httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, code, "%s", err)
	default:
		httpx.LogInternalError(w, code, err)
	}
}

func GetGlobalZone(app app.App) http.HandlerFunc {
	return zoneGetter(app, func(*http.Request) (string, bool) { return globalScope, true })
}

func PutGlobalZone(app app.App) http.HandlerFunc {
	return zonePutter(app, func(*http.Request) (string, bool) { return globalScope, true })
}

func GetCourseZone(app app.App) http.HandlerFunc {
	return zoneGetter(app, courseScopeParam)
}

func PutCourseZone(app app.App) http.HandlerFunc {
	return zonePutter(app, courseScopeParam)
}

// DeleteCourseZone drops a course override so the course falls back to
// the global default zone again.
func DeleteCourseZone(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := courseScopeParam(r)
		if !ok {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		deleted, err := deleteZone(r.Context(), app, scope)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_zone", err)
			return
		}
		if !deleted {
			httpx.LogNotFound(w, "delete_zone", scope)
			return
		}

		app.Zones.Invalidate(scope)
		w.WriteHeader(http.StatusNoContent)
	}
}

func courseScopeParam(r *http.Request) (string, bool) {
	courseID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return "", false
	}
	return courseScope(courseID), true
}

func zoneGetter(app app.App, scopeOf func(*http.Request) (string, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := scopeOf(r)
		if !ok {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		zone, err := loadZone(r.Context(), app, scope)
		if err != nil {
			httpx.LogInternalError(w, "db.get_zone", err)
			return
		}
		if zone == nil {
			httpx.LogNotFound(w, "get_zone", scope)
			return
		}

		render.JSON(w, r, model.ZoneFrom(*zone))
	}
}

func zonePutter(app app.App, scopeOf func(*http.Request) (string, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := scopeOf(r)
		if !ok {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		zone := model.Zone{}
		if err := httpx.DecodeValid(r.Body, &zone); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "%s", err)
			return
		}

		if err := storeZone(r.Context(), app, scope, zone.Geo()); err != nil {
			httpx.LogInternalError(w, "db.store_zone", err)
			return
		}

		// A stale cached zone must not outlive the admin's edit.
		app.Zones.Invalidate(scope)
		w.WriteHeader(http.StatusNoContent)
	}
}

func GetCourseSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, ok := urlID(w, r)
		if !ok {
			return
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT id, course_id, device_key, submitted_at, latitude, longitude, distance_km, field_values
			FROM attendance
			WHERE course_id = ?
			ORDER BY submitted_at`,
			courseID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_submissions", err)
			return
		}
		defer rows.Close()

		submissions := []model.AttendanceRecord{}
		for rows.Next() {
			rec := model.AttendanceRecord{}
			var values string
			err = rows.Scan(
				&rec.ID, &rec.CourseID, &rec.DeviceKey, &rec.SubmittedAt,
				&rec.Coordinate.Latitude, &rec.Coordinate.Longitude, &rec.DistanceKm,
				&values,
			)
			if err != nil {
				httpx.LogInternalError(w, "db.get_submissions.scan", err)
				return
			}

			if err = json.Unmarshal([]byte(values), &rec.Values); err != nil {
				httpx.LogInternalError(w, "db.get_submissions.parse_values", err)
				return
			}

			submissions = append(submissions, rec)
		}

		render.JSON(w, r, map[string]any{
			"submissions": submissions,
		})
	}
}

func urlID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
		return 0, false
	}
	return id, true
}
