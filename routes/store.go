package routes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yokan/rollcall/app"
	"github.com/yokan/rollcall/form"
	"github.com/yokan/rollcall/gate"
	"github.com/yokan/rollcall/geo"
	"github.com/yokan/rollcall/model"
)

const globalScope = "global"

func courseScope(courseID int) string {
	return fmt.Sprintf("course:%d", courseID)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func getCourse(ctx context.Context, q querier, id int) (model.Course, error) {
	c := model.Course{}
	err := q.QueryRowContext(ctx, `
		SELECT id, version, name, created_at
		FROM course
		WHERE id = ?`,
		id,
	).Scan(&c.ID, &c.Version, &c.Name, &c.CreatedAt)
	return c, err
}

// loadFormConfig reads a course's form configuration blob. A course
// without a stored blob yet behaves as freshly created: all builtins
// enabled, no custom fields, version 0.
func loadFormConfig(ctx context.Context, q querier, courseID int) (form.Config, int, error) {
	var blob string
	var version int
	err := q.QueryRowContext(ctx, `
		SELECT config, version
		FROM course_form
		WHERE course_id = ?`,
		courseID,
	).Scan(&blob, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return form.DefaultConfig(), 0, nil
	}
	if err != nil {
		return form.Config{}, 0, err
	}

	cfg := form.Config{}
	if err := json.Unmarshal([]byte(blob), &cfg); err != nil {
		return form.Config{}, 0, err
	}
	return cfg, version, nil
}

// storeFormConfig upserts the blob, bumping the version. expectVersion
// is the optimistic lock: pass -1 to skip the check (server-side
// read-modify-write inside a transaction).
func storeFormConfig(ctx context.Context, q querier, courseID int, cfg form.Config, expectVersion int) error {
	blob, err := json.Marshal(cfg)
	if err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO course_form (course_id, config, version) VALUES (?, ?, 1)
		ON CONFLICT (course_id) DO UPDATE
		SET config = excluded.config, version = course_form.version + 1
		WHERE ? < 0 OR course_form.version = ?`,
		courseID,
		string(blob),
		expectVersion,
		expectVersion,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n < 1 {
		return errVersionConflict
	}
	return nil
}

var errVersionConflict = errors.New("form config version conflict")

func loadZone(ctx context.Context, q querier, scope string) (*geo.Zone, error) {
	z := geo.Zone{}
	err := q.QueryRowContext(ctx, `
		SELECT latitude, longitude, radius_km, label
		FROM zone
		WHERE scope = ?`,
		scope,
	).Scan(&z.Latitude, &z.Longitude, &z.RadiusKm, &z.Label)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &z, nil
}

func storeZone(ctx context.Context, q querier, scope string, z geo.Zone) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO zone (scope, latitude, longitude, radius_km, label) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (scope) DO UPDATE
		SET latitude = excluded.latitude,
			longitude = excluded.longitude,
			radius_km = excluded.radius_km,
			label = excluded.label`,
		scope, z.Latitude, z.Longitude, z.RadiusKm, z.Label,
	)
	return err
}

func deleteZone(ctx context.Context, q querier, scope string) (bool, error) {
	res, err := q.ExecContext(ctx, `DELETE FROM zone WHERE scope = ?`, scope)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// zoneForScope reads a zone through the TTL cache. Misses hit the
// database; absent zones are not cached so a fresh admin PUT shows up
// immediately.
func zoneForScope(ctx context.Context, app app.App, scope string) (*geo.Zone, error) {
	if z, ok := app.Zones.Get(scope); ok {
		return &z, nil
	}
	z, err := loadZone(ctx, app, scope)
	if err != nil || z == nil {
		return nil, err
	}
	app.Zones.Put(scope, *z)
	return z, nil
}

// resolveZone walks the fallback chain: course override, then the
// stored global zone, then the deployment default from configuration.
// ErrNoZoneConfigured when none of the three exists.
func resolveZone(ctx context.Context, app app.App, courseID int) (geo.Zone, error) {
	course, err := zoneForScope(ctx, app, courseScope(courseID))
	if err != nil {
		return geo.Zone{}, err
	}
	global, err := zoneForScope(ctx, app, globalScope)
	if err != nil {
		return geo.Zone{}, err
	}
	if global == nil {
		global = app.DefaultZone
	}
	return geo.Resolve(course, global)
}

func loadCooldown(ctx context.Context, q querier, deviceKey, scope string) (*gate.Record, error) {
	rec := gate.Record{DeviceKey: deviceKey, Scope: scope}
	err := q.QueryRowContext(ctx, `
		SELECT last_accepted_at
		FROM cooldown
		WHERE device_key = ? AND scope = ?`,
		deviceKey, scope,
	).Scan(&rec.LastAcceptedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func storeCooldown(ctx context.Context, q querier, rec gate.Record) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO cooldown (device_key, scope, last_accepted_at) VALUES (?, ?, ?)
		ON CONFLICT (device_key, scope) DO UPDATE
		SET last_accepted_at = excluded.last_accepted_at`,
		rec.DeviceKey, rec.Scope, rec.LastAcceptedAt,
	)
	return err
}

func insertAttendance(ctx context.Context, q querier, rec model.AttendanceRecord) error {
	values, err := json.Marshal(rec.Values)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO attendance (id, course_id, device_key, submitted_at, latitude, longitude, distance_km, field_values)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.CourseID,
		rec.DeviceKey,
		rec.SubmittedAt,
		rec.Coordinate.Latitude,
		rec.Coordinate.Longitude,
		rec.DistanceKm,
		string(values),
	)
	return err
}
