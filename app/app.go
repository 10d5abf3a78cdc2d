package app

import (
	"database/sql"

	"github.com/go-chi/oauth"

	"github.com/yokan/rollcall/cache"
	"github.com/yokan/rollcall/config"
	"github.com/yokan/rollcall/geo"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config

	// Zones caches resolved geofence zones by scope; admin updates
	// invalidate the touched scope explicitly.
	Zones *cache.TTL[string, geo.Zone]
}
