package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/yokan/rollcall/app"
	"github.com/yokan/rollcall/cache"
	"github.com/yokan/rollcall/config"
	"github.com/yokan/rollcall/database"
	"github.com/yokan/rollcall/geo"
	"github.com/yokan/rollcall/httpx"
	"github.com/yokan/rollcall/log"
	"github.com/yokan/rollcall/routes"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if cfg.SkipGeofence {
		log.Warn("geofence checks are DISABLED (-dev-skip-geofence); do not run this in production")
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	bearerServer := httpx.NewBearerServer(db, cfg)

	app := app.App{
		DB:           db,
		BearerServer: bearerServer,
		Config:       cfg,
		Zones:        cache.New[string, geo.Zone](cfg.ZoneCacheTTL),
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
