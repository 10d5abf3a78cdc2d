package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/yokan/rollcall/gate"
	"github.com/yokan/rollcall/geo"
)

type Config struct {
	Addr        string
	DBUrl       string
	TokenSecret string
	TokenTTL    time.Duration

	// CooldownWindow is deployment-global, not per course.
	CooldownWindow time.Duration
	// DefaultZone is the global geofence fallback; nil when the
	// deployment relies on per-course zones only.
	DefaultZone  *geo.Zone
	ZoneCacheTTL time.Duration
	// SkipGeofence bypasses the zone check entirely. Development only.
	SkipGeofence bool

	Debug bool
}

func ParseFlags() (cfg Config, err error) {
	// A .env file seeds defaults; flags win.
	_ = godotenv.Load()

	var host string
	flag.StringVar(&host, "host", envOr("ROLLCALL_HOST", "0.0.0.0"), "listen host name")
	var port uint
	flag.UintVar(&port, "port", envOrUint("ROLLCALL_PORT", 80), "listen port number")
	flag.StringVar(&cfg.DBUrl, "db-url", envOr("ROLLCALL_DB_URL", "rollcall.sqlite"), "path to SQLite3 DB file")
	flag.StringVar(&cfg.TokenSecret, "token-secret", envOr("ROLLCALL_TOKEN_SECRET", ""), "secret key for token encryption and decryption")
	var ttl uint
	flag.UintVar(&ttl, "token-ttl", envOrUint("ROLLCALL_TOKEN_TTL", 120), "token TTL in seconds")

	var cooldown uint
	flag.UintVar(&cooldown, "cooldown", envOrUint("ROLLCALL_COOLDOWN", uint(gate.DefaultCooldownWindow/time.Minute)),
		"minimum minutes between accepted submissions from one device")
	var zoneCacheTTL uint
	flag.UintVar(&zoneCacheTTL, "zone-cache-ttl", envOrUint("ROLLCALL_ZONE_CACHE_TTL", 60), "zone cache TTL in seconds")
	flag.BoolVar(&cfg.SkipGeofence, "dev-skip-geofence", false, "DEVELOPMENT ONLY: accept submissions from anywhere")

	var zoneLat, zoneLon, zoneRadius float64
	var zoneLabel string
	flag.Float64Var(&zoneLat, "zone-lat", envOrFloat("ROLLCALL_ZONE_LAT", 0), "default zone center latitude")
	flag.Float64Var(&zoneLon, "zone-lon", envOrFloat("ROLLCALL_ZONE_LON", 0), "default zone center longitude")
	flag.Float64Var(&zoneRadius, "zone-radius", envOrFloat("ROLLCALL_ZONE_RADIUS", 0), "default zone radius in km (0 disables the default zone)")
	flag.StringVar(&zoneLabel, "zone-label", envOr("ROLLCALL_ZONE_LABEL", "campus"), "default zone display label")

	flag.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second
	cfg.CooldownWindow = time.Duration(cooldown) * time.Minute
	cfg.ZoneCacheTTL = time.Duration(zoneCacheTTL) * time.Second

	if zoneRadius > 0 {
		cfg.DefaultZone = &geo.Zone{
			Latitude:  zoneLat,
			Longitude: zoneLon,
			RadiusKm:  zoneRadius,
			Label:     zoneLabel,
		}
	}

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envOrUint(key string, fallback uint) uint {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			return uint(n)
		}
	}
	return fallback
}

func envOrFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
