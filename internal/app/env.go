package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Lookup reads one environment variable. os.LookupEnv satisfies it.
type Lookup func(key string) (string, bool)

// Settings are the process-level knobs of notesd. Session and token settings
// live in goNotes.Config.
type Settings struct {
	HTTPAddr          string
	LogLevel          string
	LogFormat         string // "json" or "console"
	DatabaseDriver    string // "memory", "postgres" or "mysql"
	DatabaseURL       string
	RedisAddr         string // empty runs an embedded miniredis
	MetricsEnabled    bool
	TrustForwardedFor bool

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// Database drivers accepted in DATABASE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// LoadSettings reads Settings. Malformed numbers and durations fall back to
// their defaults; an unknown driver or a SQL driver without DATABASE_URL is an
// error.
func LoadSettings(lookup Lookup) (Settings, error) {
	e := env{lookup: lookup}
	s := Settings{
		HTTPAddr:          e.String("NOTES_HTTP_ADDR", ":8000"),
		LogLevel:          e.String("NOTES_LOG_LEVEL", "info"),
		LogFormat:         strings.ToLower(e.String("NOTES_LOG_FORMAT", "json")),
		DatabaseDriver:    strings.ToLower(e.String("DATABASE_DRIVER", DriverMemory)),
		DatabaseURL:       e.String("DATABASE_URL", ""),
		RedisAddr:         e.String("REDIS_ADDR", ""),
		MetricsEnabled:    e.Bool("NOTES_METRICS_ENABLED", true),
		TrustForwardedFor: e.Bool("NOTES_TRUST_PROXY", false),
		ReadHeaderTimeout: e.Duration("NOTES_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       e.Duration("NOTES_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      e.Duration("NOTES_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       e.Duration("NOTES_HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   e.Duration("NOTES_SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	switch s.DatabaseDriver {
	case DriverMemory:
	case DriverPostgres, DriverMySQL:
		if s.DatabaseURL == "" {
			return Settings{}, fmt.Errorf("DATABASE_URL is required for driver %q", s.DatabaseDriver)
		}
	default:
		return Settings{}, fmt.Errorf("DATABASE_DRIVER must be memory, postgres or mysql, got %q", s.DatabaseDriver)
	}
	switch s.LogFormat {
	case "json", "console":
	default:
		return Settings{}, fmt.Errorf("NOTES_LOG_FORMAT must be json or console, got %q", s.LogFormat)
	}
	return s, nil
}

type env struct {
	lookup Lookup
}

func (e env) get(key string) string {
	if e.lookup == nil {
		return ""
	}
	v, _ := e.lookup(key)
	return strings.TrimSpace(v)
}

func (e env) String(key, def string) string {
	if v := e.get(key); v != "" {
		return v
	}
	return def
}

func (e env) Bool(key string, def bool) bool {
	v := e.get(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func (e env) Duration(key string, def time.Duration) time.Duration {
	v := e.get(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
