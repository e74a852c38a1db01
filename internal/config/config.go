package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string
	SiteID   string

	// LMS backend serving courses, subjects, topics and students
	BackendURL          string
	BackendTimeout      time.Duration
	BackendTokenURL     string
	BackendClientID     string
	BackendClientSecret string

	// Tokens are issued elsewhere; we only verify them.
	AuthHMACSecret string
	RequireAuth    bool

	DBDriver string
	DBDSN    string

	MemoDriver string // memory|redis|sql
	RedisURL   string
	MemoTTL    time.Duration

	AMQPURL      string // empty disables publishing
	AMQPExchange string

	ScoringScheme     string // four-band|five-band
	ScoringSchemeFile string // overrides ScoringScheme

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	LogLevel  string
	LogFormat string // json|text
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	return Config{
		Mode:     mode,
		HTTPAddr: envOr("HTTP_ADDR", ":8080"),
		SiteID:   envOr("SITE_ID", "local"),

		BackendURL:          envOr("BACKEND_URL", "http://localhost:8080"),
		BackendTimeout:      envDuration("BACKEND_TIMEOUT", 10*time.Second),
		BackendTokenURL:     os.Getenv("BACKEND_TOKEN_URL"),
		BackendClientID:     os.Getenv("BACKEND_CLIENT_ID"),
		BackendClientSecret: os.Getenv("BACKEND_CLIENT_SECRET"),

		AuthHMACSecret: envOr("AUTH_HMAC_SECRET", "dev-secret-change-me"),
		RequireAuth:    envBool("REQUIRE_AUTH", mode == ModeOnline),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		MemoDriver: envOr("MEMO_DRIVER", "memory"),
		RedisURL:   envOr("REDIS_URL", "redis://localhost:6379/0"),
		MemoTTL:    envDuration("MEMO_TTL", 24*time.Hour),

		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: envOr("AMQP_EXCHANGE", "pathways.events"),

		ScoringScheme:     envOr("SCORING_SCHEME", "four-band"),
		ScoringSchemeFile: os.Getenv("SCORING_SCHEME_FILE"),

		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://lms.mindengage.ai"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:5173"),

		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "text"),
	}
}

// CORSOrigins picks the allow-list for the current mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

// Validate checks the combinations FromEnv cannot default away.
func (c Config) Validate() error {
	var errs []error
	switch c.Mode {
	case ModeOffline, ModeOnline:
	default:
		errs = append(errs, fmt.Errorf("MODE must be offline or online, got %q", c.Mode))
	}
	if c.BackendURL == "" {
		errs = append(errs, errors.New("BACKEND_URL is required"))
	}
	if c.BackendClientID != "" && c.BackendTokenURL == "" {
		errs = append(errs, errors.New("BACKEND_TOKEN_URL is required with BACKEND_CLIENT_ID"))
	}
	if c.Mode == ModeOnline && c.AuthHMACSecret == "dev-secret-change-me" {
		errs = append(errs, errors.New("AUTH_HMAC_SECRET must be set in online mode"))
	}
	switch c.MemoDriver {
	case "memory", "sql":
	case "redis":
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required with MEMO_DRIVER=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("MEMO_DRIVER must be memory, redis or sql, got %q", c.MemoDriver))
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// bare integers are seconds
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
