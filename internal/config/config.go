// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, the Redis and SQLite connections, the
// clinic API client, the supported region, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings for the JSON
// endpoints (the provider webhook does not need CORS).
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-sms-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// ClinicAPIConfig defines the upstream clinic-locator client settings.
type ClinicAPIConfig struct {
	BaseURL     string        // CLINIC_API_URL
	APIKey      string        // CLINIC_API_KEY (required)
	RadiusMiles int           // CLINIC_SEARCH_RADIUS_MILES
	PageSize    int           // CLINIC_PAGE_SIZE
	Timeout     time.Duration // CLINIC_API_TIMEOUT
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// Region gate
	RegionCode  string // two-letter code of the supported service area
	RegionName  string // display name used in replies
	ZipDataPath string // CSV with zip→state reference data

	// Persistence
	RedisURL    string        // redis connection URL
	ProfileTTL  time.Duration // dormant-profile expiry; 0 keeps profiles forever
	AuditDBPath string        // SQLite path for the message audit log

	// Clinic locator
	ClinicAPI ClinicAPIConfig

	// Dev endpoint
	DevEndpointEnabled bool // mount POST /dev/sms

	// Edge rate limiting (per sender/IP token bucket)
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		// Region gate
		RegionCode:  strings.ToUpper(getenv("REGION_CODE", "MO")),
		RegionName:  getenv("REGION_NAME", "Missouri"),
		ZipDataPath: getenv("ZIP_DATA_PATH", "data/zip_data.csv"),

		// Persistence
		RedisURL:    getenv("REDIS_URL", "redis://localhost:6379/0"),
		ProfileTTL:  getdur("PROFILE_TTL", 90*24*time.Hour),
		AuditDBPath: getenv("AUDIT_DB_PATH", "audit.db"),

		// Clinic locator
		ClinicAPI: ClinicAPIConfig{
			BaseURL:     getenv("CLINIC_API_URL", "https://www.freeclinics.com/api/v1"),
			APIKey:      getenv("CLINIC_API_KEY", ""),
			RadiusMiles: getint("CLINIC_SEARCH_RADIUS_MILES", 60),
			PageSize:    getint("CLINIC_PAGE_SIZE", 5),
			Timeout:     getdur("CLINIC_API_TIMEOUT", 10*time.Second),
		},

		// Dev endpoint
		DevEndpointEnabled: getbool("DEV_ENDPOINT_ENABLED", false),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-sms-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if len(cfg.RegionCode) != 2 {
		return cfg, errors.New("REGION_CODE must be a two-letter state code")
	}
	if strings.TrimSpace(cfg.RegionName) == "" {
		return cfg, errors.New("REGION_NAME must not be empty")
	}
	if strings.TrimSpace(cfg.ZipDataPath) == "" {
		return cfg, errors.New("ZIP_DATA_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return cfg, errors.New("REDIS_URL must not be empty")
	}
	if cfg.ProfileTTL < 0 {
		return cfg, errors.New("PROFILE_TTL must be >= 0")
	}
	if strings.TrimSpace(cfg.AuditDBPath) == "" {
		return cfg, errors.New("AUDIT_DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.ClinicAPI.APIKey) == "" {
		return cfg, errors.New("CLINIC_API_KEY is required")
	}
	if strings.TrimSpace(cfg.ClinicAPI.BaseURL) == "" {
		return cfg, errors.New("CLINIC_API_URL must not be empty")
	}
	if cfg.ClinicAPI.RadiusMiles <= 0 {
		return cfg, errors.New("CLINIC_SEARCH_RADIUS_MILES must be > 0")
	}
	if cfg.ClinicAPI.PageSize <= 0 {
		return cfg, errors.New("CLINIC_PAGE_SIZE must be > 0")
	}
	if cfg.ClinicAPI.Timeout <= 0 {
		return cfg, errors.New("CLINIC_API_TIMEOUT must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
