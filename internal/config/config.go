package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName          string
	AppVersion       string
	Mode             string
	Environment      string
	AuthCookieSecure bool
	DefaultOrgID     int64

	HTTPAddr string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RateLimit RateLimitConfig
	Bootstrap BootstrapConfig
}

// RateLimitConfig controls the redis-backed report download limiter.
type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ReportExportRate  float64
	ReportExportBurst int
}

// BootstrapConfig controls first-run seeding for self-hosted installs.
type BootstrapConfig struct {
	EnsureDefaultOrgAndAdmin bool
}

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewReportingConfigHolder),
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	mode := normalizeMode(getenv("APP_MODE", ModeOSS))
	environment := getenv("ENVIRONMENT", "development")
	authCookieSecure := environment == "production"
	if !authCookieSecure {
		authCookieSecure = getenvBool("AUTH_COOKIE_SECURE", false)
	}

	cfg := Config{
		AppName:          getenv("APP_SERVICE", "advocase"),
		AppVersion:       getenv("APP_VERSION", "0.1.0"),
		Mode:             mode,
		Environment:      environment,
		AuthCookieSecure: authCookieSecure,
		DefaultOrgID:     getenvInt64("DEFAULT_ORG", 0),
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		DBType:           getenv("DATABASE_TYPE", "postgres"),
		DBHost:           getenv("DATABASE_HOST", "localhost"),
		DBPort:           getenv("DATABASE_PORT", "5432"),
		DBName:           getenv("DATABASE_NAME", "advocase"),
		DBUser:           getenv("DATABASE_USER", "postgres"),
		DBPassword:       getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:        getenv("DATABASE_SSLMODE", "disable"),
		RateLimit: RateLimitConfig{
			Enabled:           getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:         strings.TrimSpace(getenv("RATE_LIMIT_REDIS_ADDR", "")),
			RedisPassword:     getenv("RATE_LIMIT_REDIS_PASSWORD", ""),
			RedisDB:           int(getenvInt64("RATE_LIMIT_REDIS_DB", 0)),
			ReportExportRate:  getenvFloat("RATE_LIMIT_REPORT_EXPORT_RATE", 1),
			ReportExportBurst: int(getenvInt64("RATE_LIMIT_REPORT_EXPORT_BURST", 5)),
		},
		Bootstrap: BootstrapConfig{
			EnsureDefaultOrgAndAdmin: getenvBool("BOOTSTRAP_DEFAULT_ORG_AND_ADMIN", true),
		},
	}

	return cfg
}

const (
	ModeOSS   = "oss"
	ModeCloud = "cloud"
)

func (c Config) IsCloud() bool {
	return c.Mode == ModeCloud
}

func normalizeMode(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == ModeCloud {
		return ModeCloud
	}
	return ModeOSS
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
