package app

import (
	"os"
	"strconv"
	"time"

	"github.com/harborcrest/passage/pkg/jwtx"
)

type Config struct {
	SigningSecret string // Required: HMAC secret for signing credentials (>= 32 bytes)
	Issuer        string // Optional: issuer claim for tokens (default: passage)

	AccessTTL      time.Duration // Optional: access credential lifetime (default: 15m)
	RefreshTTL     time.Duration // Optional: refresh credential lifetime (default: 168h)
	ResetTTL       time.Duration // Optional: reset credential lifetime (default: 1h)
	RollbackWindow time.Duration // Optional: post-reset rollback window (default: 24h)
	ClockLeeway    time.Duration // Optional: verification clock-skew leeway (default: 0)

	DatabaseFile         string        // Optional: path to SQLite database file (default: ./session.db)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		SigningSecret: os.Getenv("SESSION_SIGNING_SECRET"),
		Issuer:        getEnvOrDefault("SESSION_ISSUER", "passage"),

		AccessTTL:      getEnvDurationOrDefault("SESSION_ACCESS_TTL", jwtx.DefaultAccessTTL),
		RefreshTTL:     getEnvDurationOrDefault("SESSION_REFRESH_TTL", 7*24*time.Hour),
		ResetTTL:       getEnvDurationOrDefault("SESSION_RESET_TTL", jwtx.DefaultResetTTL),
		RollbackWindow: getEnvDurationOrDefault("SESSION_ROLLBACK_WINDOW", 24*time.Hour),
		ClockLeeway:    getEnvDurationOrDefault("SESSION_CLOCK_LEEWAY", 0),

		DatabaseFile:         getEnvOrDefault("SESSION_DATABASE_FILE", "session.db"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
