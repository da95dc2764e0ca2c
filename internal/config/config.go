package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config carries everything the server reads from the environment.
type Config struct {
	// HTTP Server
	Port string

	// Database: either a path to the SQLite file or a postgres:// URL
	DatabaseURL string

	// Sessions
	SessionSecret string
	SessionTTL    time.Duration

	// Credentials
	BcryptCost int

	// Rate limiting for the credential endpoints
	AuthRatePerMinute int

	// Extra proxy networks whose forwarded headers are trusted when
	// resolving client addresses, on top of the private ranges
	TrustedProxies []string

	// Logging
	LogLevel string
}

// Load reads the environment, falling back to development defaults. Call
// Validate afterwards; Load itself never fails.
func Load() *Config {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       getEnv("DATABASE_URL", "./data/tally.db"),
		SessionSecret:     getEnv("SESSION_SECRET", "tally-dev-secret-change-me"),
		SessionTTL:        getEnvDuration("SESSION_TTL", 24*time.Hour),
		BcryptCost:        getEnvInt("BCRYPT_COST", 10),
		AuthRatePerMinute: getEnvInt("AUTH_RATE_PER_MINUTE", 10),
		TrustedProxies:    getEnvList("TRUSTED_PROXIES"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// IsPostgresURL reports whether the database URL points at Postgres rather
// than a local SQLite file.
func IsPostgresURL(u string) bool {
	return strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://")
}

// Validate checks every setting and reports all problems at once, so a bad
// deployment fails with the full list instead of one error per restart.
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate database location
	if IsPostgresURL(c.DatabaseURL) {
		if _, err := url.Parse(c.DatabaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid database URL '%s': %v", c.DatabaseURL, err))
		}
	} else {
		if c.DatabaseURL == "" {
			errors = append(errors, "database path cannot be empty")
		} else {
			// Create the parent directory up front so first boot works
			dir := filepath.Dir(c.DatabaseURL)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate session settings
	if len(c.SessionSecret) < 16 {
		errors = append(errors, "session secret too short: must be at least 16 characters")
	}
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	} else if c.SessionTTL > 30*24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at most 30 days", c.SessionTTL))
	}

	// Validate bcrypt cost (bcrypt accepts 4 through 31)
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errors = append(errors, fmt.Sprintf("invalid bcrypt cost %d: must be between 4 and 31", c.BcryptCost))
	}

	// Validate rate limit
	if c.AuthRatePerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid auth rate %d: must be at least 1 per minute", c.AuthRatePerMinute))
	} else if c.AuthRatePerMinute > 1000 {
		errors = append(errors, fmt.Sprintf("invalid auth rate %d: must be at most 1000 per minute", c.AuthRatePerMinute))
	}

	// Validate trusted proxy networks
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR such as 10.0.0.0/8", cidr))
		}
	}

	// Validate log level
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// SlogLevel maps the configured log level onto slog's levels.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty items.
func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
