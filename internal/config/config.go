package config

import (
	"os"
	"strconv"
)

// Config holds the core runtime configuration for the service.
// Values are primarily sourced from environment variables, with
// sensible defaults where appropriate. See .env.example.
type Config struct {
	DatabaseURL string

	ListenAddr string

	// BootstrapEmail/BootstrapPassword/BootstrapName seed the first
	// operator account at startup if no user with that email exists.
	BootstrapEmail    string
	BootstrapPassword string
	BootstrapName     string

	// DefaultOwnerEmail, when non-empty, names an account that ingested
	// events are assigned to when the payload carries no userId. When
	// empty, userId is strictly required at ingestion.
	DefaultOwnerEmail string

	// MaxPageSize is the enforced ceiling on the listing "limit"
	// parameter. Requests above it are clamped, not rejected.
	MaxPageSize int

	// SessionTTLHours is how long issued session tokens stay valid.
	SessionTTLHours int

	// Debug includes underlying store error text in 500 responses.
	Debug bool
}

// Load reads configuration from environment variables and applies defaults.
func Load() *Config {
	cfg := &Config{
		DatabaseURL:       os.Getenv("APP_DATABASE_URL"),
		ListenAddr:        getenv("APP_LISTEN_ADDR", ":8080"),
		BootstrapEmail:    getenv("APP_BOOTSTRAP_EMAIL", "admin@localhost"),
		BootstrapPassword: getenv("APP_BOOTSTRAP_PASSWORD", "changeme"),
		BootstrapName:     getenv("APP_BOOTSTRAP_NAME", "Admin"),
		DefaultOwnerEmail: getenv("APP_DEFAULT_OWNER_EMAIL", ""),
		MaxPageSize:       500,
		SessionTTLHours:   168,
		Debug:             os.Getenv("APP_DEBUG") == "true",
	}

	if v := os.Getenv("APP_MAX_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxPageSize = n
		}
	}
	if v := os.Getenv("APP_SESSION_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SessionTTLHours = n
		}
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
