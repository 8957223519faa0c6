// Package config loads client configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration values.
type Config struct {
	// Backend REST API
	APIBaseURL     string        `env:"AXIO_API_URL" envDefault:"http://localhost:8000"`
	RequestTimeout time.Duration `env:"AXIO_REQUEST_TIMEOUT" envDefault:"30s"`

	// Realtime backend
	RealtimeURL string `env:"AXIO_REALTIME_URL"`
	RealtimeKey string `env:"AXIO_REALTIME_KEY"`

	// OAuth provider
	OAuthClientID    string `env:"AXIO_OAUTH_CLIENT_ID"`
	OAuthRedirectURI string `env:"AXIO_OAUTH_REDIRECT_URI" envDefault:"http://localhost:8787/callback"`

	// Sync intervals
	PollInterval     time.Duration `env:"AXIO_POLL_INTERVAL" envDefault:"30s"`
	ProgressInterval time.Duration `env:"AXIO_PROGRESS_INTERVAL" envDefault:"1s"`

	// Logging
	LogFile  string `env:"AXIO_LOG_FILE"`
	LogLevel string `env:"AXIO_LOG_LEVEL" envDefault:"INFO"`

	// Session file override (mainly for tests)
	SessionFile string `env:"AXIO_SESSION_FILE"`
}

// Load reads configuration from a .env file (if present) and the process
// environment. Environment variables win over .env entries.
func Load() (Config, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	return cfg, nil
}

// ErrMissingOAuthClientID is returned when an auth flow starts without an
// OAuth client id configured. Callers must fail fast and visibly rather than
// proceed with a broken sign-in.
var ErrMissingOAuthClientID = errors.New(
	"AXIO_OAUTH_CLIENT_ID is not set: sign-in cannot work without an OAuth client id")

// RequireOAuth verifies the OAuth configuration needed by auth flows.
func (c Config) RequireOAuth() error {
	if c.OAuthClientID == "" {
		return ErrMissingOAuthClientID
	}
	return nil
}

// Level parses the configured log level, defaulting to INFO.
func (c Config) Level() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
