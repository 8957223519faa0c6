package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.APIBaseURL != "http://localhost:8000" {
		t.Errorf("APIBaseURL = %q, want default", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.RequestTimeout)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %v, want 30s", cfg.PollInterval)
	}
}

func TestLoadTrimsTrailingSlash(t *testing.T) {
	t.Setenv("AXIO_API_URL", "https://api.axiohub.io/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIBaseURL != "https://api.axiohub.io" {
		t.Errorf("APIBaseURL = %q, want trailing slash stripped", cfg.APIBaseURL)
	}
}

func TestRequireOAuth(t *testing.T) {
	cfg := Config{}
	if err := cfg.RequireOAuth(); err == nil {
		t.Fatal("RequireOAuth() = nil, want error for missing client id")
	}

	cfg.OAuthClientID = "client-123"
	if err := cfg.RequireOAuth(); err != nil {
		t.Fatalf("RequireOAuth() error = %v, want nil", err)
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		cfg := Config{LogLevel: tt.in}
		if got := cfg.Level(); got != tt.want {
			t.Errorf("Level(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
