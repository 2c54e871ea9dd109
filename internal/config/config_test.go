package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %q", cfg.Port)
	}
	if cfg.DBPath != "./data/chat.db" {
		t.Errorf("Expected default db path, got %q", cfg.DBPath)
	}
	if cfg.UpstreamURL == "" {
		t.Error("Expected default upstream URL")
	}
	if cfg.RelayMinDelay != 500*time.Millisecond || cfg.RelayMaxDelay != 1500*time.Millisecond {
		t.Errorf("Expected 500ms-1500ms relay delay bounds, got %v-%v", cfg.RelayMinDelay, cfg.RelayMaxDelay)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("UPSTREAM_URL", "http://example.test/prompt")
	t.Setenv("RELAY_MIN_DELAY_MS", "0")
	t.Setenv("RELAY_MAX_DELAY_MS", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %q", cfg.Port)
	}
	if cfg.UpstreamURL != "http://example.test/prompt" {
		t.Errorf("Expected overridden upstream URL, got %q", cfg.UpstreamURL)
	}
	if cfg.RelayMinDelay != 0 || cfg.RelayMaxDelay != 0 {
		t.Errorf("Expected zero delay bounds, got %v-%v", cfg.RelayMinDelay, cfg.RelayMaxDelay)
	}
}

func TestValidate_RejectsInvertedDelayBounds(t *testing.T) {
	t.Setenv("RELAY_MIN_DELAY_MS", "2000")
	t.Setenv("RELAY_MAX_DELAY_MS", "1000")

	if _, err := Load(); err == nil {
		t.Error("Expected error for max delay below min delay")
	}
}

func TestValidate_RejectsEmptyUpstream(t *testing.T) {
	t.Setenv("UPSTREAM_URL", "")

	// An explicitly empty UPSTREAM_URL overrides the default and must fail.
	if _, err := Load(); err == nil {
		t.Error("Expected error for empty UPSTREAM_URL")
	}
}

func TestIsDevelopment(t *testing.T) {
	cfg := &Config{FrontendURL: ""}
	if !cfg.IsDevelopment() {
		t.Error("Expected empty frontend URL to mean development")
	}

	cfg.FrontendURL = "http://localhost:3000"
	if !cfg.IsDevelopment() {
		t.Error("Expected localhost frontend URL to mean development")
	}

	cfg.FrontendURL = "https://chat.example.com"
	if cfg.IsDevelopment() {
		t.Error("Expected production frontend URL to mean production")
	}
}
