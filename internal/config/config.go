// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	DBPath      string

	// UpstreamURL is the completion service endpoint the proxy forwards to.
	UpstreamURL     string
	UpstreamTimeout time.Duration

	// RelayProxyURL is the proxy endpoint the relay client posts to. Empty
	// means "this server's own /api/proxy", resolved at startup.
	RelayProxyURL string

	// RelayMinDelay/RelayMaxDelay bound the cosmetic pacing delay applied
	// before each relay dispatch.
	RelayMinDelay time.Duration
	RelayMaxDelay time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		FrontendURL:     getEnv("FRONTEND_URL", ""),
		DBPath:          getEnv("DB_PATH", "./data/chat.db"),
		UpstreamURL:     getEnv("UPSTREAM_URL", "https://gpt.navsharma.com/prompt"),
		UpstreamTimeout: time.Duration(getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 30)) * time.Second,
		RelayProxyURL:   getEnv("RELAY_PROXY_URL", ""),
		RelayMinDelay:   time.Duration(getEnvInt("RELAY_MIN_DELAY_MS", 500)) * time.Millisecond,
		RelayMaxDelay:   time.Duration(getEnvInt("RELAY_MAX_DELAY_MS", 1500)) * time.Millisecond,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.UpstreamURL == "" {
		return fmt.Errorf("UPSTREAM_URL cannot be empty")
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT_SECONDS must be > 0")
	}
	if c.RelayMinDelay < 0 {
		return fmt.Errorf("RELAY_MIN_DELAY_MS must be >= 0")
	}
	if c.RelayMaxDelay < c.RelayMinDelay {
		return fmt.Errorf("RELAY_MAX_DELAY_MS must be >= RELAY_MIN_DELAY_MS")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
