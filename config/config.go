/*
Package config loads server configuration from the environment.

PURPOSE:
  A single Config struct read once at startup. Values come from process
  environment variables, optionally seeded from a .env file in the working
  directory. Defaults suit local development against a sqlite file.

VARIABLES:
  APP_ADDR               listen address (default ":8080")
  APP_READ_TIMEOUT       http read timeout (default 15s)
  APP_WRITE_TIMEOUT      http write timeout (default 15s)
  APP_SHUTDOWN_TIMEOUT   graceful shutdown budget (default 10s)
  DB_PATH                sqlite path, ":memory:" for ephemeral (default "timesheet.db")
  CATALOG_PATH           optional catalog JSON, see package factory
  CORS_ORIGINS           comma separated allowed origins (default "*")
  RATE_LIMIT_PER_MINUTE  per-IP request budget, 0 disables (default 300)
  LOG_FORMAT             "text" or "json" (default "text")
  LOG_LEVEL              debug, info, warn or error (default "info")
*/
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the server.
type Config struct {
	AppAddr            string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout     time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout    time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppShutdownTimeout time.Duration `envconfig:"APP_SHUTDOWN_TIMEOUT" default:"10s"`

	DBPath      string `envconfig:"DB_PATH" default:"timesheet.db"`
	CatalogPath string `envconfig:"CATALOG_PATH"`

	CORSOrigins        []string `envconfig:"CORS_ORIGINS" default:"*"`
	RateLimitPerMinute int      `envconfig:"RATE_LIMIT_PER_MINUTE" default:"300"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads an optional .env file and then the environment.
// A missing .env file is not an error.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.AppAddr) == "" {
		problems = append(problems, "APP_ADDR cannot be empty")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		problems = append(problems, "DB_PATH cannot be empty")
	}
	if c.RateLimitPerMinute < 0 {
		problems = append(problems, fmt.Sprintf("invalid RATE_LIMIT_PER_MINUTE %d: must not be negative", c.RateLimitPerMinute))
	}
	for name, d := range map[string]time.Duration{
		"APP_READ_TIMEOUT":     c.AppReadTimeout,
		"APP_WRITE_TIMEOUT":    c.AppWriteTimeout,
		"APP_SHUTDOWN_TIMEOUT": c.AppShutdownTimeout,
	} {
		if d <= 0 {
			problems = append(problems, fmt.Sprintf("invalid %s %s: must be positive", name, d))
		}
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid LOG_FORMAT '%s': must be text or json", c.LogFormat))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

// Level returns the configured slog level, falling back to info.
func (c *Config) Level() slog.Level {
	lvl, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL '%s': must be debug, info, warn or error", s)
	}
	return lvl, nil
}
