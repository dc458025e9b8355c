package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the tradegate gateway.
type Config struct {
	Server    Server          `yaml:"server"`
	Upstox    Upstox          `yaml:"upstox"`
	Guard     GuardConfig     `yaml:"guard"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   Logging         `yaml:"logging"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Upstox holds credentials and endpoints for the upstream brokerage API.
// AccessToken has no default anywhere; it must come from configuration or
// the UPSTOX_ACCESS_TOKEN environment variable.
type Upstox struct {
	BaseURL        string `yaml:"base_url"`
	AccessToken    string `yaml:"access_token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	TopUpURL       string `yaml:"top_up_url"`
}

// GuardConfig holds funds-guard parameters.
//
// FallbackPrice is the price substituted when a live quote cannot supply a
// positive last-traded price. Approximating rather than failing keeps order
// placement live at the cost of cost-estimate precision.
type GuardConfig struct {
	FallbackPrice float64 `yaml:"fallback_price"`
}

// RateLimitConfig bounds inbound request rate.
type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Timeout returns the per-request upstream timeout as a duration.
func (u Upstox) Timeout() time.Duration {
	return time.Duration(u.TimeoutSeconds) * time.Second
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, fills defaults,
// and applies environment variable overrides. A missing file is not an
// error: the gateway can run from environment variables alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Environment-only configuration.
	default:
		return nil, err
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Upstox.BaseURL == "" {
		cfg.Upstox.BaseURL = "https://api.upstox.com/v2"
	}
	if cfg.Upstox.TimeoutSeconds == 0 {
		cfg.Upstox.TimeoutSeconds = 30
	}
	if cfg.Upstox.TopUpURL == "" {
		cfg.Upstox.TopUpURL = "https://upstox.com/funds/add"
	}
	if cfg.Guard.FallbackPrice == 0 {
		cfg.Guard.FallbackPrice = 1000
	}
	if cfg.RateLimit.PerMinute == 0 {
		cfg.RateLimit.PerMinute = 100
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("UPSTOX_ACCESS_TOKEN"); v != "" {
		cfg.Upstox.AccessToken = v
	}
	if v := os.Getenv("UPSTOX_BASE_URL"); v != "" {
		cfg.Upstox.BaseURL = v
	}
	if v := os.Getenv("TOP_UP_URL"); v != "" {
		cfg.Upstox.TopUpURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimit.PerMinute = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
