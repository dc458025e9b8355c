package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"UPSTOX_ACCESS_TOKEN", "UPSTOX_BASE_URL", "TOP_UP_URL",
		"PORT", "RATE_LIMIT", "LOG_LEVEL",
	} {
		os.Unsetenv(k)
	}
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "tradegate-config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	if _, err := tmpFile.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatalf("failed to close temp file: %v", err)
	}
	return tmpFile.Name()
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := writeTempConfig(t, `
server:
  host: "127.0.0.1"
  port: 8080
upstox:
  base_url: "https://api.upstox.example/v2"
  access_token: "file-token"
  timeout_seconds: 10
  top_up_url: "https://broker.example/funds/add"
guard:
  fallback_price: 750
rate_limit:
  per_minute: 42
logging:
  level: "debug"
  format: "text"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	// -- Server --
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}

	// -- Upstox --
	if cfg.Upstox.BaseURL != "https://api.upstox.example/v2" {
		t.Errorf("Upstox.BaseURL = %q, want %q", cfg.Upstox.BaseURL, "https://api.upstox.example/v2")
	}
	if cfg.Upstox.AccessToken != "file-token" {
		t.Errorf("Upstox.AccessToken = %q, want %q", cfg.Upstox.AccessToken, "file-token")
	}
	if got := cfg.Upstox.Timeout(); got != 10*time.Second {
		t.Errorf("Upstox.Timeout() = %v, want %v", got, 10*time.Second)
	}
	if cfg.Upstox.TopUpURL != "https://broker.example/funds/add" {
		t.Errorf("Upstox.TopUpURL = %q, want %q", cfg.Upstox.TopUpURL, "https://broker.example/funds/add")
	}

	// -- Guard --
	if cfg.Guard.FallbackPrice != 750 {
		t.Errorf("Guard.FallbackPrice = %f, want %f", cfg.Guard.FallbackPrice, 750.0)
	}

	// -- Rate limit --
	if cfg.RateLimit.PerMinute != 42 {
		t.Errorf("RateLimit.PerMinute = %d, want %d", cfg.RateLimit.PerMinute, 42)
	}

	// -- Logging --
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "text")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	// Missing file: environment-only configuration with defaults.
	cfg, err := Load("/nonexistent/tradegate.yaml")
	if err != nil {
		t.Fatalf("Load() returned error for missing file: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want default %d", cfg.Server.Port, 5000)
	}
	if cfg.Upstox.BaseURL != "https://api.upstox.com/v2" {
		t.Errorf("Upstox.BaseURL = %q, want default upstream", cfg.Upstox.BaseURL)
	}
	if got := cfg.Upstox.Timeout(); got != 30*time.Second {
		t.Errorf("Upstox.Timeout() = %v, want %v", got, 30*time.Second)
	}
	if cfg.Guard.FallbackPrice != 1000 {
		t.Errorf("Guard.FallbackPrice = %f, want default %f", cfg.Guard.FallbackPrice, 1000.0)
	}
	if cfg.RateLimit.PerMinute != 100 {
		t.Errorf("RateLimit.PerMinute = %d, want default %d", cfg.RateLimit.PerMinute, 100)
	}
	// No credential default may ever exist.
	if cfg.Upstox.AccessToken != "" {
		t.Errorf("Upstox.AccessToken = %q, want empty (no embedded default)", cfg.Upstox.AccessToken)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)

	path := writeTempConfig(t, `
upstox:
  access_token: "yaml-token"
  base_url: "https://yaml.example/v2"
rate_limit:
  per_minute: 10
`)

	os.Setenv("UPSTOX_ACCESS_TOKEN", "env-token")
	os.Setenv("RATE_LIMIT", "250")
	os.Setenv("PORT", "9001")
	defer clearEnv(t)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Upstox.AccessToken != "env-token" {
		t.Errorf("Upstox.AccessToken = %q, want %q (env override)", cfg.Upstox.AccessToken, "env-token")
	}
	// base_url should remain from YAML since no env override was set.
	if cfg.Upstox.BaseURL != "https://yaml.example/v2" {
		t.Errorf("Upstox.BaseURL = %q, want %q (from YAML)", cfg.Upstox.BaseURL, "https://yaml.example/v2")
	}
	if cfg.RateLimit.PerMinute != 250 {
		t.Errorf("RateLimit.PerMinute = %d, want %d (env override)", cfg.RateLimit.PerMinute, 250)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("Server.Port = %d, want %d (env override)", cfg.Server.Port, 9001)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	clearEnv(t)

	path := writeTempConfig(t, "server: [not, a, mapping")
	if _, err := Load(path); err == nil {
		t.Fatal("Load() = nil error, want parse failure")
	}
}
