package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	path := writeTempConfig(t, `
anthropic_base_url = "https://api.anthropic.com"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Host = %q, want 127.0.0.1", cfg.Host)
	}
	if cfg.Port != 4000 {
		t.Errorf("Port = %d, want 4000", cfg.Port)
	}
	if cfg.Debug.Verbosity != 1 {
		t.Errorf("Debug.Verbosity = %d, want 1", cfg.Debug.Verbosity)
	}
	if cfg.Auth.Storage != "file" {
		t.Errorf("Auth.Storage = %q, want file", cfg.Auth.Storage)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
host = "0.0.0.0"
port = 9000
anthropic_base_url = "https://api.anthropic.com"

[providers.openai]
kind = "openai"
api_key = "sk-test"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want 0.0.0.0", cfg.Host)
	}
	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	provider, ok := cfg.Providers["openai"]
	if !ok {
		t.Fatal("Providers[\"openai\"] missing")
	}
	if provider.APIKey != "sk-test" {
		t.Errorf("APIKey = %q, want sk-test", provider.APIKey)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeTempConfig(t, `
host = "0.0.0.0"
anthropic_base_url = "https://api.anthropic.com"
`)

	t.Setenv("CLAUDE_ROUTE_HOST", "10.0.0.1")
	t.Setenv("CLAUDE_ROUTE_PROVIDERS__OPENAI__KIND", "openai")
	t.Setenv("CLAUDE_ROUTE_PROVIDERS__OPENAI__API_KEY", "sk-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Host != "10.0.0.1" {
		t.Errorf("Host = %q, want 10.0.0.1 (env should win over file)", cfg.Host)
	}
	provider, ok := cfg.Providers["openai"]
	if !ok {
		t.Fatal("Providers[\"openai\"] missing")
	}
	if provider.APIKey != "sk-env" {
		t.Errorf("APIKey = %q, want sk-env", provider.APIKey)
	}
}

func TestLoad_EmptyPathSkipsFileLayer(t *testing.T) {
	t.Setenv("CLAUDE_ROUTE_ANTHROPIC_BASE_URL", "https://api.anthropic.com")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("Host = %q, want default 127.0.0.1", cfg.Host)
	}
}

func TestLoad_MissingRequiredFieldFails(t *testing.T) {
	path := writeTempConfig(t, `
host = ""
`)

	if _, err := Load(path); err == nil {
		t.Fatal("Load() error = nil, want validation error for empty host")
	}
}

func TestLoad_InvalidProviderKindFails(t *testing.T) {
	path := writeTempConfig(t, `
anthropic_base_url = "https://api.anthropic.com"

[providers.bogus]
kind = "not-a-real-provider"
`)

	if _, err := Load(path); err == nil {
		t.Fatal("Load() error = nil, want validation error for unknown provider kind")
	}
}

func TestLoad_OutOfRangeVerbosityFails(t *testing.T) {
	path := writeTempConfig(t, `
anthropic_base_url = "https://api.anthropic.com"

[debug]
verbosity = 5
`)

	if _, err := Load(path); err == nil {
		t.Fatal("Load() error = nil, want validation error for out-of-range debug.verbosity")
	}
}

func TestLoad_InvalidAnthropicBaseURLFails(t *testing.T) {
	path := writeTempConfig(t, `
anthropic_base_url = "not-a-url"
`)

	if _, err := Load(path); err == nil {
		t.Fatal("Load() error = nil, want validation error for malformed anthropic_base_url")
	}
}

func TestLoad_MissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml")); err == nil {
		t.Fatal("Load() error = nil, want error for nonexistent config file")
	}
}

func writeTempConfig(t *testing.T, toml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "claude-route.toml")
	if err := os.WriteFile(path, []byte(toml), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}
