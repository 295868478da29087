// Package config loads this adapter's provider map and ambient settings
// (listen address, debug sink, OpenAI hints, credential storage) as an
// external collaborator: a layered, validated settings object the core is
// handed at construction, not something the core derives for itself.
//
// Built on the koanf stack (v2 core, file/env/confmap providers, toml
// parser) for a "defaults -> file -> env" layering idiom.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/sudip358/claude-route/internal/credstore"
	"github.com/sudip358/claude-route/internal/drivers"
)

// envPrefix is stripped from every environment variable before it is
// folded into the config tree, so only CLAUDE_ROUTE_-namespaced variables
// are ever consulted.
const envPrefix = "CLAUDE_ROUTE_"

// Config is the root of the adapter's settings tree.
type Config struct {
	Host             string              `koanf:"host" validate:"required"`
	Port             int                 `koanf:"port" validate:"gte=0,lte=65535"`
	AnthropicBaseURL string              `koanf:"anthropic_base_url" validate:"required,url"`
	Providers        map[string]Provider `koanf:"providers" validate:"dive"`
	OpenAI           OpenAIHints         `koanf:"openai"`
	Debug            Debug               `koanf:"debug"`
	Auth             credstore.Config    `koanf:"auth"`
}

// Provider is one entry of the provider_name -> {apiKey, baseURL?,
// driver_kind} map.
type Provider struct {
	Kind drivers.Kind `koanf:"kind" validate:"required,oneof=openai google xai azure anthropic"`

	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`

	// Deployment and APIVersion are only consulted for kind=azure.
	Deployment string `koanf:"deployment"`
	APIVersion string `koanf:"api_version"`

	// UseOAuth selects the tokensource-backed credential for kind=anthropic
	// instead of APIKey. Mutually exclusive with APIKey in practice, but
	// not enforced here: anthropicdriver.New prefers a non-nil token
	// source and falls back to APIKey otherwise.
	UseOAuth bool `koanf:"use_oauth"`
}

// OpenAIHints carries adapter-constructor-level knobs injected into the
// openai driver only.
type OpenAIHints struct {
	ReasoningEffort string `koanf:"reasoning_effort" validate:"omitempty,oneof=minimal low medium high"`
	ServiceTier     string `koanf:"service_tier" validate:"omitempty,oneof=flex priority"`
}

// Debug configures the raw request/response dump sink.
type Debug struct {
	Enabled   bool   `koanf:"enabled"`
	Path      string `koanf:"path"`
	Verbosity int    `koanf:"verbosity" validate:"gte=1,lte=2"`
}

var defaults = map[string]any{
	"host":               "127.0.0.1",
	"port":               4000,
	"anthropic_base_url": "https://api.anthropic.com",
	"debug.verbosity":    1,
	"auth.storage":       "file",
}

// Load builds a Config by layering, lowest to highest precedence: built-in
// defaults, an optional TOML file at path (skipped entirely when path is
// empty), then CLAUDE_ROUTE_-prefixed environment variables (double
// underscore as the nesting delimiter, e.g.
// CLAUDE_ROUTE_PROVIDERS__OPENAI__API_KEY). The result is validated with
// go-playground/validator before being returned.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	if err := k.Load(envprovider.Provider(".", envprovider.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.TrimPrefix(key, envPrefix)
			key = strings.ToLower(strings.ReplaceAll(key, "__", "."))
			return key, value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return &cfg, nil
}
