package app

import (
	"context"
	"fmt"

	"github.com/sudip358/claude-route/internal/config"
	"github.com/sudip358/claude-route/internal/drivers"
	"github.com/sudip358/claude-route/internal/drivers/anthropicdriver"
	"github.com/sudip358/claude-route/internal/drivers/azuredriver"
	"github.com/sudip358/claude-route/internal/drivers/googledriver"
	"github.com/sudip358/claude-route/internal/drivers/openaidriver"
	"github.com/sudip358/claude-route/internal/drivers/xaidriver"
	"github.com/sudip358/claude-route/internal/tokensource"
)

// buildRegistry turns the caller-supplied provider map into a
// *drivers.Registry, dispatching each entry to its driver kind's
// constructor. An anthropic entry with UseOAuth set reads a refresh token
// through cfg.Auth's credstore and wraps it in a tokensource-backed
// oauth2.TokenSource rather than using APIKey directly.
func buildRegistry(ctx context.Context, cfg *config.Config) (*drivers.Registry, error) {
	byName := make(map[string]drivers.Driver, len(cfg.Providers))

	for name, pc := range cfg.Providers {
		d, err := buildDriver(ctx, cfg, pc)
		if err != nil {
			return nil, fmt.Errorf("app: provider %q: %w", name, err)
		}
		byName[name] = d
	}

	return drivers.NewRegistry(byName)
}

func buildDriver(ctx context.Context, cfg *config.Config, pc config.Provider) (drivers.Driver, error) {
	switch pc.Kind {
	case drivers.KindOpenAI:
		return openaidriver.New(pc.APIKey, pc.BaseURL), nil

	case drivers.KindGoogle:
		return googledriver.New(ctx, pc.APIKey, pc.BaseURL)

	case drivers.KindXAI:
		return xaidriver.New(pc.APIKey, pc.BaseURL), nil

	case drivers.KindAzure:
		return azuredriver.New(pc.APIKey, pc.BaseURL, pc.Deployment, pc.APIVersion), nil

	case drivers.KindAnthropic:
		if !pc.UseOAuth {
			return anthropicdriver.New(pc.APIKey, pc.BaseURL, nil)
		}
		store, err := cfg.Auth.NewStore()
		if err != nil {
			return nil, fmt.Errorf("build oauth credential store: %w", err)
		}
		refreshToken, err := store.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("read oauth refresh token: %w", err)
		}
		if refreshToken == "" {
			return nil, fmt.Errorf("oauth requested but no refresh token is stored; run \"claude-route auth login\" first")
		}
		ts := tokensource.NewTokenSource(refreshToken, tokensource.Endpoint)
		return anthropicdriver.New("", pc.BaseURL, ts)

	default:
		return nil, fmt.Errorf("unrecognized driver kind %q", pc.Kind)
	}
}
