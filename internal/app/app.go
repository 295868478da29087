package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sudip358/claude-route/internal/config"
	"github.com/sudip358/claude-route/internal/debugsink"
	"github.com/sudip358/claude-route/internal/proxy"
)

// App orchestrates the lifecycle of the proxy server and related services.
type App struct {
	cfg    *config.Config
	proxy  *proxy.Proxy
	health *Health
}

// New builds an App from cfg: constructs the driver registry (one entry
// per configured provider), the optional debug sink, and the proxy
// server itself.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	registry, err := buildRegistry(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("app: build provider registry: %w", err)
	}

	debug := debugsink.New(cfg.Debug.Enabled, cfg.Debug.Path, debugsink.Verbosity(cfg.Debug.Verbosity))

	health := NewHealth()

	proxyServer, err := proxy.New(registry, cfg.AnthropicBaseURL, health,
		proxy.WithOpenAIHints(toDriverHints(cfg.OpenAI)),
		proxy.WithDebugSink(debug),
	)
	if err != nil {
		return nil, fmt.Errorf("app: build proxy: %w", err)
	}

	return &App{cfg: cfg, proxy: proxyServer, health: health}, nil
}

// Start starts all services and blocks until shutdown is triggered.
// Uses errgroup for runtime error monitoring and shutdown function collection for coordinated cleanup.
func (a *App) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	var shutdownFuncs []func(context.Context) error

	addr := fmt.Sprintf("%s:%d", a.cfg.Host, a.cfg.Port)
	slog.InfoContext(gCtx, "starting proxy server", "addr", addr)
	proxyErrCh, err := a.proxy.Start(gCtx, addr)
	if err != nil {
		return fmt.Errorf("proxy startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, a.proxy.Shutdown)
	a.health.SetReady(true)
	slog.InfoContext(gCtx, "proxy listening", "addr", a.proxy.Addr())

	g.Go(func() error {
		select {
		case err := <-proxyErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "proxy runtime error", "error", err)
				return fmt.Errorf("proxy: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	runtimeErr := g.Wait()

	slog.InfoContext(gCtx, "shutting down services")
	a.health.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("application stopped")
	return nil
}

// Addr returns the proxy's bound address, resolving a configured port 0 to
// the kernel-assigned port. Empty before Start.
func (a *App) Addr() string {
	return a.proxy.Addr()
}
