package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/sudip358/claude-route/internal/app"
	"github.com/sudip358/claude-route/internal/observability"
)

func startCommand() *cli.Command {
	return &cli.Command{
		Name:   "start",
		Usage:  "Starts the proxy",
		Action: startAction,
	}
}

func startAction(ctx context.Context, cmd *cli.Command) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cmd.String("log-level"))); err != nil {
		return err
	}

	if err := observability.Instrument(level, cmd.String("log-format")); err != nil {
		return fmt.Errorf("failed to set up observability layer: %w", err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	slog.InfoContext(ctx, "starting")

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("app failed to start: %w", err)
	}

	slog.InfoContext(ctx, "stopped gracefully")
	return nil
}
