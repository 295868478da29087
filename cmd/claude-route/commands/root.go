package commands

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string, version, commit string) error {
	cmd := &cli.Command{
		Name:    "claude-route",
		Usage:   "Local Anthropic-compatible proxy for OpenAI, Gemini, xAI, Azure OpenAI, and Anthropic backends",
		Version: version + " (" + commit + ")",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to the TOML config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json)",
				Value: "text",
			},
		},
		Commands: []*cli.Command{
			startCommand(),
			authCommand(),
		},
	}

	return cmd.Run(ctx, args)
}
