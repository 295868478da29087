package commands

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/sudip358/claude-route/internal/config"
)

// loadConfig resolves the --config flag and layers environment variables
// on top via config.Load. An unset --config skips the file layer entirely
// and relies on defaults plus CLAUDE_ROUTE_-prefixed environment variables.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	path := cmd.String("config")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", path, err)
	}
	return cfg, nil
}
