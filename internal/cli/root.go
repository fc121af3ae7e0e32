// Package cli implements blissbitectl, the operator command line.
package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phamyourfam/blissbite/internal/infra/config"
	"github.com/phamyourfam/blissbite/internal/infra/database"
	"github.com/phamyourfam/blissbite/internal/infra/logger"
)

var version = "dev"

// SetVersion overrides the version printed by `blissbitectl version`.
func SetVersion(v string) {
	version = v
}

// runtime carries what every subcommand needs once config is loaded.
type runtime struct {
	cfg    *config.AppConfig
	logger *zap.Logger
}

// Options lets tests replace the config source.
type Options struct {
	LoadConfig func() (*config.AppConfig, error)
}

// NewRootCommand assembles the command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.LoadConfig == nil {
		opts.LoadConfig = config.Load
	}
	rt := &runtime{}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "blissbitectl %s\n", version)
		},
	}

	root := &cobra.Command{
		Use:           "blissbitectl",
		Short:         "Operator tooling for the BlissBite API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd == versionCmd || cmd.Name() == "help" {
				return nil
			}

			cfg, err := opts.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log, err := logger.New(cfg.App.Env, "")
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			rt.cfg = cfg
			rt.logger = log
			return nil
		},
	}

	root.AddCommand(
		newMigrateCommand(rt),
		newSeedCommand(rt),
		newSessionsCommand(rt),
		versionCmd,
	)
	return root
}

// Execute runs the CLI against the process environment.
func Execute(ctx context.Context) error {
	return NewRootCommand(Options{}).ExecuteContext(ctx)
}

func (rt *runtime) openPool(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := database.NewPostgresPool(ctx, rt.cfg.Postgres, rt.logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}
