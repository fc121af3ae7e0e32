package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/phamyourfam/blissbite/internal/infra/database"
)

func newMigrateCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the embedded schema migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return rt.withMigrator(cmd, func(m *database.Migrator) error {
					return m.Up()
				})
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back the given number of migrations (default 1)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n <= 0 {
						return fmt.Errorf("steps must be a positive integer, got %q", args[0])
					}
					steps = n
				}
				return rt.withMigrator(cmd, func(m *database.Migrator) error {
					return m.Down(steps)
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return rt.withMigrator(cmd, func(*database.Migrator) error { return nil })
			},
		},
	)
	return cmd
}

// withMigrator runs fn and then prints the resulting schema version.
func (rt *runtime) withMigrator(cmd *cobra.Command, fn func(*database.Migrator) error) error {
	migrator, err := database.NewMigrator(rt.cfg.Postgres, rt.logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	if err := fn(migrator); err != nil {
		return err
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d", version)
	if dirty {
		fmt.Fprint(cmd.OutOrStdout(), " (dirty)")
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}
