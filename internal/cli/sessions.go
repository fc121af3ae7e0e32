package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phamyourfam/blissbite/internal/infra/app"
	"github.com/phamyourfam/blissbite/internal/infra/jobs"
	postgresrepo "github.com/phamyourfam/blissbite/internal/repository/postgres"
	"github.com/phamyourfam/blissbite/internal/usecase"
)

func newSessionsCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and maintain login sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete every expired session now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			hasher, err := app.NewPasswordHasher(rt.cfg.Password)
			if err != nil {
				return err
			}

			pool, err := rt.openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			repos := postgresrepo.NewRepositories(pool)
			sessions := usecase.NewSessionService(repos.Sessions, repos.Accounts, hasher, rt.cfg.Session.Duration, rt.logger)
			janitor, err := jobs.NewSessionJanitor(sessions, rt.cfg.Jobs.SessionSweepSchedule, rt.logger)
			if err != nil {
				return err
			}

			removed, err := janitor.RunOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired sessions\n", removed)
			return nil
		},
	})
	return cmd
}
