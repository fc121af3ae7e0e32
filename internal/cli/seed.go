package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/phamyourfam/blissbite/internal/infra/app"
	"github.com/phamyourfam/blissbite/internal/infra/seed"
	postgresrepo "github.com/phamyourfam/blissbite/internal/repository/postgres"
)

func newSeedCommand(rt *runtime) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert fixture accounts, establishments and products",
		Long: `Reads seeds/<entity>/<id>.json for accounts, establishments and products
and inserts the rows that do not exist yet. Existing rows are left untouched.`,
		Args: cobra.NoArgs,
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
			seeder := seed.NewSeeder(repos.Accounts, repos.Establishments, repos.Products, hasher, rt.logger)

			report, err := seeder.Run(ctx, dir)
			if err != nil {
				return err
			}
			return printReport(cmd, report)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "seeds", "directory holding <entity>/<id>.json fixtures")
	return cmd
}

func printReport(cmd *cobra.Command, report seed.Report) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ENTITY\tINSERTED\tSKIPPED")
	for _, entity := range []string{seed.EntityAccounts, seed.EntityEstablishments, seed.EntityProducts} {
		counts := report[entity]
		fmt.Fprintf(w, "%s\t%d\t%d\n", entity, counts.Inserted, counts.Skipped)
	}
	return w.Flush()
}
