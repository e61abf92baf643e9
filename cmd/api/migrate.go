package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
)

func newMigrateCmd(load func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the postgres schema",
	}

	withMigrator := func(run func(cmd *cobra.Command, m *postgres.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Database.Driver != config.DriverPostgres {
				return fmt.Errorf("migrations require the %s driver, got %q", config.DriverPostgres, cfg.Database.Driver)
			}
			db, err := postgres.NewDB(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			return run(cmd, postgres.NewMigrator(db))
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: withMigrator(func(cmd *cobra.Command, m *postgres.Migrator) error {
				n, err := m.Up(cmd.Context())
				if err != nil {
					return err
				}
				log.Info().Int("applied", n).Msg("migrations complete")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and when they were applied",
			RunE: withMigrator(func(cmd *cobra.Command, m *postgres.Migrator) error {
				statuses, err := m.Status(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED AT")
				for _, s := range statuses {
					applied := "pending"
					if s.AppliedAt != nil {
						applied = s.AppliedAt.Format(time.RFC3339)
					}
					fmt.Fprintf(w, "%03d\t%s\t%s\n", s.Version, s.Name, applied)
				}
				return w.Flush()
			}),
		},
	)
	return cmd
}
