package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/delvekeep/server/internal/app"
	"github.com/lawnchairsociety/delvekeep/server/internal/database"
)

func newMigrateCmd(opts *options) *cobra.Command {
	var (
		sqlitePath string
		dryRun     bool
	)
	cmd := &cobra.Command{
		Use:   "migrate --sqlite <path>",
		Short: "Copy players from a SQLite database into the configured storage",
		Long: `Copy floor records and story flags from a SQLite database into the storage
named in the config file. Accounts are copied too when the config uses
PostgreSQL. Existing accounts and story flags are kept; floor records are
overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := database.Open(sqlitePath)
			if err != nil {
				return fmt.Errorf("open %s: %w", sqlitePath, err)
			}
			defer src.Close()

			rt, err := opts.runtime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			report, err := app.Migrate(cmd.Context(), src, rt, dryRun)
			if err != nil {
				return err
			}

			verb := "Migrated"
			if dryRun {
				verb = "Would migrate"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d players to %s: %d accounts, %d floor records, %d story flags.\n",
				verb, report.Players, rt.Config.Storage.Driver, report.Accounts, report.Floors, report.Flags)
			return nil
		},
	}
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "SQLite database to copy from")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Count what would be copied without writing")
	cmd.MarkFlagRequired("sqlite")
	return cmd
}
