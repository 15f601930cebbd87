package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/lawnchairsociety/delvekeep/server/internal/config"
	"github.com/lawnchairsociety/delvekeep/server/internal/database"
	"github.com/lawnchairsociety/delvekeep/server/internal/logger"
)

// MigrationReport counts what a migration copied.
type MigrationReport struct {
	Players  int
	Accounts int
	Floors   int
	Flags    int
}

// Migrate copies players from a SQLite database into the runtime's
// storage. Accounts are copied only when the runtime keeps them in
// PostgreSQL; floor records and story flags go to whatever backend the
// runtime is configured with. Existing accounts and flags are left alone;
// floor records are overwritten. With dryRun nothing is written.
func Migrate(ctx context.Context, src *database.Database, dst *Runtime, dryRun bool) (MigrationReport, error) {
	var report MigrationReport
	if src == dst.Accounts {
		return report, errors.New("source and destination are the same database")
	}

	if dst.Config.Storage.Driver == config.DriverPostgres {
		accounts, err := src.ListAccounts()
		if err != nil {
			return report, err
		}
		for _, a := range accounts {
			if dryRun {
				report.Accounts++
				continue
			}
			added, err := dst.Accounts.ImportAccount(a)
			if err != nil {
				return report, err
			}
			if added {
				report.Accounts++
			}
		}
		logger.Info("Migrated accounts", "count", report.Accounts, "dry_run", dryRun)
	}

	players, err := src.PlayerIDs(ctx)
	if err != nil {
		return report, err
	}
	report.Players = len(players)

	for _, playerID := range players {
		floors, err := src.ListFloorStates(ctx, playerID)
		if err != nil {
			return report, err
		}
		for _, state := range floors {
			if !dryRun {
				if err := dst.Repo.SaveFloorState(ctx, playerID, state); err != nil {
					return report, fmt.Errorf("copy floor %d for %s: %w", state.FloorLevel, playerID, err)
				}
			}
			report.Floors++
		}

		flags, err := src.LoadStoryFlags(ctx, playerID)
		if err != nil {
			return report, err
		}
		for _, f := range flags {
			if dryRun {
				report.Flags++
				continue
			}
			added, err := dst.Story.RecordStoryFlag(ctx, playerID, f.Kind, f.Floor)
			if err != nil {
				return report, fmt.Errorf("copy %s flag on floor %d for %s: %w", f.Kind, f.Floor, playerID, err)
			}
			if added {
				report.Flags++
			}
		}
	}

	logger.Info("Migrated players",
		"players", report.Players,
		"floors", report.Floors,
		"flags", report.Flags,
		"dry_run", dryRun)
	return report, nil
}
