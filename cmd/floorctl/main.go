// Command floorctl inspects and administers the dungeon: it generates and
// draws floors, finds paths, shows a player's floor records, edits story
// flags and migrates storage.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/delvekeep/server/internal/app"
	"github.com/lawnchairsociety/delvekeep/server/internal/config"
	"github.com/lawnchairsociety/delvekeep/server/internal/logger"
	"github.com/lawnchairsociety/delvekeep/server/internal/tower"
)

// options are the flags every command shares.
type options struct {
	configPath string
	seed       int64
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "floorctl",
		Short:         "Delvekeep floor and storage tool",
		Long:          `floorctl generates and draws dungeon floors and inspects or edits the records players leave behind.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "data/server.yaml", "Path to server config YAML file")
	root.PersistentFlags().Int64Var(&opts.seed, "seed", 0, "Override the configured world seed")

	root.AddCommand(
		newGenCmd(opts),
		newCheckCmd(opts),
		newMapCmd(opts),
		newPathCmd(opts),
		newStateCmd(opts),
		newResolveCmd(opts),
		newMigrateCmd(opts),
	)
	return root
}

func main() {
	logger.SetOutput(os.Stderr, "WARN", "text")
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (o *options) load() (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.seed != 0 {
		cfg.Dungeon.WorldSeed = o.seed
	}
	return cfg, nil
}

// generator builds floors from the configured seed and layout without
// touching storage.
func (o *options) generator() (*tower.Generator, tower.Layout, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, tower.Layout{}, err
	}
	return tower.NewGenerator(cfg.Dungeon.WorldSeed, cfg.Dungeon.Layout), cfg.Dungeon.Layout, nil
}

// runtime opens the configured storage. The caller closes it.
func (o *options) runtime(ctx context.Context) (*app.Runtime, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, err
	}
	return app.Open(ctx, *cfg, nil)
}
