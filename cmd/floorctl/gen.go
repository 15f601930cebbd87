package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/delvekeep/server/internal/tower"
)

func parseLevel(s string) (int, error) {
	level, err := strconv.Atoi(s)
	if err != nil || level < 1 {
		return 0, fmt.Errorf("%q is not a floor number", s)
	}
	return level, nil
}

// floorKind names what kind of progression floor level is.
func floorKind(layout tower.Layout, level int) string {
	switch {
	case layout.IsTerminal(level):
		return "terminal"
	case layout.IsGate(level):
		return "gate"
	case layout.IsSeal(level):
		return "seal"
	case layout.IsSecretBoss(level):
		return "secret boss"
	}
	return "ordinary"
}

func newGenCmd(opts *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "gen <level>",
		Short: "Generate a floor and print it as YAML",
		Long: `Generate the floor for a level from the configured world seed, validate it
and print its rooms, exits and contents as YAML. Generation is
deterministic: the same seed and level always give the same floor.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLevel(args[0])
			if err != nil {
				return err
			}
			gen, _, err := opts.generator()
			if err != nil {
				return err
			}
			floor, err := gen.Generate(level)
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(tower.NewFloorYAML(floor))
			if err != nil {
				return err
			}
			if out != "" {
				if err := os.WriteFile(out, data, 0644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Floor %d written to %s\n", level, out)
				return nil
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>...",
		Short: "Validate floor YAML files",
		Long: `Load floors written by gen (possibly edited by hand) and check that every
room is reachable from the entrance, exits are two-way and the floor has
the stairs or boss lair its level requires.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			layout := cfg.Dungeon.Layout
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				floor, err := tower.LoadFloorFromYAML(path)
				if err == nil {
					err = tower.Validate(floor, layout)
				}
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(out, "ok   %s: floor %d (%s), %d rooms\n",
					path, floor.Level, floorKind(layout, floor.Level), floor.RoomCount())
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d floors failed validation", failed, len(args))
			}
			return nil
		},
	}
}

// revealed returns a record in which every room of floor is explored,
// standing at the entrance.
func revealed(floor *tower.Floor) *tower.FloorState {
	state := tower.NewFloorState(floor.Level)
	state.CurrentRoomID = floor.EntranceRoomID
	for _, r := range floor.Rooms {
		state.Room(r.ID).IsExplored = true
	}
	return state
}
