package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/delvekeep/server/internal/navigator"
)

func newPathCmd(opts *options) *cobra.Command {
	var (
		player string
		from   string
	)
	cmd := &cobra.Command{
		Use:   "path <level> <target>",
		Short: "Find the shortest route to a room",
		Long: `Find the shortest route on a floor. The target is a room id or one of
unexplored, uncleared, stairs or boss. Routes only pass through explored
rooms, so without --player every room counts as explored.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLevel(args[0])
			if err != nil {
				return err
			}
			floor, state, err := opts.floorAndState(cmd.Context(), level, player)
			if err != nil {
				return err
			}
			if from == "" {
				from = state.CurrentRoomID
			}
			if !floor.HasRoom(from) {
				return fmt.Errorf("floor %d has no room %q", level, from)
			}

			target := navigator.ParseTarget(args[1])
			path, ok := navigator.Guide(floor, state, from, target)
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintf(out, "No route from %s to %s.\n", from, target.Name)
				return nil
			}
			fmt.Fprintln(out, path.String())
			fmt.Fprintln(out, strings.Join(path.Rooms, " -> "))
			return nil
		},
	}
	cmd.Flags().StringVar(&player, "player", "", "Route through what this player has explored")
	cmd.Flags().StringVar(&from, "from", "", "Starting room (default: entrance or the player's room)")
	return cmd
}
