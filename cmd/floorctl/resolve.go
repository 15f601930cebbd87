package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/delvekeep/server/internal/progression"
)

func newResolveCmd(opts *options) *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "resolve <player> <gate|seal> <floor>",
		Short: "Record or remove a story milestone",
		Long: `Record that a player has resolved a gate floor or collected a seal, as if
they had done it in the dungeon. With --undo the milestone is removed
instead. A player who is online picks up the change on next login.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			player := strings.ToLower(args[0])
			kind, err := progression.ParseFlagKind(args[1])
			if err != nil {
				return err
			}
			level, err := parseLevel(args[2])
			if err != nil {
				return err
			}

			rt, err := opts.runtime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			layout := rt.Config.Dungeon.Layout
			if kind == progression.FlagGateResolved && !layout.IsGate(level) {
				return fmt.Errorf("floor %d is not a gate floor", level)
			}
			if kind == progression.FlagSealCollected && !layout.IsSeal(level) {
				return fmt.Errorf("floor %d is not a seal floor", level)
			}

			out := cmd.OutOrStdout()
			if undo {
				editor, ok := rt.StoryEditor()
				if !ok {
					return errors.New("the configured storage cannot remove story flags")
				}
				removed, err := editor.DeleteStoryFlag(cmd.Context(), player, kind, level)
				if err != nil {
					return err
				}
				if !removed {
					fmt.Fprintf(out, "%s has no %s on floor %d.\n", player, kind, level)
					return nil
				}
				fmt.Fprintf(out, "Removed %s on floor %d for %s.\n", kind, level, player)
				return nil
			}

			added, err := rt.Tracker.Record(cmd.Context(), player, kind, level)
			if err != nil {
				return err
			}
			if !added {
				fmt.Fprintf(out, "%s on floor %d was already recorded for %s.\n", kind, level, player)
				return nil
			}
			fmt.Fprintf(out, "Recorded %s on floor %d for %s.\n", kind, level, player)
			return nil
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "Remove the milestone instead of recording it")
	return cmd
}
