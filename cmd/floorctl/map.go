package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/delvekeep/server/internal/navigator"
	"github.com/lawnchairsociety/delvekeep/server/internal/tower"
)

func newMapCmd(opts *options) *cobra.Command {
	var (
		player string
		from   string
		depth  int
		emoji  bool
	)
	cmd := &cobra.Command{
		Use:   "map <level>",
		Short: "Draw a floor",
		Long: `Draw a floor as a grid of rooms. Without --player the whole floor is
drawn from the entrance. With --player the map shows what that player has
explored, centred on the room they last stood in.`,
		Args: cobra.ExactArgs(1),
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

			glyphs := navigator.ASCIIGlyphs
			if emoji {
				glyphs = navigator.EmojiGlyphs
			}
			m := navigator.Layout(floor, state, from, depth)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Floor %d (%d rooms)\n\n", level, floor.RoomCount())
			fmt.Fprint(out, navigator.RenderWith(m, glyphs))
			fmt.Fprintf(out, "\n%s\n", glyphs.Legend())
			if len(m.Dropped) > 0 {
				fmt.Fprintf(out, "Not drawn (overlapping): %v\n", m.Dropped)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&player, "player", "", "Draw what this player has explored")
	cmd.Flags().StringVar(&from, "from", "", "Room to centre on (default: entrance or the player's room)")
	cmd.Flags().IntVar(&depth, "depth", 64, "How many rooms away from the centre to draw")
	cmd.Flags().BoolVar(&emoji, "emoji", false, "Draw with emoji glyphs")
	return cmd
}

// floorAndState returns the floor for level and either a fully revealed
// record or the player's stored one.
func (o *options) floorAndState(ctx context.Context, level int, player string) (*tower.Floor, *tower.FloorState, error) {
	if player == "" {
		gen, _, err := o.generator()
		if err != nil {
			return nil, nil, err
		}
		floor, err := gen.Generate(level)
		if err != nil {
			return nil, nil, err
		}
		return floor, revealed(floor), nil
	}

	rt, err := o.runtime(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer rt.Close()

	floor, err := rt.Tower.Floor(level)
	if err != nil {
		return nil, nil, err
	}
	state, err := rt.Store.Load(ctx, player, level)
	if err != nil {
		return nil, nil, err
	}
	if state == nil {
		return nil, nil, fmt.Errorf("%s has never visited floor %d", player, level)
	}
	return floor, state, nil
}
