package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/delvekeep/server/internal/app"
	"github.com/lawnchairsociety/delvekeep/server/internal/gametime"
	"github.com/lawnchairsociety/delvekeep/server/internal/tower"
)

func newStateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "state <player> [level]",
		Short: "Show a player's floor records",
		Long: `Without a level, list every floor the player has visited with its respawn
status and the story milestones they have reached. With a level, show the
record of every room on that floor.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			player := strings.ToLower(args[0])
			level := 0
			if len(args) == 2 {
				l, err := parseLevel(args[1])
				if err != nil {
					return err
				}
				level = l
			}

			rt, err := opts.runtime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if level > 0 {
				return showFloor(cmd, rt, player, level)
			}
			return showFloors(cmd, rt, player)
		},
	}
}

// respawnStatus describes when a cleared floor's monsters return.
func respawnStatus(store *tower.StateStore, st *tower.FloorState) string {
	switch {
	case st.PermanentlyClear:
		return "pinned"
	case !st.EverCleared:
		return "never cleared"
	case store.ShouldRespawn(st):
		return "respawns on next visit"
	}
	return fmt.Sprintf("respawns in %dh", gametime.HoursUntil(store.Now(), store.RespawnsAt(st)))
}

func showFloors(cmd *cobra.Command, rt *app.Runtime, player string) error {
	ctx := cmd.Context()
	states, err := rt.Store.List(ctx, player)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(states) == 0 {
		fmt.Fprintf(out, "%s has no floor records.\n", player)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FLOOR\tROOM\tEXPLORED\tCLEARED\tLAST VISIT\tSTATUS")
	for _, st := range states {
		explored, cleared := 0, 0
		for _, rs := range st.RoomStates {
			if rs == nil {
				continue
			}
			if rs.IsExplored {
				explored++
			}
			if rs.IsCleared {
				cleared++
			}
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\t%s\n",
			st.FloorLevel, st.CurrentRoomID, explored, cleared,
			st.LastVisitedAt.UTC().Format(time.DateTime), respawnStatus(rt.Store, st))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if err := rt.Tracker.Load(ctx, player); err != nil {
		return err
	}
	writeLevels(out, "Gates resolved", rt.Tracker.ResolvedGates(player))
	writeLevels(out, "Seals collected", rt.Tracker.CollectedSeals(player))
	return nil
}

func writeLevels(out io.Writer, label string, levels []int) {
	if len(levels) == 0 {
		fmt.Fprintf(out, "%s: none\n", label)
		return
	}
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = fmt.Sprint(l)
	}
	fmt.Fprintf(out, "%s: %s\n", label, strings.Join(parts, ", "))
}

func showFloor(cmd *cobra.Command, rt *app.Runtime, player string, level int) error {
	st, err := rt.Store.Load(cmd.Context(), player, level)
	if err != nil {
		return err
	}
	if st == nil {
		return fmt.Errorf("%s has never visited floor %d", player, level)
	}
	floor, err := rt.Tower.Floor(level)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Floor %d for %s: standing in %s, %s\n", level, player, st.CurrentRoomID, respawnStatus(rt.Store, st))

	ids := make([]string, 0, len(st.RoomStates))
	for id := range st.RoomStates {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROOM\tNAME\tSTATE")
	for _, id := range ids {
		rs := st.RoomStates[id]
		if rs == nil {
			continue
		}
		name := "?"
		if room := floor.GetRoom(id); room != nil {
			name = room.Name
		}
		var flags []string
		for _, f := range []struct {
			set  bool
			name string
		}{
			{rs.IsExplored, "explored"},
			{rs.IsCleared, "cleared"},
			{rs.TreasureLooted, "looted"},
			{rs.TrapTriggered, "trap sprung"},
			{rs.EventCompleted, "event done"},
			{rs.PuzzleSolved, "puzzle solved"},
			{rs.RiddleAnswered, "riddle answered"},
			{rs.LoreCollected, "lore"},
			{rs.InsightGranted, "insight"},
			{rs.MemoryTriggered, "memory"},
			{rs.SecretBossDefeated, "secret boss"},
			{rs.SealClaimed, "seal"},
		} {
			if f.set {
				flags = append(flags, f.name)
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", id, name, strings.Join(flags, ", "))
	}
	return w.Flush()
}
