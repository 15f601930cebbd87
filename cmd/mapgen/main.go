// Command mapgen draws an atlas of generated floors: every room of each
// floor in a range, with a summary line per floor.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/lawnchairsociety/delvekeep/server/internal/config"
	"github.com/lawnchairsociety/delvekeep/server/internal/navigator"
	"github.com/lawnchairsociety/delvekeep/server/internal/tower"
)

// atlasDepth is large enough to reach every room of any generated floor.
const atlasDepth = 256

func main() {
	configFile := flag.String("config", "data/server.yaml", "Path to server config YAML file")
	seed := flag.Int64("seed", 0, "Override the configured world seed")
	from := flag.Int("from", 1, "First floor to draw")
	to := flag.Int("to", 0, "Last floor to draw (default: same as -from)")
	outputFile := flag.String("output", "", "Output file (empty for stdout)")
	showLegend := flag.Bool("legend", true, "Show legend")
	emoji := flag.Bool("emoji", false, "Draw with emoji glyphs")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *seed != 0 {
		cfg.Dungeon.WorldSeed = *seed
	}
	if *to == 0 {
		*to = *from
	}

	var out io.Writer = os.Stdout
	if *outputFile != "" {
		f, err := os.Create(*outputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	glyphs := navigator.ASCIIGlyphs
	if *emoji {
		glyphs = navigator.EmojiGlyphs
	}

	w := bufio.NewWriter(out)
	gen := tower.NewGenerator(cfg.Dungeon.WorldSeed, cfg.Dungeon.Layout)
	atlasErr := writeAtlas(w, gen, *from, *to, glyphs, *showLegend)
	if err := w.Flush(); err != nil && atlasErr == nil {
		atlasErr = err
	}
	if atlasErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", atlasErr)
		os.Exit(1)
	}
	if *outputFile != "" {
		fmt.Printf("Atlas written to %s\n", *outputFile)
	}
}

// writeAtlas draws floors from..to. Floors that fail generation are
// reported and skipped; the first such error is returned at the end.
func writeAtlas(w io.Writer, gen *tower.Generator, from, to int, glyphs navigator.Glyphs, legend bool) error {
	layout := gen.Layout
	if from < 1 || to > layout.MaxFloor || from > to {
		return fmt.Errorf("floor range %d..%d is outside 1..%d", from, to, layout.MaxFloor)
	}

	var firstErr error
	for level := from; level <= to; level++ {
		floor, err := gen.Generate(level)
		if err != nil {
			fmt.Fprintf(w, "=== Floor %d: %v ===\n\n", level, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		state := tower.NewFloorState(level)
		for _, r := range floor.Rooms {
			state.Room(r.ID).IsExplored = true
		}
		m := navigator.Layout(floor, state, floor.EntranceRoomID, atlasDepth)

		theme := ""
		if floor.Theme != nil {
			theme = " - " + floor.Theme.Name
		}
		fmt.Fprintf(w, "=== Floor %d%s ===\n", level, theme)
		fmt.Fprintf(w, "%d rooms, %d with monsters, difficulty %d, seed %d\n",
			floor.RoomCount(), len(floor.MonsterRooms()), floor.Difficulty, floor.Seed)
		if layout.IsGate(level) {
			fmt.Fprintln(w, "Gate floor: the guardian must fall before anyone goes deeper.")
		}
		if layout.IsSeal(level) {
			fmt.Fprintln(w, "Seal floor: clearing it pins it forever.")
		}
		if layout.IsSecretBoss(level) {
			fmt.Fprintln(w, "Secret boss floor.")
		}
		fmt.Fprintln(w)
		fmt.Fprint(w, navigator.RenderWith(m, glyphs))
		fmt.Fprintln(w)
		if len(m.Dropped) > 0 {
			fmt.Fprintf(w, "Not drawn (overlapping): %v\n\n", m.Dropped)
		}
	}

	if legend {
		fmt.Fprintln(w, glyphs.Legend())
	}
	return firstErr
}
