// Command floorwalk explores the dungeon in a terminal as a single
// player, without a server. Progress is saved to the configured storage
// the same way the server saves it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/lawnchairsociety/delvekeep/server/internal/app"
	"github.com/lawnchairsociety/delvekeep/server/internal/config"
	"github.com/lawnchairsociety/delvekeep/server/internal/dungeon"
	"github.com/lawnchairsociety/delvekeep/server/internal/logger"
	"github.com/lawnchairsociety/delvekeep/server/internal/navigator"
	"github.com/lawnchairsociety/delvekeep/server/internal/tui"
)

func main() {
	configFile := flag.String("config", "data/server.yaml", "Path to server config YAML file")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	player := flag.String("player", "", "Player whose floor records to use (required)")
	floor := flag.Int("floor", 0, "Start on this floor instead of the deepest one reached")
	emoji := flag.Bool("emoji", false, "Draw the map with emoji")
	flag.Parse()

	if *player == "" {
		fmt.Fprintln(os.Stderr, "Usage: floorwalk -player <name> [-config path] [-floor n] [-emoji]")
		os.Exit(2)
	}

	// The screen owns the terminal, so logs only go to the file.
	logConfig, _ := logger.LoadConfig(*loggingConfig)
	logConfig.ConsoleEnabled = false
	logConfig.FileEnabled = true
	if err := logger.Initialize(logConfig); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load server config %s: %v", *configFile, err)
	}

	if err := run(*cfg, strings.ToLower(*player), *floor, *emoji); err != nil {
		fmt.Fprintf(os.Stderr, "floorwalk: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, player string, floor int, emoji bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := app.Open(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.Tracker.Load(ctx, player); err != nil {
		return err
	}
	svc := rt.Services()
	svc.Notifier = dungeon.NotifierFunc(func(msg string) {
		logger.Info("Notice", "message", msg)
	})
	ctrl, err := dungeon.NewController(player, svc)
	if err != nil {
		return err
	}

	var opts []dungeon.LocationOption
	if floor > 0 {
		opts = append(opts, dungeon.WithStartFloor(floor))
	}
	loc := dungeon.NewLocation(ctrl, opts...)

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initialise terminal: %w", err)
	}
	defer screen.Fini()

	glyphs := navigator.ASCIIGlyphs
	if emoji {
		glyphs = navigator.EmojiGlyphs
	}
	logger.Info("Floorwalk started", "player", player)
	explorer := tui.NewExplorer(screen, loc, glyphs)
	if err := explorer.Run(ctx); err != nil {
		return err
	}
	// Quitting saves; closing the terminal some other way still should.
	if !explorer.Done() {
		return ctrl.Save(ctx)
	}
	return nil
}
