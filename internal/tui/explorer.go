// Package tui is a terminal explorer for a single player's dungeon, drawn
// with tcell.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/lawnchairsociety/delvekeep/server/internal/dungeon"
	"github.com/lawnchairsociety/delvekeep/server/internal/navigator"
)

const maxLog = 6

var (
	styleDefault = tcell.StyleDefault
	styleTitle   = tcell.StyleDefault.Bold(true)
	styleDim     = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// Explorer draws a player's floor and turns key presses into dungeon
// commands.
type Explorer struct {
	screen tcell.Screen
	loc    *dungeon.Location
	glyphs navigator.Glyphs
	log    []string
	done   bool
}

// NewExplorer creates an explorer that draws on screen. The screen must
// already be initialised.
func NewExplorer(screen tcell.Screen, loc *dungeon.Location, glyphs navigator.Glyphs) *Explorer {
	return &Explorer{screen: screen, loc: loc, glyphs: glyphs}
}

// Done reports whether the player has quit.
func (e *Explorer) Done() bool { return e.done }

// Log returns the most recent messages, oldest first.
func (e *Explorer) Log() []string { return e.log }

// Start enters the dungeon and draws the first frame.
func (e *Explorer) Start(ctx context.Context) error {
	resp, err := e.loc.OnEnter(ctx)
	if err != nil {
		return err
	}
	e.push(resp.Text)
	e.Draw()
	return nil
}

// Run draws and handles events until the player quits or the screen
// is finalised.
func (e *Explorer) Run(ctx context.Context) error {
	if err := e.Start(ctx); err != nil {
		return err
	}
	for !e.done {
		ev := e.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if err := e.HandleEvent(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// HandleEvent applies one terminal event.
func (e *Explorer) HandleEvent(ctx context.Context, ev tcell.Event) error {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		e.screen.Sync()
	case *tcell.EventKey:
		input := keyToCommand(ev)
		if input == "" {
			return nil
		}
		resp, err := e.loc.HandleChoice(ctx, input)
		if err != nil {
			return err
		}
		e.push(resp.Text)
		if resp.Quit {
			e.done = true
		}
	}
	e.Draw()
	return nil
}

// keyToCommand maps a key press to the command it stands for.
func keyToCommand(ev *tcell.EventKey) string {
	switch ev.Key() {
	case tcell.KeyUp:
		return "north"
	case tcell.KeyDown:
		return "south"
	case tcell.KeyRight:
		return "east"
	case tcell.KeyLeft:
		return "west"
	case tcell.KeyEscape:
		return "quit"
	}
	switch ev.Rune() {
	case 'k', 'K':
		return "north"
	case 'j', 'J':
		return "south"
	case 'l', 'L':
		return "east"
	case 'h', 'H':
		return "west"
	case 'c':
		return "clear"
	case 'o':
		return "loot"
	case 'x':
		return "disarm"
	case 'g':
		return "guide unexplored"
	case 'b':
		return "guide boss"
	case '>':
		return "descend"
	case '<':
		return "ascend"
	case 'q', 'Q':
		return "quit"
	}
	return ""
}

func (e *Explorer) push(text string) {
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		if line == "" {
			continue
		}
		e.log = append(e.log, line)
	}
	if len(e.log) > maxLog {
		e.log = e.log[len(e.log)-maxLog:]
	}
}

// Draw renders the current frame.
func (e *Explorer) Draw() {
	e.screen.Clear()
	_, sh := e.screen.Size()
	ctrl := e.loc.Controller()

	title := "Not in the dungeon"
	if room := ctrl.CurrentRoom(); room != nil {
		title = fmt.Sprintf("Floor %d - %s", ctrl.Level(), room.Name)
		if ctrl.FloorCleared() {
			title += " (cleared)"
		}
	}
	putText(e.screen, 0, 0, title, styleTitle)

	y := 2
	if ctrl.CurrentRoom() != nil {
		for _, line := range strings.Split(strings.TrimRight(navigator.RenderWith(ctrl.Map(), e.glyphs), "\n"), "\n") {
			putText(e.screen, 1, y, line, styleDefault)
			y++
		}
	}

	logTop := sh - maxLog - 2
	if logTop < y+1 {
		logTop = y + 1
	}
	for i, line := range e.log {
		putText(e.screen, 0, logTop+i, line, styleDefault)
	}
	putText(e.screen, 0, sh-1, "arrows/hjkl move  c clear  o loot  x disarm  g guide  > down  < up  q quit", styleDim)
	e.screen.Show()
}

// putText writes s starting at (x, y), advancing by each rune's display
// width. It stops at the right edge of the screen.
func putText(scr tcell.Screen, x, y int, s string, st tcell.Style) {
	sw, _ := scr.Size()
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if x+w > sw {
			break
		}
		scr.SetContent(x, y, r, nil, st)
		x += w
	}
}
