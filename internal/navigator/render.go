package navigator

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/lawnchairsociety/delvekeep/server/internal/world"
)

// cellWidth is the display width every glyph is padded to.
const cellWidth = 2

// Glyphs is the symbol set a map is drawn with.
type Glyphs struct {
	Current    string
	Fog        string
	Boss       string
	Monsters   string
	Stairs     string
	Entrance   string
	Feature    string
	Room       string
	EastWest   string
	NorthSouth string
}

// ASCIIGlyphs draws with plain characters, for telnet clients.
var ASCIIGlyphs = Glyphs{
	Current:    "@",
	Fog:        "?",
	Boss:       "B",
	Monsters:   "!",
	Stairs:     ">",
	Entrance:   "<",
	Feature:    "*",
	Room:       "#",
	EastWest:   "-",
	NorthSouth: "|",
}

// EmojiGlyphs draws with emoji, for websocket and terminal clients.
var EmojiGlyphs = Glyphs{
	Current:    "🧙",
	Fog:        "🌫",
	Boss:       "💀",
	Monsters:   "👹",
	Stairs:     "🪜",
	Entrance:   "🚪",
	Feature:    "✨",
	Room:       "⬛",
	EastWest:   "-",
	NorthSouth: "|",
}

// Glyph returns the symbol for a cell.
func (g Glyphs) Glyph(c Cell) string {
	switch {
	case c.Current:
		return g.Current
	case c.Fog:
		return g.Fog
	case c.Room.IsBossRoom && !c.State.IsCleared:
		return g.Boss
	case c.Room.HasMonsters && !c.State.IsCleared:
		return g.Monsters
	case c.Room.HasStairsDown:
		return g.Stairs
	case c.Room.Type == world.RoomTypeEntrance:
		return g.Entrance
	case hasPendingFeature(c):
		return g.Feature
	default:
		return g.Room
	}
}

func hasPendingFeature(c Cell) bool {
	for _, f := range c.Room.Features {
		if !c.State.Interacted(f.Kind) {
			return true
		}
	}
	return false
}

// Render draws the map with ASCII glyphs.
func Render(m Map) string {
	return RenderWith(m, ASCIIGlyphs)
}

// RenderWith draws the map as text, one grid row per map row and one
// connector row between them. Every glyph is padded to the same display
// width so wide runes keep columns aligned.
func RenderWith(m Map, g Glyphs) string {
	if len(m.Cells) == 0 {
		return ""
	}
	lo, hi := m.Bounds()
	blank := strings.Repeat(" ", cellWidth)

	var sb strings.Builder
	for y := lo.Y; y <= hi.Y; y++ {
		var row, below strings.Builder
		for x := lo.X; x <= hi.X; x++ {
			p := Point{X: x, Y: y}
			cell, ok := m.Cells[p]
			if !ok {
				row.WriteString(blank)
				below.WriteString(blank)
			} else {
				row.WriteString(runewidth.FillRight(g.Glyph(cell), cellWidth))
				if m.Connected(p, world.South) {
					below.WriteString(runewidth.FillRight(g.NorthSouth, cellWidth))
				} else {
					below.WriteString(blank)
				}
			}

			if x < hi.X {
				if m.Connected(p, world.East) {
					row.WriteString(g.EastWest)
				} else {
					row.WriteString(" ")
				}
				below.WriteString(" ")
			}
		}

		sb.WriteString(strings.TrimRight(row.String(), " "))
		sb.WriteString("\n")
		if y < hi.Y {
			sb.WriteString(strings.TrimRight(below.String(), " "))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Legend describes the glyphs.
func (g Glyphs) Legend() string {
	entries := []struct{ glyph, label string }{
		{g.Current, "you"},
		{g.Fog, "unexplored"},
		{g.Boss, "boss"},
		{g.Monsters, "monsters"},
		{g.Stairs, "stairs down"},
		{g.Entrance, "entrance"},
		{g.Feature, "something to examine"},
		{g.Room, "room"},
	}
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = runewidth.FillRight(e.glyph, cellWidth) + e.label
	}
	return strings.Join(parts, "  ")
}
