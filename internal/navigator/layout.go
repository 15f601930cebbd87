package navigator

import (
	"github.com/zyedidia/generic/mapset"

	"github.com/lawnchairsociety/delvekeep/server/internal/tower"
	"github.com/lawnchairsociety/delvekeep/server/internal/world"
)

// DefaultDepth is how many hops from the player a map shows.
const DefaultDepth = 3

// Point is a map coordinate. North is y-1.
type Point struct {
	X, Y int
}

func (p Point) step(dir world.Direction) Point {
	dx, dy := dir.Offset()
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Cell is one placed room.
type Cell struct {
	Room     *world.Room
	State    world.RoomState
	Fog      bool // Seen through an exit but never entered
	Current  bool
	Distance int
}

// Map is a local spatial layout around a room.
type Map struct {
	Cells   map[Point]Cell
	Origin  Point
	Dropped []string // Rooms that collided with an already placed room
}

// Bounds returns the smallest rectangle covering every cell.
func (m Map) Bounds() (lo, hi Point) {
	first := true
	for p := range m.Cells {
		if first {
			lo, hi = p, p
			first = false
			continue
		}
		if p.X < lo.X {
			lo.X = p.X
		}
		if p.Y < lo.Y {
			lo.Y = p.Y
		}
		if p.X > hi.X {
			hi.X = p.X
		}
		if p.Y > hi.Y {
			hi.Y = p.Y
		}
	}
	return lo, hi
}

// Connected reports whether the rooms at a and its neighbour in dir are
// joined by an exit.
func (m Map) Connected(a Point, dir world.Direction) bool {
	from, ok := m.Cells[a]
	if !ok {
		return false
	}
	to, ok := m.Cells[a.step(dir)]
	if !ok {
		return false
	}
	exit, ok := from.Room.GetExit(dir)
	return ok && exit.TargetRoomID == to.Room.ID
}

// Layout places rooms within depth hops of from on a grid, walking exits
// breadth first from explored rooms. Unexplored neighbours are placed as
// fog and not expanded. A room whose position is already taken by a
// different room is left off the map and listed in Dropped.
func Layout(floor *tower.Floor, state *tower.FloorState, from string, depth int) Map {
	m := Map{Cells: make(map[Point]Cell)}
	start := floor.GetRoom(from)
	if start == nil {
		return m
	}
	if depth < 0 {
		depth = DefaultDepth
	}

	type entry struct {
		id  string
		pos Point
	}

	placed := mapset.New[string]()
	dropped := mapset.New[string]()
	placed.Put(from)
	m.Cells[m.Origin] = Cell{Room: start, State: *roomState(state, from), Current: true}
	queue := []entry{{id: from, pos: m.Origin}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		cell := m.Cells[cur.pos]

		if cell.Distance >= depth || cell.Fog {
			continue
		}

		for _, dir := range cell.Room.ExitDirections() {
			nextID := cell.Room.Exits[dir].TargetRoomID
			next := floor.GetRoom(nextID)
			if next == nil || placed.Has(nextID) || dropped.Has(nextID) {
				continue
			}

			pos := cur.pos.step(dir)
			if _, taken := m.Cells[pos]; taken {
				dropped.Put(nextID)
				m.Dropped = append(m.Dropped, nextID)
				continue
			}

			rs := roomState(state, nextID)
			placed.Put(nextID)
			m.Cells[pos] = Cell{
				Room:     next,
				State:    *rs,
				Fog:      !rs.IsExplored,
				Distance: cell.Distance + 1,
			}
			queue = append(queue, entry{id: nextID, pos: pos})
		}
	}

	return m
}
