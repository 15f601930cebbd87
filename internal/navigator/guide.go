// Package navigator answers "how do I get there" and "what is around me"
// questions over a floor and a player's record of it.
package navigator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/zyedidia/generic/mapset"

	"github.com/lawnchairsociety/delvekeep/server/internal/tower"
	"github.com/lawnchairsociety/delvekeep/server/internal/world"
)

// Target selects the room a guidance search stops at.
type Target struct {
	Name  string
	match func(room *world.Room, rs *world.RoomState) bool
}

// Matches reports whether room satisfies the target.
func (t Target) Matches(room *world.Room, rs *world.RoomState) bool {
	return t.match(room, rs)
}

var (
	NearestUnexplored = Target{Name: "unexplored", match: func(_ *world.Room, rs *world.RoomState) bool {
		return !rs.IsExplored
	}}
	NearestUncleared = Target{Name: "uncleared", match: func(r *world.Room, rs *world.RoomState) bool {
		return r.HasMonsters && !rs.IsCleared
	}}
	NearestStairs = Target{Name: "stairs", match: func(r *world.Room, _ *world.RoomState) bool {
		return r.HasStairsDown
	}}
	NearestBoss = Target{Name: "boss", match: func(r *world.Room, _ *world.RoomState) bool {
		return r.IsBossRoom
	}}
)

// RoomTarget matches one room by id.
func RoomTarget(roomID string) Target {
	return Target{Name: roomID, match: func(r *world.Room, _ *world.RoomState) bool {
		return r.ID == roomID
	}}
}

// ParseTarget maps a player's word to a target. Anything that is not a
// known keyword is treated as a room id.
func ParseTarget(s string) Target {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unexplored", "explore":
		return NearestUnexplored
	case "uncleared", "monsters", "fight":
		return NearestUncleared
	case "stairs", "down", "exit":
		return NearestStairs
	case "boss", "lair":
		return NearestBoss
	}
	return RoomTarget(strings.TrimSpace(s))
}

// Path is a route through a floor. Rooms includes the start room, so a
// path of n hops has n+1 rooms and n directions.
type Path struct {
	Rooms      []string
	Directions []world.Direction
}

// Len returns the number of hops.
func (p Path) Len() int { return len(p.Directions) }

// Destination returns the last room on the path.
func (p Path) Destination() string {
	if len(p.Rooms) == 0 {
		return ""
	}
	return p.Rooms[len(p.Rooms)-1]
}

// String renders the directions, e.g. "north, north, east".
func (p Path) String() string {
	if p.Len() == 0 {
		return "You are already there."
	}
	parts := make([]string, len(p.Directions))
	for i, d := range p.Directions {
		parts[i] = d.String()
	}
	unit := "steps"
	if p.Len() == 1 {
		unit = "step"
	}
	return fmt.Sprintf("%s (%d %s)", strings.Join(parts, ", "), p.Len(), unit)
}

func roomState(state *tower.FloorState, roomID string) *world.RoomState {
	if state != nil {
		if rs, ok := state.Peek(roomID); ok {
			return rs
		}
	}
	return &world.RoomState{}
}

// Guide finds the shortest path from the room from to the nearest room
// matching target. Only explored rooms are walked through; an unexplored
// room may end a path but never continues one. Ties go to whichever room
// was reached first in north, east, south, west exit order.
func Guide(floor *tower.Floor, state *tower.FloorState, from string, target Target) (Path, bool) {
	start := floor.GetRoom(from)
	if start == nil {
		return Path{}, false
	}

	type step struct {
		prev string
		dir  world.Direction
	}
	parents := make(map[string]step)
	visited := mapset.New[string]()
	visited.Put(from)
	queue := []string{from}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		room := floor.GetRoom(id)
		rs := roomState(state, id)

		if target.Matches(room, rs) {
			var path Path
			for cur := id; cur != from; cur = parents[cur].prev {
				path.Rooms = append(path.Rooms, cur)
				path.Directions = append(path.Directions, parents[cur].dir)
			}
			path.Rooms = append(path.Rooms, from)
			slices.Reverse(path.Rooms)
			slices.Reverse(path.Directions)
			return path, true
		}

		if id != from && !rs.IsExplored {
			continue
		}

		for _, dir := range room.ExitDirections() {
			next := room.Exits[dir].TargetRoomID
			if visited.Has(next) || !floor.HasRoom(next) {
				continue
			}
			visited.Put(next)
			parents[next] = step{prev: id, dir: dir}
			queue = append(queue, next)
		}
	}

	return Path{}, false
}
