package tower

import (
	"github.com/lawnchairsociety/delvekeep/server/internal/world"
)

// Floor is one generated level of the dungeon: its rooms, their exits
// and the entrance. A Floor never changes after generation, so a single
// instance may be shared by every player on that level.
type Floor struct {
	Level          int
	Theme          *Theme
	Difficulty     int
	EntranceRoomID string
	Seed           int64
	Rooms          []*world.Room

	index map[string]*world.Room
}

// NewFloor creates an empty floor
func NewFloor(level int) *Floor {
	return &Floor{
		Level:      level,
		Theme:      ThemeForLevel(level),
		Difficulty: Difficulty(level),
		index:      make(map[string]*world.Room),
	}
}

// AddRoom appends a room, keeping generation order.
func (f *Floor) AddRoom(room *world.Room) {
	f.Rooms = append(f.Rooms, room)
	f.index[room.ID] = room
}

// GetRoom returns a room by ID, or nil.
func (f *Floor) GetRoom(roomID string) *world.Room {
	return f.index[roomID]
}

// HasRoom reports whether the floor has a room with the ID.
func (f *Floor) HasRoom(roomID string) bool {
	_, ok := f.index[roomID]
	return ok
}

// Entrance returns the room players arrive in.
func (f *Floor) Entrance() *world.Room {
	return f.index[f.EntranceRoomID]
}

// RoomCount returns the number of rooms on this floor
func (f *Floor) RoomCount() int {
	return len(f.Rooms)
}

// StairsRooms returns every room with stairs leading deeper.
func (f *Floor) StairsRooms() []*world.Room {
	return f.filter(func(r *world.Room) bool { return r.HasStairsDown })
}

// MonsterRooms returns every room that can hold monsters.
func (f *Floor) MonsterRooms() []*world.Room {
	return f.filter(func(r *world.Room) bool { return r.HasMonsters })
}

// BossRoom returns the boss lair, or nil on floors without one.
func (f *Floor) BossRoom() *world.Room {
	for _, r := range f.Rooms {
		if r.IsBossRoom {
			return r
		}
	}
	return nil
}

// FeatureRoom returns the first room holding a feature of the given kind.
func (f *Floor) FeatureRoom(kind world.FeatureKind) *world.Room {
	for _, r := range f.Rooms {
		if r.HasFeature(kind) {
			return r
		}
	}
	return nil
}

func (f *Floor) filter(keep func(*world.Room) bool) []*world.Room {
	var out []*world.Room
	for _, r := range f.Rooms {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Neighbor returns the room reached by leaving roomID in dir.
func (f *Floor) Neighbor(roomID string, dir world.Direction) *world.Room {
	room := f.index[roomID]
	if room == nil {
		return nil
	}
	exit, ok := room.Exits[dir]
	if !ok {
		return nil
	}
	return f.index[exit.TargetRoomID]
}
