package tower

import (
	"sort"
	"time"

	"github.com/lawnchairsociety/delvekeep/server/internal/world"
)

// FloorState is one player's durable record of one floor.
type FloorState struct {
	FloorLevel       int                         `yaml:"floor_level" json:"floor_level"`
	LastVisitedAt    time.Time                   `yaml:"last_visited_at" json:"last_visited_at"`
	LastClearedAt    time.Time                   `yaml:"last_cleared_at,omitempty" json:"last_cleared_at,omitempty"`
	CurrentRoomID    string                      `yaml:"current_room_id" json:"current_room_id"`
	EverCleared      bool                        `yaml:"ever_cleared" json:"ever_cleared"`
	PermanentlyClear bool                        `yaml:"permanently_clear" json:"permanently_clear"`
	BossDefeated     bool                        `yaml:"boss_defeated" json:"boss_defeated"`
	RoomStates       map[string]*world.RoomState `yaml:"room_states" json:"room_states"`
}

// NewFloorState creates an empty record for a first visit.
func NewFloorState(level int) *FloorState {
	return &FloorState{
		FloorLevel: level,
		RoomStates: make(map[string]*world.RoomState),
	}
}

// Room returns the state for roomID, creating it on first use.
func (s *FloorState) Room(roomID string) *world.RoomState {
	if s.RoomStates == nil {
		s.RoomStates = make(map[string]*world.RoomState)
	}
	rs, ok := s.RoomStates[roomID]
	if !ok || rs == nil {
		rs = &world.RoomState{}
		s.RoomStates[roomID] = rs
	}
	return rs
}

// Peek returns the state for roomID without creating it.
func (s *FloorState) Peek(roomID string) (*world.RoomState, bool) {
	rs, ok := s.RoomStates[roomID]
	return rs, ok && rs != nil
}

// Clone returns a deep copy.
func (s *FloorState) Clone() *FloorState {
	c := *s
	c.RoomStates = make(map[string]*world.RoomState, len(s.RoomStates))
	for id, rs := range s.RoomStates {
		if rs != nil {
			c.RoomStates[id] = rs.Clone()
		}
	}
	return &c
}

// UnclearedMonsterRooms returns the monster rooms of floor not yet cleared.
func (s *FloorState) UnclearedMonsterRooms(floor *Floor) []*world.Room {
	var out []*world.Room
	for _, r := range floor.MonsterRooms() {
		if rs, ok := s.Peek(r.ID); !ok || !rs.IsCleared {
			out = append(out, r)
		}
	}
	return out
}

// HealReport describes corrections made to a loaded record.
type HealReport struct {
	DroppedRooms   []string // Room ids no longer present on the floor
	BossReset      []string // Boss rooms whose clear was not corroborated
	CurrentRoomFix bool     // CurrentRoomID did not exist and was reset
}

// Empty reports whether nothing was corrected.
func (r HealReport) Empty() bool {
	return len(r.DroppedRooms) == 0 && len(r.BossReset) == 0 && !r.CurrentRoomFix
}

// Heal reconciles a loaded record with the regenerated floor. States for
// rooms that no longer exist are dropped, a cleared boss room stays
// cleared only when bossResolved confirms it, and a stale current room
// falls back to the entrance.
func Heal(state *FloorState, floor *Floor, bossResolved bool) HealReport {
	var report HealReport

	for id := range state.RoomStates {
		if !floor.HasRoom(id) {
			report.DroppedRooms = append(report.DroppedRooms, id)
		}
	}
	sort.Strings(report.DroppedRooms)
	for _, id := range report.DroppedRooms {
		delete(state.RoomStates, id)
	}

	for _, room := range floor.Rooms {
		if !room.IsBossRoom {
			continue
		}
		if rs, ok := state.Peek(room.ID); ok && rs.IsCleared && !bossResolved {
			rs.IsCleared = false
			report.BossReset = append(report.BossReset, room.ID)
		}
	}
	if !bossResolved && state.BossDefeated {
		state.BossDefeated = false
	}

	if state.CurrentRoomID != "" && !floor.HasRoom(state.CurrentRoomID) {
		state.CurrentRoomID = floor.EntranceRoomID
		report.CurrentRoomFix = true
	}

	return report
}
