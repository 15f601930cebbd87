package tower

import (
	"reflect"
	"testing"

	"github.com/lawnchairsociety/delvekeep/server/internal/world"
)

// lineFloor builds e - m - s in a row, with a boss room east of the
// stairs when withBoss is set.
func lineFloor(level int, withBoss bool) *Floor {
	floor := NewFloor(level)
	floor.EntranceRoomID = "e"

	e := world.NewRoom("e", "Entrance", "", world.RoomTypeEntrance)
	m := world.NewRoom("m", "Den", "", world.RoomTypeChamber)
	m.HasMonsters = true
	s := world.NewRoom("s", "Stairs", "", world.RoomTypeStairs)
	s.HasStairsDown = true

	e.AddExit(world.East, "m", "")
	m.AddExit(world.West, "e", "")
	m.AddExit(world.East, "s", "")
	s.AddExit(world.West, "m", "")

	floor.AddRoom(e)
	floor.AddRoom(m)
	floor.AddRoom(s)

	if withBoss {
		b := world.NewRoom("b", "Lair", "", world.RoomTypeBoss)
		b.IsBossRoom = true
		b.HasMonsters = true
		s.AddExit(world.East, "b", "")
		b.AddExit(world.West, "s", "")
		floor.AddRoom(b)
	}
	return floor
}

func TestFloorStateRoomCreatesOnce(t *testing.T) {
	state := NewFloorState(3)
	if _, ok := state.Peek("m"); ok {
		t.Fatal("Peek should not find an untouched room")
	}

	rs := state.Room("m")
	rs.IsCleared = true

	if got := state.Room("m"); !got.IsCleared {
		t.Error("Room should return the existing state")
	}
	if got, ok := state.Peek("m"); !ok || got != rs {
		t.Error("Peek should find the created state")
	}
}

func TestFloorStateClone(t *testing.T) {
	state := NewFloorState(3)
	state.Room("m").IsCleared = true
	state.CurrentRoomID = "m"

	clone := state.Clone()
	if !reflect.DeepEqual(state, clone) {
		t.Fatalf("clone differs: %+v vs %+v", state, clone)
	}

	clone.Room("m").IsCleared = false
	clone.Room("s").IsExplored = true
	if !state.Room("m").IsCleared {
		t.Error("mutating the clone changed the original")
	}
	if _, ok := state.Peek("s"); ok {
		t.Error("clone shares its room map with the original")
	}
}

func TestUnclearedMonsterRooms(t *testing.T) {
	floor := lineFloor(25, true)
	state := NewFloorState(25)

	if got := len(state.UnclearedMonsterRooms(floor)); got != 2 {
		t.Fatalf("fresh floor uncleared = %d, want 2", got)
	}

	state.Room("m").IsCleared = true
	got := state.UnclearedMonsterRooms(floor)
	if len(got) != 1 || got[0].ID != "b" {
		t.Errorf("uncleared = %v, want only the boss room", got)
	}
}

func TestHeal(t *testing.T) {
	tests := []struct {
		name         string
		bossResolved bool
		setup        func(*FloorState)
		wantDropped  []string
		wantBoss     []string
		wantFix      bool
		check        func(*testing.T, *FloorState)
	}{
		{
			name:  "clean record",
			setup: func(s *FloorState) { s.Room("m").IsCleared = true; s.CurrentRoomID = "m" },
			check: func(t *testing.T, s *FloorState) {
				if !s.Room("m").IsCleared || s.CurrentRoomID != "m" {
					t.Error("clean record was modified")
				}
			},
		},
		{
			name: "unknown rooms dropped",
			setup: func(s *FloorState) {
				s.Room("zz").IsExplored = true
				s.Room("aa").TreasureLooted = true
			},
			wantDropped: []string{"aa", "zz"},
			check: func(t *testing.T, s *FloorState) {
				if _, ok := s.RoomStates["zz"]; ok {
					t.Error("unknown room state survived")
				}
			},
		},
		{
			name: "boss clear without record",
			setup: func(s *FloorState) {
				s.Room("b").IsCleared = true
				s.BossDefeated = true
			},
			wantBoss: []string{"b"},
			check: func(t *testing.T, s *FloorState) {
				if s.Room("b").IsCleared || s.BossDefeated {
					t.Error("uncorroborated boss clear kept")
				}
			},
		},
		{
			name:         "boss clear corroborated",
			bossResolved: true,
			setup: func(s *FloorState) {
				s.Room("b").IsCleared = true
				s.BossDefeated = true
			},
			check: func(t *testing.T, s *FloorState) {
				if !s.Room("b").IsCleared || !s.BossDefeated {
					t.Error("corroborated boss clear was reset")
				}
			},
		},
		{
			name:    "stale current room",
			setup:   func(s *FloorState) { s.CurrentRoomID = "gone" },
			wantFix: true,
			check: func(t *testing.T, s *FloorState) {
				if s.CurrentRoomID != "e" {
					t.Errorf("CurrentRoomID = %q, want entrance", s.CurrentRoomID)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			floor := lineFloor(25, true)
			state := NewFloorState(25)
			tc.setup(state)

			report := Heal(state, floor, tc.bossResolved)

			if !reflect.DeepEqual(report.DroppedRooms, tc.wantDropped) {
				t.Errorf("DroppedRooms = %v, want %v", report.DroppedRooms, tc.wantDropped)
			}
			if !reflect.DeepEqual(report.BossReset, tc.wantBoss) {
				t.Errorf("BossReset = %v, want %v", report.BossReset, tc.wantBoss)
			}
			if report.CurrentRoomFix != tc.wantFix {
				t.Errorf("CurrentRoomFix = %v, want %v", report.CurrentRoomFix, tc.wantFix)
			}
			wantEmpty := tc.wantDropped == nil && tc.wantBoss == nil && !tc.wantFix
			if report.Empty() != wantEmpty {
				t.Errorf("Empty() = %v, want %v", report.Empty(), wantEmpty)
			}
			tc.check(t, state)
		})
	}
}
