package world

import "testing"

func TestRoomTypeString(t *testing.T) {
	tests := []struct {
		rt   RoomType
		want string
	}{
		{RoomTypeChamber, "chamber"},
		{RoomTypeCorridor, "corridor"},
		{RoomTypeAlcove, "alcove"},
		{RoomTypeShrine, "shrine"},
		{RoomTypeLibrary, "library"},
		{RoomTypeVault, "vault"},
		{RoomTypeStairs, "stairs"},
		{RoomTypeEntrance, "entrance"},
		{RoomTypeBoss, "boss"},
		{RoomType(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.rt.String(); got != tt.want {
			t.Errorf("RoomType(%d).String() = %q, want %q", tt.rt, got, tt.want)
		}
	}
}

func TestRoomTypeIsSafe(t *testing.T) {
	if !RoomTypeEntrance.IsSafe() {
		t.Error("Entrance should be safe")
	}
	if RoomTypeBoss.IsSafe() {
		t.Error("Boss should not be safe")
	}
}

func TestRoomTypeBaseDanger(t *testing.T) {
	if got := RoomTypeBoss.BaseDanger(); got != 3 {
		t.Errorf("Boss BaseDanger() = %d, want 3", got)
	}
	if got := RoomTypeEntrance.BaseDanger(); got != 0 {
		t.Errorf("Entrance BaseDanger() = %d, want 0", got)
	}
}

func TestParseRoomType(t *testing.T) {
	for rt, name := range roomTypeNames {
		got, ok := ParseRoomType(name)
		if !ok || got != rt {
			t.Errorf("ParseRoomType(%q) = %v, %v; want %v, true", name, got, ok, rt)
		}
	}

	if _, ok := ParseRoomType("ballroom"); ok {
		t.Error("ParseRoomType(ballroom) should fail")
	}
}
