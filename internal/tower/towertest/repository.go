// Package towertest checks floor record repositories against the
// behaviour the state store relies on.
package towertest

import (
	"context"
	"testing"
	"time"

	"github.com/lawnchairsociety/delvekeep/server/internal/tower"
	"github.com/lawnchairsociety/delvekeep/server/internal/world"
)

// ExerciseRepository saves, overwrites and lists records through repo,
// which must start empty.
func ExerciseRepository(t *testing.T, repo tower.Repository) {
	t.Helper()
	ctx := context.Background()

	got, err := repo.LoadFloorState(ctx, "alice", 5)
	if err != nil || got != nil {
		t.Fatalf("LoadFloorState on empty repo = %v, %v", got, err)
	}

	visited := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	for _, level := range []int{9, 5, 2} {
		st := tower.NewFloorState(level)
		st.LastVisitedAt = visited
		st.CurrentRoomID = "f5_3_3"
		st.Room("f5_3_3").IsExplored = true
		st.Room("f5_3_4").IsCleared = true
		if err := repo.SaveFloorState(ctx, "alice", st); err != nil {
			t.Fatalf("SaveFloorState(%d) failed: %v", level, err)
		}
	}

	got, err = repo.LoadFloorState(ctx, "alice", 5)
	if err != nil || got == nil {
		t.Fatalf("LoadFloorState(5) = %v, %v", got, err)
	}
	if !got.LastVisitedAt.Equal(visited) || got.CurrentRoomID != "f5_3_3" {
		t.Errorf("round trip lost fields: %+v", got)
	}
	if !got.Room("f5_3_3").IsExplored || !got.Room("f5_3_4").IsCleared {
		t.Error("round trip lost room states")
	}

	// Overwrite replaces rather than appends.
	got.EverCleared = true
	if err := repo.SaveFloorState(ctx, "alice", got); err != nil {
		t.Fatalf("SaveFloorState overwrite failed: %v", err)
	}

	all, err := repo.ListFloorStates(ctx, "alice")
	if err != nil {
		t.Fatalf("ListFloorStates failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListFloorStates returned %d records, want 3", len(all))
	}
	for i, want := range []int{2, 5, 9} {
		if all[i].FloorLevel != want {
			t.Errorf("record %d level = %d, want %d", i, all[i].FloorLevel, want)
		}
	}
	if !all[1].EverCleared {
		t.Error("overwrite was not persisted")
	}

	others, _ := repo.ListFloorStates(ctx, "bob")
	if len(others) != 0 {
		t.Errorf("bob sees %d of alice's records", len(others))
	}
}

// ExerciseRoomFlags checks that every room flag survives a round trip.
func ExerciseRoomFlags(t *testing.T, repo tower.Repository) {
	t.Helper()
	ctx := context.Background()

	st := tower.NewFloorState(15)
	st.LastVisitedAt = time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	st.LastClearedAt = time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
	st.EverCleared, st.PermanentlyClear, st.BossDefeated = true, true, true
	rs := st.Room("f15_1_1")
	*rs = world.RoomState{
		IsExplored: true, IsCleared: true, TreasureLooted: true, TrapTriggered: true,
		EventCompleted: true, PuzzleSolved: true, RiddleAnswered: true, LoreCollected: true,
		InsightGranted: true, MemoryTriggered: true, SecretBossDefeated: true, SealClaimed: true,
	}
	if err := repo.SaveFloorState(ctx, "flags", st); err != nil {
		t.Fatalf("SaveFloorState failed: %v", err)
	}

	got, err := repo.LoadFloorState(ctx, "flags", 15)
	if err != nil || got == nil {
		t.Fatalf("LoadFloorState = %v, %v", got, err)
	}
	if !got.EverCleared || !got.PermanentlyClear || !got.BossDefeated {
		t.Errorf("floor flags lost: %+v", got)
	}
	if !got.LastClearedAt.Equal(st.LastClearedAt) {
		t.Errorf("LastClearedAt = %v, want %v", got.LastClearedAt, st.LastClearedAt)
	}
	if *got.Room("f15_1_1") != *rs {
		t.Errorf("room flags = %+v, want %+v", *got.Room("f15_1_1"), *rs)
	}
}
