package database

import (
	"context"
	"testing"
	"time"

	"github.com/lawnchairsociety/delvekeep/server/internal/progression"
)

func TestRecordStoryFlag(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	isNew, err := db.RecordStoryFlag(ctx, "alice", progression.FlagGateResolved, 25)
	if err != nil {
		t.Fatalf("RecordStoryFlag failed: %v", err)
	}
	if !isNew {
		t.Error("first record should be new")
	}

	isNew, err = db.RecordStoryFlag(ctx, "alice", progression.FlagGateResolved, 25)
	if err != nil {
		t.Fatalf("RecordStoryFlag failed: %v", err)
	}
	if isNew {
		t.Error("duplicate record should not be new")
	}

	// Same floor, different kind, is a separate flag.
	isNew, _ = db.RecordStoryFlag(ctx, "alice", progression.FlagSealCollected, 25)
	if !isNew {
		t.Error("different kind should be new")
	}
}

func TestLoadStoryFlags(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	records := []struct {
		kind  progression.FlagKind
		floor int
	}{
		{progression.FlagSealCollected, 30},
		{progression.FlagSealCollected, 15},
		{progression.FlagGateResolved, 25},
	}
	for i, r := range records {
		at := base.Add(time.Duration(i) * time.Hour)
		db.now = func() time.Time { return at }
		if _, err := db.RecordStoryFlag(ctx, "alice", r.kind, r.floor); err != nil {
			t.Fatal(err)
		}
	}
	db.RecordStoryFlag(ctx, "bob", progression.FlagGateResolved, 40)

	flags, err := db.LoadStoryFlags(ctx, "alice")
	if err != nil {
		t.Fatalf("LoadStoryFlags failed: %v", err)
	}
	if len(flags) != len(records) {
		t.Fatalf("got %d flags, want %d", len(flags), len(records))
	}
	for i, r := range records {
		f := flags[i]
		if f.Kind != r.kind || f.Floor != r.floor || f.PlayerID != "alice" {
			t.Errorf("flag %d = %+v, want %s on %d", i, f, r.kind, r.floor)
		}
		if want := base.Add(time.Duration(i) * time.Hour); !f.RecordedAt.Equal(want) {
			t.Errorf("flag %d recorded at %v, want %v", i, f.RecordedAt, want)
		}
	}

	none, err := db.LoadStoryFlags(ctx, "nobody")
	if err != nil || len(none) != 0 {
		t.Errorf("unknown player = %v, %v", none, err)
	}
}

func TestDeleteStoryFlag(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	db.RecordStoryFlag(ctx, "alice", progression.FlagGateResolved, 40)

	removed, err := db.DeleteStoryFlag(ctx, "alice", progression.FlagGateResolved, 40)
	if err != nil || !removed {
		t.Fatalf("DeleteStoryFlag = %v, %v", removed, err)
	}
	removed, err = db.DeleteStoryFlag(ctx, "alice", progression.FlagGateResolved, 40)
	if err != nil || removed {
		t.Errorf("second DeleteStoryFlag = %v, %v", removed, err)
	}
}

func TestTrackerOverDatabase(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	tracker := progression.NewTracker(db)
	if tracker.IsGateResolved("alice", 25) {
		t.Fatal("gate should start closed")
	}
	if _, err := tracker.Record(ctx, "alice", progression.FlagGateResolved, 25); err != nil {
		t.Fatal(err)
	}

	// A fresh tracker reads the flag back from storage.
	reloaded := progression.NewTracker(db)
	if !reloaded.IsGateResolved("alice", 25) {
		t.Error("gate flag should survive a restart")
	}
	if got := reloaded.ResolvedGates("alice"); len(got) != 1 || got[0] != 25 {
		t.Errorf("ResolvedGates = %v", got)
	}
}
