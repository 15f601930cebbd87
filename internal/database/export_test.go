package database

import (
	"context"
	"testing"
	"time"

	"github.com/lawnchairsociety/delvekeep/server/internal/progression"
	"github.com/lawnchairsociety/delvekeep/server/internal/tower"
)

func TestListAndImportAccounts(t *testing.T) {
	src := setupTestDB(t)
	dst := setupTestDB(t)

	alice, err := src.CreateAccount("alice", "password123")
	if err != nil {
		t.Fatal(err)
	}
	if err := src.SetAdmin(alice.ID, true); err != nil {
		t.Fatal(err)
	}
	if _, err := src.CreateAccount("bob", "hunter22"); err != nil {
		t.Fatal(err)
	}

	accounts, err := src.ListAccounts()
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != 2 || accounts[0].Username != "alice" || accounts[1].Username != "bob" {
		t.Fatalf("ListAccounts = %+v", accounts)
	}

	for _, a := range accounts {
		ok, err := dst.ImportAccount(a)
		if err != nil || !ok {
			t.Fatalf("ImportAccount(%s) = %v, %v", a.Username, ok, err)
		}
	}

	got, err := dst.ValidateLogin("alice", "password123", "127.0.0.1")
	if err != nil {
		t.Fatalf("imported password hash should still verify: %v", err)
	}
	if !got.IsAdmin {
		t.Error("admin flag should survive the import")
	}

	ok, err := dst.ImportAccount(accounts[1])
	if err != nil || ok {
		t.Errorf("second import of bob = %v, %v; want skipped", ok, err)
	}
}

func TestPlayerIDs(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	ids, err := db.PlayerIDs(ctx)
	if err != nil || len(ids) != 0 {
		t.Fatalf("PlayerIDs on an empty database = %v, %v", ids, err)
	}

	state := tower.NewFloorState(3)
	state.LastVisitedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	state.CurrentRoomID = "r1"
	if err := db.SaveFloorState(ctx, "carol", state); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveFloorState(ctx, "alice", state); err != nil {
		t.Fatal(err)
	}
	if _, err := db.RecordStoryFlag(ctx, "alice", progression.FlagSealCollected, 15); err != nil {
		t.Fatal(err)
	}
	if _, err := db.RecordStoryFlag(ctx, "bob", progression.FlagGateResolved, 25); err != nil {
		t.Fatal(err)
	}

	ids, err = db.PlayerIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"alice", "bob", "carol"}
	if len(ids) != len(want) {
		t.Fatalf("PlayerIDs = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("PlayerIDs[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}
