package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/lawnchairsociety/delvekeep/server/internal/config"
	"github.com/lawnchairsociety/delvekeep/server/internal/database"
	"github.com/lawnchairsociety/delvekeep/server/internal/dungeon"
	"github.com/lawnchairsociety/delvekeep/server/internal/gametime"
	"github.com/lawnchairsociety/delvekeep/server/internal/progression"
	"github.com/lawnchairsociety/delvekeep/server/internal/redisstore"
	"github.com/lawnchairsociety/delvekeep/server/internal/tower"
)

func testConfig(t *testing.T, driver string) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := *config.DefaultConfig()
	cfg.Storage.Driver = driver
	cfg.Storage.SQLitePath = filepath.Join(dir, "accounts.db")
	cfg.Storage.FileDir = filepath.Join(dir, "players")
	return cfg
}

func openRuntime(t *testing.T, cfg config.Config) *Runtime {
	t.Helper()
	clock := gametime.NewManualClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	rt, err := Open(context.Background(), cfg, clock)
	if err != nil {
		t.Fatalf("Open(%s) failed: %v", cfg.Storage.Driver, err)
	}
	t.Cleanup(func() { rt.Close() })
	return rt
}

// playFloorOne enters floor 1, saves and returns what the repository holds.
func playFloorOne(t *testing.T, rt *Runtime) *tower.FloorState {
	t.Helper()
	ctx := context.Background()
	ctrl, err := dungeon.NewController("alice", rt.Services())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ctrl.Enter(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if err := ctrl.Save(ctx); err != nil {
		t.Fatal(err)
	}
	state, err := rt.Repo.LoadFloorState(ctx, "alice", 1)
	if err != nil || state == nil {
		t.Fatalf("LoadFloorState = %+v, %v", state, err)
	}
	return state
}

func TestOpenDrivers(t *testing.T) {
	tests := []struct {
		driver   string
		repo     any
		story    any
		editable bool
	}{
		{config.DriverSQLite, &database.Database{}, &database.Database{}, true},
		{config.DriverFile, &tower.FileRepository{}, &database.Database{}, true},
		{config.DriverMemory, &tower.MemoryRepository{}, &progression.MemoryStore{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			rt := openRuntime(t, testConfig(t, tt.driver))

			if got, want := typeName(rt.Repo), typeName(tt.repo); got != want {
				t.Errorf("Repo is %s, want %s", got, want)
			}
			if got, want := typeName(rt.Story), typeName(tt.story); got != want {
				t.Errorf("Story is %s, want %s", got, want)
			}
			if _, ok := rt.StoryEditor(); ok != tt.editable {
				t.Errorf("StoryEditor ok = %v, want %v", ok, tt.editable)
			}

			state := playFloorOne(t, rt)
			if state.FloorLevel != 1 || state.CurrentRoomID == "" {
				t.Errorf("saved state = %+v", state)
			}
		})
	}
}

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, config.DriverRedis)
	cfg.Storage.Redis = redisstore.Options{Addr: mr.Addr(), Prefix: "test"}

	rt := openRuntime(t, cfg)
	playFloorOne(t, rt)

	if !mr.Exists("test:floors:alice") {
		t.Errorf("keys = %v, want test:floors:alice", mr.Keys())
	}
	if _, ok := rt.StoryEditor(); !ok {
		t.Error("redis story store should support deletes")
	}
}

func TestOpenRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t, config.DriverRedis)
	cfg.Storage.Redis = redisstore.Options{Addr: addr}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := Open(ctx, cfg, nil); err == nil || !strings.Contains(err.Error(), "connect to redis") {
		t.Errorf("Open err = %v, want a redis connection error", err)
	}
}

func TestOpenInvalidConfig(t *testing.T) {
	cfg := testConfig(t, "floppy")
	if _, err := Open(context.Background(), cfg, nil); err == nil {
		t.Error("expected an error for an unknown driver")
	}
}

func TestServicesShareTracker(t *testing.T) {
	rt := openRuntime(t, testConfig(t, config.DriverSQLite))
	ctx := context.Background()

	if _, err := rt.Tracker.Record(ctx, "alice", progression.FlagGateResolved, 25); err != nil {
		t.Fatal(err)
	}
	svc := rt.Services()
	if !svc.Oracle.IsGateResolved("alice", 25) {
		t.Error("the oracle should see flags recorded through the tracker")
	}
	if got := rt.Gate.MaxAccessibleFloor("alice", 30); got != 30 {
		t.Errorf("MaxAccessibleFloor(30) = %d, want 30 once gate 25 is resolved", got)
	}

	flags, err := rt.Accounts.LoadStoryFlags(ctx, "alice")
	if err != nil || len(flags) != 1 {
		t.Errorf("stored flags = %+v, %v", flags, err)
	}
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
