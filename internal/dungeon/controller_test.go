package dungeon

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lawnchairsociety/delvekeep/server/internal/navigator"
	"github.com/lawnchairsociety/delvekeep/server/internal/progression"
	"github.com/lawnchairsociety/delvekeep/server/internal/tower"
	"github.com/lawnchairsociety/delvekeep/server/internal/world"
)

func TestNewControllerRequiresServices(t *testing.T) {
	if _, err := NewController("alice", Services{}); err == nil {
		t.Fatal("NewController with no services should fail")
	}
}

func TestResumeNewPlayerStartsAtFirstEntrance(t *testing.T) {
	h := newHarness(t)
	c := h.controller(t, "alice")

	tr, err := c.Resume(context.Background())
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if tr.Kind != TransitionNavigate || tr.Level != 1 || tr.RoomID != "e" {
		t.Errorf("Resume() = %v, want navigate to floor 1 (e)", tr)
	}
	if !c.RoomState("e").IsExplored {
		t.Error("entrance should be explored on arrival")
	}
}

func TestResumePicksLastVisitedFloor(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.at(t, "alice", 3)

	h.clock.Advance(time.Hour)
	if _, err := c.Enter(ctx, 5); err != nil {
		t.Fatalf("Enter(5) failed: %v", err)
	}
	walkEast(t, c, 1)
	h.clock.Advance(time.Hour)
	if err := c.Save(ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	again := h.controller(t, "alice")
	tr, err := again.Resume(ctx)
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if tr.Level != 5 || tr.RoomID != "m" {
		t.Errorf("Resume() = %v, want floor 5 room m", tr)
	}
}

func TestEnterIsClampedByGate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.controller(t, "alice")

	if _, err := c.Enter(ctx, 30); err != nil {
		t.Fatalf("Enter failed: %v", err)
	}
	if c.Level() != 25 {
		t.Fatalf("Enter(30) with floor 25 unresolved placed player on %d, want 25", c.Level())
	}

	if _, err := h.story.Record(ctx, "alice", progression.FlagGateResolved, 25); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if _, err := c.Enter(ctx, 30); err != nil {
		t.Fatalf("Enter failed: %v", err)
	}
	if c.Level() != 30 {
		t.Errorf("Enter(30) after resolving 25 placed player on %d", c.Level())
	}
}

func TestEnterClampsLevel(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.controller(t, "alice")

	if _, err := c.Enter(ctx, 0); err != nil || c.Level() != 1 {
		t.Errorf("Enter(0) = level %d, %v, want 1", c.Level(), err)
	}
	if _, err := c.Enter(ctx, 500); err != nil || c.Level() != 25 {
		t.Errorf("Enter(500) = level %d, %v, want the first gate", c.Level(), err)
	}
}

func TestMove(t *testing.T) {
	h := newHarness(t)
	c := h.at(t, "alice", 1)

	if res := c.Move(world.West); res.OK || res.Reason != "You can't go that way." {
		t.Errorf("Move(west) = %+v, want refusal", res)
	}
	if c.CurrentRoom().ID != "e" {
		t.Fatalf("refused move changed room to %s", c.CurrentRoom().ID)
	}

	res := c.Move(world.East)
	if !res.OK || res.Room.ID != "m" || !res.FirstVisit {
		t.Fatalf("Move(east) = %+v, want first visit to m", res)
	}
	if res := c.Move(world.West); !res.OK || res.FirstVisit {
		t.Errorf("Move(west) back = %+v, want repeat visit", res)
	}

	if res := c.MoveTo("s"); res.OK {
		t.Error("MoveTo a room without a connecting exit should fail")
	}
	if res := c.MoveTo("m"); !res.OK || res.Direction != world.East {
		t.Errorf("MoveTo(m) = %+v", res)
	}
}

func TestMoveOutsideDungeon(t *testing.T) {
	h := newHarness(t)
	c := h.controller(t, "alice")
	if res := c.Move(world.East); res.OK {
		t.Error("Move before entering should fail")
	}
}

func TestMarkErrors(t *testing.T) {
	h := newHarness(t)

	c := h.controller(t, "alice")
	if err := c.MarkCleared("m"); !errors.Is(err, ErrNotInDungeon) {
		t.Errorf("MarkCleared outside = %v, want ErrNotInDungeon", err)
	}

	c = h.at(t, "alice", 1)
	tests := []struct {
		name string
		fn   func() error
		want error
	}{
		{"unknown room", func() error { return c.MarkCleared("zz") }, ErrUnknownRoom},
		{"unexplored room", func() error { return c.MarkCleared("s") }, ErrRoomNotExplored},
		{"loot unexplored", func() error { return c.MarkLooted("m") }, ErrRoomNotExplored},
		{"trap unknown", func() error { return c.MarkTrapped("nowhere") }, ErrUnknownRoom},
		{"event unexplored", func() error { return c.MarkEventCompleted("s") }, ErrRoomNotExplored},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMarkFacts(t *testing.T) {
	h := newHarness(t)
	c := h.at(t, "alice", 1)
	walkEast(t, c, 1)

	for _, fn := range []func(string) error{c.MarkCleared, c.MarkLooted, c.MarkTrapped, c.MarkEventCompleted} {
		if err := fn("m"); err != nil {
			t.Fatalf("mark failed: %v", err)
		}
	}
	rs := c.RoomState("m")
	if !rs.IsCleared || !rs.TreasureLooted || !rs.TrapTriggered || !rs.EventCompleted {
		t.Errorf("RoomState(m) = %+v, want every fact recorded", rs)
	}
}

func TestInteract(t *testing.T) {
	h := newHarness(t)
	c := h.at(t, "alice", 1)
	walkEast(t, c, 1)

	feature, first, err := c.Interact("m", "old")
	if err != nil || !first || feature.Kind != world.FeatureChest {
		t.Fatalf("Interact(old) = %v, %v, %v", feature, first, err)
	}
	if _, first, _ := c.Interact("m", "old chest"); first {
		t.Error("second use should not be first")
	}
	if _, _, err := c.Interact("m", "lever"); !errors.Is(err, ErrUnknownFeature) {
		t.Errorf("Interact(lever) = %v, want ErrUnknownFeature", err)
	}
}

func TestOrdinaryFloorDescendsFreely(t *testing.T) {
	h := newHarness(t)
	c := h.at(t, "alice", 3)

	tr, err := c.Descend(context.Background())
	if err != nil {
		t.Fatalf("Descend failed: %v", err)
	}
	if tr.Kind != TransitionNavigate || tr.Level != 4 || tr.RoomID != "e" {
		t.Errorf("Descend() = %v, want floor 4 entrance", tr)
	}
}

func TestRequireClearOrdinary(t *testing.T) {
	h := newHarness(t)
	h.svc.Gate = progression.NewGate(tower.DefaultLayout(), h.story, true)
	c := h.at(t, "alice", 3)

	tr, err := c.Descend(context.Background())
	if err != nil {
		t.Fatalf("Descend failed: %v", err)
	}
	if !tr.IsBlocked() || tr.Floor != 3 || tr.Reason != "2 rooms on this floor still hold monsters." {
		t.Errorf("Descend() = %v", tr)
	}
}

func TestDescendBlockedAtGate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.at(t, "alice", 24)

	if tr, err := c.Descend(ctx); err != nil || tr.Level != 25 {
		t.Fatalf("Descend from 24 = %v, %v, want floor 25", tr, err)
	}

	tr, err := c.Descend(ctx)
	if err != nil {
		t.Fatalf("Descend failed: %v", err)
	}
	if !tr.IsBlocked() || tr.Floor != 25 {
		t.Fatalf("Descend from unresolved gate = %v, want blocked at 25", tr)
	}
	if tr.Reason != "A sealed gate bars the way down. Its guardian still stands." {
		t.Errorf("Reason = %q", tr.Reason)
	}
	if c.Level() != 25 {
		t.Fatalf("blocked descent moved player to %d", c.Level())
	}

	// Clearing the lair alone is not enough; the story must agree.
	walkEast(t, c, 3)
	if err := c.MarkCleared("b"); err != nil {
		t.Fatalf("MarkCleared(b) failed: %v", err)
	}
	if tr, _ := c.Descend(ctx); !tr.IsBlocked() {
		t.Fatalf("Descend with gate unrecorded = %v, want blocked", tr)
	}

	if _, err := h.story.Record(ctx, "alice", progression.FlagGateResolved, 25); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	tr, err = c.Descend(ctx)
	if err != nil {
		t.Fatalf("Descend failed: %v", err)
	}
	if tr.Kind != TransitionNavigate || tr.Level != 26 || tr.RoomID != "e" {
		t.Errorf("Descend after resolving = %v, want floor 26 entrance", tr)
	}
}

func TestSealFloorDescent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.at(t, "alice", 15)

	tr, _ := c.Descend(ctx)
	if !tr.IsBlocked() || tr.Reason != "2 rooms here still hold monsters, and the seal must be claimed." {
		t.Fatalf("Descend() = %v", tr)
	}

	walkEast(t, c, 1)
	if err := c.MarkCleared("m"); err != nil {
		t.Fatal(err)
	}
	walkEast(t, c, 1)
	if err := c.MarkCleared("s"); err != nil {
		t.Fatal(err)
	}
	tr, _ = c.Descend(ctx)
	if !tr.IsBlocked() || tr.Reason != "The ancient seal on this floor has not been claimed." {
		t.Fatalf("Descend() = %v", tr)
	}
	if c.FloorState().EverCleared {
		t.Fatal("floor should not count as cleared before the seal is claimed")
	}

	if _, err := h.story.Record(ctx, "alice", progression.FlagSealCollected, 15); err != nil {
		t.Fatal(err)
	}
	if _, first, err := c.Interact("m", "ancient seal"); err != nil || !first {
		t.Fatalf("Interact(seal) = %v, %v", first, err)
	}
	state := c.FloorState()
	if !state.EverCleared || !state.PermanentlyClear {
		t.Errorf("seal floor after clear: ever=%v pinned=%v, want both", state.EverCleared, state.PermanentlyClear)
	}

	if tr, err := c.Descend(ctx); err != nil || tr.Level != 16 {
		t.Errorf("Descend() = %v, %v, want floor 16", tr, err)
	}
}

func TestDescendFromLastFloor(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	for _, gate := range []int{25, 40, 55, 70, 85, 95} {
		if _, err := h.story.Record(ctx, "alice", progression.FlagGateResolved, gate); err != nil {
			t.Fatal(err)
		}
	}
	c := h.at(t, "alice", 100)

	tr, err := c.Descend(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !tr.IsBlocked() || tr.Floor != 100 || tr.Reason != "There is nothing deeper than this." {
		t.Errorf("Descend() = %v", tr)
	}
}

func TestAscend(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.at(t, "alice", 3)

	tr, err := c.Ascend(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Level != 2 || tr.RoomID != "s" {
		t.Errorf("Ascend() = %v, want floor 2 stairs", tr)
	}

	c = h.at(t, "bob", 1)
	tr, err = c.Ascend(ctx)
	if err != nil || tr.Kind != TransitionStay || c.Level() != 1 {
		t.Errorf("Ascend from floor 1 = %v, %v (level %d)", tr, err, c.Level())
	}
}

// gateFlags is a story oracle whose gates can be reopened.
type gateFlags map[int]bool

func (g gateFlags) IsGateResolved(_ string, level int) bool  { return g[level] }
func (g gateFlags) IsSealCollected(_ string, level int) bool { return true }

func TestAscendIgnoresGates(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	flags := gateFlags{25: true}
	svc := h.svc
	svc.Gate = progression.NewGate(tower.DefaultLayout(), flags, false)
	svc.Oracle = flags
	c, err := NewController("alice", svc)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Enter(ctx, 30); err != nil || c.Level() != 30 {
		t.Fatalf("Enter(30) = level %d, %v", c.Level(), err)
	}

	delete(flags, 25)
	tr, err := c.Ascend(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Level != 29 || c.Level() != 29 {
		t.Errorf("Ascend from 30 with gate 25 open = %v (level %d), want 29", tr, c.Level())
	}
}

func TestProgressSurvivesLeavingFloor(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.at(t, "alice", 3)
	walkEast(t, c, 1)
	if err := c.MarkLooted("m"); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Enter(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Enter(ctx, 3); err != nil {
		t.Fatal(err)
	}
	if c.CurrentRoom().ID != "m" || !c.RoomState("m").TreasureLooted {
		t.Errorf("returned to %s with state %+v", c.CurrentRoom().ID, c.RoomState("m"))
	}
}

func TestRespawnOnReturnAndNoticeThrottle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.at(t, "alice", 3)
	walkEast(t, c, 1)

	cycle := func() {
		t.Helper()
		if err := c.MarkCleared("m"); err != nil {
			t.Fatal(err)
		}
		if _, err := c.Enter(ctx, 2); err != nil {
			t.Fatal(err)
		}
		h.clock.Advance(25 * time.Hour)
		if _, err := c.Enter(ctx, 3); err != nil {
			t.Fatal(err)
		}
		if c.RoomState("m").IsCleared {
			t.Fatal("monsters should have returned after the TTL")
		}
	}

	cycle()
	if h.noticeCount() != 1 {
		t.Fatalf("notices = %d after first respawn, want 1", h.noticeCount())
	}
	cycle()
	if h.noticeCount() != 1 {
		t.Fatalf("notices = %d inside the notice interval, want 1", h.noticeCount())
	}
	cycle()
	if h.noticeCount() != 2 {
		t.Errorf("notices = %d after the interval, want 2", h.noticeCount())
	}
	if !strings.Contains(h.notices[0], "fallen rise again") {
		t.Errorf("notice = %q", h.notices[0])
	}
}

func TestBossClearHealedWithoutStory(t *testing.T) {
	tests := []struct {
		name     string
		resolved bool
	}{
		{"unresolved gate resets boss", false},
		{"resolved gate keeps boss", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t)
			if tt.resolved {
				if _, err := h.story.Record(ctx, "alice", progression.FlagGateResolved, 25); err != nil {
					t.Fatal(err)
				}
			}

			saved := tower.NewFloorState(25)
			saved.LastVisitedAt = epoch
			saved.CurrentRoomID = "b"
			saved.BossDefeated = true
			saved.Room("e").IsExplored = true
			saved.Room("b").IsExplored = true
			saved.Room("b").IsCleared = true
			saved.Room("gone").IsExplored = true
			if err := h.repo.SaveFloorState(ctx, "alice", saved); err != nil {
				t.Fatal(err)
			}

			c := h.at(t, "alice", 25)
			state := c.FloorState()
			if _, ok := state.RoomStates["gone"]; ok {
				t.Error("state for a vanished room should be dropped")
			}
			if got := state.RoomStates["b"].IsCleared; got != tt.resolved {
				t.Errorf("boss room cleared = %v, want %v", got, tt.resolved)
			}
			if state.BossDefeated != tt.resolved {
				t.Errorf("BossDefeated = %v, want %v", state.BossDefeated, tt.resolved)
			}
			if c.CurrentRoom().ID != "b" {
				t.Errorf("current room = %s, want b", c.CurrentRoom().ID)
			}
		})
	}
}

func TestForceRespawnActiveFloor(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.at(t, "alice", 3)
	walkEast(t, c, 1)
	if err := c.MarkCleared("m"); err != nil {
		t.Fatal(err)
	}

	n, err := c.ForceRespawn(ctx, 3)
	if err != nil || n != 1 {
		t.Fatalf("ForceRespawn = %d, %v, want 1", n, err)
	}
	if c.RoomState("m").IsCleared {
		t.Error("live state should see the respawn")
	}
	if c.CurrentRoom().ID != "m" {
		t.Errorf("player moved to %s", c.CurrentRoom().ID)
	}

	if _, err := c.ForceRespawn(ctx, 9); !errors.Is(err, tower.ErrFloorNotVisited) {
		t.Errorf("ForceRespawn(9) = %v, want ErrFloorNotVisited", err)
	}
}

func TestResetEligibleSavesActiveFloor(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.at(t, "alice", 3)
	walkEast(t, c, 1)
	if err := c.MarkCleared("m"); err != nil {
		t.Fatal(err)
	}
	walkEast(t, c, 1)
	if err := c.MarkCleared("s"); err != nil {
		t.Fatal(err)
	}
	if !c.FloorState().EverCleared {
		t.Fatal("clearing every monster room should clear the floor")
	}
	h.clock.Advance(10 * time.Hour)

	got, err := c.ResetEligible(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Level != 3 || got[0].HoursUntilRespawn != 24 {
		t.Errorf("ResetEligible() = %+v", got)
	}
}

func TestGuideAndMap(t *testing.T) {
	h := newHarness(t)
	c := h.at(t, "alice", 1)
	walkEast(t, c, 2)
	c.MoveTo("m")
	c.MoveTo("e")

	path, ok := c.Guide(navigator.NearestStairs)
	if !ok || path.Destination() != "s" || path.Len() != 2 {
		t.Errorf("Guide(stairs) = %v, %v", path, ok)
	}

	m := c.Map()
	if len(m.Cells) != 3 {
		t.Errorf("Map() has %d cells, want 3", len(m.Cells))
	}
}
