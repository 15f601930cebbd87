package dungeon

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lawnchairsociety/delvekeep/server/internal/gametime"
	"github.com/lawnchairsociety/delvekeep/server/internal/progression"
	"github.com/lawnchairsociety/delvekeep/server/internal/rival"
	"github.com/lawnchairsociety/delvekeep/server/internal/throttle"
	"github.com/lawnchairsociety/delvekeep/server/internal/tower"
	"github.com/lawnchairsociety/delvekeep/server/internal/world"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// lineFloors builds the same small floor for every level:
//
//	e - m - s [- b]
//
// m holds monsters, treasure and a trap (and the seal on seal floors), s
// holds monsters and the stairs (none on the last floor) and b is the
// boss lair on gate floors.
type lineFloors struct {
	layout tower.Layout
}

func (l lineFloors) Floor(level int) (*tower.Floor, error) {
	if level < 1 || level > l.layout.MaxFloor {
		return nil, tower.ErrLevelOutOfRange
	}
	floor := tower.NewFloor(level)
	floor.EntranceRoomID = "e"

	e := world.NewRoom("e", "Landing", "Dust and old bootprints.", world.RoomTypeEntrance)
	m := world.NewRoom("m", "Guard Room", "Broken spears line the walls.", world.RoomTypeChamber)
	m.HasMonsters, m.HasTreasure, m.HasTrap = true, true, true
	m.AddFeature("old chest", world.FeatureChest)
	if l.layout.IsSeal(level) {
		m.AddFeature("ancient seal", world.FeatureSeal)
	}
	s := world.NewRoom("s", "Stairwell", "Steps wind downward.", world.RoomTypeStairs)
	s.HasMonsters = true
	s.HasStairsDown = !l.layout.IsTerminal(level)

	link(e, m, world.East)
	link(m, s, world.East)
	floor.AddRoom(e)
	floor.AddRoom(m)
	floor.AddRoom(s)

	if l.layout.IsGate(level) {
		b := world.NewRoom("b", "Guardian's Lair", "Bones crunch underfoot.", world.RoomTypeBoss)
		b.HasMonsters, b.IsBossRoom = true, true
		link(s, b, world.East)
		floor.AddRoom(b)
	}
	return floor, nil
}

func link(a, b *world.Room, dir world.Direction) {
	a.AddExit(dir, b.ID, "")
	b.AddExit(dir.Opposite(), a.ID, "")
}

type harness struct {
	clock   *gametime.ManualClock
	repo    *tower.MemoryRepository
	store   *tower.StateStore
	story   *progression.Tracker
	rivals  *rival.Repository
	mu      sync.Mutex
	notices []string
	svc     Services
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	layout := tower.DefaultLayout()
	h := &harness{
		clock:  gametime.NewManualClock(epoch),
		repo:   tower.NewMemoryRepository(),
		story:  progression.NewTracker(progression.NewMemoryStore()),
		rivals: rival.NewRepository(16),
	}
	h.store = tower.NewStateStore(h.repo, layout, h.clock, 24*time.Hour)
	h.svc = Services{
		Floors:  lineFloors{layout: layout},
		Store:   h.store,
		Gate:    progression.NewGate(layout, h.story, false),
		Oracle:  h.story,
		Story:   h.story,
		Notices: throttle.NewInterval(48*time.Hour, h.clock),
		Rivals:  h.rivals,
		Notifier: NotifierFunc(func(msg string) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.notices = append(h.notices, msg)
		}),
	}
	return h
}

func (h *harness) controller(t *testing.T, playerID string) *Controller {
	t.Helper()
	c, err := NewController(playerID, h.svc)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	return c
}

// at returns a controller already standing on level.
func (h *harness) at(t *testing.T, playerID string, level int) *Controller {
	t.Helper()
	c := h.controller(t, playerID)
	if _, err := c.Enter(context.Background(), level); err != nil {
		t.Fatalf("Enter(%d) failed: %v", level, err)
	}
	if c.Level() != level {
		t.Fatalf("Enter(%d) placed player on floor %d", level, c.Level())
	}
	return c
}

func (h *harness) noticeCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.notices)
}

// walkEast moves the player east n times.
func walkEast(t *testing.T, c *Controller, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if res := c.Move(world.East); !res.OK {
			t.Fatalf("move east %d failed: %s", i+1, res.Reason)
		}
	}
}
