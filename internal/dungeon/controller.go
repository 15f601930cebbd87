// Package dungeon runs one player's descent: entering floors, moving
// between rooms, recording what happened in them and deciding when the
// way down opens.
package dungeon

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/lawnchairsociety/delvekeep/server/internal/metrics"
	"github.com/lawnchairsociety/delvekeep/server/internal/navigator"
	"github.com/lawnchairsociety/delvekeep/server/internal/tower"
	"github.com/lawnchairsociety/delvekeep/server/internal/world"
)

var (
	ErrUnknownRoom     = errors.New("no such room on this floor")
	ErrRoomNotExplored = errors.New("room has not been explored")
	ErrUnknownFeature  = errors.New("no such feature in this room")
	ErrNotInDungeon    = errors.New("not inside the dungeon")
)

const (
	respawnNoticeKey = "respawn"
	respawnNotice    = "The dungeon stirs. Somewhere in the dark, the fallen rise again."
)

type arrival int

const (
	arriveResume arrival = iota
	arriveEntrance
	arriveStairs
)

// MoveResult reports the outcome of a move. A refused move leaves the
// player where they were and explains why in Reason.
type MoveResult struct {
	OK         bool
	Reason     string
	Room       *world.Room
	Direction  world.Direction
	FirstVisit bool
}

// Controller owns one player's active floor and their record of it. It
// is driven by a single session goroutine and is not safe for concurrent
// use; other sessions observe it through Followers.
type Controller struct {
	playerID  string
	svc       Services
	floor     *tower.Floor
	state     *tower.FloorState
	followers *Followers
}

// NewController creates a controller for playerID. The player is not in
// the dungeon until Enter or Resume succeeds.
func NewController(playerID string, svc Services) (*Controller, error) {
	svc, err := svc.withDefaults()
	if err != nil {
		return nil, err
	}
	return &Controller{
		playerID:  playerID,
		svc:       svc,
		followers: NewFollowers(),
	}, nil
}

// PlayerID returns the player this controller belongs to.
func (c *Controller) PlayerID() string { return c.playerID }

// Followers returns the sessions watching this player.
func (c *Controller) Followers() *Followers { return c.followers }

// Level returns the current floor level, or 0 outside the dungeon.
func (c *Controller) Level() int {
	if c.floor == nil {
		return 0
	}
	return c.floor.Level
}

// CurrentFloor returns the active floor.
func (c *Controller) CurrentFloor() *tower.Floor { return c.floor }

// CurrentRoom returns the room the player is standing in.
func (c *Controller) CurrentRoom() *world.Room {
	if c.floor == nil {
		return nil
	}
	return c.floor.GetRoom(c.state.CurrentRoomID)
}

// RoomState returns a copy of the player's state for roomID.
func (c *Controller) RoomState(roomID string) world.RoomState {
	if c.state == nil {
		return world.RoomState{}
	}
	if rs, ok := c.state.Peek(roomID); ok {
		return *rs
	}
	return world.RoomState{}
}

// FloorState returns a copy of the active floor's record.
func (c *Controller) FloorState() *tower.FloorState {
	if c.state == nil {
		return nil
	}
	return c.state.Clone()
}

// Resume puts the player back on the floor they visited last, in the
// room they left, or at the entrance of floor 1 if they have never been
// down.
func (c *Controller) Resume(ctx context.Context) (Transition, error) {
	states, err := c.svc.Store.List(ctx, c.playerID)
	if err != nil {
		return Stay(), err
	}
	if len(states) == 0 {
		return c.enter(ctx, 1, arriveEntrance)
	}

	sort.SliceStable(states, func(i, j int) bool {
		return states[i].LastVisitedAt.After(states[j].LastVisitedAt)
	})
	return c.enter(ctx, states[0].FloorLevel, arriveResume)
}

// Enter puts the player on level, or on the deepest floor the gate
// allows on the way there. A player returning to a floor resumes in the
// room they left.
func (c *Controller) Enter(ctx context.Context, level int) (Transition, error) {
	if err := c.Save(ctx); err != nil {
		return Stay(), err
	}
	return c.enter(ctx, level, arriveResume)
}

func (c *Controller) enter(ctx context.Context, requested int, how arrival) (Transition, error) {
	layout := c.svc.Gate.Layout()
	level := layout.Clamp(requested)
	// Climbing is never gated.
	if c.floor == nil || level >= c.floor.Level {
		level = c.svc.Gate.MaxAccessibleFloor(c.playerID, requested)
		if level < layout.Clamp(requested) {
			c.svc.Log.Info("Entry clamped by gate", "player", c.playerID, "requested", requested, "level", level)
		}
	}

	floor, err := c.svc.Floors.Floor(level)
	if err != nil {
		return Stay(), fmt.Errorf("enter floor %d: %w", level, err)
	}

	state, err := c.svc.Store.Load(ctx, c.playerID, level)
	if err != nil {
		return Stay(), err
	}
	if state == nil {
		state = tower.NewFloorState(level)
	} else {
		if n := c.svc.Store.ApplyRespawn(state, floor); n > 0 {
			c.respawned(level, n)
		}
		c.heal(state, floor)
	}

	roomID := arrivalRoom(state, floor, how)
	state.CurrentRoomID = roomID
	state.Room(floor.EntranceRoomID).IsExplored = true
	state.Room(roomID).IsExplored = true

	c.floor, c.state = floor, state
	c.svc.Log.Debug("Entered floor", "player", c.playerID, "level", level, "room", roomID)
	c.broadcast(fmt.Sprintf("%s arrives on floor %d.", c.playerID, level))

	return NavigateTo(level, roomID), nil
}

func arrivalRoom(state *tower.FloorState, floor *tower.Floor, how arrival) string {
	switch how {
	case arriveResume:
		if state.CurrentRoomID != "" && floor.HasRoom(state.CurrentRoomID) {
			return state.CurrentRoomID
		}
	case arriveStairs:
		if stairs := floor.StairsRooms(); len(stairs) > 0 {
			return stairs[0].ID
		}
	}
	return floor.EntranceRoomID
}

// heal repairs a loaded record against the floor. A boss room only stays
// cleared when the story agrees its gate is resolved.
func (c *Controller) heal(state *tower.FloorState, floor *tower.Floor) {
	resolved := c.svc.Gate.Layout().IsGate(floor.Level) && c.svc.Oracle.IsGateResolved(c.playerID, floor.Level)
	report := tower.Heal(state, floor, resolved)
	if report.Empty() {
		return
	}

	if n := len(report.DroppedRooms); n > 0 {
		metrics.SelfHeals.WithLabelValues("stale_room").Add(float64(n))
	}
	if n := len(report.BossReset); n > 0 {
		metrics.SelfHeals.WithLabelValues("boss").Add(float64(n))
	}
	if report.CurrentRoomFix {
		metrics.SelfHeals.WithLabelValues("current_room").Inc()
	}

	c.svc.Log.Warn("Repaired floor state",
		"player", c.playerID,
		"level", floor.Level,
		"dropped_rooms", report.DroppedRooms,
		"boss_reset", report.BossReset,
		"current_room_reset", report.CurrentRoomFix,
	)
}

func (c *Controller) respawned(level, rooms int) {
	metrics.RoomsRespawned.Add(float64(rooms))
	c.svc.Log.Info("Floor respawned", "player", c.playerID, "level", level, "rooms", rooms)

	if c.svc.Notices != nil {
		if ok, _ := c.svc.Notices.Allow(respawnNoticeKey); !ok {
			return
		}
	}
	c.svc.Notifier.Notify(respawnNotice)
}

// MoveTo walks to roomID, which must be reached by an exit of the
// current room.
func (c *Controller) MoveTo(roomID string) MoveResult {
	current := c.CurrentRoom()
	if current == nil {
		return MoveResult{Reason: "You are not in the dungeon."}
	}
	dir, ok := current.ExitTo(roomID)
	if !ok {
		return MoveResult{Reason: "You can't get there from here."}
	}
	return c.walk(dir, roomID)
}

// Move walks through the current room's exit in dir.
func (c *Controller) Move(dir world.Direction) MoveResult {
	current := c.CurrentRoom()
	if current == nil {
		return MoveResult{Reason: "You are not in the dungeon."}
	}
	exit, ok := current.GetExit(dir)
	if !ok {
		return MoveResult{Reason: "You can't go that way."}
	}
	return c.walk(dir, exit.TargetRoomID)
}

func (c *Controller) walk(dir world.Direction, roomID string) MoveResult {
	target := c.floor.GetRoom(roomID)
	if target == nil {
		return MoveResult{Reason: "That way leads nowhere."}
	}

	rs := c.state.Room(roomID)
	first := !rs.IsExplored
	rs.IsExplored = true
	c.state.CurrentRoomID = roomID

	c.broadcast(fmt.Sprintf("%s heads %s.", c.playerID, dir))
	return MoveResult{OK: true, Room: target, Direction: dir, FirstVisit: first}
}

// explored returns the room and its state, refusing rooms the player has
// not reached.
func (c *Controller) explored(roomID string) (*world.Room, *world.RoomState, error) {
	if c.floor == nil {
		return nil, nil, ErrNotInDungeon
	}
	room := c.floor.GetRoom(roomID)
	if room == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownRoom, roomID)
	}
	rs, ok := c.state.Peek(roomID)
	if !ok || !rs.IsExplored {
		return nil, nil, fmt.Errorf("%w: %s", ErrRoomNotExplored, roomID)
	}
	return room, rs, nil
}

// MarkCleared records that the monsters in roomID are dealt with.
func (c *Controller) MarkCleared(roomID string) error {
	room, rs, err := c.explored(roomID)
	if err != nil {
		return err
	}
	rs.IsCleared = true
	if room.IsBossRoom {
		c.state.BossDefeated = true
	}
	c.checkFloorCleared()
	c.broadcast(fmt.Sprintf("%s clears %s.", c.playerID, room.Name))
	return nil
}

// MarkLooted records that the treasure in roomID was taken.
func (c *Controller) MarkLooted(roomID string) error {
	return c.markFact(roomID, "loots", func(rs *world.RoomState) { rs.TreasureLooted = true })
}

// MarkTrapped records that the trap in roomID was sprung or disarmed.
func (c *Controller) MarkTrapped(roomID string) error {
	return c.markFact(roomID, "springs the trap in", func(rs *world.RoomState) { rs.TrapTriggered = true })
}

// MarkEventCompleted records that the event in roomID played out.
func (c *Controller) MarkEventCompleted(roomID string) error {
	return c.markFact(roomID, "completes the event in", func(rs *world.RoomState) { rs.EventCompleted = true })
}

func (c *Controller) markFact(roomID, verb string, set func(*world.RoomState)) error {
	room, rs, err := c.explored(roomID)
	if err != nil {
		return err
	}
	set(rs)
	c.broadcast(fmt.Sprintf("%s %s %s.", c.playerID, verb, room.Name))
	return nil
}

// Interact uses the named feature in roomID. It reports whether this was
// the first use.
func (c *Controller) Interact(roomID, featureName string) (world.Feature, bool, error) {
	room, rs, err := c.explored(roomID)
	if err != nil {
		return world.Feature{}, false, err
	}
	feature, ok := room.FindFeature(featureName)
	if !ok {
		return world.Feature{}, false, fmt.Errorf("%w: %s", ErrUnknownFeature, featureName)
	}

	first := rs.MarkInteracted(feature.Kind)
	if first {
		c.checkFloorCleared()
		c.broadcast(fmt.Sprintf("%s uses the %s.", c.playerID, feature.Name))
	}
	return feature, first, nil
}

// FloorCleared reports whether the active floor meets its clear
// condition.
func (c *Controller) FloorCleared() bool {
	if c.floor == nil {
		return false
	}
	return c.svc.Gate.IsFloorCleared(c.playerID, c.state, c.floor)
}

func (c *Controller) checkFloorCleared() {
	if !c.FloorCleared() {
		return
	}
	if c.svc.Store.MarkClearedOnce(c.state, c.floor.Level) {
		metrics.FloorsCleared.Inc()
		c.svc.Log.Info("Floor cleared", "player", c.playerID, "level", c.floor.Level, "pinned", c.state.PermanentlyClear)
	}
}

// Descend moves the player to the entrance of the next floor when the
// current floor allows it. A refusal comes back as a Blocked transition;
// an error leaves the player where they were.
func (c *Controller) Descend(ctx context.Context) (Transition, error) {
	if c.floor == nil {
		return Stay(), ErrNotInDungeon
	}
	level := c.floor.Level
	layout := c.svc.Gate.Layout()

	if layout.IsTerminal(level) {
		metrics.DescentsBlocked.WithLabelValues("terminal").Inc()
		return Blocked(level, "There is nothing deeper than this."), nil
	}

	if c.svc.Gate.RequiresClearToDescend(level) && !c.FloorCleared() {
		label := "uncleared"
		switch {
		case layout.IsGate(level):
			label = "gate"
		case layout.IsSeal(level):
			label = "seal"
		}
		metrics.DescentsBlocked.WithLabelValues(label).Inc()
		c.svc.Log.Info("Descent blocked", "player", c.playerID, "level", level, "reason", label)
		return Blocked(level, c.svc.Gate.BlockReason(c.playerID, c.state, c.floor)), nil
	}

	if ceiling := c.svc.Gate.MaxAccessibleFloor(c.playerID, level+1); ceiling <= level {
		metrics.DescentsBlocked.WithLabelValues("gate").Inc()
		return Blocked(ceiling, fmt.Sprintf("The gate on floor %d still bars the way down.", ceiling)), nil
	}

	c.checkFloorCleared()
	if err := c.Save(ctx); err != nil {
		return Stay(), err
	}
	return c.enter(ctx, level+1, arriveEntrance)
}

// Ascend moves the player up to the stairs of the floor above. On the
// first floor there is nowhere to climb to and the player stays.
func (c *Controller) Ascend(ctx context.Context) (Transition, error) {
	if c.floor == nil {
		return Stay(), ErrNotInDungeon
	}
	if c.floor.Level <= 1 {
		return Stay(), nil
	}
	if err := c.Save(ctx); err != nil {
		return Stay(), err
	}
	return c.enter(ctx, c.floor.Level-1, arriveStairs)
}

// Save writes the active floor's record.
func (c *Controller) Save(ctx context.Context) error {
	if c.state == nil {
		return nil
	}
	return c.svc.Store.Save(ctx, c.playerID, c.state)
}

// Guide finds the way from the current room to target.
func (c *Controller) Guide(target navigator.Target) (navigator.Path, bool) {
	if c.floor == nil {
		return navigator.Path{}, false
	}
	return navigator.Guide(c.floor, c.state, c.state.CurrentRoomID, target)
}

// Map lays out the rooms around the player.
func (c *Controller) Map() navigator.Map {
	if c.floor == nil {
		return navigator.Map{}
	}
	return navigator.Layout(c.floor, c.state, c.state.CurrentRoomID, navigator.DefaultDepth)
}

// ResetEligible lists floors a reset could respawn early.
func (c *Controller) ResetEligible(ctx context.Context) ([]tower.ResetCandidate, error) {
	if c.state != nil {
		if err := c.Save(ctx); err != nil {
			return nil, err
		}
	}
	return c.svc.Store.ResetEligible(ctx, c.playerID)
}

// ForceRespawn brings back the monsters of level now. When level is the
// active floor, the live record is reloaded so the player sees the
// change.
func (c *Controller) ForceRespawn(ctx context.Context, level int) (int, error) {
	if c.floor == nil || c.floor.Level != level {
		return c.svc.Store.ForceRespawn(ctx, c.playerID, level)
	}

	if err := c.Save(ctx); err != nil {
		return 0, err
	}
	n, err := c.svc.Store.ForceRespawn(ctx, c.playerID, level)
	if err != nil {
		return 0, err
	}
	state, err := c.svc.Store.Load(ctx, c.playerID, level)
	if err != nil {
		return n, err
	}
	if state != nil {
		c.heal(state, c.floor)
		state.CurrentRoomID = arrivalRoom(state, c.floor, arriveResume)
		c.state = state
	}
	c.broadcast("The monsters of this floor return.")
	return n, nil
}

// Snapshot renders the player's position for followers.
func (c *Controller) Snapshot(event string) Snapshot {
	room := c.CurrentRoom()
	if room == nil {
		return Snapshot{LeaderID: c.playerID, Event: event, At: c.svc.Store.Now()}
	}
	rs := c.RoomState(room.ID)
	return Snapshot{
		LeaderID: c.playerID,
		Level:    c.floor.Level,
		RoomID:   room.ID,
		RoomName: room.Name,
		View:     room.Describe(&rs),
		Map:      navigator.Render(c.Map()),
		Event:    event,
		At:       c.svc.Store.Now(),
	}
}

func (c *Controller) broadcast(event string) {
	if c.followers.Len() == 0 {
		return
	}
	c.followers.Broadcast(c.Snapshot(event))
}
