package tower

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lawnchairsociety/delvekeep/server/internal/gametime"
	"github.com/lawnchairsociety/delvekeep/server/internal/logger"
)

// DefaultRespawnTTL is how long a floor must go unvisited before its
// monsters return.
const DefaultRespawnTTL = 24 * time.Hour

var (
	ErrFloorPinned      = errors.New("floor is permanently clear")
	ErrFloorNotVisited  = errors.New("floor has never been visited")
	ErrNothingToRespawn = errors.New("floor has nothing to respawn")
)

// Repository persists floor records. Load returns nil, nil when the
// player has no record for the level.
type Repository interface {
	LoadFloorState(ctx context.Context, playerID string, level int) (*FloorState, error)
	SaveFloorState(ctx context.Context, playerID string, state *FloorState) error
	ListFloorStates(ctx context.Context, playerID string) ([]*FloorState, error)
}

// StateStore owns respawn eligibility on top of a Repository: a TTL cache
// whose entries can be pinned so they never expire.
type StateStore struct {
	repo   Repository
	layout Layout
	clock  gametime.Clock
	ttl    time.Duration
}

// NewStateStore creates a store. A zero ttl selects DefaultRespawnTTL and
// a nil clock the wall clock.
func NewStateStore(repo Repository, layout Layout, clock gametime.Clock, ttl time.Duration) *StateStore {
	if clock == nil {
		clock = gametime.RealClock{}
	}
	if ttl <= 0 {
		ttl = DefaultRespawnTTL
	}
	return &StateStore{repo: repo, layout: layout, clock: clock, ttl: ttl}
}

// TTL returns the respawn interval.
func (s *StateStore) TTL() time.Duration { return s.ttl }

// Now returns the store's current time.
func (s *StateStore) Now() time.Time { return s.clock.Now() }

// Load returns the player's record for level, or nil if there is none.
func (s *StateStore) Load(ctx context.Context, playerID string, level int) (*FloorState, error) {
	state, err := s.repo.LoadFloorState(ctx, playerID, level)
	if err != nil {
		return nil, fmt.Errorf("load floor %d for %s: %w", level, playerID, err)
	}
	if state == nil {
		return nil, nil
	}
	if state.FloorLevel != level {
		logger.Warning("Repaired floor record level", "player", playerID, "level", level, "recorded", state.FloorLevel)
		state.FloorLevel = level
	}
	if state.RoomStates == nil {
		state.RoomStates = NewFloorState(level).RoomStates
	}
	return state, nil
}

// List returns every record the player has, by level.
func (s *StateStore) List(ctx context.Context, playerID string) ([]*FloorState, error) {
	states, err := s.repo.ListFloorStates(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("list floors for %s: %w", playerID, err)
	}
	return states, nil
}

// ShouldRespawn reports whether the TTL has elapsed since the last visit
// on a floor that is not pinned.
func (s *StateStore) ShouldRespawn(state *FloorState) bool {
	if state.PermanentlyClear {
		return false
	}
	return s.clock.Now().Sub(state.LastVisitedAt) > s.ttl
}

// RespawnsAt returns when the floor's monsters return.
func (s *StateStore) RespawnsAt(state *FloorState) time.Time {
	return state.LastVisitedAt.Add(s.ttl)
}

// ApplyRespawn resets the clear flag of every monster room when the
// floor is due to respawn and returns how many rooms were reset. Loot,
// traps, events and discoveries are never touched.
func (s *StateStore) ApplyRespawn(state *FloorState, floor *Floor) int {
	if !s.ShouldRespawn(state) {
		return 0
	}
	reset := 0
	for _, room := range floor.MonsterRooms() {
		if rs, ok := state.Peek(room.ID); ok && rs.IsCleared {
			rs.IsCleared = false
			reset++
		}
	}
	return reset
}

// Save stamps the visit time and overwrites the record.
func (s *StateStore) Save(ctx context.Context, playerID string, state *FloorState) error {
	state.LastVisitedAt = s.clock.Now()
	if err := s.repo.SaveFloorState(ctx, playerID, state); err != nil {
		return fmt.Errorf("save floor %d for %s: %w", state.FloorLevel, playerID, err)
	}
	return nil
}

// MarkClearedOnce records a full clear. The first clear sets EverCleared
// and, on seal and secret-boss floors, pins the floor forever. It returns
// true only for the first clear.
func (s *StateStore) MarkClearedOnce(state *FloorState, level int) bool {
	state.LastClearedAt = s.clock.Now()
	if state.EverCleared {
		return false
	}
	state.EverCleared = true
	if s.layout.IsSpecial(level) {
		state.PermanentlyClear = true
	}
	return true
}

// ResetCandidate is a floor a reset scroll could respawn early.
type ResetCandidate struct {
	Level             int
	HoursUntilRespawn int
}

// ResetEligible lists floors that were cleared, are not pinned and have
// not yet respawned on their own, shallowest first.
func (s *StateStore) ResetEligible(ctx context.Context, playerID string) ([]ResetCandidate, error) {
	states, err := s.List(ctx, playerID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var out []ResetCandidate
	for _, st := range states {
		if !st.EverCleared || st.PermanentlyClear || s.ShouldRespawn(st) || !hasClearedRoom(st) {
			continue
		}
		out = append(out, ResetCandidate{
			Level:             st.FloorLevel,
			HoursUntilRespawn: gametime.HoursUntil(now, s.RespawnsAt(st)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

// ForceRespawn clears every room's clear flag on a floor immediately, as
// if the TTL had elapsed. Pinned floors are refused.
func (s *StateStore) ForceRespawn(ctx context.Context, playerID string, level int) (int, error) {
	state, err := s.Load(ctx, playerID, level)
	if err != nil {
		return 0, err
	}
	if state == nil {
		return 0, ErrFloorNotVisited
	}
	if state.PermanentlyClear {
		return 0, ErrFloorPinned
	}

	reset := 0
	for _, rs := range state.RoomStates {
		if rs != nil && rs.IsCleared {
			rs.IsCleared = false
			reset++
		}
	}
	if reset == 0 {
		return 0, ErrNothingToRespawn
	}
	state.LastClearedAt = time.Time{}

	if err := s.repo.SaveFloorState(ctx, playerID, state); err != nil {
		return 0, fmt.Errorf("save floor %d for %s: %w", level, playerID, err)
	}
	return reset, nil
}

func hasClearedRoom(state *FloorState) bool {
	for _, rs := range state.RoomStates {
		if rs != nil && rs.IsCleared {
			return true
		}
	}
	return false
}
