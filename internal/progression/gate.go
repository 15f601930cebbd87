// Package progression decides how deep a player may go.
package progression

import (
	"fmt"

	"github.com/lawnchairsociety/delvekeep/server/internal/tower"
)

// StoryOracle answers the story questions that gate descent. Resolution
// itself happens elsewhere; the gate only reads it.
type StoryOracle interface {
	IsGateResolved(playerID string, level int) bool
	IsSealCollected(playerID string, level int) bool
}

// Gate computes access ceilings and descent preconditions.
type Gate struct {
	layout               tower.Layout
	oracle               StoryOracle
	requireClearOrdinary bool
}

// NewGate creates a gate over layout. When requireClearOrdinary is set,
// ordinary floors must be cleared before descending too.
func NewGate(layout tower.Layout, oracle StoryOracle, requireClearOrdinary bool) *Gate {
	return &Gate{layout: layout, oracle: oracle, requireClearOrdinary: requireClearOrdinary}
}

// Layout returns the floor layout the gate enforces.
func (g *Gate) Layout() tower.Layout { return g.layout }

// MaxAccessibleFloor returns the deepest floor the player may reach on
// the way to requested. The first unresolved gate above requested wins;
// deeper gates are never consulted once one blocks.
func (g *Gate) MaxAccessibleFloor(playerID string, requested int) int {
	requested = g.layout.Clamp(requested)
	for _, gate := range g.layout.GateFloors {
		if requested <= gate {
			break
		}
		if !g.oracle.IsGateResolved(playerID, gate) {
			return gate
		}
	}
	return requested
}

// BlockingGate returns the gate that stops the player from reaching
// requested, if any.
func (g *Gate) BlockingGate(playerID string, requested int) (int, bool) {
	ceiling := g.MaxAccessibleFloor(playerID, requested)
	if ceiling < g.layout.Clamp(requested) {
		return ceiling, true
	}
	return 0, false
}

// RequiresClearToDescend reports whether leaving level downward needs
// the floor cleared first.
func (g *Gate) RequiresClearToDescend(level int) bool {
	if g.layout.IsGate(level) || g.layout.IsSeal(level) {
		return true
	}
	return g.requireClearOrdinary
}

// IsFloorCleared reports whether the floor's descent condition holds.
// Gate floors need their boss resolved, seal floors need their monsters
// cleared and the seal collected, and any other floor needs every
// monster room cleared.
func (g *Gate) IsFloorCleared(playerID string, state *tower.FloorState, floor *tower.Floor) bool {
	switch {
	case g.layout.IsGate(floor.Level):
		return g.oracle.IsGateResolved(playerID, floor.Level)
	case g.layout.IsSeal(floor.Level):
		return len(state.UnclearedMonsterRooms(floor)) == 0 &&
			g.oracle.IsSealCollected(playerID, floor.Level)
	default:
		return len(state.UnclearedMonsterRooms(floor)) == 0
	}
}

// BlockReason explains why a descent from floor was refused.
func (g *Gate) BlockReason(playerID string, state *tower.FloorState, floor *tower.Floor) string {
	n := len(state.UnclearedMonsterRooms(floor))
	switch {
	case g.layout.IsGate(floor.Level):
		return "A sealed gate bars the way down. Its guardian still stands."
	case g.layout.IsSeal(floor.Level) && !g.oracle.IsSealCollected(playerID, floor.Level):
		if n > 0 {
			return fmt.Sprintf("%s, and the seal must be claimed.", roomsHolding(n, "here"))
		}
		return "The ancient seal on this floor has not been claimed."
	case g.layout.IsSeal(floor.Level):
		return roomsHolding(n, "here") + "."
	default:
		return roomsHolding(n, "on this floor") + "."
	}
}

func roomsHolding(n int, where string) string {
	if n == 1 {
		return fmt.Sprintf("One room %s still holds monsters", where)
	}
	return fmt.Sprintf("%d rooms %s still hold monsters", n, where)
}
