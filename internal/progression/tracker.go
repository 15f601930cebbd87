package progression

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lawnchairsociety/delvekeep/server/internal/logger"
)

// FlagKind is the kind of story milestone a player has reached.
type FlagKind string

const (
	FlagGateResolved  FlagKind = "gate_resolved"
	FlagSealCollected FlagKind = "seal_collected"
)

// ErrUnknownFlagKind is returned for a kind other than the ones above.
var ErrUnknownFlagKind = errors.New("unknown story flag kind")

// ParseFlagKind parses "gate" / "seal" or the full kind name.
func ParseFlagKind(s string) (FlagKind, error) {
	switch s {
	case "gate", string(FlagGateResolved):
		return FlagGateResolved, nil
	case "seal", string(FlagSealCollected):
		return FlagSealCollected, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFlagKind, s)
}

// StoryFlag is one recorded milestone.
type StoryFlag struct {
	PlayerID   string
	Kind       FlagKind
	Floor      int
	RecordedAt time.Time
}

// StoryStore persists story flags.
type StoryStore interface {
	// RecordStoryFlag stores the flag and reports whether it is new.
	RecordStoryFlag(ctx context.Context, playerID string, kind FlagKind, floor int) (bool, error)
	LoadStoryFlags(ctx context.Context, playerID string) ([]StoryFlag, error)
}

type playerFlags struct {
	gates map[int]bool
	seals map[int]bool
}

// Tracker answers StoryOracle queries from a per-player cache loaded from
// a StoryStore on first use.
type Tracker struct {
	store   StoryStore
	mu      sync.RWMutex
	players map[string]*playerFlags
}

var _ StoryOracle = (*Tracker)(nil)

// NewTracker creates a tracker over store.
func NewTracker(store StoryStore) *Tracker {
	return &Tracker{
		store:   store,
		players: make(map[string]*playerFlags),
	}
}

// Load reads the player's flags into the cache, replacing what was there.
func (t *Tracker) Load(ctx context.Context, playerID string) error {
	_, err := t.load(ctx, playerID)
	return err
}

func (t *Tracker) load(ctx context.Context, playerID string) (*playerFlags, error) {
	flags, err := t.store.LoadStoryFlags(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("load story flags for %s: %w", playerID, err)
	}

	pf := &playerFlags{gates: make(map[int]bool), seals: make(map[int]bool)}
	for _, f := range flags {
		switch f.Kind {
		case FlagGateResolved:
			pf.gates[f.Floor] = true
		case FlagSealCollected:
			pf.seals[f.Floor] = true
		}
	}

	t.mu.Lock()
	t.players[playerID] = pf
	t.mu.Unlock()
	return pf, nil
}

// Forget drops the player's cached flags.
func (t *Tracker) Forget(playerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.players, playerID)
}

func (t *Tracker) flags(playerID string) *playerFlags {
	t.mu.RLock()
	pf, ok := t.players[playerID]
	t.mu.RUnlock()
	if ok {
		return pf
	}

	pf, err := t.load(context.Background(), playerID)
	if err != nil {
		// An unreadable store keeps every gate closed.
		logger.Warning("Story flags unavailable", "player", playerID, "error", err)
		return &playerFlags{}
	}
	return pf
}

// IsGateResolved reports whether the player has resolved the gate on level.
func (t *Tracker) IsGateResolved(playerID string, level int) bool {
	pf := t.flags(playerID)
	t.mu.RLock()
	defer t.mu.RUnlock()
	return pf.gates[level]
}

// IsSealCollected reports whether the player has claimed the seal on level.
func (t *Tracker) IsSealCollected(playerID string, level int) bool {
	pf := t.flags(playerID)
	t.mu.RLock()
	defer t.mu.RUnlock()
	return pf.seals[level]
}

// Record stores a milestone and reports whether it was new.
func (t *Tracker) Record(ctx context.Context, playerID string, kind FlagKind, floor int) (bool, error) {
	if kind != FlagGateResolved && kind != FlagSealCollected {
		return false, fmt.Errorf("%w: %q", ErrUnknownFlagKind, kind)
	}

	// Make sure the cache is populated before the write lands in it.
	pf := t.flags(playerID)

	isNew, err := t.store.RecordStoryFlag(ctx, playerID, kind, floor)
	if err != nil {
		return false, fmt.Errorf("record %s on floor %d for %s: %w", kind, floor, playerID, err)
	}

	t.mu.Lock()
	switch {
	case pf.gates == nil:
		// The cache never loaded; read everything back on next use.
		delete(t.players, playerID)
	case kind == FlagGateResolved:
		pf.gates[floor] = true
	case kind == FlagSealCollected:
		pf.seals[floor] = true
	}
	t.mu.Unlock()

	if isNew {
		logger.Audit("Story milestone", "player", playerID, "kind", string(kind), "floor", floor)
	}
	return isNew, nil
}

// ResolvedGates returns the player's resolved gate floors in order.
func (t *Tracker) ResolvedGates(playerID string) []int {
	return t.sorted(playerID, func(pf *playerFlags) map[int]bool { return pf.gates })
}

// CollectedSeals returns the player's collected seal floors in order.
func (t *Tracker) CollectedSeals(playerID string) []int {
	return t.sorted(playerID, func(pf *playerFlags) map[int]bool { return pf.seals })
}

func (t *Tracker) sorted(playerID string, pick func(*playerFlags) map[int]bool) []int {
	pf := t.flags(playerID)
	t.mu.RLock()
	defer t.mu.RUnlock()

	var floors []int
	for floor, ok := range pick(pf) {
		if ok {
			floors = append(floors, floor)
		}
	}
	sort.Ints(floors)
	return floors
}
