package progression

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps story flags in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	flags map[string][]StoryFlag
	now   func() time.Time
}

var _ StoryStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		flags: make(map[string][]StoryFlag),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// RecordStoryFlag stores the flag unless it is already present
func (m *MemoryStore) RecordStoryFlag(_ context.Context, playerID string, kind FlagKind, floor int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.flags[playerID] {
		if f.Kind == kind && f.Floor == floor {
			return false, nil
		}
	}
	m.flags[playerID] = append(m.flags[playerID], StoryFlag{
		PlayerID:   playerID,
		Kind:       kind,
		Floor:      floor,
		RecordedAt: m.now(),
	})
	return true, nil
}

// LoadStoryFlags returns a copy of the player's flags
func (m *MemoryStore) LoadStoryFlags(_ context.Context, playerID string) ([]StoryFlag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]StoryFlag(nil), m.flags[playerID]...), nil
}
