package tower

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository keeps floor records in process memory.
type MemoryRepository struct {
	states map[string]map[int]*FloorState
	mu     sync.RWMutex
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{states: make(map[string]map[int]*FloorState)}
}

// LoadFloorState returns a copy of the stored record
func (m *MemoryRepository) LoadFloorState(_ context.Context, playerID string, level int) (*FloorState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[playerID][level]
	if !ok {
		return nil, nil
	}
	return st.Clone(), nil
}

// SaveFloorState stores a copy of the record
func (m *MemoryRepository) SaveFloorState(_ context.Context, playerID string, state *FloorState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.states[playerID] == nil {
		m.states[playerID] = make(map[int]*FloorState)
	}
	m.states[playerID][state.FloorLevel] = state.Clone()
	return nil
}

// ListFloorStates returns copies of every record for the player by level
func (m *MemoryRepository) ListFloorStates(_ context.Context, playerID string) ([]*FloorState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*FloorState, 0, len(m.states[playerID]))
	for _, st := range m.states[playerID] {
		out = append(out, st.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FloorLevel < out[j].FloorLevel })
	return out, nil
}
