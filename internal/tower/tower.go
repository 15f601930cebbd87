package tower

import (
	"sync"

	"github.com/lawnchairsociety/delvekeep/server/internal/logger"
	"github.com/lawnchairsociety/delvekeep/server/internal/metrics"
)

// FloorSource returns the floor for a level.
type FloorSource interface {
	Floor(level int) (*Floor, error)
}

var (
	_ FloorSource = (*Tower)(nil)
	_ FloorSource = (*Generator)(nil)
)

// Tower caches generated floors. Floors are immutable, so one instance
// per level is shared by every player.
type Tower struct {
	generator    *Generator
	Floors       map[int]*Floor
	HighestFloor int // Deepest floor generated so far
	mu           sync.RWMutex
}

// NewTower creates an empty tower over the generator
func NewTower(generator *Generator) *Tower {
	return &Tower{
		generator: generator,
		Floors:    make(map[int]*Floor),
	}
}

// Layout returns the layout floors are generated against.
func (t *Tower) Layout() Layout {
	return t.generator.Layout
}

// Floor returns a floor by level, generating it if necessary
func (t *Tower) Floor(level int) (*Floor, error) {
	t.mu.RLock()
	floor, exists := t.Floors[level]
	t.mu.RUnlock()

	if exists {
		return floor, nil
	}

	return t.generateFloor(level)
}

// GetFloorIfExists returns a floor only if it already exists
func (t *Tower) GetFloorIfExists(level int) *Floor {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Floors[level]
}

// HasFloor returns true if the floor has been generated
func (t *Tower) HasFloor(level int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, exists := t.Floors[level]
	return exists
}

// FloorCount returns the number of cached floors
func (t *Tower) FloorCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.Floors)
}

func (t *Tower) generateFloor(level int) (*Floor, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Double-check it wasn't generated while we were waiting for the lock
	if floor, exists := t.Floors[level]; exists {
		return floor, nil
	}

	floor, err := t.generator.Generate(level)
	if err != nil {
		logger.Error("Floor generation failed", "level", level, "error", err)
		return nil, err
	}

	t.Floors[level] = floor
	if level > t.HighestFloor {
		t.HighestFloor = level
	}

	metrics.FloorsGenerated.Inc()
	logger.Debug("Generated floor", "level", level, "rooms", floor.RoomCount(), "theme", floor.Theme.Name)

	return floor, nil
}
