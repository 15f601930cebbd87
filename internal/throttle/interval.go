// Package throttle limits how often things may happen.
package throttle

import (
	"sync"
	"time"

	"github.com/lawnchairsociety/delvekeep/server/internal/gametime"
)

// Interval allows an event at most once per minimum interval per key.
// One Interval is shared by every caller that must not repeat the event
// too often.
type Interval struct {
	mu    sync.Mutex
	min   time.Duration
	clock gametime.Clock
	last  map[string]time.Time
}

// NewInterval creates a limiter. A nil clock uses the wall clock.
func NewInterval(min time.Duration, clock gametime.Clock) *Interval {
	if clock == nil {
		clock = gametime.RealClock{}
	}
	return &Interval{
		min:   min,
		clock: clock,
		last:  make(map[string]time.Time),
	}
}

// Allow reports whether the event for key may happen now and, if so,
// records it. When refused, it returns how long until it would pass.
func (i *Interval) Allow(key string) (bool, time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.clock.Now()
	if last, ok := i.last[key]; ok {
		if elapsed := now.Sub(last); elapsed < i.min {
			return false, i.min - elapsed
		}
	}
	i.last[key] = now
	return true, 0
}

// Reset forgets every recorded event.
func (i *Interval) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.last = make(map[string]time.Time)
}
