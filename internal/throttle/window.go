package throttle

import (
	"sync"
	"time"

	"github.com/lawnchairsociety/delvekeep/server/internal/gametime"
)

// WindowConfig holds sliding-window limits
type WindowConfig struct {
	Enabled   bool          // Whether limiting is enabled
	MaxEvents int           // Max events allowed in the time window
	Window    time.Duration // Time window for rate limiting
}

// DefaultWindowConfig returns sensible defaults for command flood control
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Enabled:   true,
		MaxEvents: 10,
		Window:    5 * time.Second,
	}
}

// WindowConfigFromYAML creates a WindowConfig from YAML-loaded values
func WindowConfigFromYAML(enabled bool, maxEvents, windowSeconds int) WindowConfig {
	cfg := DefaultWindowConfig()
	cfg.Enabled = enabled
	if maxEvents > 0 {
		cfg.MaxEvents = maxEvents
	}
	if windowSeconds > 0 {
		cfg.Window = time.Duration(windowSeconds) * time.Second
	}
	return cfg
}

// Window tracks the activity of a single session
type Window struct {
	mu     sync.Mutex
	config WindowConfig
	clock  gametime.Clock
	times  []time.Time // Timestamps of recent events
}

// NewWindow creates a new limiter with the given config
func NewWindow(config WindowConfig, clock gametime.Clock) *Window {
	if clock == nil {
		clock = gametime.RealClock{}
	}
	return &Window{
		config: config,
		clock:  clock,
		times:  make([]time.Time, 0, config.MaxEvents),
	}
}

// CheckResult contains the result of a check
type CheckResult struct {
	Allowed     bool
	Reason      string
	WaitSeconds int // How long to wait before trying again (if not allowed)
}

// Check determines if another event should be allowed and records it if so
func (w *Window) Check() CheckResult {
	if !w.config.Enabled {
		return CheckResult{Allowed: true}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.clock.Now()
	w.cleanup(now)

	if len(w.times) >= w.config.MaxEvents {
		// Find when the oldest event will expire
		waitUntil := w.times[0].Add(w.config.Window)
		remaining := waitUntil.Sub(now)
		return CheckResult{
			Allowed:     false,
			Reason:      "You're acting too quickly. Please slow down.",
			WaitSeconds: int(remaining.Seconds()) + 1,
		}
	}

	w.times = append(w.times, now)
	return CheckResult{Allowed: true}
}

// cleanup removes events outside the window
func (w *Window) cleanup(now time.Time) {
	cutoff := now.Add(-w.config.Window)
	kept := w.times[:0]
	for _, t := range w.times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	w.times = kept
}

// Reset clears all tracking data
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.times = make([]time.Time, 0, w.config.MaxEvents)
}
