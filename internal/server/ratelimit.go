package server

import (
	"sync"
	"time"

	"github.com/lawnchairsociety/delvekeep/server/internal/config"
	"github.com/lawnchairsociety/delvekeep/server/internal/gametime"
)

// LoginRateLimiter locks an IP out after repeated failed logins. Each
// lockout doubles the last, up to the configured maximum.
type LoginRateLimiter struct {
	mu          sync.Mutex
	clock       gametime.Clock
	attempts    map[string]*attemptInfo
	maxAttempts int
	lockout     time.Duration
	maxLockout  time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

type attemptInfo struct {
	failedAttempts int
	lockedUntil    time.Time
	lockoutCount   int
}

// NewLoginRateLimiter creates a limiter and starts its cleanup loop. A
// nil clock uses the wall clock.
func NewLoginRateLimiter(cfg config.RateLimitConfig, clock gametime.Clock) *LoginRateLimiter {
	if clock == nil {
		clock = gametime.RealClock{}
	}
	rl := &LoginRateLimiter{
		clock:       clock,
		attempts:    make(map[string]*attemptInfo),
		maxAttempts: cfg.MaxAttempts,
		lockout:     time.Duration(cfg.LockoutSeconds) * time.Second,
		maxLockout:  time.Duration(cfg.MaxLockoutSeconds) * time.Second,
		stop:        make(chan struct{}),
	}
	if rl.maxAttempts <= 0 {
		rl.maxAttempts = 5
	}
	if rl.lockout <= 0 {
		rl.lockout = 30 * time.Second
	}
	if rl.maxLockout < rl.lockout {
		rl.maxLockout = max(rl.lockout, 300*time.Second)
	}

	go rl.cleanupLoop(5 * time.Minute)
	return rl
}

// Stop ends the cleanup loop. It is safe to call more than once.
func (rl *LoginRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// IsLocked reports whether ip is locked out and for how much longer.
func (rl *LoginRateLimiter) IsLocked(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	info, ok := rl.attempts[ip]
	if !ok {
		return false, 0
	}
	if now := rl.clock.Now(); now.Before(info.lockedUntil) {
		return true, info.lockedUntil.Sub(now)
	}
	return false, 0
}

// RecordFailure counts a failed login from ip. It returns true with the
// lockout length when this failure locks the IP out. A failure during
// a lockout reports the time remaining and does not count.
func (rl *LoginRateLimiter) RecordFailure(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	info, ok := rl.attempts[ip]
	if !ok {
		info = &attemptInfo{}
		rl.attempts[ip] = info
	}

	now := rl.clock.Now()
	if now.Before(info.lockedUntil) {
		return true, info.lockedUntil.Sub(now)
	}

	info.failedAttempts++
	if info.failedAttempts < rl.maxAttempts {
		return false, 0
	}

	info.lockoutCount++
	d := rl.lockout
	for i := 1; i < info.lockoutCount && d < rl.maxLockout; i++ {
		d *= 2
	}
	d = min(d, rl.maxLockout)

	info.lockedUntil = now.Add(d)
	info.failedAttempts = 0
	return true, d
}

// RecordSuccess forgets ip's failures and lockout history.
func (rl *LoginRateLimiter) RecordSuccess(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.attempts, ip)
}

// Attempts returns ip's failures since its last lockout.
func (rl *LoginRateLimiter) Attempts(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if info, ok := rl.attempts[ip]; ok {
		return info.failedAttempts
	}
	return 0
}

func (rl *LoginRateLimiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// cleanup drops IPs unlocked for ten minutes with no fresh failures.
func (rl *LoginRateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.clock.Now().Add(-10 * time.Minute)
	for ip, info := range rl.attempts {
		if info.lockedUntil.Before(cutoff) && info.failedAttempts == 0 {
			delete(rl.attempts, ip)
		}
	}
}
