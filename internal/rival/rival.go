// Package rival remembers the duelist who keeps turning up in a player's
// descent.
package rival

import (
	"hash/fnv"
	"sync"

	"github.com/zyedidia/generic/cache"

	"github.com/lawnchairsociety/delvekeep/server/internal/logger"
)

// DefaultCapacity bounds how many players' rivals are remembered.
const DefaultCapacity = 1024

// Duelist is one player's recurring rival.
type Duelist struct {
	Name             string
	Weapon           string
	Level            int
	TimesEncountered int
	PlayerWins       int
	PlayerLosses     int
	LastFloor        int
	WasInsulted      bool
	IsDead           bool
}

var (
	names   = []string{"Varek the Grey", "Sister Ysolde", "Marrow-Tongue Kess", "Old Brannoc", "Ilse of the Ninth Stair", "Corvin Ashgrave"}
	weapons = []string{"rapier", "twin daggers", "bastard sword", "hooked spear", "war fan", "sabre"}
)

// Names returns every name a rival can be given.
func Names() []string {
	return append([]string(nil), names...)
}

// NewDuelist returns the rival a player meets first. The same player
// always draws the same rival.
func NewDuelist(playerID string, level int) Duelist {
	h := fnv.New32a()
	_, _ = h.Write([]byte(playerID))
	sum := h.Sum32()
	return Duelist{
		Name:   names[sum%uint32(len(names))],
		Weapon: weapons[(sum/7)%uint32(len(weapons))],
		Level:  level,
	}
}

// Repository is a bounded, least-recently-used store of rivals keyed by
// player id. It is safe for concurrent use.
type Repository struct {
	mu      sync.Mutex
	entries *cache.Cache[string, Duelist]
}

// NewRepository creates a repository holding at most capacity rivals.
func NewRepository(capacity int) *Repository {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	entries := cache.New[string, Duelist](capacity)
	entries.SetEvictCallback(func(playerID string, d Duelist) {
		logger.Debug("Rival forgotten", "player", playerID, "rival", d.Name)
	})
	return &Repository{entries: entries}
}

// Get returns the player's rival.
func (r *Repository) Get(playerID string) (Duelist, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries.Get(playerID)
}

// Encounter records a meeting on floor and returns the updated rival,
// creating one on first contact. A dead rival stays dead.
func (r *Repository) Encounter(playerID string, floor int) (Duelist, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.entries.Get(playerID)
	if !ok {
		d = NewDuelist(playerID, floor)
	}
	if d.IsDead {
		return d, false
	}
	d.TimesEncountered++
	d.LastFloor = floor
	if floor > d.Level {
		d.Level = floor
	}
	r.entries.Put(playerID, d)
	return d, true
}

// RecordOutcome records a duel result. A player win on the rival's fifth
// meeting or later ends the rivalry.
func (r *Repository) RecordOutcome(playerID string, playerWon bool) (Duelist, bool) {
	return r.update(playerID, func(d *Duelist) {
		if playerWon {
			d.PlayerWins++
			if d.TimesEncountered >= 5 {
				d.IsDead = true
			}
		} else {
			d.PlayerLosses++
		}
	})
}

// MarkInsulted records that the player insulted the rival.
func (r *Repository) MarkInsulted(playerID string) (Duelist, bool) {
	return r.update(playerID, func(d *Duelist) { d.WasInsulted = true })
}

func (r *Repository) update(playerID string, fn func(*Duelist)) (Duelist, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.entries.Get(playerID)
	if !ok {
		return Duelist{}, false
	}
	fn(&d)
	r.entries.Put(playerID, d)
	return d, true
}

// Restore loads a saved rival without counting an encounter.
func (r *Repository) Restore(playerID string, d Duelist) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries.Put(playerID, d)
}

// Forget drops the player's rival.
func (r *Repository) Forget(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries.Remove(playerID)
}

// Len returns how many rivals are remembered.
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries.Size()
}
