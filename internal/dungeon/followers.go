package dungeon

import (
	"slices"
	"sync"
	"time"
)

// Snapshot is a read-only view of a leader's position, pushed to
// followers after every change. It carries only rendered text, never a
// reference to the live floor or its state.
type Snapshot struct {
	LeaderID string
	Level    int
	RoomID   string
	RoomName string
	View     string // Rendered room description
	Map      string // Rendered local map
	Event    string // What just happened, if anything
	At       time.Time
}

// Follower receives a leader's snapshots.
type Follower interface {
	FollowerID() string
	Deliver(Snapshot)
}

// Followers is the set of sessions watching one leader. Followers join
// and leave from their own goroutines while the leader broadcasts.
type Followers struct {
	mu   sync.Mutex
	list []Follower
}

// NewFollowers creates an empty set
func NewFollowers() *Followers {
	return &Followers{}
}

// Add registers a follower. It returns false if one with the same id is
// already following.
func (f *Followers) Add(follower Follower) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.list {
		if existing.FollowerID() == follower.FollowerID() {
			return false
		}
	}
	f.list = append(f.list, follower)
	return true
}

// Remove drops the follower with id and reports whether it was present.
func (f *Followers) Remove(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.list {
		if existing.FollowerID() == id {
			f.list = slices.Delete(f.list, i, i+1)
			return true
		}
	}
	return false
}

// Len returns how many followers are watching.
func (f *Followers) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.list)
}

// List returns a copy of the current followers.
func (f *Followers) List() []Follower {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Follower, len(f.list))
	copy(out, f.list)
	return out
}

// Broadcast delivers s to every follower. The list is copied under the
// lock and delivery happens outside it, so a follower may leave or join
// from inside Deliver.
func (f *Followers) Broadcast(s Snapshot) int {
	targets := f.List()
	for _, follower := range targets {
		follower.Deliver(s)
	}
	return len(targets)
}
