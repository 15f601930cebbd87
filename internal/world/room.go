package world

import (
	"fmt"
	"strings"
)

// Exit links a room to a neighbour on the same floor.
type Exit struct {
	TargetRoomID string
	Description  string
}

// Room is a node of a floor's graph. Rooms are immutable once a floor has
// been generated; per-player progress lives in RoomState.
type Room struct {
	ID           string
	Name         string
	Description  string
	Type         RoomType
	DangerRating int // 0 (safe) to 3 (deadly)

	HasMonsters   bool
	HasTreasure   bool
	HasTrap       bool
	HasEvent      bool
	HasStairsDown bool
	IsBossRoom    bool

	Exits    map[Direction]Exit
	Features []Feature
}

func NewRoom(id, name, description string, roomType RoomType) *Room {
	return &Room{
		ID:          id,
		Name:        name,
		Description: description,
		Type:        roomType,
		Exits:       make(map[Direction]Exit),
		Features:    make([]Feature, 0),
	}
}

// AddExit links this room to target in the given direction.
func (r *Room) AddExit(dir Direction, targetID, description string) {
	r.Exits[dir] = Exit{TargetRoomID: targetID, Description: description}
}

// GetExit returns the exit in the given direction.
func (r *Room) GetExit(dir Direction) (Exit, bool) {
	exit, ok := r.Exits[dir]
	return exit, ok
}

// ExitTo returns the direction of the exit leading to targetID.
func (r *Room) ExitTo(targetID string) (Direction, bool) {
	for _, dir := range Directions {
		if exit, ok := r.Exits[dir]; ok && exit.TargetRoomID == targetID {
			return dir, true
		}
	}
	return North, false
}

// ExitDirections returns the room's exit directions in traversal order.
func (r *Room) ExitDirections() []Direction {
	dirs := make([]Direction, 0, len(r.Exits))
	for _, dir := range Directions {
		if _, ok := r.Exits[dir]; ok {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// AddFeature adds an interactable to the room
func (r *Room) AddFeature(name string, kind FeatureKind) {
	r.Features = append(r.Features, Feature{Name: name, Kind: kind})
}

// FindFeature finds a feature by case-insensitive name or prefix.
func (r *Room) FindFeature(name string) (Feature, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Feature{}, false
	}
	for _, f := range r.Features {
		if strings.ToLower(f.Name) == name {
			return f, true
		}
	}
	for _, f := range r.Features {
		if strings.HasPrefix(strings.ToLower(f.Name), name) {
			return f, true
		}
	}
	return Feature{}, false
}

// HasFeature reports whether the room has a feature of the given kind.
func (r *Room) HasFeature(kind FeatureKind) bool {
	for _, f := range r.Features {
		if f.Kind == kind {
			return true
		}
	}
	return false
}

// FeatureViews pairs each feature with its interacted status from state.
// A nil state reports every feature as untouched.
func (r *Room) FeatureViews(state *RoomState) []FeatureView {
	views := make([]FeatureView, len(r.Features))
	for i, f := range r.Features {
		views[i] = FeatureView{Feature: f}
		if state != nil {
			views[i].Interacted = state.Interacted(f.Kind)
		}
	}
	return views
}

// Describe renders the room for a player: name, description, visible
// features and exits.
func (r *Room) Describe(state *RoomState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n", r.Name, r.Description)

	if state != nil && r.HasMonsters && !state.IsCleared {
		b.WriteString("Something hostile stirs here.\n")
	}
	if state != nil && r.HasTrap && !state.TrapTriggered {
		b.WriteString("The floor here looks uneven.\n")
	}

	for _, v := range r.FeatureViews(state) {
		if v.Interacted {
			fmt.Fprintf(&b, "There is a %s here (spent).\n", v.Name)
		} else {
			fmt.Fprintf(&b, "There is a %s here.\n", v.Name)
		}
	}

	if r.HasStairsDown {
		b.WriteString("A stairway descends into darkness.\n")
	}

	dirs := r.ExitDirections()
	if len(dirs) == 0 {
		b.WriteString("Exits: none")
		return b.String()
	}
	names := make([]string, len(dirs))
	for i, d := range dirs {
		names[i] = d.String()
	}
	fmt.Fprintf(&b, "Exits: %s", strings.Join(names, ", "))
	return b.String()
}
