package tower

import (
	"fmt"
	"os"

	"github.com/lawnchairsociety/delvekeep/server/internal/world"
	"gopkg.in/yaml.v3"
)

// FloorYAML is the on-disk form of a floor, written by floorctl gen and
// read back for inspection or hand editing.
type FloorYAML struct {
	Floor    int         `yaml:"floor"`
	Seed     int64       `yaml:"seed"`
	Theme    string      `yaml:"theme,omitempty"`
	Entrance string      `yaml:"entrance"`
	Rooms    []*RoomYAML `yaml:"rooms"`
}

// RoomYAML is one room of a FloorYAML. Flags name the room's contents:
// monsters, treasure, trap, event, stairs_down and boss.
type RoomYAML struct {
	ID          string            `yaml:"id"`
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Type        string            `yaml:"type"`
	Danger      int               `yaml:"danger,omitempty"`
	Flags       []string          `yaml:"flags,omitempty"`
	Features    []FeatureYAML     `yaml:"features,omitempty"`
	Exits       map[string]string `yaml:"exits"`
}

type FeatureYAML struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
}

type roomFlag struct {
	name string
	ptr  func(*world.Room) *bool
}

var roomFlags = []roomFlag{
	{"monsters", func(r *world.Room) *bool { return &r.HasMonsters }},
	{"treasure", func(r *world.Room) *bool { return &r.HasTreasure }},
	{"trap", func(r *world.Room) *bool { return &r.HasTrap }},
	{"event", func(r *world.Room) *bool { return &r.HasEvent }},
	{"stairs_down", func(r *world.Room) *bool { return &r.HasStairsDown }},
	{"boss", func(r *world.Room) *bool { return &r.IsBossRoom }},
}

// LoadFloorFromYAML loads a floor from a YAML file
func LoadFloorFromYAML(path string) (*Floor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read floor file: %w", err)
	}

	var floorYAML FloorYAML
	if err := yaml.Unmarshal(data, &floorYAML); err != nil {
		return nil, fmt.Errorf("failed to parse floor YAML: %w", err)
	}

	return floorYAML.ToFloor()
}

// NewFloorYAML converts a floor to its YAML form, keeping room order.
func NewFloorYAML(floor *Floor) *FloorYAML {
	fy := &FloorYAML{
		Floor:    floor.Level,
		Seed:     floor.Seed,
		Entrance: floor.EntranceRoomID,
	}
	if floor.Theme != nil {
		fy.Theme = floor.Theme.Name
	}
	for _, room := range floor.Rooms {
		ry := &RoomYAML{
			ID:          room.ID,
			Name:        room.Name,
			Description: room.Description,
			Type:        room.Type.String(),
			Danger:      room.DangerRating,
			Exits:       make(map[string]string, len(room.Exits)),
		}
		for _, f := range roomFlags {
			if *f.ptr(room) {
				ry.Flags = append(ry.Flags, f.name)
			}
		}
		for _, feature := range room.Features {
			ry.Features = append(ry.Features, FeatureYAML{Name: feature.Name, Kind: feature.Kind.String()})
		}
		for _, dir := range room.ExitDirections() {
			ry.Exits[dir.String()] = room.Exits[dir].TargetRoomID
		}
		fy.Rooms = append(fy.Rooms, ry)
	}
	return fy
}

// ToFloor converts the YAML representation to a Floor with world.Room objects
func (fy *FloorYAML) ToFloor() (*Floor, error) {
	floor := NewFloor(fy.Floor)
	floor.Seed = fy.Seed
	floor.EntranceRoomID = fy.Entrance

	// First pass: create all rooms
	for _, ry := range fy.Rooms {
		if ry.ID == "" {
			return nil, fmt.Errorf("floor %d: room without an id", fy.Floor)
		}
		if floor.HasRoom(ry.ID) {
			return nil, fmt.Errorf("floor %d: duplicate room %q", fy.Floor, ry.ID)
		}
		roomType, ok := world.ParseRoomType(ry.Type)
		if !ok {
			return nil, fmt.Errorf("room %s: unknown type %q", ry.ID, ry.Type)
		}
		room := world.NewRoom(ry.ID, ry.Name, ry.Description, roomType)
		room.DangerRating = ry.Danger

		for _, name := range ry.Flags {
			set := false
			for _, f := range roomFlags {
				if f.name == name {
					*f.ptr(room) = true
					set = true
				}
			}
			if !set {
				return nil, fmt.Errorf("room %s: unknown flag %q", ry.ID, name)
			}
		}
		for _, feature := range ry.Features {
			kind, ok := world.ParseFeatureKind(feature.Kind)
			if !ok {
				return nil, fmt.Errorf("room %s: unknown feature kind %q", ry.ID, feature.Kind)
			}
			room.AddFeature(feature.Name, kind)
		}

		floor.AddRoom(room)
	}

	// Second pass: link exits
	for _, ry := range fy.Rooms {
		room := floor.GetRoom(ry.ID)
		for dirName, targetID := range ry.Exits {
			dir, ok := world.ParseDirection(dirName)
			if !ok {
				return nil, fmt.Errorf("room %s: %q is not a direction", ry.ID, dirName)
			}
			if !floor.HasRoom(targetID) {
				return nil, fmt.Errorf("room %s: exit %s leads to unknown room %q", ry.ID, dirName, targetID)
			}
			room.AddExit(dir, targetID, "")
		}
	}

	return floor, nil
}
