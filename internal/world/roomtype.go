package world

// RoomType represents the category of a room
type RoomType int

const (
	RoomTypeChamber  RoomType = iota // Plain chamber
	RoomTypeCorridor                 // Connecting passage
	RoomTypeAlcove                   // Dead-end nook
	RoomTypeShrine                   // Shrine with an event
	RoomTypeLibrary                  // Library holding lore
	RoomTypeVault                    // Treasure vault
	RoomTypeStairs                   // Stairs leading deeper
	RoomTypeEntrance                 // Landing from the floor above
	RoomTypeBoss                     // Boss lair on gate floors
)

var roomTypeNames = map[RoomType]string{
	RoomTypeChamber:  "chamber",
	RoomTypeCorridor: "corridor",
	RoomTypeAlcove:   "alcove",
	RoomTypeShrine:   "shrine",
	RoomTypeLibrary:  "library",
	RoomTypeVault:    "vault",
	RoomTypeStairs:   "stairs",
	RoomTypeEntrance: "entrance",
	RoomTypeBoss:     "boss",
}

// String returns the string representation of a RoomType
func (t RoomType) String() string {
	if name, ok := roomTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// IsSafe returns true if the room type never holds monsters
func (t RoomType) IsSafe() bool {
	return t == RoomTypeEntrance || t == RoomTypeShrine
}

// BaseDanger returns the danger rating of the type before floor depth
// is taken into account, from 0 (safe) to 3 (deadly).
func (t RoomType) BaseDanger() int {
	switch t {
	case RoomTypeEntrance, RoomTypeShrine, RoomTypeLibrary:
		return 0
	case RoomTypeCorridor, RoomTypeAlcove, RoomTypeStairs:
		return 1
	case RoomTypeChamber, RoomTypeVault:
		return 2
	case RoomTypeBoss:
		return 3
	default:
		return 0
	}
}

// ParseRoomType converts a string to a RoomType
func ParseRoomType(s string) (RoomType, bool) {
	for t, name := range roomTypeNames {
		if name == s {
			return t, true
		}
	}
	return RoomTypeChamber, false
}
