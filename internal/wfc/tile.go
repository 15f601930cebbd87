package wfc

// TileType is the role a cell plays in a generated floor layout.
type TileType int

const (
	TileEmpty    TileType = iota // No tile (unassigned)
	TileCorridor                 // Passage connecting 2-4 neighbours
	TileRoom                     // General chamber
	TileAlcove                   // Dead end with a single opening
	TileVault                    // Treasure vault
	TileBoss                     // Boss lair, gate floors only
	TileStairs                   // Stairs leading deeper
	TileEntrance                 // Landing from the floor above
)

// String returns the string representation of a TileType
func (t TileType) String() string {
	switch t {
	case TileEmpty:
		return "empty"
	case TileCorridor:
		return "corridor"
	case TileRoom:
		return "room"
	case TileAlcove:
		return "alcove"
	case TileVault:
		return "vault"
	case TileBoss:
		return "boss"
	case TileStairs:
		return "stairs"
	case TileEntrance:
		return "entrance"
	default:
		return "unknown"
	}
}

// Direction represents a cardinal direction in the grid
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// String returns the string representation of a Direction
func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return "unknown"
	}
}

// Opposite returns the opposite direction
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case East:
		return West
	case South:
		return North
	case West:
		return East
	default:
		return d
	}
}

// Offset returns the grid delta for one step in d. North is y-1.
func (d Direction) Offset() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case East:
		return 1, 0
	case West:
		return -1, 0
	}
	return 0, 0
}

// AllDirections returns all four cardinal directions in traversal order
func AllDirections() []Direction {
	return []Direction{North, East, South, West}
}

// Tile represents a single cell in the solved grid
type Tile struct {
	Type        TileType
	X, Y        int
	Connections map[Direction]bool
}

// NewTile creates a new tile at the given position
func NewTile(tileType TileType, x, y int) *Tile {
	return &Tile{
		Type:        tileType,
		X:           x,
		Y:           y,
		Connections: make(map[Direction]bool),
	}
}

// ConnectionCount returns the number of active connections
func (t *Tile) ConnectionCount() int {
	count := 0
	for _, dir := range AllDirections() {
		if t.Connections[dir] {
			count++
		}
	}
	return count
}

// HasConnection returns true if the tile has a connection in the given direction
func (t *Tile) HasConnection(dir Direction) bool {
	return t.Connections[dir]
}

// SetConnection sets the connection state for a direction
func (t *Tile) SetConnection(dir Direction, connected bool) {
	t.Connections[dir] = connected
}
