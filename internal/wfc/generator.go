package wfc

import (
	"fmt"
	"math/rand"
)

// seedStride spreads neighbouring levels across the seed space.
const seedStride = 7919

// FloorConfig contains parameters for floor layout generation
type FloorConfig struct {
	Level       int   // Dungeon level, 1-indexed
	WorldSeed   int64 // Base seed shared by every floor
	MinRooms    int
	MaxRooms    int
	VaultCount  int  // Number of treasure vaults to place
	IsBossFloor bool // Exactly one boss lair is placed
	IsTerminal  bool // No stairs lead deeper
}

// DefaultFloorConfig returns reasonable defaults for a level
func DefaultFloorConfig(level int, worldSeed int64) *FloorConfig {
	cfg := &FloorConfig{
		Level:      level,
		WorldSeed:  worldSeed,
		MinRooms:   15,
		MaxRooms:   30 + level/5,
		VaultCount: 1 + level/20,
	}

	if cfg.MaxRooms > 45 {
		cfg.MaxRooms = 45
	}
	if cfg.VaultCount > 3 {
		cfg.VaultCount = 3
	}

	return cfg
}

// Seed returns the deterministic seed for the configured level.
func (c *FloorConfig) Seed() int64 {
	return c.WorldSeed + int64(c.Level)*seedStride
}

// GeneratedFloor is the output of layout generation
type GeneratedFloor struct {
	Level         int
	Seed          int64 // Seed of the attempt that produced the layout
	Tiles         []*Tile
	EntranceTile  *Tile
	StairsTiles   []*Tile // Empty on the terminal floor
	BossTile      *Tile   // nil unless IsBossFloor
	VaultTiles    []*Tile
	Width, Height int
}

// Generator produces floor layouts with the required special tiles
type Generator struct {
	config     *FloorConfig
	rng        *rand.Rand
	maxRetries int
}

// NewGenerator creates a new floor generator
func NewGenerator(config *FloorConfig) *Generator {
	return &Generator{
		config:     config,
		rng:        rand.New(rand.NewSource(config.Seed())),
		maxRetries: 50,
	}
}

// Generate creates a floor layout. Identical configs always yield
// identical layouts.
func (g *Generator) Generate() (*GeneratedFloor, error) {
	gridSize := g.calculateGridSize()

	var lastErr error

	for attempt := 0; attempt < g.maxRetries; attempt++ {
		seed := g.config.Seed() + int64(attempt*1000)
		solver := NewSolver(gridSize, gridSize, seed)
		solver.MinRooms = g.config.MinRooms
		solver.MaxRooms = g.config.MaxRooms
		solver.RequireStairs = !g.config.IsTerminal
		solver.SetRequireBoss(g.config.IsBossFloor)

		tiles, err := solver.Solve()
		if err != nil {
			lastErr = err
			continue
		}

		if len(tiles) > g.config.MaxRooms {
			tiles = g.pruneTiles(tiles, g.config.MaxRooms)
		}

		result := &GeneratedFloor{
			Level:  g.config.Level,
			Seed:   seed,
			Tiles:  tiles,
			Width:  gridSize,
			Height: gridSize,
		}

		if err := g.placeSpecialTiles(result); err != nil {
			lastErr = err
			continue
		}

		return result, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("failed after %d attempts: %w", g.maxRetries, lastErr)
	}
	return nil, ErrNoSolution
}

// calculateGridSize determines an appropriate grid size for the floor
func (g *Generator) calculateGridSize() int {
	target := (g.config.MinRooms + g.config.MaxRooms) / 2
	size := int(float64(target) * 2.5)
	if size < 8 {
		size = 8
	}
	if size > 15 {
		size = 15
	}
	return size
}

// pruneTiles removes leaf tiles until the count fits, detaching each
// removed tile from its neighbour so no exit dangles.
func (g *Generator) pruneTiles(tiles []*Tile, maxCount int) []*Tile {
	for len(tiles) > maxCount {
		removeIdx := -1
		for i, t := range tiles {
			if t.Type == TileStairs || t.Type == TileEntrance ||
				t.Type == TileBoss || t.Type == TileVault {
				continue
			}
			if t.ConnectionCount() == 1 {
				removeIdx = i
				break
			}
		}

		if removeIdx == -1 {
			break
		}

		leaf := tiles[removeIdx]
		for _, dir := range AllDirections() {
			if !leaf.HasConnection(dir) {
				continue
			}
			dx, dy := dir.Offset()
			for _, t := range tiles {
				if t.X == leaf.X+dx && t.Y == leaf.Y+dy {
					t.SetConnection(dir.Opposite(), false)
				}
			}
		}

		tiles = append(tiles[:removeIdx], tiles[removeIdx+1:]...)
	}

	return tiles
}

// placeSpecialTiles enforces the entrance, stairs, boss and vault quotas
func (g *Generator) placeSpecialTiles(floor *GeneratedFloor) error {
	tiles := floor.Tiles

	var entrance, boss *Tile
	var stairs, vaults []*Tile

	for _, t := range tiles {
		switch t.Type {
		case TileEntrance:
			if entrance == nil {
				entrance = t
			} else {
				t.Type = TileRoom
			}
		case TileStairs:
			if g.config.IsTerminal {
				t.Type = TileAlcove
			} else {
				stairs = append(stairs, t)
			}
		case TileBoss:
			if boss == nil && g.config.IsBossFloor {
				boss = t
			} else {
				t.Type = TileRoom
			}
		case TileVault:
			vaults = append(vaults, t)
		}
	}

	if entrance == nil {
		return fmt.Errorf("no entrance tile")
	}

	if !g.config.IsTerminal && len(stairs) == 0 {
		t := g.convertToType(tiles, TileStairs, []TileType{TileAlcove, TileRoom, TileCorridor})
		if t == nil {
			return fmt.Errorf("failed to place stairs")
		}
		stairs = append(stairs, t)
	}

	if g.config.IsBossFloor && boss == nil {
		boss = g.convertToType(tiles, TileBoss, []TileType{TileAlcove, TileRoom})
		if boss == nil {
			return fmt.Errorf("failed to place boss lair")
		}
	}

	for len(vaults) < g.config.VaultCount {
		t := g.convertToType(tiles, TileVault, []TileType{TileAlcove, TileRoom})
		if t == nil {
			break
		}
		vaults = append(vaults, t)
	}

	floor.EntranceTile = entrance
	floor.StairsTiles = stairs
	floor.BossTile = boss
	floor.VaultTiles = vaults

	return nil
}

// convertToType finds a tile of the preferred types and converts it
func (g *Generator) convertToType(tiles []*Tile, newType TileType, preferredTypes []TileType) *Tile {
	for _, prefType := range preferredTypes {
		var candidates []*Tile
		for _, t := range tiles {
			if t.Type == prefType {
				candidates = append(candidates, t)
			}
		}
		if len(candidates) > 0 {
			chosen := candidates[g.rng.Intn(len(candidates))]
			chosen.Type = newType
			return chosen
		}
	}
	return nil
}

// GetRoomID generates a unique room ID for a tile on a level
func GetRoomID(level, x, y int) string {
	return fmt.Sprintf("f%d_%d_%d", level, x, y)
}
