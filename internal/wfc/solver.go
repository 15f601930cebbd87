package wfc

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

var (
	ErrContradiction = errors.New("wfc: contradiction - no valid tiles for cell")
	ErrMaxIterations = errors.New("wfc: exceeded maximum iterations")
	ErrInvalidSize   = errors.New("wfc: invalid grid size")
	ErrNoSolution    = errors.New("wfc: failed to find valid solution")
	ErrNotConnected  = errors.New("wfc: generated layout is not fully connected")
)

// Cell represents a single cell in the grid during solving
type Cell struct {
	X, Y        int
	Possible    map[TileType]bool
	Collapsed   bool
	Type        TileType
	Connections map[Direction]bool
}

// Entropy returns the number of possible states
func (c *Cell) Entropy() int {
	count := 0
	for _, possible := range c.Possible {
		if possible {
			count++
		}
	}
	return count
}

type point struct{ x, y int }

// Solver grows a connected floor layout outward from the entrance.
// All randomness comes from the seeded rng, so a seed always yields
// the same layout.
type Solver struct {
	Width, Height int
	Grid          [][]*Cell
	Rules         *Rules
	rng           *rand.Rand

	MinRooms      int
	MaxRooms      int
	RequireStairs bool
	RequireBoss   bool

	frontier []point
}

// NewSolver creates a new solver with the given dimensions
func NewSolver(width, height int, seed int64) *Solver {
	s := &Solver{
		Width:         width,
		Height:        height,
		Rules:         DefaultRules(),
		rng:           rand.New(rand.NewSource(seed)),
		MinRooms:      15,
		MaxRooms:      40,
		RequireStairs: true,
		RequireBoss:   false,
		frontier:      make([]point, 0),
	}

	s.initializeGrid()
	return s
}

// initializeGrid sets up an empty grid
func (s *Solver) initializeGrid() {
	s.Grid = make([][]*Cell, s.Height)
	for y := 0; y < s.Height; y++ {
		s.Grid[y] = make([]*Cell, s.Width)
		for x := 0; x < s.Width; x++ {
			s.Grid[y][x] = &Cell{
				X:           x,
				Y:           y,
				Possible:    make(map[TileType]bool),
				Type:        TileEmpty,
				Connections: make(map[Direction]bool),
			}
		}
	}
}

// SetRequireBoss sets whether a boss room should be placed
func (s *Solver) SetRequireBoss(require bool) {
	s.RequireBoss = require
}

// Solve runs the growth algorithm and returns the resulting tiles
func (s *Solver) Solve() ([]*Tile, error) {
	if s.Width < 3 || s.Height < 3 {
		return nil, ErrInvalidSize
	}

	s.placeInitialTile(s.Width/2, s.Height/2)

	tileCount := 1
	maxIterations := s.Width * s.Height * 10

	for i := 0; i < maxIterations && len(s.frontier) > 0; i++ {
		if tileCount >= s.MaxRooms {
			break
		}

		idx := s.rng.Intn(len(s.frontier))
		front := s.frontier[idx]

		if s.tryExpand(front.x, front.y) {
			tileCount++
		}

		if !s.canExpand(front.x, front.y) {
			s.frontier = append(s.frontier[:idx], s.frontier[idx+1:]...)
		}
	}

	if tileCount < s.MinRooms {
		return nil, fmt.Errorf("only generated %d rooms, need at least %d", tileCount, s.MinRooms)
	}

	tiles := s.extractTiles()

	if !s.isConnected(tiles) {
		return nil, ErrNotConnected
	}

	return tiles, nil
}

// placeInitialTile places the entrance at the given cell
func (s *Solver) placeInitialTile(x, y int) {
	cell := s.Grid[y][x]
	cell.Type = TileEntrance
	cell.Collapsed = true

	s.frontier = append(s.frontier, point{x, y})
}

// tryExpand attempts to grow the layout from the given cell
func (s *Solver) tryExpand(x, y int) bool {
	cell := s.Grid[y][x]
	if !cell.Collapsed {
		return false
	}

	var available []Direction
	for _, dir := range AllDirections() {
		neighbor := s.getNeighbor(x, y, dir)
		if neighbor != nil && !neighbor.Collapsed {
			available = append(available, dir)
		}
	}

	if len(available) == 0 {
		return false
	}

	if s.countConnections(x, y) >= s.Rules.GetMaxConnections(cell.Type) {
		return false
	}

	dir := available[s.rng.Intn(len(available))]
	nx, ny := s.neighborCoords(x, y, dir)

	newType := s.chooseTileType(nx, ny)
	if newType == TileEmpty {
		return false
	}
	if !s.Rules.CanTypesConnect(cell.Type, newType) {
		newType = TileCorridor
	}

	neighbor := s.Grid[ny][nx]
	neighbor.Type = newType
	neighbor.Collapsed = true
	neighbor.Connections[dir.Opposite()] = true
	cell.Connections[dir] = true

	s.frontier = append(s.frontier, point{nx, ny})

	return true
}

// chooseTileType selects a weighted tile type for a new cell
func (s *Solver) chooseTileType(x, y int) TileType {
	existingNeighbors := 0
	for _, dir := range AllDirections() {
		if n := s.getNeighbor(x, y, dir); n != nil && n.Collapsed {
			existingNeighbors++
		}
	}

	type option struct {
		tileType TileType
		weight   int
	}
	options := []option{
		{TileCorridor, 5},
		{TileRoom, 4},
	}

	if existingNeighbors == 1 && s.rng.Float32() < 0.3 {
		options = append(options, option{TileAlcove, 2})
	}

	if s.RequireStairs && s.rng.Float32() < 0.05 {
		options = append(options, option{TileStairs, 1})
	}

	if s.rng.Float32() < 0.08 {
		options = append(options, option{TileVault, 1})
	}

	if s.RequireBoss && s.rng.Float32() < 0.03 {
		options = append(options, option{TileBoss, 1})
	}

	var weighted []TileType
	for _, opt := range options {
		for i := 0; i < opt.weight; i++ {
			weighted = append(weighted, opt.tileType)
		}
	}

	if len(weighted) == 0 {
		return TileEmpty
	}

	return weighted[s.rng.Intn(len(weighted))]
}

// canExpand returns true if the cell can still expand to neighbors
func (s *Solver) canExpand(x, y int) bool {
	cell := s.Grid[y][x]
	if !cell.Collapsed {
		return false
	}

	if s.countConnections(x, y) >= s.Rules.GetMaxConnections(cell.Type) {
		return false
	}

	for _, dir := range AllDirections() {
		if n := s.getNeighbor(x, y, dir); n != nil && !n.Collapsed {
			return true
		}
	}

	return false
}

// countConnections counts the number of connections for a cell
func (s *Solver) countConnections(x, y int) int {
	count := 0
	for _, dir := range AllDirections() {
		if s.Grid[y][x].Connections[dir] {
			count++
		}
	}
	return count
}

// neighborCoords returns the coordinates of a neighbor in the given direction
func (s *Solver) neighborCoords(x, y int, dir Direction) (int, int) {
	dx, dy := dir.Offset()
	return x + dx, y + dy
}

// getNeighbor returns the neighbor cell in the given direction
func (s *Solver) getNeighbor(x, y int, dir Direction) *Cell {
	nx, ny := s.neighborCoords(x, y, dir)
	if nx < 0 || nx >= s.Width || ny < 0 || ny >= s.Height {
		return nil
	}
	return s.Grid[ny][nx]
}

// extractTiles converts the collapsed grid into Tile objects in row-major order
func (s *Solver) extractTiles() []*Tile {
	var tiles []*Tile

	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			cell := s.Grid[y][x]
			if !cell.Collapsed || cell.Type == TileEmpty {
				continue
			}

			tile := NewTile(cell.Type, x, y)
			for _, dir := range AllDirections() {
				if cell.Connections[dir] {
					tile.Connections[dir] = true
				}
			}

			tiles = append(tiles, tile)
		}
	}

	return tiles
}

// isConnected verifies that all tiles are reachable from the first tile
func (s *Solver) isConnected(tiles []*Tile) bool {
	return IsConnected(tiles)
}

// IsConnected reports whether every tile is reachable from tiles[0]
// by following connections.
func IsConnected(tiles []*Tile) bool {
	if len(tiles) == 0 {
		return true
	}

	tileMap := make(map[point]*Tile, len(tiles))
	for _, t := range tiles {
		tileMap[point{t.X, t.Y}] = t
	}

	visited := map[point]bool{{tiles[0].X, tiles[0].Y}: true}
	queue := []*Tile{tiles[0]}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, dir := range AllDirections() {
			if !current.HasConnection(dir) {
				continue
			}

			dx, dy := dir.Offset()
			key := point{current.X + dx, current.Y + dy}
			if visited[key] {
				continue
			}

			if neighbor, ok := tileMap[key]; ok {
				visited[key] = true
				queue = append(queue, neighbor)
			}
		}
	}

	return len(visited) == len(tiles)
}

// SortTilesByPosition sorts tiles by Y then X for deterministic output
func SortTilesByPosition(tiles []*Tile) {
	sort.Slice(tiles, func(i, j int) bool {
		if tiles[i].Y != tiles[j].Y {
			return tiles[i].Y < tiles[j].Y
		}
		return tiles[i].X < tiles[j].X
	})
}
