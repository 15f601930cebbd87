package wfc

// Rules defines connection-count and adjacency constraints for floor layouts
type Rules struct {
	MinConnections map[TileType]int
	MaxConnections map[TileType]int
	// CanConnect is symmetric: CanConnect[a][b] == CanConnect[b][a]
	CanConnect map[TileType]map[TileType]bool
}

// DefaultRules returns the standard rules for dungeon floors
func DefaultRules() *Rules {
	r := &Rules{
		MinConnections: make(map[TileType]int),
		MaxConnections: make(map[TileType]int),
		CanConnect:     make(map[TileType]map[TileType]bool),
	}

	r.MinConnections[TileCorridor] = 2
	r.MaxConnections[TileCorridor] = 4

	r.MinConnections[TileRoom] = 1
	r.MaxConnections[TileRoom] = 4

	r.MinConnections[TileAlcove] = 1
	r.MaxConnections[TileAlcove] = 1

	r.MinConnections[TileStairs] = 1
	r.MaxConnections[TileStairs] = 1

	// The entrance may open in several directions so the start room
	// never strangles growth.
	r.MinConnections[TileEntrance] = 1
	r.MaxConnections[TileEntrance] = 4

	r.MinConnections[TileVault] = 1
	r.MaxConnections[TileVault] = 2

	r.MinConnections[TileBoss] = 1
	r.MaxConnections[TileBoss] = 2

	allTypes := []TileType{TileCorridor, TileRoom, TileAlcove, TileVault, TileBoss, TileStairs, TileEntrance}
	for _, t := range allTypes {
		r.CanConnect[t] = make(map[TileType]bool)
	}

	// Corridors and rooms connect to everything
	for _, t := range allTypes {
		r.setCanConnect(TileCorridor, t, true)
		r.setCanConnect(TileRoom, t, true)
	}

	r.setCanConnect(TileAlcove, TileAlcove, false)

	r.setCanConnect(TileStairs, TileStairs, false)
	r.setCanConnect(TileStairs, TileEntrance, false)
	r.setCanConnect(TileStairs, TileAlcove, false)
	r.setCanConnect(TileStairs, TileVault, false)
	r.setCanConnect(TileStairs, TileBoss, false)

	r.setCanConnect(TileEntrance, TileAlcove, false)
	r.setCanConnect(TileEntrance, TileVault, false)
	r.setCanConnect(TileEntrance, TileBoss, false)

	r.setCanConnect(TileVault, TileVault, false)
	r.setCanConnect(TileVault, TileAlcove, false)
	r.setCanConnect(TileVault, TileBoss, false)

	r.setCanConnect(TileBoss, TileBoss, false)
	r.setCanConnect(TileBoss, TileAlcove, false)

	return r
}

// setCanConnect sets bidirectional connection permission
func (r *Rules) setCanConnect(t1, t2 TileType, allowed bool) {
	if r.CanConnect[t1] == nil {
		r.CanConnect[t1] = make(map[TileType]bool)
	}
	if r.CanConnect[t2] == nil {
		r.CanConnect[t2] = make(map[TileType]bool)
	}
	r.CanConnect[t1][t2] = allowed
	r.CanConnect[t2][t1] = allowed
}

// CanTypesConnect returns true if two tile types can be adjacent
func (r *Rules) CanTypesConnect(t1, t2 TileType) bool {
	if t1 == TileEmpty || t2 == TileEmpty {
		return true
	}
	if r.CanConnect[t1] == nil {
		return false
	}
	return r.CanConnect[t1][t2]
}

// ValidConnectionCount returns true if the connection count is valid for the tile type
func (r *Rules) ValidConnectionCount(tileType TileType, count int) bool {
	if tileType == TileEmpty {
		return true
	}
	min, hasMin := r.MinConnections[tileType]
	max, hasMax := r.MaxConnections[tileType]

	if hasMin && count < min {
		return false
	}
	if hasMax && count > max {
		return false
	}
	return true
}

// GetMinConnections returns the minimum connections for a tile type
func (r *Rules) GetMinConnections(tileType TileType) int {
	if min, ok := r.MinConnections[tileType]; ok {
		return min
	}
	return 1
}

// GetMaxConnections returns the maximum connections for a tile type
func (r *Rules) GetMaxConnections(tileType TileType) int {
	if max, ok := r.MaxConnections[tileType]; ok {
		return max
	}
	return 4
}
