package tower

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/lawnchairsociety/delvekeep/server/internal/wfc"
	"github.com/lawnchairsociety/delvekeep/server/internal/world"
)

// DefaultWorldSeed is the seed every deployment shares unless configured
// otherwise. Changing it regenerates every floor.
const DefaultWorldSeed int64 = 0x5EED_D31E

var (
	// ErrGenerationFailed marks a generator defect. It is never recoverable:
	// callers must not fall back to a partial floor.
	ErrGenerationFailed = errors.New("floor generation failed")
	ErrLevelOutOfRange  = errors.New("level out of range")
)

// Generator builds floors as a pure function of the world seed and level.
type Generator struct {
	WorldSeed int64
	Layout    Layout
}

// NewGenerator creates a generator for the given seed and layout
func NewGenerator(worldSeed int64, layout Layout) *Generator {
	return &Generator{WorldSeed: worldSeed, Layout: layout}
}

// Generate builds the floor for level. The same level always yields the
// same room ids, exits and entrance.
func (g *Generator) Generate(level int) (*Floor, error) {
	if level < 1 || level > g.Layout.MaxFloor {
		return nil, fmt.Errorf("%w: %d", ErrLevelOutOfRange, level)
	}

	cfg := wfc.DefaultFloorConfig(level, g.WorldSeed)
	cfg.IsBossFloor = g.Layout.IsGate(level)
	cfg.IsTerminal = g.Layout.IsTerminal(level)

	generated, err := wfc.NewGenerator(cfg).Generate()
	if err != nil {
		return nil, fmt.Errorf("%w: level %d: %v", ErrGenerationFailed, level, err)
	}

	floor := g.convertToFloor(level, generated)

	if err := Validate(floor, g.Layout); err != nil {
		return nil, fmt.Errorf("%w: level %d: %v", ErrGenerationFailed, level, err)
	}

	return floor, nil
}

// Floor satisfies the same lookup interface as Tower, generating on
// every call.
func (g *Generator) Floor(level int) (*Floor, error) {
	return g.Generate(level)
}

// convertToFloor turns solved tiles into rooms and links their exits
func (g *Generator) convertToFloor(level int, generated *wfc.GeneratedFloor) *Floor {
	floor := NewFloor(level)
	floor.Seed = generated.Seed
	theme := floor.Theme

	// Content is drawn after layout from its own stream so layout retries
	// never shift room contents.
	rng := rand.New(rand.NewSource(generated.Seed ^ 0x0C0FFEE))

	for _, tile := range generated.Tiles {
		id := wfc.GetRoomID(level, tile.X, tile.Y)
		room := g.buildRoom(id, tile.Type, level, theme, rng)
		floor.AddRoom(room)
	}

	if generated.EntranceTile != nil {
		floor.EntranceRoomID = wfc.GetRoomID(level, generated.EntranceTile.X, generated.EntranceTile.Y)
	}

	for _, tile := range generated.Tiles {
		room := floor.GetRoom(wfc.GetRoomID(level, tile.X, tile.Y))
		for _, dir := range wfc.AllDirections() {
			if !tile.HasConnection(dir) {
				continue
			}
			dx, dy := dir.Offset()
			targetID := wfc.GetRoomID(level, tile.X+dx, tile.Y+dy)
			target := floor.GetRoom(targetID)
			if target == nil {
				continue
			}
			room.AddExit(toWorldDirection(dir), targetID, exitDescription(target, theme))
		}
	}

	if g.Layout.IsSeal(level) {
		if r := pickFeatureHost(floor, rng); r != nil {
			r.AddFeature("ancient seal", world.FeatureSeal)
			r.HasEvent = true
		}
	}
	if g.Layout.IsSecretBoss(level) {
		if r := pickFeatureHost(floor, rng); r != nil {
			r.AddFeature("cracked sarcophagus", world.FeatureSecretBoss)
			r.HasEvent = true
		}
	}

	return floor
}

func (g *Generator) buildRoom(id string, tt wfc.TileType, level int, theme *Theme, rng *rand.Rand) *world.Room {
	roomType := tileTypeToRoomType(tt, rng)
	name := roomName(roomType, theme, rng)
	room := world.NewRoom(id, name, roomDescription(roomType, theme), roomType)

	switch roomType {
	case world.RoomTypeEntrance:
		// Arrival is always safe.
	case world.RoomTypeStairs:
		room.HasStairsDown = true
		room.HasMonsters = rng.Float32() < 0.3
	case world.RoomTypeBoss:
		room.IsBossRoom = true
		room.HasMonsters = true
	case world.RoomTypeVault:
		room.HasTreasure = true
		room.AddFeature("iron-bound chest", world.FeatureChest)
		room.HasTrap = rng.Float32() < 0.4
		room.HasMonsters = rng.Float32() < 0.5
	case world.RoomTypeAlcove:
		switch r := rng.Float32(); {
		case r < 0.3:
			room.HasTreasure = true
			room.AddFeature("dusty coffer", world.FeatureChest)
		case r < 0.5:
			room.HasEvent = true
			room.AddFeature("rune lock", world.FeaturePuzzle)
		}
		room.HasTrap = rng.Float32() < 0.2
		room.HasMonsters = rng.Float32() < 0.25
	case world.RoomTypeShrine:
		room.HasEvent = true
		room.AddFeature("weathered altar", world.FeatureShrine)
	case world.RoomTypeLibrary:
		room.AddFeature("crumbling tome", world.FeatureLore)
		room.HasMonsters = rng.Float32() < 0.2
	case world.RoomTypeCorridor:
		room.HasMonsters = rng.Float32() < 0.3
		room.HasTrap = rng.Float32() < 0.15
	default:
		room.HasMonsters = rng.Float32() < 0.6
		room.HasTrap = rng.Float32() < 0.1
		switch r := rng.Float32(); {
		case r < 0.05:
			room.HasEvent = true
			room.AddFeature("stone sphinx", world.FeatureRiddle)
		case r < 0.09:
			room.AddFeature("scrying pool", world.FeatureInsight)
		case r < 0.13:
			room.AddFeature("faded mural", world.FeatureMemory)
		case r < 0.21:
			room.HasTreasure = true
			room.AddFeature("old chest", world.FeatureChest)
		}
	}

	if room.IsBossRoom {
		room.DangerRating = 3
	} else {
		room.DangerRating = dangerRating(roomType.BaseDanger(), level, room.HasMonsters || room.HasTrap)
	}

	return room
}

// pickFeatureHost chooses a quiet room for a floor-wide feature: an
// alcove or chamber without other features, never the entrance or lair.
func pickFeatureHost(floor *Floor, rng *rand.Rand) *world.Room {
	var candidates []*world.Room
	for _, r := range floor.Rooms {
		if r.IsBossRoom || r.ID == floor.EntranceRoomID || len(r.Features) > 0 {
			continue
		}
		if r.Type == world.RoomTypeAlcove || r.Type == world.RoomTypeChamber {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		for _, r := range floor.Rooms {
			if !r.IsBossRoom && r.ID != floor.EntranceRoomID {
				candidates = append(candidates, r)
			}
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[rng.Intn(len(candidates))]
}

func toWorldDirection(d wfc.Direction) world.Direction {
	switch d {
	case wfc.North:
		return world.North
	case wfc.East:
		return world.East
	case wfc.South:
		return world.South
	default:
		return world.West
	}
}

func tileTypeToRoomType(tt wfc.TileType, rng *rand.Rand) world.RoomType {
	switch tt {
	case wfc.TileCorridor:
		return world.RoomTypeCorridor
	case wfc.TileAlcove:
		return world.RoomTypeAlcove
	case wfc.TileVault:
		return world.RoomTypeVault
	case wfc.TileBoss:
		return world.RoomTypeBoss
	case wfc.TileStairs:
		return world.RoomTypeStairs
	case wfc.TileEntrance:
		return world.RoomTypeEntrance
	default:
		switch r := rng.Float32(); {
		case r < 0.12:
			return world.RoomTypeShrine
		case r < 0.22:
			return world.RoomTypeLibrary
		default:
			return world.RoomTypeChamber
		}
	}
}

func roomName(rt world.RoomType, theme *Theme, rng *rand.Rand) string {
	switch rt {
	case world.RoomTypeCorridor:
		return theme.PassageNoun
	case world.RoomTypeAlcove:
		return "Narrow Alcove"
	case world.RoomTypeShrine:
		return "Forgotten Shrine"
	case world.RoomTypeLibrary:
		return "Mouldering Library"
	case world.RoomTypeVault:
		return "Sealed Vault"
	case world.RoomTypeStairs:
		return "Descending Stairway"
	case world.RoomTypeEntrance:
		return "Landing"
	case world.RoomTypeBoss:
		return theme.BossTitle
	default:
		return theme.ChamberNouns[rng.Intn(len(theme.ChamberNouns))]
	}
}

func roomDescription(rt world.RoomType, theme *Theme) string {
	var base string
	switch rt {
	case world.RoomTypeCorridor:
		base = "A passage winds between the chambers."
	case world.RoomTypeAlcove:
		base = "The way ends in a cramped nook."
	case world.RoomTypeShrine:
		base = "Candle stubs ring a small altar."
	case world.RoomTypeLibrary:
		base = "Rotting shelves sag under forgotten books."
	case world.RoomTypeVault:
		base = "Heavy doors guard whatever was hoarded here."
	case world.RoomTypeStairs:
		base = "Worn steps spiral down into the dark."
	case world.RoomTypeEntrance:
		base = "The stair from above opens onto this landing."
	case world.RoomTypeBoss:
		base = "Something vast waits in the dark of this hall."
	default:
		base = "A wide chamber of old stone."
	}
	return base + " " + theme.Ambience
}

func exitDescription(target *world.Room, theme *Theme) string {
	switch {
	case target.IsBossRoom:
		return "a looming archway"
	case target.HasStairsDown:
		return "a draught rising from below"
	case target.Type == world.RoomTypeCorridor:
		return "the " + strings.ToLower(theme.PassageNoun)
	default:
		return "an opening"
	}
}
