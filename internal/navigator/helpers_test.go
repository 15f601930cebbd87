package navigator

import (
	"fmt"

	"github.com/lawnchairsociety/delvekeep/server/internal/tower"
	"github.com/lawnchairsociety/delvekeep/server/internal/world"
)

func gridID(x, y int) string { return fmt.Sprintf("%d_%d", x, y) }

// gridFloor builds a w by h grid with every orthogonal neighbour linked.
// The entrance is at 0_0.
func gridFloor(w, h int) *tower.Floor {
	floor := tower.NewFloor(1)
	floor.EntranceRoomID = gridID(0, 0)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			rt := world.RoomTypeChamber
			if x == 0 && y == 0 {
				rt = world.RoomTypeEntrance
			}
			floor.AddRoom(world.NewRoom(gridID(x, y), gridID(x, y), "", rt))
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			room := floor.GetRoom(gridID(x, y))
			for _, dir := range world.Directions {
				dx, dy := dir.Offset()
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				room.AddExit(dir, gridID(nx, ny), "")
			}
		}
	}
	return floor
}

func exploreAll(floor *tower.Floor) *tower.FloorState {
	state := tower.NewFloorState(floor.Level)
	for _, r := range floor.Rooms {
		state.Room(r.ID).IsExplored = true
	}
	return state
}
