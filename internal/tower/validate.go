package tower

import (
	"errors"
	"fmt"

	"github.com/zyedidia/generic/mapset"
)

// Validate checks the structural guarantees of a generated floor:
// every exit resolves and has a return exit, every room is reachable from
// the entrance, stairs exist except on the terminal floor, and gate floors
// have exactly one boss room while other floors have none.
func Validate(floor *Floor, layout Layout) error {
	var errs []error

	entrance := floor.Entrance()
	if entrance == nil {
		return fmt.Errorf("entrance %q not found", floor.EntranceRoomID)
	}

	for _, room := range floor.Rooms {
		for _, dir := range room.ExitDirections() {
			exit := room.Exits[dir]
			target := floor.GetRoom(exit.TargetRoomID)
			if target == nil {
				errs = append(errs, fmt.Errorf("room %s: %s exit leads to missing room %s", room.ID, dir, exit.TargetRoomID))
				continue
			}
			back, ok := target.Exits[dir.Opposite()]
			if !ok || back.TargetRoomID != room.ID {
				errs = append(errs, fmt.Errorf("room %s: %s exit has no return", room.ID, dir))
			}
		}
	}

	reachable := Reachable(floor, floor.EntranceRoomID)
	if reachable.Size() != len(floor.Rooms) {
		for _, room := range floor.Rooms {
			if !reachable.Has(room.ID) {
				errs = append(errs, fmt.Errorf("room %s is unreachable from the entrance", room.ID))
			}
		}
	}

	stairs := len(floor.StairsRooms())
	if layout.IsTerminal(floor.Level) {
		if stairs != 0 {
			errs = append(errs, fmt.Errorf("terminal floor has %d stairs rooms", stairs))
		}
	} else if stairs == 0 {
		errs = append(errs, errors.New("no stairs down"))
	}

	bosses := 0
	for _, room := range floor.Rooms {
		if room.IsBossRoom {
			bosses++
		}
	}
	if layout.IsGate(floor.Level) && bosses != 1 {
		errs = append(errs, fmt.Errorf("gate floor has %d boss rooms, want 1", bosses))
	}
	if !layout.IsGate(floor.Level) && bosses != 0 {
		errs = append(errs, fmt.Errorf("ordinary floor has %d boss rooms", bosses))
	}

	return errors.Join(errs...)
}

// Reachable returns the ids of every room reachable from start by exits.
func Reachable(floor *Floor, start string) mapset.Set[string] {
	visited := mapset.New[string]()
	if !floor.HasRoom(start) {
		return visited
	}

	visited.Put(start)
	queue := []string{start}

	for len(queue) > 0 {
		current := floor.GetRoom(queue[0])
		queue = queue[1:]

		for _, dir := range current.ExitDirections() {
			next := current.Exits[dir].TargetRoomID
			if visited.Has(next) || !floor.HasRoom(next) {
				continue
			}
			visited.Put(next)
			queue = append(queue, next)
		}
	}

	return visited
}
