package tower

// Difficulty returns the floor's difficulty rating, 1 on the first ten
// floors rising to 10 at the bottom.
func Difficulty(level int) int {
	if level <= 0 {
		return 1
	}
	d := 1 + (level-1)/10
	if d > 10 {
		d = 10
	}
	return d
}

// depthBonus returns the danger added to hostile rooms by depth.
func depthBonus(level int) int {
	switch {
	case level <= 30:
		return 0
	case level <= 70:
		return 1
	default:
		return 2
	}
}

// dangerRating combines a room type's base danger with floor depth.
// Rooms with nothing hostile in them are always rated 0.
func dangerRating(base, level int, hostile bool) int {
	if !hostile {
		return 0
	}
	d := base + depthBonus(level)
	if d < 1 {
		d = 1
	}
	if d > 3 {
		d = 3
	}
	return d
}
