package tower

import (
	"fmt"
	"slices"
)

// Layout names the floors with special progression rules.
type Layout struct {
	MaxFloor         int   `yaml:"max_floor"`
	GateFloors       []int `yaml:"gate_floors"`
	SealFloors       []int `yaml:"seal_floors"`
	SecretBossFloors []int `yaml:"secret_boss_floors"`
}

// DefaultLayout returns the standard hundred-floor dungeon.
func DefaultLayout() Layout {
	return Layout{
		MaxFloor:         100,
		GateFloors:       []int{25, 40, 55, 70, 85, 95, 100},
		SealFloors:       []int{15, 30, 45, 60, 80, 99},
		SecretBossFloors: []int{33, 66, 88},
	}
}

// Validate checks that every listed floor exists and gate floors ascend.
func (l Layout) Validate() error {
	if l.MaxFloor < 1 {
		return fmt.Errorf("max_floor must be at least 1, got %d", l.MaxFloor)
	}
	check := func(name string, floors []int) error {
		for i, f := range floors {
			if f < 1 || f > l.MaxFloor {
				return fmt.Errorf("%s: floor %d outside 1..%d", name, f, l.MaxFloor)
			}
			if i > 0 && f <= floors[i-1] {
				return fmt.Errorf("%s must be strictly ascending", name)
			}
		}
		return nil
	}
	if err := check("gate_floors", l.GateFloors); err != nil {
		return err
	}
	if err := check("seal_floors", l.SealFloors); err != nil {
		return err
	}
	if err := check("secret_boss_floors", l.SecretBossFloors); err != nil {
		return err
	}
	for _, f := range l.SealFloors {
		if l.IsGate(f) {
			return fmt.Errorf("floor %d cannot be both a gate and a seal floor", f)
		}
	}
	return nil
}

// IsGate reports whether the level's boss must be resolved to go deeper.
func (l Layout) IsGate(level int) bool {
	return slices.Contains(l.GateFloors, level)
}

// IsSeal reports whether the level holds an ancient seal.
func (l Layout) IsSeal(level int) bool {
	return slices.Contains(l.SealFloors, level)
}

// IsSecretBoss reports whether the level hides a secret boss.
func (l Layout) IsSecretBoss(level int) bool {
	return slices.Contains(l.SecretBossFloors, level)
}

// IsSpecial reports whether a full clear of the level is pinned forever.
func (l Layout) IsSpecial(level int) bool {
	return l.IsSeal(level) || l.IsSecretBoss(level)
}

// IsTerminal reports whether the level is the bottom of the dungeon.
func (l Layout) IsTerminal(level int) bool {
	return level >= l.MaxFloor
}

// Clamp limits level to 1..MaxFloor.
func (l Layout) Clamp(level int) int {
	if level < 1 {
		return 1
	}
	if level > l.MaxFloor {
		return l.MaxFloor
	}
	return level
}
