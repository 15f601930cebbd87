package tower

import (
	"errors"
	"sync"
	"testing"
)

func TestTowerCachesFloors(t *testing.T) {
	tw := NewTower(NewGenerator(DefaultWorldSeed, DefaultLayout()))

	if tw.HasFloor(4) || tw.GetFloorIfExists(4) != nil {
		t.Fatal("fresh tower should have no floors")
	}

	first, err := tw.Floor(4)
	if err != nil {
		t.Fatalf("Floor(4) failed: %v", err)
	}
	second, _ := tw.Floor(4)
	if first != second {
		t.Error("Floor should return the cached instance")
	}
	if !tw.HasFloor(4) || tw.FloorCount() != 1 {
		t.Errorf("HasFloor = %v, FloorCount = %d", tw.HasFloor(4), tw.FloorCount())
	}
	if tw.HighestFloor != 4 {
		t.Errorf("HighestFloor = %d, want 4", tw.HighestFloor)
	}
}

func TestTowerConcurrentAccess(t *testing.T) {
	tw := NewTower(NewGenerator(DefaultWorldSeed, DefaultLayout()))

	var wg sync.WaitGroup
	floors := make([]*Floor, 8)
	for i := range floors {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			floors[i], _ = tw.Floor(10)
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(floors); i++ {
		if floors[i] != floors[0] {
			t.Fatal("concurrent callers received different floors")
		}
	}
}

func TestTowerRejectsOutOfRange(t *testing.T) {
	tw := NewTower(NewGenerator(DefaultWorldSeed, DefaultLayout()))
	if _, err := tw.Floor(101); !errors.Is(err, ErrLevelOutOfRange) {
		t.Errorf("Floor(101) error = %v", err)
	}
	if tw.FloorCount() != 0 {
		t.Error("failed generation should not be cached")
	}
}

func TestTowerMatchesGenerator(t *testing.T) {
	gen := NewGenerator(DefaultWorldSeed, DefaultLayout())
	var src FloorSource = NewTower(gen)

	cached, _ := src.Floor(25)
	fresh, _ := gen.Floor(25)
	if cached.EntranceRoomID != fresh.EntranceRoomID || cached.RoomCount() != fresh.RoomCount() {
		t.Error("cached floor differs from a fresh generation")
	}
}
