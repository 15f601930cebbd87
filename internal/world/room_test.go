package world

import (
	"strings"
	"testing"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
		ok   bool
	}{
		{"north", North, true},
		{"N", North, true},
		{" east ", East, true},
		{"s", South, true},
		{"West", West, true},
		{"up", North, false},
	}

	for _, tc := range tests {
		got, ok := ParseDirection(tc.in)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("ParseDirection(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestRoomExits(t *testing.T) {
	r := NewRoom("a", "Hall", "A long hall.", RoomTypeCorridor)
	r.AddExit(West, "w", "a narrow arch")
	r.AddExit(North, "n", "")

	dirs := r.ExitDirections()
	if len(dirs) != 2 || dirs[0] != North || dirs[1] != West {
		t.Errorf("ExitDirections() = %v, want [north west]", dirs)
	}

	if dir, ok := r.ExitTo("w"); !ok || dir != West {
		t.Errorf("ExitTo(w) = %v, %v; want west, true", dir, ok)
	}
	if _, ok := r.ExitTo("missing"); ok {
		t.Error("ExitTo(missing) should fail")
	}
	if exit, ok := r.GetExit(West); !ok || exit.Description != "a narrow arch" {
		t.Errorf("GetExit(west) = %+v, %v", exit, ok)
	}
}

func TestRoomFindFeature(t *testing.T) {
	r := NewRoom("a", "Shrine", "Candles.", RoomTypeShrine)
	r.AddFeature("Bone Altar", FeatureShrine)
	r.AddFeature("bookshelf", FeatureLore)

	if f, ok := r.FindFeature("bone altar"); !ok || f.Kind != FeatureShrine {
		t.Errorf("FindFeature(bone altar) = %+v, %v", f, ok)
	}
	if f, ok := r.FindFeature("book"); !ok || f.Kind != FeatureLore {
		t.Errorf("FindFeature(book) = %+v, %v", f, ok)
	}
	if _, ok := r.FindFeature(""); ok {
		t.Error("empty name should not match")
	}
	if !r.HasFeature(FeatureLore) || r.HasFeature(FeatureSeal) {
		t.Error("HasFeature mismatch")
	}
}

func TestRoomStateMarkInteracted(t *testing.T) {
	tests := []struct {
		kind  FeatureKind
		check func(*RoomState) bool
	}{
		{FeatureChest, func(s *RoomState) bool { return s.TreasureLooted }},
		{FeatureShrine, func(s *RoomState) bool { return s.EventCompleted }},
		{FeatureSeal, func(s *RoomState) bool { return s.SealClaimed }},
		{FeaturePuzzle, func(s *RoomState) bool { return s.PuzzleSolved }},
		{FeatureRiddle, func(s *RoomState) bool { return s.RiddleAnswered }},
		{FeatureLore, func(s *RoomState) bool { return s.LoreCollected }},
		{FeatureInsight, func(s *RoomState) bool { return s.InsightGranted }},
		{FeatureMemory, func(s *RoomState) bool { return s.MemoryTriggered }},
		{FeatureSecretBoss, func(s *RoomState) bool { return s.SecretBossDefeated }},
	}

	for _, tc := range tests {
		t.Run(tc.kind.String(), func(t *testing.T) {
			s := &RoomState{}
			if s.Interacted(tc.kind) {
				t.Fatal("fresh state reports interacted")
			}
			if !s.MarkInteracted(tc.kind) {
				t.Fatal("first MarkInteracted should report a change")
			}
			if !tc.check(s) || !s.Interacted(tc.kind) {
				t.Error("flag not set")
			}
			if s.MarkInteracted(tc.kind) {
				t.Error("second MarkInteracted should be a no-op")
			}
			if s.IsCleared || s.IsExplored {
				t.Error("feature interaction must not touch combat flags")
			}
		})
	}
}

func TestRoomStateClone(t *testing.T) {
	s := &RoomState{IsExplored: true}
	c := s.Clone()
	c.IsCleared = true
	if s.IsCleared {
		t.Error("Clone shares storage with the original")
	}
}

func TestRoomDescribe(t *testing.T) {
	r := NewRoom("a", "Crypt", "Dust everywhere.", RoomTypeChamber)
	r.HasMonsters = true
	r.HasStairsDown = true
	r.AddFeature("chest", FeatureChest)
	r.AddExit(South, "b", "")

	fresh := r.Describe(&RoomState{})
	if !strings.Contains(fresh, "Something hostile") {
		t.Errorf("uncleared room should mention hostiles:\n%s", fresh)
	}
	if !strings.Contains(fresh, "Exits: south") {
		t.Errorf("missing exits line:\n%s", fresh)
	}

	done := r.Describe(&RoomState{IsCleared: true, TreasureLooted: true})
	if strings.Contains(done, "Something hostile") {
		t.Errorf("cleared room should not mention hostiles:\n%s", done)
	}
	if !strings.Contains(done, "chest here (spent)") {
		t.Errorf("looted chest should be marked spent:\n%s", done)
	}
}
