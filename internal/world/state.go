package world

// RoomState is the mutable, persisted overlay on an immutable Room.
// Everything except IsExplored and IsCleared is a permanent world fact
// that respawning never resets.
type RoomState struct {
	IsExplored         bool `yaml:"is_explored" json:"is_explored"`
	IsCleared          bool `yaml:"is_cleared" json:"is_cleared"`
	TreasureLooted     bool `yaml:"treasure_looted" json:"treasure_looted"`
	TrapTriggered      bool `yaml:"trap_triggered" json:"trap_triggered"`
	EventCompleted     bool `yaml:"event_completed" json:"event_completed"`
	PuzzleSolved       bool `yaml:"puzzle_solved" json:"puzzle_solved"`
	RiddleAnswered     bool `yaml:"riddle_answered" json:"riddle_answered"`
	LoreCollected      bool `yaml:"lore_collected" json:"lore_collected"`
	InsightGranted     bool `yaml:"insight_granted" json:"insight_granted"`
	MemoryTriggered    bool `yaml:"memory_triggered" json:"memory_triggered"`
	SecretBossDefeated bool `yaml:"secret_boss_defeated" json:"secret_boss_defeated"`
	SealClaimed        bool `yaml:"seal_claimed" json:"seal_claimed"`
}

// Clone returns an independent copy.
func (s *RoomState) Clone() *RoomState {
	c := *s
	return &c
}

// Interacted reports whether the flag backing the feature kind is set.
func (s *RoomState) Interacted(kind FeatureKind) bool {
	if f := s.flagFor(kind); f != nil {
		return *f
	}
	return false
}

// MarkInteracted sets the flag backing the feature kind. It returns false
// when the flag was already set.
func (s *RoomState) MarkInteracted(kind FeatureKind) bool {
	f := s.flagFor(kind)
	if f == nil || *f {
		return false
	}
	*f = true
	return true
}

func (s *RoomState) flagFor(kind FeatureKind) *bool {
	switch kind {
	case FeatureChest:
		return &s.TreasureLooted
	case FeatureShrine:
		return &s.EventCompleted
	case FeatureSeal:
		return &s.SealClaimed
	case FeaturePuzzle:
		return &s.PuzzleSolved
	case FeatureRiddle:
		return &s.RiddleAnswered
	case FeatureLore:
		return &s.LoreCollected
	case FeatureInsight:
		return &s.InsightGranted
	case FeatureMemory:
		return &s.MemoryTriggered
	case FeatureSecretBoss:
		return &s.SecretBossDefeated
	}
	return nil
}
