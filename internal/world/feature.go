package world

// FeatureKind identifies what interacting with a feature records.
type FeatureKind int

const (
	FeatureChest      FeatureKind = iota // Loot container
	FeatureShrine                        // Event altar
	FeaturePuzzle                        // Puzzle mechanism
	FeatureRiddle                        // Riddle guardian
	FeatureLore                          // Collectable lore
	FeatureInsight                       // Insight source
	FeatureMemory                        // Memory trigger
	FeatureSecretBoss                    // Hidden boss encounter
	FeatureSeal                          // Ancient seal on seal floors
)

var featureKindNames = map[FeatureKind]string{
	FeatureChest:      "chest",
	FeatureShrine:     "shrine",
	FeaturePuzzle:     "puzzle",
	FeatureRiddle:     "riddle",
	FeatureLore:       "lore",
	FeatureInsight:    "insight",
	FeatureMemory:     "memory",
	FeatureSecretBoss: "secret_boss",
	FeatureSeal:       "seal",
}

func (k FeatureKind) String() string {
	if name, ok := featureKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseFeatureKind converts a string to a FeatureKind
func ParseFeatureKind(s string) (FeatureKind, bool) {
	for k, name := range featureKindNames {
		if name == s {
			return k, true
		}
	}
	return FeatureChest, false
}

// Feature is a named interactable in a room. Whether it has been used is
// a property of the player's RoomState, not of the room.
type Feature struct {
	Name string
	Kind FeatureKind
}

// FeatureView pairs a feature with its interacted status for display.
type FeatureView struct {
	Feature
	Interacted bool
}
