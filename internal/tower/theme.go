package tower

// Theme gives a band of floors its names and atmosphere.
type Theme struct {
	Name         string   // Display name: "The Sunken Cellars"
	FirstFloor   int      // First floor of the band
	LastFloor    int      // Last floor of the band
	Ambience     string   // Sentence appended to every description
	ChamberNouns []string // Nouns for general chambers
	PassageNoun  string   // Noun for corridors
	BossTitle    string   // Name of the band's boss lair
}

// themes holds the banded theme table, ordered by floor.
var themes = []*Theme{
	{
		Name: "The Sunken Cellars", FirstFloor: 1, LastFloor: 10,
		Ambience:     "Water drips from vaulted brick overhead.",
		ChamberNouns: []string{"Cellar", "Storeroom", "Cistern", "Wine Vault"},
		PassageNoun:  "Brick Tunnel",
		BossTitle:    "Rat King's Nest",
	},
	{
		Name: "The Fungal Warrens", FirstFloor: 11, LastFloor: 20,
		Ambience:     "Pale caps glow faintly along the walls.",
		ChamberNouns: []string{"Grotto", "Spore Hollow", "Mycelium Den", "Root Chamber"},
		PassageNoun:  "Burrow",
		BossTitle:    "Heart of the Bloom",
	},
	{
		Name: "The Drowned Halls", FirstFloor: 21, LastFloor: 30,
		Ambience:     "Black water laps at your ankles.",
		ChamberNouns: []string{"Flooded Hall", "Tide Pool", "Sunken Nave", "Reef Chamber"},
		PassageNoun:  "Flooded Passage",
		BossTitle:    "Leviathan's Maw",
	},
	{
		Name: "The Bone Ossuary", FirstFloor: 31, LastFloor: 40,
		Ambience:     "Skulls watch from niches in the walls.",
		ChamberNouns: []string{"Charnel House", "Bone Gallery", "Crypt", "Mourning Hall"},
		PassageNoun:  "Ossuary Walk",
		BossTitle:    "Throne of Bones",
	},
	{
		Name: "The Ember Forges", FirstFloor: 41, LastFloor: 50,
		Ambience:     "Heat shimmers above cracks of glowing rock.",
		ChamberNouns: []string{"Forge", "Slag Pit", "Anvil Hall", "Smeltery"},
		PassageNoun:  "Cinder Duct",
		BossTitle:    "The Crucible",
	},
	{
		Name: "The Crystal Deeps", FirstFloor: 51, LastFloor: 60,
		Ambience:     "Crystals hum softly when you pass.",
		ChamberNouns: []string{"Geode", "Prism Hall", "Shard Garden", "Resonance Chamber"},
		PassageNoun:  "Crystal Vein",
		BossTitle:    "The Singing Geode",
	},
	{
		Name: "The Whispering Archive", FirstFloor: 61, LastFloor: 70,
		Ambience:     "Voices murmur from between the stacks.",
		ChamberNouns: []string{"Reading Room", "Scriptorium", "Map Room", "Index Hall"},
		PassageNoun:  "Stack Aisle",
		BossTitle:    "The Last Librarian's Study",
	},
	{
		Name: "The Frozen Vaults", FirstFloor: 71, LastFloor: 80,
		Ambience:     "Frost creeps over everything you touch.",
		ChamberNouns: []string{"Ice Cavern", "Frozen Hall", "Rime Chamber", "Glacier Cell"},
		PassageNoun:  "Frozen Gallery",
		BossTitle:    "The Winter Throne",
	},
	{
		Name: "The Shadowed Sanctum", FirstFloor: 81, LastFloor: 90,
		Ambience:     "Your torchlight seems to shrink.",
		ChamberNouns: []string{"Dark Chapel", "Veiled Hall", "Umbral Cell", "Shade Altar"},
		PassageNoun:  "Shadowed Way",
		BossTitle:    "The Eclipse Chamber",
	},
	{
		Name: "The Abyssal Throne", FirstFloor: 91, LastFloor: 100,
		Ambience:     "The stone itself seems to breathe.",
		ChamberNouns: []string{"Abyssal Hall", "Void Chamber", "Maw", "Pit of Echoes"},
		PassageNoun:  "Abyssal Causeway",
		BossTitle:    "Seat of the Old God",
	},
}

// ThemeForLevel returns the theme of the band containing level. Levels
// past the table use the deepest theme.
func ThemeForLevel(level int) *Theme {
	for _, t := range themes {
		if level >= t.FirstFloor && level <= t.LastFloor {
			return t
		}
	}
	if level < 1 {
		return themes[0]
	}
	return themes[len(themes)-1]
}

// AllThemes returns the theme table in floor order.
func AllThemes() []*Theme {
	result := make([]*Theme, len(themes))
	copy(result, themes)
	return result
}
