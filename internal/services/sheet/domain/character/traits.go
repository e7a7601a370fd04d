package character

// Trait names one of the six character traits.
type Trait string

const (
	TraitAgility   Trait = "agility"
	TraitStrength  Trait = "strength"
	TraitFinesse   Trait = "finesse"
	TraitInstinct  Trait = "instinct"
	TraitPresence  Trait = "presence"
	TraitKnowledge Trait = "knowledge"
)

// Traits lists every trait in sheet order. Iteration over trait maps always
// follows this slice so derivations stay deterministic.
var Traits = []Trait{
	TraitAgility,
	TraitStrength,
	TraitFinesse,
	TraitInstinct,
	TraitPresence,
	TraitKnowledge,
}

// TraitValuePool is the multiset of values a player distributes across the six
// traits at creation.
var TraitValuePool = []int{2, 1, 1, 0, 0, -1}

// Valid reports whether t names a known trait.
func (t Trait) Valid() bool {
	switch t {
	case TraitAgility, TraitStrength, TraitFinesse, TraitInstinct, TraitPresence, TraitKnowledge:
		return true
	}
	return false
}

// Level bounds.
const (
	LevelMin = 1
	LevelMax = 10
)

// Tier returns the level tier: 1 for level 1, then 2 (2-4), 3 (5-7), 4 (8-10).
func Tier(level int) int {
	switch {
	case level >= 8:
		return 4
	case level >= 5:
		return 3
	case level >= 2:
		return 2
	default:
		return 1
	}
}

// TierBumps counts the tier achievements reached at level (levels 2, 5 and 8).
func TierBumps(level int) int {
	bumps := 0
	for _, threshold := range []int{2, 5, 8} {
		if level >= threshold {
			bumps++
		}
	}
	return bumps
}

// ClampLevel forces level into LevelMin..LevelMax.
func ClampLevel(level int) int {
	if level < LevelMin {
		return LevelMin
	}
	if level > LevelMax {
		return LevelMax
	}
	return level
}
