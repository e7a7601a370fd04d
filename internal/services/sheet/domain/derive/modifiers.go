package derive

import (
	"math"

	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
)

// Contribution returns the numeric value a modifier of type typ adds or
// sets. derived_from_* types scale their source by multiplier and round up;
// a nil multiplier scales by one. ok is false for unknown types.
func Contribution(typ character.ModifierType, value int, sourceTrait character.Trait, multiplier *float64, s Scope) (int, bool) {
	factor := 1.0
	if multiplier != nil {
		factor = *multiplier
	}
	switch typ {
	case character.ModifierFlat, "":
		return value, true
	case character.ModifierDerivedFromTrait:
		return scaled(s.Traits[sourceTrait], factor), true
	case character.ModifierDerivedFromProficiency:
		return scaled(s.Proficiency, factor), true
	case character.ModifierDerivedFromLevel:
		return scaled(s.level(), factor), true
	default:
		return 0, false
	}
}

func scaled(value int, multiplier float64) int {
	return int(math.Ceil(float64(value) * multiplier))
}

// ApplyModifiers folds every modifier with the given behaviour and target
// into current, in list order. Base and override modifiers replace the
// running value; bonus modifiers add to it. Modifiers whose conditions fail
// are skipped.
func ApplyModifiers(modifiers []character.CharacterModifier, target character.Target, current int, behaviour character.Behaviour, s Scope) int {
	return fold(modifiers, func(m character.CharacterModifier) bool {
		return m.Target == target
	}, current, behaviour, s)
}

// ApplyTraitModifiers is ApplyModifiers for trait-targeted modifiers naming
// trait.
func ApplyTraitModifiers(modifiers []character.CharacterModifier, trait character.Trait, current int, behaviour character.Behaviour, s Scope) int {
	return fold(modifiers, func(m character.CharacterModifier) bool {
		return m.Target == character.TargetTrait && m.Trait == trait
	}, current, behaviour, s)
}

func fold(modifiers []character.CharacterModifier, match func(character.CharacterModifier) bool, current int, behaviour character.Behaviour, s Scope) int {
	for _, m := range modifiers {
		if m.Behaviour != behaviour || !match(m) || !s.Allows(m.Conditions) {
			continue
		}
		value, ok := Contribution(m.Type, m.Value, m.SourceTrait, m.Multiplier, s)
		if !ok {
			continue
		}
		current = combine(current, value, behaviour)
	}
	return current
}

func combine(current, value int, behaviour character.Behaviour) int {
	switch behaviour {
	case character.BehaviourBonus:
		return current + value
	case character.BehaviourBase, character.BehaviourOverride:
		return value
	default:
		return current
	}
}

// ResolveStat runs the three phases over mods for target: base, then bump, then
// bonus, then override.
func ResolveStat(mods Partition[character.CharacterModifier], target character.Target, baseline, bump int, s Scope) int {
	value := ApplyModifiers(mods.Base, target, baseline, character.BehaviourBase, s)
	value += bump
	value = ApplyModifiers(mods.Bonus, target, value, character.BehaviourBonus, s)
	return ApplyModifiers(mods.Override, target, value, character.BehaviourOverride, s)
}
