package derive

import (
	"slices"

	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
)

// CompanionSubclassID is the subclass that keeps an animal companion.
const CompanionSubclassID = "beastbound"

// DeriveCompanion applies the companion's level-up perks for a character at
// level. Perks beyond the level-1 count are ignored. The companion's
// experiences and their modifiers are resized to the character's experience
// count; new experiences start blank at the default modifier.
func DeriveCompanion(c *character.Companion, level, experiences int) *character.Companion {
	if c == nil {
		return nil
	}
	out := c.Clone()

	if limit := max(0, level-1); len(out.LevelUpChoices) > limit {
		out.LevelUpChoices = out.LevelUpChoices[:limit]
	}
	experiences = max(0, experiences)
	out.Experiences = resize(out.Experiences, experiences, "")
	out.ExperienceModifiers = resize(out.ExperienceModifiers, experiences, BaseExperienceModifier)

	for _, choice := range out.LevelUpChoices {
		switch choice.Perk {
		case character.PerkIntelligent:
			seen := map[int]struct{}{}
			for _, index := range choice.ExperienceIndices {
				if _, dup := seen[index]; dup || index < 0 || index >= len(out.ExperienceModifiers) {
					continue
				}
				seen[index] = struct{}{}
				out.ExperienceModifiers[index]++
			}
		case character.PerkVicious:
			switch choice.ViciousTarget {
			case character.ViciousTargetDamage:
				out.Attack.DamageDice = StepDie(out.Attack.DamageDice)
			case character.ViciousTargetRange:
				out.Attack.Range = out.Attack.Range.Step()
			}
		case character.PerkResilient:
			out.MaxStress++
		case character.PerkLightInTheDark:
			out.MaxHope++
		case character.PerkAware:
			out.Evasion += 2
		}
	}

	out.MarkedStress = clamp(out.MarkedStress, 0, out.MaxStress)
	out.MarkedHope = clamp(out.MarkedHope, 0, out.MaxHope)
	return &out
}

func resize[T any](values []T, n int, fill T) []T {
	if len(values) >= n {
		return slices.Clone(values[:n])
	}
	out := slices.Clone(values)
	for len(out) < n {
		out = append(out, fill)
	}
	return out
}

func clamp(value, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	return min(max(value, lo), hi)
}
