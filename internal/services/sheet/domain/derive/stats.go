package derive

import (
	"strconv"

	"github.com/louisbranch/duality-sheet/internal/services/sheet/compendium"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
)

// selectedTraits returns the chosen base trait values, unset traits as 0.
func selectedTraits(c *character.Character) map[character.Trait]int {
	out := make(map[character.Trait]int, len(character.Traits))
	for _, trait := range character.Traits {
		if value := c.SelectedTraits[trait]; value != nil {
			out[trait] = *value
		}
	}
	return out
}

// markedTiers counts, per trait, the tiers in which a traits option marked
// it. A trait marked twice in one tier counts once.
func markedTiers(levelUps []LevelUp) map[character.Trait]int {
	type mark struct {
		tier  int
		trait character.Trait
	}
	seen := map[mark]struct{}{}
	out := map[character.Trait]int{}
	for _, levelUp := range levelUps {
		if levelUp.Option.Kind != character.LevelUpTraits {
			continue
		}
		tier := character.Tier(levelUp.Level)
		for _, trait := range levelUp.Choice.MarkedTraits {
			key := mark{tier: tier, trait: trait}
			if _, ok := seen[key]; ok || !trait.Valid() {
				continue
			}
			seen[key] = struct{}{}
			out[trait]++
		}
	}
	return out
}

// deriveTraits resolves each trait from its selected value, with one bump
// per marked tier plus any active beastform trait bonus.
func deriveTraits(c *character.Character, levelUps []LevelUp, mods Partition[character.CharacterModifier], form *compendium.Beastform, s Scope) map[character.Trait]int {
	base := selectedTraits(c)
	marks := markedTiers(levelUps)
	out := make(map[character.Trait]int, len(character.Traits))
	for _, trait := range character.Traits {
		bump := marks[trait]
		if form != nil && form.Trait == trait {
			bump += form.TraitBonus
		}
		value := ApplyTraitModifiers(mods.Base, trait, base[trait], character.BehaviourBase, s)
		value += bump
		value = ApplyTraitModifiers(mods.Bonus, trait, value, character.BehaviourBonus, s)
		out[trait] = ApplyTraitModifiers(mods.Override, trait, value, character.BehaviourOverride, s)
	}
	return out
}

// subclassUpgrades counts subclass upgrade choices aimed at side.
func subclassUpgrades(levelUps []LevelUp, side character.UpgradeTarget) int {
	count := 0
	for _, levelUp := range levelUps {
		if levelUp.Option.Kind == character.LevelUpSubclassUpgrade && levelUp.Choice.SubclassUpgrade == side {
			count++
		}
	}
	return count
}

// baseMastery is the mastery before modifiers: 1 with a class chosen, plus
// one per upgrade, clamped.
func baseMastery(classID string, levelUps []LevelUp, side character.UpgradeTarget) int {
	if classID == "" {
		return clamp(0, MasteryMin, MasteryMax)
	}
	return clamp(1+subclassUpgrades(levelUps, side), MasteryMin, MasteryMax)
}

// deriveMastery resolves one mastery level. Secondary mastery shares the
// primary bound.
func deriveMastery(classID string, levelUps []LevelUp, side character.UpgradeTarget, target character.Target, mods Partition[character.CharacterModifier], s Scope) int {
	baseline := 0
	if classID != "" {
		baseline = 1
	}
	value := ResolveStat(mods, target, baseline, subclassUpgrades(levelUps, side), s)
	return clamp(value, MasteryMin, MasteryMax)
}

// deriveThresholds starts from (level, 2*level), or the armor thresholds
// when real armor is worn. If base modifiers leave the pair anywhere other
// than the unarmored default, both gain level before bonuses apply.
func deriveThresholds(level int, armor *Armor, mods Partition[character.CharacterModifier], s Scope) DamageThresholds {
	defaults := DamageThresholds{Major: level, Severe: level * 2}
	out := defaults
	if armor != nil && armor.CompendiumID != compendium.UnarmoredID {
		out = DamageThresholds{Major: armor.MajorThreshold, Severe: armor.SevereThreshold}
	}
	out.Major = ApplyModifiers(mods.Base, character.TargetMajorDamageThreshold, out.Major, character.BehaviourBase, s)
	out.Severe = ApplyModifiers(mods.Base, character.TargetSevereDamageThreshold, out.Severe, character.BehaviourBase, s)
	if out != defaults {
		out.Major += level
		out.Severe += level
	}
	out.Major = ApplyModifiers(mods.Bonus, character.TargetMajorDamageThreshold, out.Major, character.BehaviourBonus, s)
	out.Severe = ApplyModifiers(mods.Bonus, character.TargetSevereDamageThreshold, out.Severe, character.BehaviourBonus, s)
	out.Major = ApplyModifiers(mods.Override, character.TargetMajorDamageThreshold, out.Major, character.BehaviourOverride, s)
	out.Severe = ApplyModifiers(mods.Override, character.TargetSevereDamageThreshold, out.Severe, character.BehaviourOverride, s)
	return out
}

// deriveExperienceModifiers returns one modifier per experience slot. Slots
// start at the default, then take base choice-linked modifiers, one point
// per experience bonus level-up selection, bonus modifiers, and overrides.
func deriveExperienceModifiers(c *character.Character, count int, levelUps []LevelUp, mods Partition[character.CharacterModifier], s Scope) []int {
	out := make([]int, count)
	for i := range out {
		out[i] = BaseExperienceModifier
	}
	apply := func(list []character.CharacterModifier, behaviour character.Behaviour) {
		for _, m := range list {
			if m.Behaviour != behaviour || m.Choice == nil || !s.Allows(m.Conditions) {
				continue
			}
			var selections []string
			switch m.Target {
			case character.TargetExperienceFromDomainCardChoice:
				selections = c.DomainCardChoices.Get(m.Choice.CardID, m.Choice.ChoiceID)
			case character.TargetExperienceFromAncestryCardChoice:
				selections = c.AncestryCardChoices.Get(m.Choice.CardID, m.Choice.ChoiceID)
			default:
				continue
			}
			value, ok := Contribution(m.Type, m.Value, m.SourceTrait, m.Multiplier, s)
			if !ok {
				continue
			}
			for _, index := range experienceIndices(selections, count) {
				out[index] = combine(out[index], value, behaviour)
			}
		}
	}

	apply(mods.Base, character.BehaviourBase)
	for _, levelUp := range levelUps {
		if levelUp.Option.Kind != character.LevelUpExperienceBonus {
			continue
		}
		for _, index := range uniqueIndices(levelUp.Choice.SelectedExperiences, count, 2) {
			out[index]++
		}
	}
	apply(mods.Bonus, character.BehaviourBonus)
	apply(mods.Override, character.BehaviourOverride)
	return out
}

// experienceIndices parses selection ids as experience indices below count,
// skipping anything else and repeats.
func experienceIndices(selections []string, count int) []int {
	var parsed []int
	for _, selection := range selections {
		index, err := strconv.Atoi(selection)
		if err != nil {
			continue
		}
		parsed = append(parsed, index)
	}
	return uniqueIndices(parsed, count, len(parsed))
}

func uniqueIndices(indices []int, count, limit int) []int {
	var out []int
	seen := map[int]struct{}{}
	for _, index := range indices {
		if len(out) == limit {
			break
		}
		if _, dup := seen[index]; dup || index < 0 || index >= count {
			continue
		}
		seen[index] = struct{}{}
		out = append(out, index)
	}
	return out
}
