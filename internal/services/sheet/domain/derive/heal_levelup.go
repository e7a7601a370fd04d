package derive

import (
	"fmt"
	"slices"

	"github.com/louisbranch/duality-sheet/internal/services/sheet/compendium"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
)

func levelUpOption(env Env, choice *character.LevelUpChoice) (compendium.LevelUpOption, bool) {
	if choice.IsBlank() {
		return compendium.LevelUpOption{}, false
	}
	return env.Compendium.LevelUpOption(choice.OptionID)
}

func blank(choice *character.LevelUpChoice) {
	*choice = character.LevelUpChoice{}
}

func healLevelUpRange(c *character.Character, _ Env) []string {
	var messages []string
	for level := range c.LevelUpChoices {
		if level < 2 || level > c.Level {
			delete(c.LevelUpChoices, level)
			messages = append(messages, fmt.Sprintf("level-up choices for level %d cleared", level))
		}
	}
	slices.Sort(messages)
	return messages
}

// healLevelUpOptions blanks choices naming unknown options or options from a
// later tier than the level they were taken at.
func healLevelUpOptions(c *character.Character, env Env) []string {
	if !env.loaded(compendium.KindLevelUpOptions) {
		return nil
	}
	var messages []string
	c.EachLevelUp(c.Level, func(level int, slot character.LevelUpSlot, choice *character.LevelUpChoice) {
		if choice.IsBlank() {
			return
		}
		option, ok := levelUpOption(env, choice)
		switch {
		case !ok:
			messages = append(messages, fmt.Sprintf("level %d%s: unknown option %q cleared", level, slot, choice.OptionID))
			blank(choice)
		case option.Tier > character.Tier(level):
			messages = append(messages, fmt.Sprintf("level %d%s: tier %d option %q cleared", level, slot, option.Tier, choice.OptionID))
			blank(choice)
		}
	})
	return messages
}

// healLevelUpCost clears the other slot of a level whose option costs both
// slots. Slot A wins when both sides claim two.
func healLevelUpCost(c *character.Character, env Env) []string {
	if !env.loaded(compendium.KindLevelUpOptions) {
		return nil
	}
	var messages []string
	for _, level := range levelUpLevels(c) {
		pair := c.LevelUpChoices[level]
		a, aok := levelUpOption(env, &pair.A)
		b, bok := levelUpOption(env, &pair.B)
		switch {
		case aok && a.SlotCost() >= 2 && !pair.B.IsBlank():
			messages = append(messages, fmt.Sprintf("level %dB cleared: %q takes both choices", level, a.ID))
			blank(&pair.B)
		case bok && b.SlotCost() >= 2 && !pair.A.IsBlank():
			messages = append(messages, fmt.Sprintf("level %dA cleared: %q takes both choices", level, b.ID))
			blank(&pair.A)
		default:
			continue
		}
		c.LevelUpChoices[level] = pair
	}
	return messages
}

func healLevelUpMaxUses(c *character.Character, env Env) []string {
	if !env.loaded(compendium.KindLevelUpOptions) {
		return nil
	}
	var messages []string
	uses := map[string]int{}
	c.EachLevelUp(c.Level, func(level int, slot character.LevelUpSlot, choice *character.LevelUpChoice) {
		option, ok := levelUpOption(env, choice)
		if !ok {
			return
		}
		if option.MaxUses > 0 && uses[option.ID] >= option.MaxUses {
			messages = append(messages, fmt.Sprintf("level %d%s: %q used more than %d times", level, slot, option.ID, option.MaxUses))
			blank(choice)
			return
		}
		uses[option.ID]++
	})
	return messages
}

// healMulticlassExclusive keeps multiclass and subclass upgrade apart: within
// a tier the first of the two kinds taken wins, and multiclass is taken at
// most once across all tiers.
func healMulticlassExclusive(c *character.Character, env Env) []string {
	if !env.loaded(compendium.KindLevelUpOptions) {
		return nil
	}
	var messages []string
	claimed := map[int]character.LevelUpKind{}
	multiclassed := false
	c.EachLevelUp(c.Level, func(level int, slot character.LevelUpSlot, choice *character.LevelUpChoice) {
		option, ok := levelUpOption(env, choice)
		if !ok || (option.Kind != character.LevelUpMulticlass && option.Kind != character.LevelUpSubclassUpgrade) {
			return
		}
		tier := character.Tier(level)
		if option.Kind == character.LevelUpMulticlass && multiclassed {
			messages = append(messages, fmt.Sprintf("level %d%s: multiclass already taken", level, slot))
			blank(choice)
			return
		}
		if kind, ok := claimed[tier]; ok && kind != option.Kind {
			messages = append(messages, fmt.Sprintf("level %d%s: %s conflicts with %s in tier %d", level, slot, option.Kind, kind, tier))
			blank(choice)
			return
		}
		claimed[tier] = option.Kind
		if option.Kind == character.LevelUpMulticlass {
			multiclassed = true
		}
	})
	return messages
}

func isMulticlass(env Env, choice *character.LevelUpChoice) bool {
	option, ok := levelUpOption(env, choice)
	return ok && option.Kind == character.LevelUpMulticlass
}

// healSubclassUpgradeTarget clears upgrade targets that are not a side, and
// secondary targets chosen before any multiclass at the same or an earlier
// level.
func healSubclassUpgradeTarget(c *character.Character, env Env) []string {
	if !env.loaded(compendium.KindLevelUpOptions) {
		return nil
	}
	var messages []string
	multiclassed := false
	for _, level := range levelUpLevels(c) {
		pair := c.LevelUpChoices[level]
		if isMulticlass(env, &pair.A) || isMulticlass(env, &pair.B) {
			multiclassed = true
		}
		changed := false
		for _, slot := range []character.LevelUpSlot{character.SlotA, character.SlotB} {
			choice := pair.Slot(slot)
			switch choice.SubclassUpgrade {
			case "", character.UpgradePrimary:
				continue
			case character.UpgradeSecondary:
				if multiclassed {
					continue
				}
				messages = append(messages, fmt.Sprintf("level %d%s: secondary upgrade without multiclass cleared", level, slot))
			default:
				messages = append(messages, fmt.Sprintf("level %d%s: unknown upgrade target %q cleared", level, slot, choice.SubclassUpgrade))
			}
			choice.SubclassUpgrade = ""
			changed = true
		}
		if changed {
			c.LevelUpChoices[level] = pair
		}
	}
	return messages
}

// healLevelUpPayload drops payload fields the chosen option kind does not
// use.
func healLevelUpPayload(c *character.Character, env Env) []string {
	if !env.loaded(compendium.KindLevelUpOptions) {
		return nil
	}
	var messages []string
	c.EachLevelUp(c.Level, func(level int, slot character.LevelUpSlot, choice *character.LevelUpChoice) {
		if choice.IsBlank() {
			if !choice.IsZero() {
				messages = append(messages, fmt.Sprintf("level %d%s: payload without option cleared", level, slot))
				blank(choice)
			}
			return
		}
		option, ok := levelUpOption(env, choice)
		if !ok {
			return
		}
		dropped := false
		if option.Kind != character.LevelUpTraits && choice.MarkedTraits != nil {
			choice.MarkedTraits, dropped = nil, true
		}
		if option.Kind != character.LevelUpExperienceBonus && choice.SelectedExperiences != nil {
			choice.SelectedExperiences, dropped = nil, true
		}
		if option.Kind != character.LevelUpDomainCard && choice.SelectedDomainCard != nil {
			choice.SelectedDomainCard, dropped = nil, true
		}
		if option.Kind != character.LevelUpSubclassUpgrade && choice.SubclassUpgrade != "" {
			choice.SubclassUpgrade, dropped = "", true
		}
		if dropped {
			messages = append(messages, fmt.Sprintf("level %d%s: payload unused by %q cleared", level, slot, option.ID))
		}
	})
	return messages
}

// healMarkedTraits keeps each trait marked at most once per tier, first
// claim wins, and caps each choice at its option's mark count.
func healMarkedTraits(c *character.Character, env Env) []string {
	if !env.loaded(compendium.KindLevelUpOptions) {
		return nil
	}
	var messages []string
	claimed := map[int]map[character.Trait]struct{}{}
	c.EachLevelUp(c.Level, func(level int, slot character.LevelUpSlot, choice *character.LevelUpChoice) {
		option, ok := levelUpOption(env, choice)
		if !ok || option.Kind != character.LevelUpTraits || len(choice.MarkedTraits) == 0 {
			return
		}
		tier := character.Tier(level)
		if claimed[tier] == nil {
			claimed[tier] = map[character.Trait]struct{}{}
		}
		var kept []character.Trait
		for _, trait := range choice.MarkedTraits {
			if _, taken := claimed[tier][trait]; taken || !trait.Valid() {
				messages = append(messages, fmt.Sprintf("level %d%s: %s already marked in tier %d", level, slot, trait, tier))
				continue
			}
			if option.MarkedTraitCount > 0 && len(kept) == option.MarkedTraitCount {
				messages = append(messages, fmt.Sprintf("level %d%s: %s exceeds %d marks", level, slot, trait, option.MarkedTraitCount))
				continue
			}
			claimed[tier][trait] = struct{}{}
			kept = append(kept, trait)
		}
		if len(kept) != len(choice.MarkedTraits) {
			choice.MarkedTraits = kept
		}
	})
	return messages
}

// healExperienceSelections keeps at most two distinct, in-range experience
// indices per experience bonus choice.
func healExperienceSelections(c *character.Character, env Env) []string {
	if !env.loaded(compendium.KindLevelUpOptions) {
		return nil
	}
	count := len(c.Experiences)
	if env.complete() {
		count = env.Sheet.MaxExperiences
	}
	var messages []string
	c.EachLevelUp(c.Level, func(level int, slot character.LevelUpSlot, choice *character.LevelUpChoice) {
		option, ok := levelUpOption(env, choice)
		if !ok || option.Kind != character.LevelUpExperienceBonus || len(choice.SelectedExperiences) == 0 {
			return
		}
		kept := uniqueIndices(choice.SelectedExperiences, count, 2)
		if len(kept) != len(choice.SelectedExperiences) {
			messages = append(messages, fmt.Sprintf("level %d%s: experience selections pruned to %v", level, slot, kept))
			choice.SelectedExperiences = kept
		}
	})
	return messages
}

// healSecondaryClass clears a secondary class that repeats the primary or
// was never unlocked by a multiclass choice.
func healSecondaryClass(c *character.Character, env Env) []string {
	if c.SecondaryClassID == "" {
		return nil
	}
	if c.SecondaryClassID == c.PrimaryClassID {
		c.SecondaryClassID = ""
		return []string{"secondary class repeats the primary class"}
	}
	if !env.loaded(compendium.KindLevelUpOptions) {
		return nil
	}
	multiclassed := false
	c.EachLevelUp(c.Level, func(_ int, _ character.LevelUpSlot, choice *character.LevelUpChoice) {
		multiclassed = multiclassed || isMulticlass(env, choice)
	})
	if multiclassed {
		return nil
	}
	message := fmt.Sprintf("secondary class %q cleared without a multiclass choice", c.SecondaryClassID)
	c.SecondaryClassID = ""
	return []string{message}
}
