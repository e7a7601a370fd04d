package derive

import (
	"slices"
	"strings"

	"github.com/louisbranch/duality-sheet/internal/services/sheet/compendium"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
)

// BeastformClassID is the class that can take beastforms.
const BeastformClassID = "druid"

type compositeRule struct {
	minLevel   int
	baseForms  int
	ceiling    int
	advantages int
	features   int
	hybrid     bool
	damage     int
	trait      int
	evasion    int
	stepDie    bool
}

var compositeRules = map[compendium.CompositeKind]compositeRule{
	compendium.CompositeLegendaryBeast: {
		minLevel: 5, baseForms: 1, ceiling: 1,
		damage: 6, trait: 1, evasion: 2,
	},
	compendium.CompositeMythicBeast: {
		minLevel: 8, baseForms: 1, ceiling: 4,
		damage: 9, trait: 2, evasion: 3, stepDie: true,
	},
	compendium.CompositeLegendaryHybrid: {
		minLevel: 5, baseForms: 2, ceiling: 4,
		advantages: 4, features: 2, hybrid: true,
	},
	compendium.CompositeMythicHybrid: {
		minLevel: 8, baseForms: 3, ceiling: 7,
		advantages: 5, features: 3, hybrid: true,
	},
}

// BaseFormCeiling returns the highest level requirement a base form of the
// composite may have, and false for plain beastforms.
func BaseFormCeiling(kind compendium.CompositeKind) (int, bool) {
	rule, ok := compositeRules[kind]
	return rule.ceiling, ok
}

// DeriveBeastform resolves the selected beastform. Plain forms come back as
// stored. Composite forms merge their base forms once the level gate is met
// and every sub-choice is complete; until then the template itself is
// returned.
func DeriveBeastform(sel *character.BeastformSelection, level int, snap *compendium.Snapshot) *compendium.Beastform {
	if sel == nil {
		return nil
	}
	template, ok := snap.Beastform(sel.BeastformID)
	if !ok {
		return nil
	}
	rule, composite := compositeRules[template.Composite]
	if !composite || level < rule.minLevel {
		return &template
	}
	bases, ok := baseForms(sel.BaseFormIDs, rule, snap)
	if !ok {
		return &template
	}
	if rule.hybrid {
		merged, ok := mergeHybrid(template, bases, sel, rule)
		if !ok {
			return &template
		}
		return &merged
	}
	merged := mergeBeast(template, bases[0], rule)
	return &merged
}

func baseForms(ids []string, rule compositeRule, snap *compendium.Snapshot) ([]compendium.Beastform, bool) {
	if len(ids) != rule.baseForms {
		return nil, false
	}
	forms := make([]compendium.Beastform, 0, len(ids))
	for i, id := range ids {
		if slices.Contains(ids[:i], id) {
			return nil, false
		}
		form, ok := snap.Beastform(id)
		if !ok || form.Composite != compendium.CompositeNone || form.LevelRequirement > rule.ceiling {
			return nil, false
		}
		forms = append(forms, form)
	}
	return forms, true
}

func mergeBeast(template, base compendium.Beastform, rule compositeRule) compendium.Beastform {
	out := base
	out.ID = template.ID
	out.Title = template.Title + " (" + base.Title + ")"
	out.Tier = template.Tier
	out.LevelRequirement = template.LevelRequirement
	out.Composite = template.Composite
	out.Advantages = slices.Clone(base.Advantages)
	out.Features = slices.Concat(base.Features, template.Features)
	out.Attack.DamageBonus += rule.damage
	out.TraitBonus += rule.trait
	out.EvasionBonus += rule.evasion
	if rule.stepDie {
		out.Attack.DamageDice = StepDie(out.Attack.DamageDice)
	}
	return out
}

func mergeHybrid(template compendium.Beastform, bases []compendium.Beastform, sel *character.BeastformSelection, rule compositeRule) (compendium.Beastform, bool) {
	out := template
	out.Advantages = nil
	out.Features = slices.Clone(template.Features)

	advantages, features := 0, 0
	for _, base := range bases {
		picked := sel.Advantages[base.ID]
		if !validPicks(picked, len(base.Advantages)) {
			return template, false
		}
		for _, index := range picked {
			advantages++
			if !slices.Contains(out.Advantages, base.Advantages[index]) {
				out.Advantages = append(out.Advantages, base.Advantages[index])
			}
		}
		picked = sel.Features[base.ID]
		if !validPicks(picked, len(base.Features)) {
			return template, false
		}
		for _, index := range picked {
			features++
			out.Features = append(out.Features, base.Features[index])
		}
	}
	if advantages != rule.advantages || features != rule.features {
		return template, false
	}
	return out, true
}

// validPicks reports whether every index is in range and picked once.
func validPicks(indices []int, n int) bool {
	for i, index := range indices {
		if index < 0 || index >= n || slices.Contains(indices[:i], index) {
			return false
		}
	}
	return true
}

var dieSteps = []string{"d4", "d6", "d8", "d10", "d12"}

// StepDie raises the die size of a dice expression such as "2d8" by one
// step, staying at d12. Expressions it cannot read come back unchanged.
func StepDie(dice string) string {
	i := strings.LastIndex(dice, "d")
	if i < 0 {
		return dice
	}
	count, size := dice[:i], dice[i:]
	for step, candidate := range dieSteps {
		if candidate != size {
			continue
		}
		if step+1 < len(dieSteps) {
			return count + dieSteps[step+1]
		}
		return dice
	}
	return dice
}
