package derive

import (
	"fmt"

	"github.com/louisbranch/duality-sheet/internal/services/sheet/compendium"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
)

// Diagnostic records one correction made by a heal rule.
type Diagnostic struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Env is what heal rules read besides the document itself. Sheet is the
// sheet derived from the document before healing; Heal computes one when it
// is nil.
type Env struct {
	Compendium *compendium.Snapshot
	Sheet      *Sheet
}

func (e Env) loaded(kinds ...compendium.Kind) bool {
	for _, kind := range kinds {
		if !e.Compendium.Loaded(kind) {
			return false
		}
	}
	return true
}

// complete reports whether every table is loaded. Rules that cut state to a
// derived cap wait for it, since a partial compendium under-reports caps.
func (e Env) complete() bool {
	return e.loaded(compendium.Kinds...)
}

type rule struct {
	name  string
	apply func(c *character.Character, env Env) []string
}

// Rules run in this order. Each is idempotent for a fixed Env.
var rules = []rule{
	{name: "level", apply: healLevel},
	{name: "traits", apply: healTraits},
	{name: "conditions", apply: healConditions},
	{name: "heritage", apply: healHeritage},
	{name: "classes", apply: healClasses},
	{name: "level_up_range", apply: healLevelUpRange},
	{name: "level_up_options", apply: healLevelUpOptions},
	{name: "level_up_cost", apply: healLevelUpCost},
	{name: "level_up_max_uses", apply: healLevelUpMaxUses},
	{name: "multiclass_exclusive", apply: healMulticlassExclusive},
	{name: "subclass_upgrade_target", apply: healSubclassUpgradeTarget},
	{name: "level_up_payload", apply: healLevelUpPayload},
	{name: "marked_traits", apply: healMarkedTraits},
	{name: "experience_selections", apply: healExperienceSelections},
	{name: "secondary_class", apply: healSecondaryClass},
	{name: "subclasses", apply: healSubclasses},
	{name: "domain_cards", apply: healDomainCards},
	{name: "domain_card_choices", apply: healDomainCardChoices},
	{name: "ancestry_card_choices", apply: healAncestryCardChoices},
	{name: "loot_choices", apply: healLootChoices},
	{name: "loadout", apply: healLoadout},
	{name: "active_equipment", apply: healActiveEquipment},
	{name: "burden", apply: healBurden},
	{name: "consumables", apply: healConsumables},
	{name: "experiences", apply: healExperiences},
	{name: "marked_resources", apply: healMarkedResources},
	{name: "companion", apply: healCompanion},
	{name: "beastform", apply: healBeastform},
}

// RuleNames lists the heal rules in application order.
func RuleNames() []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.name
	}
	return names
}

// Heal runs every rule over a copy of c and returns the corrected document
// with one diagnostic per correction. It never fails.
func Heal(c character.Character, env Env) (character.Character, []Diagnostic) {
	out := c.Clone()
	if env.Sheet == nil {
		sheet := Compute(Context{Character: out, Compendium: env.Compendium})
		env.Sheet = &sheet
	}
	var diagnostics []Diagnostic
	for _, r := range rules {
		for _, message := range r.apply(&out, env) {
			diagnostics = append(diagnostics, Diagnostic{Rule: r.name, Message: message})
		}
	}
	return out, diagnostics
}

func healLevel(c *character.Character, _ Env) []string {
	if clamped := character.ClampLevel(c.Level); clamped != c.Level {
		message := fmt.Sprintf("level %d clamped to %d", c.Level, clamped)
		c.Level = clamped
		return []string{message}
	}
	return nil
}

// healTraits keeps the selected trait values that fit in the value pool,
// claiming pool entries in trait order. Values that do not fit reset to
// unset and unknown trait keys are dropped.
func healTraits(c *character.Character, _ Env) []string {
	var messages []string
	for trait := range c.SelectedTraits {
		if !trait.Valid() {
			delete(c.SelectedTraits, trait)
			messages = append(messages, fmt.Sprintf("unknown trait %q removed", trait))
		}
	}
	remaining := map[int]int{}
	for _, value := range character.TraitValuePool {
		remaining[value]++
	}
	for _, trait := range character.Traits {
		value := c.SelectedTraits[trait]
		if value == nil {
			continue
		}
		if remaining[*value] == 0 {
			messages = append(messages, fmt.Sprintf("trait %s value %d is not available in the pool", trait, *value))
			c.SelectedTraits[trait] = nil
			continue
		}
		remaining[*value]--
	}
	return messages
}

func healConditions(c *character.Character, _ Env) []string {
	if len(c.Conditions) == 0 {
		return nil
	}
	seen := map[string]struct{}{}
	kept := c.Conditions[:0:0]
	for _, condition := range c.Conditions {
		if _, dup := seen[condition]; dup || condition == "" {
			continue
		}
		seen[condition] = struct{}{}
		kept = append(kept, condition)
	}
	if len(kept) == len(c.Conditions) {
		return nil
	}
	c.Conditions = kept
	return []string{"duplicate conditions removed"}
}

func healHeritage(c *character.Character, env Env) []string {
	var messages []string
	snap := env.Compendium
	if c.AncestryID != character.MixedAncestryID && !c.MixedAncestry.IsZero() {
		c.MixedAncestry = character.MixedAncestry{}
		messages = append(messages, "mixed ancestry halves cleared without mixed ancestry")
	}
	if env.loaded(compendium.KindAncestries) {
		if c.AncestryID != "" && c.AncestryID != character.MixedAncestryID {
			if _, ok := snap.Ancestry(c.AncestryID); !ok {
				messages = append(messages, fmt.Sprintf("unknown ancestry %q cleared", c.AncestryID))
				c.AncestryID = ""
			}
		}
		for _, half := range []*string{&c.MixedAncestry.TopAncestryID, &c.MixedAncestry.BottomAncestryID} {
			if *half == "" {
				continue
			}
			if _, ok := snap.Ancestry(*half); !ok || *half == character.MixedAncestryID {
				messages = append(messages, fmt.Sprintf("mixed ancestry half %q cleared", *half))
				*half = ""
			}
		}
		messages = append(messages, pruneIDs(&c.AdditionalAncestryIDs, "ancestry", snap.Ancestry)...)
	}
	if env.loaded(compendium.KindCommunities) {
		if _, ok := snap.Community(c.CommunityID); !ok && c.CommunityID != "" {
			messages = append(messages, fmt.Sprintf("unknown community %q cleared", c.CommunityID))
			c.CommunityID = ""
		}
		messages = append(messages, pruneIDs(&c.AdditionalCommunityIDs, "community", snap.Community)...)
	}
	if env.loaded(compendium.KindTransformations) {
		if _, ok := snap.Transformation(c.TransformationID); !ok && c.TransformationID != "" {
			messages = append(messages, fmt.Sprintf("unknown transformation %q cleared", c.TransformationID))
			c.TransformationID = ""
		}
		messages = append(messages, pruneIDs(&c.AdditionalTransformationIDs, "transformation", snap.Transformation)...)
	}
	return messages
}

// pruneIDs drops unknown and repeated ids from ids.
func pruneIDs(ids *[]string, label string, find func(string) (compendium.Card, bool)) []string {
	if len(*ids) == 0 {
		return nil
	}
	var messages []string
	seen := map[string]struct{}{}
	var kept []string
	for _, id := range *ids {
		if _, dup := seen[id]; dup {
			messages = append(messages, fmt.Sprintf("duplicate additional %s %q removed", label, id))
			continue
		}
		if _, ok := find(id); !ok {
			messages = append(messages, fmt.Sprintf("unknown additional %s %q removed", label, id))
			continue
		}
		seen[id] = struct{}{}
		kept = append(kept, id)
	}
	if len(messages) > 0 {
		*ids = kept
	}
	return messages
}

func healClasses(c *character.Character, env Env) []string {
	if !env.loaded(compendium.KindClasses) {
		return nil
	}
	var messages []string
	for _, id := range []*string{&c.PrimaryClassID, &c.SecondaryClassID} {
		if *id == "" {
			continue
		}
		if _, ok := env.Compendium.Class(*id); !ok {
			messages = append(messages, fmt.Sprintf("unknown class %q cleared", *id))
			*id = ""
		}
	}
	return messages
}

func healSubclasses(c *character.Character, env Env) []string {
	var messages []string
	pairs := []struct {
		side     string
		class    string
		subclass *string
	}{
		{side: "primary", class: c.PrimaryClassID, subclass: &c.PrimarySubclassID},
		{side: "secondary", class: c.SecondaryClassID, subclass: &c.SecondarySubclassID},
	}
	for _, pair := range pairs {
		if *pair.subclass == "" {
			continue
		}
		if pair.class == "" {
			messages = append(messages, fmt.Sprintf("%s subclass %q cleared without a class", pair.side, *pair.subclass))
			*pair.subclass = ""
			continue
		}
		if !env.loaded(compendium.KindSubclasses) {
			continue
		}
		subclass, ok := env.Compendium.Subclass(*pair.subclass)
		if !ok || subclass.ClassID != pair.class {
			messages = append(messages, fmt.Sprintf("%s subclass %q does not belong to class %q", pair.side, *pair.subclass, pair.class))
			*pair.subclass = ""
		}
	}
	return messages
}
