package derive

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/louisbranch/duality-sheet/internal/services/sheet/compendium"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
)

// availableDomains returns the domains of the chosen classes.
func availableDomains(c *character.Character, snap *compendium.Snapshot) map[string]struct{} {
	out := map[string]struct{}{}
	for _, id := range c.ClassIDs() {
		class, ok := snap.Class(id)
		if !ok {
			continue
		}
		for _, domain := range class.DomainIDs {
			out[domain] = struct{}{}
		}
	}
	return out
}

// healDomainCards drops domain card grants that are unknown, out of reach of
// the class domains at the current level, or repeat a title already in the
// vault. Additional cards skip the domain and level checks.
func healDomainCards(c *character.Character, env Env) []string {
	if !env.loaded(compendium.KindClasses, compendium.KindDomainCards) {
		return nil
	}
	var messages []string
	for level := range c.LevelDomainCards {
		if level < 2 || level > c.Level {
			delete(c.LevelDomainCards, level)
			messages = append(messages, fmt.Sprintf("domain card for level %d cleared", level))
		}
	}
	slices.Sort(messages)

	domains := availableDomains(c, env.Compendium)
	titles := map[string]struct{}{}
	var dropStarting, dropAdditional []int
	for _, source := range VaultSources(c) {
		card, ok := env.Compendium.DomainCard(source.ID)
		reason := ""
		switch {
		case !ok:
			reason = "unknown card"
		case source.Origin != OriginAdditional && !hasDomain(domains, card.DomainID):
			reason = "domain not available"
		case source.Origin != OriginAdditional && card.Level > c.Level:
			reason = fmt.Sprintf("requires level %d", card.Level)
		default:
			if _, dup := titles[card.Title]; dup {
				reason = "already in vault"
			}
		}
		if reason == "" {
			titles[card.Title] = struct{}{}
			continue
		}
		messages = append(messages, fmt.Sprintf("%s domain card %s removed: %s", source.Origin, source.ID, reason))
		switch source.Origin {
		case OriginStarting:
			dropStarting = append(dropStarting, source.Index)
		case OriginLevel:
			delete(c.LevelDomainCards, source.Level)
		case OriginLevelUp:
			pair := c.LevelUpChoices[source.Level]
			pair.Slot(source.Slot).SelectedDomainCard = nil
			c.LevelUpChoices[source.Level] = pair
		case OriginAdditional:
			dropAdditional = append(dropAdditional, source.Index)
		}
	}
	c.StartingDomainCards = dropIndices(c.StartingDomainCards, dropStarting)
	c.AdditionalDomainCards = dropIndices(c.AdditionalDomainCards, dropAdditional)
	return messages
}

func hasDomain(domains map[string]struct{}, id string) bool {
	_, ok := domains[id]
	return ok
}

func dropIndices[T any](items []T, indices []int) []T {
	if len(indices) == 0 {
		return items
	}
	out := items[:0:0]
	for i, item := range items {
		if !slices.Contains(indices, i) {
			out = append(out, item)
		}
	}
	return out
}

// pruneSelections keeps the selections valid for choice: option ids for
// option choices, experience indices below experiences for experience
// choices, without repeats and capped at MaxSelections.
func pruneSelections(selections []string, choice compendium.Choice, experiences int) []string {
	var kept []string
	for _, selection := range selections {
		if slices.Contains(kept, selection) {
			continue
		}
		if choice.MaxSelections > 0 && len(kept) == choice.MaxSelections {
			break
		}
		switch choice.Kind {
		case compendium.ChoiceExperience:
			index, err := strconv.Atoi(selection)
			if err != nil || index < 0 || index >= experiences {
				continue
			}
		default:
			if !choice.HasOption(selection) {
				continue
			}
		}
		kept = append(kept, selection)
	}
	return kept
}

// pruneChoices reduces selections to the cards and choices in valid, keyed
// by card id then choice id.
func pruneChoices(selections *character.ChoiceSelections, valid map[string][]compendium.Choice, experiences int, label string) []string {
	if len(*selections) == 0 {
		return nil
	}
	var messages []string
	for _, cardID := range sortedKeys(*selections) {
		choices, ok := valid[cardID]
		if !ok {
			delete(*selections, cardID)
			messages = append(messages, fmt.Sprintf("%s choices for %q removed", label, cardID))
			continue
		}
		inner := (*selections)[cardID]
		for _, choiceID := range sortedKeys(inner) {
			index := slices.IndexFunc(choices, func(choice compendium.Choice) bool { return choice.ID == choiceID })
			if index < 0 {
				delete(inner, choiceID)
				messages = append(messages, fmt.Sprintf("%s choice %s/%s removed", label, cardID, choiceID))
				continue
			}
			kept := pruneSelections(inner[choiceID], choices[index], experiences)
			if len(kept) == len(inner[choiceID]) {
				continue
			}
			messages = append(messages, fmt.Sprintf("%s choice %s/%s pruned to %v", label, cardID, choiceID, kept))
			if len(kept) == 0 {
				delete(inner, choiceID)
			} else {
				inner[choiceID] = kept
			}
		}
		if len(inner) == 0 {
			delete(*selections, cardID)
		}
	}
	if len(*selections) == 0 {
		*selections = nil
	}
	return messages
}

func experienceCount(c *character.Character, env Env) int {
	if env.complete() {
		return env.Sheet.MaxExperiences
	}
	return len(c.Experiences)
}

func healDomainCardChoices(c *character.Character, env Env) []string {
	if !env.loaded(compendium.KindDomainCards) {
		return nil
	}
	valid := map[string][]compendium.Choice{}
	for _, card := range BuildVault(VaultSources(c), env.Compendium) {
		valid[card.Key().String()] = card.Choices
	}
	return pruneChoices(&c.DomainCardChoices, valid, experienceCount(c, env), "domain card")
}

func healAncestryCardChoices(c *character.Character, env Env) []string {
	if !env.loaded(compendium.KindAncestries) {
		return nil
	}
	refs := Resolve(c, env.Compendium)
	valid := map[string][]compendium.Choice{}
	cards := slices.Clone(refs.AdditionalAncestries)
	if refs.Ancestry != nil {
		cards = append(cards, *refs.Ancestry)
	}
	for _, card := range cards {
		for _, choice := range card.Choices {
			valid[choice.CardID] = append(valid[choice.CardID], choice)
		}
		if _, ok := valid[card.ID]; !ok && card.ID != character.MixedAncestryID {
			valid[card.ID] = nil
		}
	}
	return pruneChoices(&c.AncestryCardChoices, valid, experienceCount(c, env), "ancestry card")
}

func healLootChoices(c *character.Character, env Env) []string {
	if !env.loaded(compendium.KindLoot) {
		return nil
	}
	valid := map[string][]compendium.Choice{}
	for _, item := range c.Inventory.Loot {
		if loot, ok := env.Compendium.Loot(item.CompendiumID); ok {
			valid[loot.ID] = loot.Choices
		}
	}
	return pruneChoices(&c.LootChoices, valid, experienceCount(c, env), "loot")
}

func healLoadout(c *character.Character, env Env) []string {
	if !env.complete() {
		return nil
	}
	vault := BuildVault(VaultSources(c), env.Compendium)
	normalized := NormalizeLoadout(c.Loadout, vault, env.Sheet.MaxLoadout)
	if slices.Equal(normalized, c.Loadout) {
		return nil
	}
	message := fmt.Sprintf("loadout normalized from %d to %d cards", len(c.Loadout), len(normalized))
	c.Loadout = normalized
	return []string{message}
}
