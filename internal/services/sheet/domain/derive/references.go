package derive

import (
	"sort"

	"github.com/louisbranch/duality-sheet/internal/services/sheet/compendium"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
)

// LevelUp is one chosen level-up option with its resolved compendium entry.
type LevelUp struct {
	Level  int
	Slot   character.LevelUpSlot
	Choice character.LevelUpChoice
	Option compendium.LevelUpOption
}

// References holds every id on a character resolved against a compendium
// snapshot. Nil pointers and missing entries mean the id is unset, stale, or
// its table has not loaded yet.
type References struct {
	Ancestry       *compendium.Card
	Community      *compendium.Card
	Transformation *compendium.Card

	AdditionalAncestries      []compendium.Card
	AdditionalCommunities     []compendium.Card
	AdditionalTransformations []compendium.Card

	PrimaryClass      *compendium.Class
	PrimarySubclass   *compendium.Subclass
	SecondaryClass    *compendium.Class
	SecondarySubclass *compendium.Subclass

	LevelUps []LevelUp

	Inventory       Inventory
	PrimaryWeapon   *Weapon
	SecondaryWeapon *Weapon
	Armor           *Armor

	Vault []compendium.DomainCard
}

// ArmorEquipped reports whether real armor, not the unarmored entry, is
// active.
func (r References) ArmorEquipped() bool {
	return r.Armor != nil && r.Armor.CompendiumID != compendium.UnarmoredID
}

// Resolve resolves every id on c against snap.
func Resolve(c *character.Character, snap *compendium.Snapshot) References {
	var refs References

	if c.AncestryID == character.MixedAncestryID {
		refs.Ancestry = mixedAncestry(c.MixedAncestry, snap)
	} else if card, ok := snap.Ancestry(c.AncestryID); ok {
		refs.Ancestry = ownedCard(card)
	}
	if card, ok := snap.Community(c.CommunityID); ok {
		refs.Community = ownedCard(card)
	}
	if card, ok := snap.Transformation(c.TransformationID); ok {
		refs.Transformation = ownedCard(card)
	}
	refs.AdditionalAncestries = resolveCards(c.AdditionalAncestryIDs, snap.Ancestry)
	refs.AdditionalCommunities = resolveCards(c.AdditionalCommunityIDs, snap.Community)
	refs.AdditionalTransformations = resolveCards(c.AdditionalTransformationIDs, snap.Transformation)

	if class, ok := snap.Class(c.PrimaryClassID); ok {
		refs.PrimaryClass = &class
	}
	if subclass, ok := snap.Subclass(c.PrimarySubclassID); ok {
		refs.PrimarySubclass = &subclass
	}
	if class, ok := snap.Class(c.SecondaryClassID); ok {
		refs.SecondaryClass = &class
	}
	if subclass, ok := snap.Subclass(c.SecondarySubclassID); ok {
		refs.SecondarySubclass = &subclass
	}

	refs.LevelUps = resolveLevelUps(c, snap)

	refs.Inventory = resolveInventory(c.Inventory, snap)
	if weapon, ok := refs.Inventory.PrimaryWeapons[c.ActiveEquipment.PrimaryWeaponID]; ok {
		refs.PrimaryWeapon = &weapon
	}
	if weapon, ok := refs.Inventory.SecondaryWeapons[c.ActiveEquipment.SecondaryWeaponID]; ok {
		refs.SecondaryWeapon = &weapon
	}
	if armor, ok := refs.Inventory.Armor[c.ActiveEquipment.ArmorID]; ok {
		refs.Armor = &armor
	}

	refs.Vault = BuildVault(VaultSources(c), snap)
	return refs
}

func resolveCards(ids []string, find func(string) (compendium.Card, bool)) []compendium.Card {
	var out []compendium.Card
	for _, id := range ids {
		if card, ok := find(id); ok {
			out = append(out, *ownedCard(card))
		}
	}
	return out
}

// ownedCard stamps each choice with the card id its selections live under.
func ownedCard(card compendium.Card) *compendium.Card {
	card.Choices = ownChoices(card.Choices, card.ID)
	return &card
}

func ownChoices(choices []compendium.Choice, cardID string) []compendium.Choice {
	if len(choices) == 0 {
		return nil
	}
	out := make([]compendium.Choice, len(choices))
	for i, choice := range choices {
		choice.CardID = cardID
		out[i] = choice
	}
	return out
}

// mixedAncestry composes the mixed ancestry card from the first feature of
// the top ancestry and the second feature of the bottom ancestry, each with
// the choices tied to that feature. A missing half is left out.
func mixedAncestry(mixed character.MixedAncestry, snap *compendium.Snapshot) *compendium.Card {
	if !snap.Loaded(compendium.KindAncestries) {
		return nil
	}
	card, ok := snap.Ancestry(character.MixedAncestryID)
	if !ok {
		card = compendium.Card{ID: character.MixedAncestryID, Title: "Mixed Ancestry"}
	}
	card.Features = nil
	card.Choices = nil

	halves := []struct {
		id    string
		index int
	}{
		{id: mixed.TopAncestryID, index: 0},
		{id: mixed.BottomAncestryID, index: 1},
	}
	for _, half := range halves {
		source, ok := snap.Ancestry(half.id)
		if !ok || source.ID == character.MixedAncestryID || half.index >= len(source.Features) {
			continue
		}
		card.Features = append(card.Features, source.Features[half.index])
		for _, choice := range source.Choices {
			if choice.FeatureIndex != half.index {
				continue
			}
			choice.CardID = source.ID
			card.Choices = append(card.Choices, choice)
		}
	}
	return &card
}

func resolveLevelUps(c *character.Character, snap *compendium.Snapshot) []LevelUp {
	var out []LevelUp
	for _, level := range levelUpLevels(c) {
		pair := c.LevelUpChoices[level]
		for _, slot := range []character.LevelUpSlot{character.SlotA, character.SlotB} {
			choice := *pair.Slot(slot)
			if choice.IsBlank() {
				continue
			}
			option, ok := snap.LevelUpOption(choice.OptionID)
			if !ok {
				continue
			}
			out = append(out, LevelUp{Level: level, Slot: slot, Choice: choice, Option: option})
		}
	}
	return out
}

// levelUpLevels returns the levels 2..c.Level holding choices, ascending.
func levelUpLevels(c *character.Character) []int {
	var levels []int
	for level := range c.LevelUpChoices {
		if level >= 2 && level <= c.Level {
			levels = append(levels, level)
		}
	}
	sort.Ints(levels)
	return levels
}

func resolveInventory(inv character.Inventory, snap *compendium.Snapshot) Inventory {
	out := Inventory{
		PrimaryWeapons:   map[string]Weapon{},
		SecondaryWeapons: map[string]Weapon{},
		Armor:            map[string]Armor{},
		Loot:             map[string]Loot{},
		Consumables:      map[string]Consumable{},
	}
	for id, item := range inv.PrimaryWeapons {
		if weapon, ok := snap.Weapon(item.CompendiumID); ok {
			out.PrimaryWeapons[id] = ownedWeapon(id, item, weapon, true)
		}
	}
	for id, item := range inv.SecondaryWeapons {
		if weapon, ok := snap.Weapon(item.CompendiumID); ok {
			out.SecondaryWeapons[id] = ownedWeapon(id, item, weapon, false)
		}
	}
	for id, item := range inv.Armor {
		if armor, ok := snap.Armor(item.CompendiumID); ok {
			out.Armor[id] = ownedArmor(id, item, armor)
		}
	}
	for id, item := range inv.Loot {
		if loot, ok := snap.Loot(item.CompendiumID); ok {
			loot.Choices = ownChoices(loot.Choices, loot.ID)
			applyText(&loot.Title, &loot.Description, item.Customization)
			loot.ID = id
			out.Loot[id] = Loot{Loot: loot, CompendiumID: item.CompendiumID}
		}
	}
	for id, item := range inv.Consumables {
		if consumable, ok := snap.Consumable(item.CompendiumID); ok {
			applyText(&consumable.Title, &consumable.Description, item.Customization)
			consumable.ID = id
			out.Consumables[id] = Consumable{Consumable: consumable, CompendiumID: item.CompendiumID}
		}
	}
	return out
}

func applyText(title, description *string, custom *character.Customization) {
	if custom == nil {
		return
	}
	if custom.Title != nil {
		*title = *custom.Title
	}
	if custom.Description != nil {
		*description = *custom.Description
	}
}

// ownedWeapon applies per-instance customizations. Primary weapons add the
// custom damage and attack bonuses to the compendium values; secondary
// weapons replace them.
func ownedWeapon(instanceID string, item character.InventoryItem, weapon compendium.Weapon, primary bool) Weapon {
	weapon.Features = bindWeaponFeatures(weapon.Features, instanceID)
	if custom := item.Customization; custom != nil {
		applyText(&weapon.Title, &weapon.Description, custom)
		if custom.LevelRequirement != nil {
			weapon.LevelRequirement = *custom.LevelRequirement
		}
		if custom.Range != nil {
			weapon.Range = *custom.Range
		}
		if len(custom.DamageTypes) > 0 {
			weapon.DamageTypes = append([]character.DamageType(nil), custom.DamageTypes...)
		}
		if custom.Burden != nil {
			weapon.Burden = *custom.Burden
		}
		if custom.DamageDice != nil {
			weapon.DamageDice = *custom.DamageDice
		}
		if custom.DamageBonus != nil {
			if primary {
				weapon.DamageBonus += *custom.DamageBonus
			} else {
				weapon.DamageBonus = *custom.DamageBonus
			}
		}
		if custom.AttackRollBonus != nil {
			if primary {
				weapon.AttackRollBonus += *custom.AttackRollBonus
			} else {
				weapon.AttackRollBonus = *custom.AttackRollBonus
			}
		}
	}
	weapon.ID = instanceID
	return Weapon{Weapon: weapon, CompendiumID: item.CompendiumID}
}

func ownedArmor(instanceID string, item character.InventoryItem, armor compendium.Armor) Armor {
	if custom := item.Customization; custom != nil {
		applyText(&armor.Title, &armor.Description, custom)
		if custom.LevelRequirement != nil {
			armor.LevelRequirement = *custom.LevelRequirement
		}
		if custom.BaseScore != nil {
			armor.BaseScore = *custom.BaseScore
		}
		if custom.MajorThreshold != nil {
			armor.MajorThreshold = *custom.MajorThreshold
		}
		if custom.SevereThreshold != nil {
			armor.SevereThreshold = *custom.SevereThreshold
		}
	}
	armor.ID = instanceID
	return Armor{Armor: armor, CompendiumID: item.CompendiumID}
}

// bindWeaponFeatures pins weapon_equipped conditions without a weapon id to
// the instance carrying the feature, so a feature only applies while its own
// instance is equipped.
func bindWeaponFeatures(features []compendium.Feature, instanceID string) []compendium.Feature {
	if len(features) == 0 {
		return nil
	}
	out := make([]compendium.Feature, len(features))
	for i, feature := range features {
		feature.CharacterModifiers = bindCharacterModifiers(feature.CharacterModifiers, instanceID)
		feature.WeaponModifiers = bindWeaponModifiers(feature.WeaponModifiers, instanceID)
		out[i] = feature
	}
	return out
}

func bindCharacterModifiers(mods []character.CharacterModifier, instanceID string) []character.CharacterModifier {
	if mods == nil {
		return nil
	}
	out := make([]character.CharacterModifier, len(mods))
	for i, m := range mods {
		m.Conditions = bindConditions(m.Conditions, instanceID)
		out[i] = m
	}
	return out
}

func bindWeaponModifiers(mods []character.WeaponModifier, instanceID string) []character.WeaponModifier {
	if mods == nil {
		return nil
	}
	out := make([]character.WeaponModifier, len(mods))
	for i, m := range mods {
		m.Conditions = bindConditions(m.Conditions, instanceID)
		out[i] = m
	}
	return out
}

func bindConditions(conditions []character.CharacterCondition, instanceID string) []character.CharacterCondition {
	if conditions == nil {
		return nil
	}
	out := make([]character.CharacterCondition, len(conditions))
	for i, condition := range conditions {
		if condition.Type == character.ConditionWeaponEquipped && condition.WeaponID == "" {
			condition.WeaponID = instanceID
		}
		out[i] = condition
	}
	return out
}
