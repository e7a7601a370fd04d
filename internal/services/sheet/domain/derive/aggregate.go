package derive

import (
	"github.com/louisbranch/duality-sheet/internal/services/sheet/compendium"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
)

// Partition splits modifiers by behaviour, keeping source order in each.
type Partition[T any] struct {
	Base     []T
	Bonus    []T
	Override []T
}

func (p *Partition[T]) add(behaviour character.Behaviour, m T) {
	switch behaviour {
	case character.BehaviourBase:
		p.Base = append(p.Base, m)
	case character.BehaviourBonus:
		p.Bonus = append(p.Bonus, m)
	case character.BehaviourOverride:
		p.Override = append(p.Override, m)
	}
}

// Len returns the number of modifiers across all behaviours.
func (p Partition[T]) Len() int {
	return len(p.Base) + len(p.Bonus) + len(p.Override)
}

// Modifiers is the aggregated, condition-filtered modifier set.
type Modifiers struct {
	Character Partition[character.CharacterModifier]
	Weapon    Partition[character.WeaponModifier]
}

// Mastery holds the subclass mastery levels used to gate subclass cards.
type Mastery struct {
	Primary   int
	Secondary int
}

type aggregator struct {
	scope Scope
	out   Modifiers
}

func (a *aggregator) features(features []compendium.Feature) {
	for _, feature := range features {
		a.characterModifiers(feature.CharacterModifiers)
		a.weaponModifiers(feature.WeaponModifiers)
	}
}

func (a *aggregator) characterModifiers(mods []character.CharacterModifier) {
	for _, m := range mods {
		if a.scope.Allows(m.Conditions) {
			a.out.Character.add(m.Behaviour, m)
		}
	}
}

func (a *aggregator) weaponModifiers(mods []character.WeaponModifier) {
	for _, m := range mods {
		if a.scope.Allows(m.Conditions) {
			a.out.Weapon.add(m.Behaviour, m)
		}
	}
}

func (a *aggregator) card(card *compendium.Card) {
	if card != nil {
		a.features(card.Features)
	}
}

func (a *aggregator) subclass(subclass *compendium.Subclass, mastery int) {
	if subclass == nil {
		return
	}
	a.features(subclass.Foundation)
	if mastery >= 2 {
		a.features(subclass.Specialization)
	}
	if mastery >= 3 {
		a.features(subclass.Mastery)
	}
}

// Aggregate collects the modifiers of every active source in a fixed order:
// ancestry, community, transformation, primary class (hope feature first),
// primary subclass by mastery, secondary class, secondary subclass, level-up
// options, vault cards that apply in the vault or sit in the loadout, active
// armor, active weapons, the unarmed attack, additional cards, then owned
// loot. Modifiers whose conditions fail in s are left out.
func Aggregate(refs References, unarmed compendium.Weapon, loadout []character.DomainCardID, mastery Mastery, s Scope) Modifiers {
	a := &aggregator{scope: s}

	a.card(refs.Ancestry)
	a.card(refs.Community)
	a.card(refs.Transformation)

	if class := refs.PrimaryClass; class != nil {
		a.features([]compendium.Feature{class.HopeFeature})
		a.features(class.Features)
	}
	a.subclass(refs.PrimarySubclass, mastery.Primary)

	if class := refs.SecondaryClass; class != nil {
		a.features(class.Features)
	}
	a.subclass(refs.SecondarySubclass, mastery.Secondary)

	for _, levelUp := range refs.LevelUps {
		a.characterModifiers(levelUp.Option.CharacterModifiers)
		a.weaponModifiers(levelUp.Option.WeaponModifiers)
	}

	inLoadout := make(map[character.DomainCardID]struct{}, len(loadout))
	for _, id := range loadout {
		inLoadout[id] = struct{}{}
	}
	for _, card := range refs.Vault {
		if _, ok := inLoadout[card.Key()]; ok || card.AppliesInVault {
			a.features(card.Features)
		}
	}

	if refs.Armor != nil {
		a.features(refs.Armor.Features)
	}
	if refs.PrimaryWeapon != nil {
		a.features(refs.PrimaryWeapon.Features)
	}
	if refs.SecondaryWeapon != nil {
		a.features(refs.SecondaryWeapon.Features)
	}
	a.features(unarmed.Features)

	for i := range refs.AdditionalAncestries {
		a.card(&refs.AdditionalAncestries[i])
	}
	for i := range refs.AdditionalCommunities {
		a.card(&refs.AdditionalCommunities[i])
	}
	for i := range refs.AdditionalTransformations {
		a.card(&refs.AdditionalTransformations[i])
	}

	for _, id := range sortedKeys(refs.Inventory.Loot) {
		a.features(refs.Inventory.Loot[id].Features)
	}
	return a.out
}
