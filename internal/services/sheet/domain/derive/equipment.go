package derive

import (
	"slices"

	"github.com/louisbranch/duality-sheet/internal/services/sheet/compendium"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
)

// Equipment is the set of derived attacks.
type Equipment struct {
	Primary   *compendium.Weapon
	Secondary *compendium.Weapon
	Unarmed   compendium.Weapon
}

func cloneWeapon(w compendium.Weapon) compendium.Weapon {
	w.Traits = slices.Clone(w.Traits)
	w.DamageTypes = slices.Clone(w.DamageTypes)
	return w
}

// DeriveEquipment applies weapon modifiers to copies of the active weapons
// and the unarmed baseline, phase by phase. Base and override modifiers
// replace a stat. Bonus modifiers add to numeric stats, join damage dice
// with "+", add a damage type or trait to the available set, and replace
// the range.
func DeriveEquipment(primary, secondary *Weapon, unarmed compendium.Weapon, mods Partition[character.WeaponModifier], s Scope) Equipment {
	var out Equipment
	if primary != nil {
		w := cloneWeapon(primary.Weapon)
		out.Primary = &w
	}
	if secondary != nil {
		w := cloneWeapon(secondary.Weapon)
		out.Secondary = &w
	}
	out.Unarmed = cloneWeapon(unarmed)

	slots := []struct {
		slot   character.TargetWeapon
		weapon *compendium.Weapon
	}{
		{slot: character.TargetWeaponPrimary, weapon: out.Primary},
		{slot: character.TargetWeaponSecondary, weapon: out.Secondary},
		{slot: character.TargetWeaponUnarmed, weapon: &out.Unarmed},
	}
	phases := []struct {
		behaviour character.Behaviour
		mods      []character.WeaponModifier
	}{
		{behaviour: character.BehaviourBase, mods: mods.Base},
		{behaviour: character.BehaviourBonus, mods: mods.Bonus},
		{behaviour: character.BehaviourOverride, mods: mods.Override},
	}
	for _, phase := range phases {
		for _, m := range phase.mods {
			if m.Behaviour != phase.behaviour || !s.Allows(m.Conditions) {
				continue
			}
			// A primary bonus must not land while no weapon is in hand.
			if phase.behaviour == character.BehaviourBonus && m.TargetWeapon == character.TargetWeaponPrimary &&
				out.Primary == nil && out.Secondary == nil {
				continue
			}
			for _, slot := range slots {
				if slot.weapon != nil && m.AppliesTo(slot.slot) {
					applyWeaponModifier(slot.weapon, m, phase.behaviour, s)
				}
			}
		}
	}
	return out
}

func applyWeaponModifier(w *compendium.Weapon, m character.WeaponModifier, behaviour character.Behaviour, s Scope) {
	switch m.Target {
	case character.WeaponTargetAttackRoll:
		if value, ok := Contribution(m.Type, m.Value, m.SourceTrait, m.Multiplier, s); ok {
			w.AttackRollBonus = combine(w.AttackRollBonus, value, behaviour)
		}
	case character.WeaponTargetDamageBonus:
		if value, ok := Contribution(m.Type, m.Value, m.SourceTrait, m.Multiplier, s); ok {
			w.DamageBonus = combine(w.DamageBonus, value, behaviour)
		}
	case character.WeaponTargetDamageDice:
		if m.DamageDice == "" {
			return
		}
		if behaviour == character.BehaviourBonus && w.DamageDice != "" {
			w.DamageDice = w.DamageDice + "+" + m.DamageDice
			return
		}
		w.DamageDice = m.DamageDice
	case character.WeaponTargetDamageType:
		if m.DamageType != "" {
			w.DamageTypes = combineSet(w.DamageTypes, m.DamageType, behaviour)
		}
	case character.WeaponTargetTrait:
		if m.Trait != "" {
			w.Traits = combineSet(w.Traits, m.Trait, behaviour)
		}
	case character.WeaponTargetRange:
		if m.Range != "" {
			w.Range = m.Range
		}
	}
}

func combineSet[T comparable](set []T, value T, behaviour character.Behaviour) []T {
	if behaviour != character.BehaviourBonus {
		return []T{value}
	}
	if slices.Contains(set, value) {
		return set
	}
	return append(set, value)
}
