package derive

import (
	"slices"

	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
)

// Scope is what condition gates and derived_from_* contributions read.
//
// Loadout is the loadout built for this cycle. Proficiency and Traits carry
// the most recent values available to the phase doing the evaluation.
type Scope struct {
	Character     *character.Character
	Loadout       []character.DomainCardID
	ArmorEquipped bool
	Proficiency   int
	Traits        map[character.Trait]int
}

func (s Scope) level() int {
	if s.Character == nil {
		return character.LevelMin
	}
	return s.Character.Level
}

// Allows reports whether every condition holds.
func (s Scope) Allows(conditions []character.CharacterCondition) bool {
	for _, condition := range conditions {
		if !Evaluate(condition, s) {
			return false
		}
	}
	return true
}

// Evaluate reports whether condition holds in s. Unknown condition types
// hold.
func Evaluate(condition character.CharacterCondition, s Scope) bool {
	c := s.Character
	if c == nil {
		c = &character.Character{Level: character.LevelMin}
	}
	switch condition.Type {
	case character.ConditionLevel:
		if condition.MinLevel > 0 && c.Level < condition.MinLevel {
			return false
		}
		if condition.MaxLevel > 0 && c.Level > condition.MaxLevel {
			return false
		}
		return true
	case character.ConditionArmorEquipped:
		return s.ArmorEquipped == condition.Equipped
	case character.ConditionWeaponEquipped:
		return weaponEquipped(c.ActiveEquipment, condition.Slot, condition.WeaponID)
	case character.ConditionDomainCardChoice:
		if condition.DomainCardID == nil {
			return false
		}
		return slices.Contains(c.DomainCardChoices.Get(condition.DomainCardID.String(), condition.ChoiceID), condition.SelectionID)
	case character.ConditionAncestryCardChoice:
		return slices.Contains(c.AncestryCardChoices.Get(condition.CardID, condition.ChoiceID), condition.SelectionID)
	case character.ConditionLootChoice:
		return slices.Contains(c.LootChoices.Get(condition.CardID, condition.ChoiceID), condition.SelectionID)
	case character.ConditionMinLoadoutCardsFromDomain:
		count := 0
		for _, id := range s.Loadout {
			if id.DomainID == condition.DomainID {
				count++
			}
		}
		return count >= condition.MinCards
	default:
		return true
	}
}

func weaponEquipped(active character.ActiveEquipment, slot character.TargetWeapon, weaponID string) bool {
	matches := func(equippedID string) bool {
		if equippedID == "" {
			return false
		}
		return weaponID == "" || equippedID == weaponID
	}
	switch slot {
	case character.TargetWeaponPrimary:
		return matches(active.PrimaryWeaponID)
	case character.TargetWeaponSecondary:
		return matches(active.SecondaryWeaponID)
	case character.TargetWeaponUnarmed:
		return active.PrimaryWeaponID == "" && active.SecondaryWeaponID == ""
	default:
		return matches(active.PrimaryWeaponID) || matches(active.SecondaryWeaponID)
	}
}
