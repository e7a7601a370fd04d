package derive

import (
	"strconv"

	apperrors "github.com/louisbranch/duality-sheet/internal/platform/errors"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/compendium"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
)

// Slot names an equipment slot.
type Slot string

const (
	SlotPrimaryWeapon   Slot = "primary_weapon"
	SlotSecondaryWeapon Slot = "secondary_weapon"
	SlotArmor           Slot = "armor"
)

// Equip returns a copy of c with instanceID equipped in slot. An empty
// instanceID unequips the slot. Equipping an item the character cannot use
// fails without touching c.
func Equip(c character.Character, snap *compendium.Snapshot, slot Slot, instanceID string) (character.Character, error) {
	out := c.Clone()
	var (
		items  map[string]character.InventoryItem
		active *string
	)
	switch slot {
	case SlotPrimaryWeapon:
		items, active = out.Inventory.PrimaryWeapons, &out.ActiveEquipment.PrimaryWeaponID
	case SlotSecondaryWeapon:
		items, active = out.Inventory.SecondaryWeapons, &out.ActiveEquipment.SecondaryWeaponID
	case SlotArmor:
		items, active = out.Inventory.Armor, &out.ActiveEquipment.ArmorID
	default:
		return c, apperrors.WithMetadata(apperrors.CodeEquipInvalidSlot, "invalid equipment slot",
			map[string]string{"Slot": string(slot)})
	}
	if instanceID == "" {
		*active = ""
		return out, nil
	}
	if _, ok := items[instanceID]; !ok {
		return c, apperrors.New(apperrors.CodeEquipItemNotFound, "item "+instanceID+" is not in the inventory")
	}

	inventory := resolveInventory(out.Inventory, snap)
	var (
		title    string
		required int
		resolved bool
	)
	switch slot {
	case SlotPrimaryWeapon:
		w, ok := inventory.PrimaryWeapons[instanceID]
		title, required, resolved = w.Title, w.LevelRequirement, ok
	case SlotSecondaryWeapon:
		w, ok := inventory.SecondaryWeapons[instanceID]
		title, required, resolved = w.Title, w.LevelRequirement, ok
	case SlotArmor:
		a, ok := inventory.Armor[instanceID]
		title, required, resolved = a.Title, a.LevelRequirement, ok
	}
	if !resolved {
		return c, apperrors.New(apperrors.CodeEquipItemNotFound, "item "+instanceID+" is not in the compendium")
	}
	level := character.ClampLevel(out.Level)
	if required > level {
		return c, apperrors.WithMetadata(apperrors.CodeEquipLevelTooLow, "item level requirement not met",
			map[string]string{
				"Item":     title,
				"Required": strconv.Itoa(required),
				"Level":    strconv.Itoa(level),
			})
	}
	*active = instanceID

	if slot == SlotArmor {
		return out, nil
	}
	primary, pok := inventory.PrimaryWeapons[out.ActiveEquipment.PrimaryWeaponID]
	secondary, sok := inventory.SecondaryWeapons[out.ActiveEquipment.SecondaryWeaponID]
	if !pok || !sok {
		return out, nil
	}
	sheet := Compute(Context{Character: out, Compendium: snap})
	if primary.Burden+secondary.Burden > sheet.MaxBurden {
		return c, apperrors.WithMetadata(apperrors.CodeEquipOverBurdened, "equipped weapons exceed burden",
			map[string]string{
				"Item":      title,
				"MaxBurden": strconv.Itoa(sheet.MaxBurden),
			})
	}
	return out, nil
}
