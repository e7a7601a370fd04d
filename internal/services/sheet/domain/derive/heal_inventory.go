package derive

import (
	"fmt"

	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
)

// healActiveEquipment unequips ids that are not in the inventory and items
// whose level requirement is above the character level.
func healActiveEquipment(c *character.Character, env Env) []string {
	var messages []string
	inventory := resolveInventory(c.Inventory, env.Compendium)
	slots := []struct {
		name     string
		id       *string
		owned    map[string]character.InventoryItem
		required func(id string) (int, bool)
	}{
		{
			name: "primary weapon", id: &c.ActiveEquipment.PrimaryWeaponID, owned: c.Inventory.PrimaryWeapons,
			required: func(id string) (int, bool) {
				w, ok := inventory.PrimaryWeapons[id]
				return w.LevelRequirement, ok
			},
		},
		{
			name: "secondary weapon", id: &c.ActiveEquipment.SecondaryWeaponID, owned: c.Inventory.SecondaryWeapons,
			required: func(id string) (int, bool) {
				w, ok := inventory.SecondaryWeapons[id]
				return w.LevelRequirement, ok
			},
		},
		{
			name: "armor", id: &c.ActiveEquipment.ArmorID, owned: c.Inventory.Armor,
			required: func(id string) (int, bool) {
				a, ok := inventory.Armor[id]
				return a.LevelRequirement, ok
			},
		},
	}
	for _, slot := range slots {
		if *slot.id == "" {
			continue
		}
		if _, ok := slot.owned[*slot.id]; !ok {
			messages = append(messages, fmt.Sprintf("active %s %q is not in the inventory", slot.name, *slot.id))
			*slot.id = ""
			continue
		}
		if required, ok := slot.required(*slot.id); ok && required > c.Level {
			messages = append(messages, fmt.Sprintf("active %s %q requires level %d", slot.name, *slot.id, required))
			*slot.id = ""
		}
	}
	return messages
}

// healBurden unequips the secondary weapon when both hands together carry
// more than the burden cap.
func healBurden(c *character.Character, env Env) []string {
	if !env.complete() || c.ActiveEquipment.SecondaryWeaponID == "" {
		return nil
	}
	inventory := resolveInventory(c.Inventory, env.Compendium)
	primary, pok := inventory.PrimaryWeapons[c.ActiveEquipment.PrimaryWeaponID]
	secondary, sok := inventory.SecondaryWeapons[c.ActiveEquipment.SecondaryWeaponID]
	if !pok || !sok || primary.Burden+secondary.Burden <= env.Sheet.MaxBurden {
		return nil
	}
	message := fmt.Sprintf("secondary weapon %q unequipped: burden %d over %d",
		secondary.ID, primary.Burden+secondary.Burden, env.Sheet.MaxBurden)
	c.ActiveEquipment.SecondaryWeaponID = ""
	return []string{message}
}

// healConsumables deletes consumables over the cap, oldest first.
func healConsumables(c *character.Character, env Env) []string {
	if !env.complete() {
		return nil
	}
	excess := len(c.Inventory.Consumables) - env.Sheet.MaxConsumables
	if excess <= 0 {
		return nil
	}
	var messages []string
	for _, id := range character.OrderedIDs(c.Inventory.Consumables)[:excess] {
		messages = append(messages, fmt.Sprintf("consumable %q removed over the cap of %d", id, env.Sheet.MaxConsumables))
		delete(c.Inventory.Consumables, id)
	}
	return messages
}
