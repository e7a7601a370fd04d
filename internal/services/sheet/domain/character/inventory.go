package character

import "sort"

// InventoryItem is one owned instance of a compendium item.
//
// Seq records insertion order so map-backed inventories iterate oldest first.
type InventoryItem struct {
	CompendiumID  string         `json:"compendium_id"`
	Seq           int            `json:"seq"`
	Customization *Customization `json:"customization,omitempty"`
}

// Customization holds per-instance overrides. Nil fields keep the compendium
// value.
type Customization struct {
	Title            *string      `json:"title,omitempty"`
	Description      *string      `json:"description,omitempty"`
	LevelRequirement *int         `json:"level_requirement,omitempty"`
	Range            *Range       `json:"range,omitempty"`
	DamageTypes      []DamageType `json:"damage_types,omitempty"`
	Burden           *int         `json:"burden,omitempty"`
	DamageDice       *string      `json:"damage_dice,omitempty"`
	DamageBonus      *int         `json:"damage_bonus,omitempty"`
	AttackRollBonus  *int         `json:"attack_roll_bonus,omitempty"`
	BaseScore        *int         `json:"base_score,omitempty"`
	MajorThreshold   *int         `json:"major_threshold,omitempty"`
	SevereThreshold  *int         `json:"severe_threshold,omitempty"`
}

// Inventory groups owned items by kind. Each map is keyed by instance id.
type Inventory struct {
	PrimaryWeapons   map[string]InventoryItem `json:"primary_weapons,omitempty"`
	SecondaryWeapons map[string]InventoryItem `json:"secondary_weapons,omitempty"`
	Armor            map[string]InventoryItem `json:"armor,omitempty"`
	Loot             map[string]InventoryItem `json:"loot,omitempty"`
	Consumables      map[string]InventoryItem `json:"consumables,omitempty"`
	AdventuringGear  []string                 `json:"adventuring_gear,omitempty"`
}

// ActiveEquipment records which inventory instance is equipped per slot.
type ActiveEquipment struct {
	PrimaryWeaponID   string `json:"primary_weapon_id,omitempty"`
	SecondaryWeaponID string `json:"secondary_weapon_id,omitempty"`
	ArmorID           string `json:"armor_id,omitempty"`
}

// OrderedIDs returns the instance ids of items ordered by Seq, then id.
func OrderedIDs(items map[string]InventoryItem) []string {
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := items[ids[i]], items[ids[j]]
		if a.Seq != b.Seq {
			return a.Seq < b.Seq
		}
		return ids[i] < ids[j]
	})
	return ids
}

// NextSeq returns a Seq value greater than every item in the inventory.
func (inv Inventory) NextSeq() int {
	next := 0
	for _, items := range []map[string]InventoryItem{
		inv.PrimaryWeapons, inv.SecondaryWeapons, inv.Armor, inv.Loot, inv.Consumables,
	} {
		for _, item := range items {
			if item.Seq >= next {
				next = item.Seq + 1
			}
		}
	}
	return next
}
