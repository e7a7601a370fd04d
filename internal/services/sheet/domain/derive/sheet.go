package derive

import (
	"github.com/louisbranch/duality-sheet/internal/services/sheet/compendium"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
)

// Baselines applied before any modifier.
const (
	BaseProficiency        = 1
	BaseMaxStress          = 6
	BaseMaxHope            = 6
	BaseMaxBurden          = 2
	BaseMaxExperiences     = 2
	BaseMaxLoadout         = 5
	BaseMaxConsumables     = 5
	BaseSpellcastBonus     = 0
	BaseExperienceModifier = 2

	MasteryMin = 0
	MasteryMax = 3
)

// UnarmedID is the id of the derived unarmed attack.
const UnarmedID = "unarmed"

// Unarmed returns the unarmed attack baseline.
func Unarmed() compendium.Weapon {
	return compendium.Weapon{
		ID:          UnarmedID,
		Title:       "Unarmed Attack",
		Traits:      []character.Trait{character.TraitStrength},
		Range:       character.RangeMelee,
		DamageDice:  "1d4",
		DamageTypes: []character.DamageType{character.DamageTypePhysical},
	}
}

// Weapon is an owned weapon instance. ID is the inventory instance id.
type Weapon struct {
	compendium.Weapon
	CompendiumID string `json:"compendium_id"`
}

// Armor is an owned armor instance. ID is the inventory instance id.
type Armor struct {
	compendium.Armor
	CompendiumID string `json:"compendium_id"`
}

// Loot is an owned loot instance. ID is the inventory instance id.
type Loot struct {
	compendium.Loot
	CompendiumID string `json:"compendium_id"`
}

// Consumable is an owned consumable instance. ID is the inventory instance id.
type Consumable struct {
	compendium.Consumable
	CompendiumID string `json:"compendium_id"`
}

// Inventory is the resolved view of the persisted inventory. Entries whose
// compendium id does not resolve are left out.
type Inventory struct {
	PrimaryWeapons   map[string]Weapon     `json:"primary_weapons"`
	SecondaryWeapons map[string]Weapon     `json:"secondary_weapons"`
	Armor            map[string]Armor      `json:"armor"`
	Loot             map[string]Loot       `json:"loot"`
	Consumables      map[string]Consumable `json:"consumables"`
}

// DamageThresholds are the major and severe damage thresholds.
type DamageThresholds struct {
	Major  int `json:"major"`
	Severe int `json:"severe"`
}

// Sheet is the full set of derived statistics for one character.
type Sheet struct {
	Level int `json:"level"`
	Tier  int `json:"tier"`

	Traits                     map[character.Trait]int `json:"traits"`
	Evasion                    int                     `json:"evasion"`
	MaxHP                      int                     `json:"max_hp"`
	Proficiency                int                     `json:"proficiency"`
	MaxStress                  int                     `json:"max_stress"`
	PrimaryClassMasteryLevel   int                     `json:"primary_class_mastery_level"`
	SecondaryClassMasteryLevel int                     `json:"secondary_class_mastery_level"`
	MaxHope                    int                     `json:"max_hope"`
	MaxArmor                   int                     `json:"max_armor"`
	MaxBurden                  int                     `json:"max_burden"`
	DamageThresholds           DamageThresholds        `json:"damage_thresholds"`
	MaxExperiences             int                     `json:"max_experiences"`
	MaxLoadout                 int                     `json:"max_loadout"`
	MaxConsumables             int                     `json:"max_consumables"`
	SpellcastRollBonus         int                     `json:"spellcast_roll_bonus"`
	SpellcastTrait             character.Trait         `json:"spellcast_trait,omitempty"`
	ExperienceModifiers        []int                   `json:"experience_modifiers"`

	PrimaryWeapon   *compendium.Weapon `json:"primary_weapon,omitempty"`
	SecondaryWeapon *compendium.Weapon `json:"secondary_weapon,omitempty"`
	UnarmedAttack   compendium.Weapon  `json:"unarmed_attack"`
	Armor           *Armor             `json:"armor,omitempty"`

	Inventory Inventory               `json:"inventory"`
	Vault     []compendium.DomainCard `json:"vault"`
	Loadout   []compendium.DomainCard `json:"loadout"`

	Beastform *compendium.Beastform `json:"beastform,omitempty"`
	Companion *character.Companion  `json:"companion,omitempty"`
}

// Trait returns the derived value of trait t.
func (s *Sheet) Trait(t character.Trait) int {
	if s == nil {
		return 0
	}
	return s.Traits[t]
}
