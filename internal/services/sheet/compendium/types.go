package compendium

import "github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"

// Feature is a rules feature printed on a card or item.
type Feature struct {
	Title              string                        `json:"title" yaml:"title"`
	Description        string                        `json:"description,omitempty" yaml:"description,omitempty"`
	CharacterModifiers []character.CharacterModifier `json:"character_modifiers,omitempty" yaml:"character_modifiers,omitempty"`
	WeaponModifiers    []character.WeaponModifier    `json:"weapon_modifiers,omitempty" yaml:"weapon_modifiers,omitempty"`
}

// ChoiceKind selects what a choice's selections refer to.
type ChoiceKind string

const (
	// ChoiceOptions selections are option ids.
	ChoiceOptions ChoiceKind = "options"
	// ChoiceExperience selections are experience indices rendered as strings.
	ChoiceExperience ChoiceKind = "experience"
)

// ChoiceOption is one selectable entry of a Choice.
type ChoiceOption struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
}

// Choice is a player decision attached to a card.
//
// CardID is filled during resolution with the id the selections are stored
// under. FeatureIndex ties the choice to one of the card's features.
type Choice struct {
	ID            string         `json:"id" yaml:"id"`
	Title         string         `json:"title,omitempty" yaml:"title,omitempty"`
	Kind          ChoiceKind     `json:"kind,omitempty" yaml:"kind,omitempty"`
	FeatureIndex  int            `json:"feature_index,omitempty" yaml:"feature_index,omitempty"`
	MaxSelections int            `json:"max_selections,omitempty" yaml:"max_selections,omitempty"`
	Options       []ChoiceOption `json:"options,omitempty" yaml:"options,omitempty"`
	CardID        string         `json:"-" yaml:"-"`
}

// HasOption reports whether id names one of the choice options.
func (c Choice) HasOption(id string) bool {
	for _, option := range c.Options {
		if option.ID == id {
			return true
		}
	}
	return false
}

// WeaponSlot is the hand a weapon occupies.
type WeaponSlot string

const (
	WeaponPrimary   WeaponSlot = "primary"
	WeaponSecondary WeaponSlot = "secondary"
)

// Weapon is a weapon entry. Derived weapons reuse this shape with ID set to
// the inventory instance id.
type Weapon struct {
	ID               string                 `json:"id" yaml:"id"`
	Title            string                 `json:"title" yaml:"title"`
	Description      string                 `json:"description,omitempty" yaml:"description,omitempty"`
	Slot             WeaponSlot             `json:"slot" yaml:"slot"`
	Tier             int                    `json:"tier,omitempty" yaml:"tier,omitempty"`
	LevelRequirement int                    `json:"level_requirement,omitempty" yaml:"level_requirement,omitempty"`
	Traits           []character.Trait      `json:"traits" yaml:"traits"`
	Range            character.Range        `json:"range" yaml:"range"`
	DamageDice       string                 `json:"damage_dice" yaml:"damage_dice"`
	DamageBonus      int                    `json:"damage_bonus,omitempty" yaml:"damage_bonus,omitempty"`
	AttackRollBonus  int                    `json:"attack_roll_bonus,omitempty" yaml:"attack_roll_bonus,omitempty"`
	DamageTypes      []character.DamageType `json:"damage_types" yaml:"damage_types"`
	Burden           int                    `json:"burden,omitempty" yaml:"burden,omitempty"`
	Features         []Feature              `json:"features,omitempty" yaml:"features,omitempty"`
}

// UnarmoredID is the reserved armor id meaning no armor is worn.
const UnarmoredID = "unarmored"

// Armor is an armor entry.
type Armor struct {
	ID               string    `json:"id" yaml:"id"`
	Title            string    `json:"title" yaml:"title"`
	Description      string    `json:"description,omitempty" yaml:"description,omitempty"`
	Tier             int       `json:"tier,omitempty" yaml:"tier,omitempty"`
	LevelRequirement int       `json:"level_requirement,omitempty" yaml:"level_requirement,omitempty"`
	BaseScore        int       `json:"base_score" yaml:"base_score"`
	MajorThreshold   int       `json:"major_threshold" yaml:"major_threshold"`
	SevereThreshold  int       `json:"severe_threshold" yaml:"severe_threshold"`
	Features         []Feature `json:"features,omitempty" yaml:"features,omitempty"`
}

// Consumable is a single-use item.
type Consumable struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Loot is a reusable item that may carry features and choices.
type Loot struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Features    []Feature `json:"features,omitempty" yaml:"features,omitempty"`
	Choices     []Choice  `json:"choices,omitempty" yaml:"choices,omitempty"`
}

// Card is an ancestry, community, or transformation card.
type Card struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Features    []Feature `json:"features,omitempty" yaml:"features,omitempty"`
	Choices     []Choice  `json:"choices,omitempty" yaml:"choices,omitempty"`
}

// Class is a character class.
type Class struct {
	ID              string    `json:"id" yaml:"id"`
	Title           string    `json:"title" yaml:"title"`
	Description     string    `json:"description,omitempty" yaml:"description,omitempty"`
	DomainIDs       []string  `json:"domain_ids" yaml:"domain_ids"`
	StartingEvasion int       `json:"starting_evasion" yaml:"starting_evasion"`
	StartingHP      int       `json:"starting_hp" yaml:"starting_hp"`
	HopeFeature     Feature   `json:"hope_feature" yaml:"hope_feature"`
	Features        []Feature `json:"features,omitempty" yaml:"features,omitempty"`
}

// Subclass is a class specialisation with three mastery tiers of features.
type Subclass struct {
	ID             string          `json:"id" yaml:"id"`
	ClassID        string          `json:"class_id" yaml:"class_id"`
	Title          string          `json:"title" yaml:"title"`
	SpellcastTrait character.Trait `json:"spellcast_trait,omitempty" yaml:"spellcast_trait,omitempty"`
	Foundation     []Feature       `json:"foundation" yaml:"foundation"`
	Specialization []Feature       `json:"specialization,omitempty" yaml:"specialization,omitempty"`
	Mastery        []Feature       `json:"mastery,omitempty" yaml:"mastery,omitempty"`
}

// Domain groups domain cards.
type Domain struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// DomainCard is a card from a domain deck.
//
// AppliesInVault cards contribute modifiers without being in the loadout.
// ForcedInVault cards can never enter the loadout; ForcedInLoadout cards are
// always in it.
type DomainCard struct {
	ID              string    `json:"id" yaml:"id"`
	DomainID        string    `json:"domain_id" yaml:"domain_id"`
	Title           string    `json:"title" yaml:"title"`
	Description     string    `json:"description,omitempty" yaml:"description,omitempty"`
	Level           int       `json:"level" yaml:"level"`
	Type            string    `json:"type,omitempty" yaml:"type,omitempty"`
	RecallCost      int       `json:"recall_cost,omitempty" yaml:"recall_cost,omitempty"`
	AppliesInVault  bool      `json:"applies_in_vault,omitempty" yaml:"applies_in_vault,omitempty"`
	ForcedInVault   bool      `json:"forced_in_vault,omitempty" yaml:"forced_in_vault,omitempty"`
	ForcedInLoadout bool      `json:"forced_in_loadout,omitempty" yaml:"forced_in_loadout,omitempty"`
	Features        []Feature `json:"features,omitempty" yaml:"features,omitempty"`
	Choices         []Choice  `json:"choices,omitempty" yaml:"choices,omitempty"`
}

// Key returns the composite id of the card.
func (c DomainCard) Key() character.DomainCardID {
	return character.DomainCardID{DomainID: c.DomainID, CardID: c.ID}
}

// CompositeKind names the beastforms assembled from other beastforms.
type CompositeKind string

const (
	CompositeNone            CompositeKind = ""
	CompositeLegendaryBeast  CompositeKind = "legendary_beast"
	CompositeLegendaryHybrid CompositeKind = "legendary_hybrid"
	CompositeMythicBeast     CompositeKind = "mythic_beast"
	CompositeMythicHybrid    CompositeKind = "mythic_hybrid"
)

// BeastformAttack is the attack a beastform grants.
type BeastformAttack struct {
	Range       character.Range      `json:"range" yaml:"range"`
	Trait       character.Trait      `json:"trait" yaml:"trait"`
	DamageDice  string               `json:"damage_dice" yaml:"damage_dice"`
	DamageBonus int                  `json:"damage_bonus,omitempty" yaml:"damage_bonus,omitempty"`
	DamageType  character.DamageType `json:"damage_type" yaml:"damage_type"`
}

// Beastform is a druid transformation.
type Beastform struct {
	ID               string          `json:"id" yaml:"id"`
	Title            string          `json:"title" yaml:"title"`
	Description      string          `json:"description,omitempty" yaml:"description,omitempty"`
	Tier             int             `json:"tier,omitempty" yaml:"tier,omitempty"`
	LevelRequirement int             `json:"level_requirement" yaml:"level_requirement"`
	Composite        CompositeKind   `json:"composite,omitempty" yaml:"composite,omitempty"`
	Trait            character.Trait `json:"trait" yaml:"trait"`
	TraitBonus       int             `json:"trait_bonus" yaml:"trait_bonus"`
	EvasionBonus     int             `json:"evasion_bonus" yaml:"evasion_bonus"`
	Attack           BeastformAttack `json:"attack" yaml:"attack"`
	Advantages       []string        `json:"advantages,omitempty" yaml:"advantages,omitempty"`
	Features         []Feature       `json:"features,omitempty" yaml:"features,omitempty"`
}

// LevelUpOption is one entry of a tier's level-up menu.
//
// Cost is the number of slots the option consumes at a level (1 or 2).
// MaxUses caps how many times it can be chosen across all levels; zero means
// unlimited. MarkedTraitCount is the number of traits a traits option marks.
type LevelUpOption struct {
	ID                 string                        `json:"id" yaml:"id"`
	Title              string                        `json:"title" yaml:"title"`
	Tier               int                           `json:"tier" yaml:"tier"`
	Kind               character.LevelUpKind         `json:"kind" yaml:"kind"`
	Cost               int                           `json:"cost,omitempty" yaml:"cost,omitempty"`
	MaxUses            int                           `json:"max_uses,omitempty" yaml:"max_uses,omitempty"`
	MarkedTraitCount   int                           `json:"marked_trait_count,omitempty" yaml:"marked_trait_count,omitempty"`
	CharacterModifiers []character.CharacterModifier `json:"character_modifiers,omitempty" yaml:"character_modifiers,omitempty"`
	WeaponModifiers    []character.WeaponModifier    `json:"weapon_modifiers,omitempty" yaml:"weapon_modifiers,omitempty"`
}

// SlotCost returns Cost, treating zero as one slot.
func (o LevelUpOption) SlotCost() int {
	if o.Cost <= 0 {
		return 1
	}
	return o.Cost
}

// Publication is a book or supplement the content comes from.
type Publication struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url,omitempty" yaml:"url,omitempty"`
}
