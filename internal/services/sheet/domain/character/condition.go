package character

// ConditionType tags a CharacterCondition.
type ConditionType string

const (
	ConditionLevel                     ConditionType = "level"
	ConditionArmorEquipped             ConditionType = "armor_equipped"
	ConditionWeaponEquipped            ConditionType = "weapon_equipped"
	ConditionDomainCardChoice          ConditionType = "domain_card_choice"
	ConditionAncestryCardChoice        ConditionType = "ancestry_card_choice"
	ConditionLootChoice                ConditionType = "loot_choice"
	ConditionMinLoadoutCardsFromDomain ConditionType = "min_loadout_cards_from_domain"
)

// CharacterCondition gates a modifier. Only the fields for its Type are read:
//
//   - level: MinLevel..MaxLevel inclusive (zero bound means open)
//   - armor_equipped: Equipped
//   - weapon_equipped: Slot and WeaponID (an inventory instance id)
//   - domain_card_choice: DomainCardID, ChoiceID, SelectionID
//   - ancestry_card_choice: CardID, ChoiceID, SelectionID
//   - loot_choice: CardID (loot compendium id), ChoiceID, SelectionID
//   - min_loadout_cards_from_domain: DomainID, MinCards
type CharacterCondition struct {
	Type         ConditionType `json:"type" yaml:"type"`
	MinLevel     int           `json:"min_level,omitempty" yaml:"min_level,omitempty"`
	MaxLevel     int           `json:"max_level,omitempty" yaml:"max_level,omitempty"`
	Equipped     bool          `json:"equipped,omitempty" yaml:"equipped,omitempty"`
	Slot         TargetWeapon  `json:"slot,omitempty" yaml:"slot,omitempty"`
	WeaponID     string        `json:"weapon_id,omitempty" yaml:"weapon_id,omitempty"`
	DomainCardID *DomainCardID `json:"domain_card_id,omitempty" yaml:"domain_card_id,omitempty"`
	CardID       string        `json:"card_id,omitempty" yaml:"card_id,omitempty"`
	ChoiceID     string        `json:"choice_id,omitempty" yaml:"choice_id,omitempty"`
	SelectionID  string        `json:"selection_id,omitempty" yaml:"selection_id,omitempty"`
	DomainID     string        `json:"domain_id,omitempty" yaml:"domain_id,omitempty"`
	MinCards     int           `json:"min_cards,omitempty" yaml:"min_cards,omitempty"`
}

// DomainCardID is the composite key of a domain card.
type DomainCardID struct {
	DomainID string `json:"domain_id" yaml:"domain_id"`
	CardID   string `json:"card_id" yaml:"card_id"`
}

// IsZero reports whether the id is unset.
func (id DomainCardID) IsZero() bool {
	return id.DomainID == "" && id.CardID == ""
}

// String renders the id as "domain/card".
func (id DomainCardID) String() string {
	return id.DomainID + "/" + id.CardID
}
