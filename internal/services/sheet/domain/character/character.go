package character

import "time"

// MixedAncestryID is the reserved ancestry id that composes two ancestries.
const MixedAncestryID = "mixed-ancestry"

// ChoiceSelections maps card id -> choice id -> selected option ids.
type ChoiceSelections map[string]map[string][]string

// Get returns the selections for a card choice, nil when absent.
func (c ChoiceSelections) Get(cardID, choiceID string) []string {
	if c == nil {
		return nil
	}
	return c[cardID][choiceID]
}

// MixedAncestry names the two ancestries composing a mixed ancestry card.
type MixedAncestry struct {
	TopAncestryID    string `json:"top_ancestry_id,omitempty"`
	BottomAncestryID string `json:"bottom_ancestry_id,omitempty"`
}

// IsZero reports whether neither half is set.
func (m MixedAncestry) IsZero() bool {
	return m.TopAncestryID == "" && m.BottomAncestryID == ""
}

// Character is the persisted character document.
type Character struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id,omitempty"`
	OwnerName  string    `json:"owner_name,omitempty"`
	CampaignID string    `json:"campaign_id,omitempty"`
	Name       string    `json:"name"`
	Level      int       `json:"level"`
	Version    int64     `json:"version"`
	UpdatedAt  time.Time `json:"updated_at"`

	SelectedTraits map[Trait]*int `json:"selected_traits,omitempty"`

	AncestryID       string        `json:"ancestry_id,omitempty"`
	MixedAncestry    MixedAncestry `json:"mixed_ancestry,omitzero"`
	CommunityID      string        `json:"community_id,omitempty"`
	TransformationID string        `json:"transformation_id,omitempty"`

	AdditionalAncestryIDs       []string `json:"additional_ancestry_ids,omitempty"`
	AdditionalCommunityIDs      []string `json:"additional_community_ids,omitempty"`
	AdditionalTransformationIDs []string `json:"additional_transformation_ids,omitempty"`

	PrimaryClassID      string `json:"primary_class_id,omitempty"`
	PrimarySubclassID   string `json:"primary_subclass_id,omitempty"`
	SecondaryClassID    string `json:"secondary_class_id,omitempty"`
	SecondarySubclassID string `json:"secondary_subclass_id,omitempty"`

	// LevelUpChoices is keyed by level (2..10).
	LevelUpChoices map[int]LevelUpChoices `json:"level_up_choices,omitempty"`

	StartingDomainCards   []DomainCardID       `json:"starting_domain_cards,omitempty"`
	LevelDomainCards      map[int]DomainCardID `json:"level_domain_cards,omitempty"`
	AdditionalDomainCards []DomainCardID       `json:"additional_domain_cards,omitempty"`
	Loadout               []DomainCardID       `json:"loadout,omitempty"`

	DomainCardChoices   ChoiceSelections `json:"domain_card_choices,omitempty"`
	AncestryCardChoices ChoiceSelections `json:"ancestry_card_choices,omitempty"`
	LootChoices         ChoiceSelections `json:"loot_choices,omitempty"`

	Inventory       Inventory       `json:"inventory"`
	ActiveEquipment ActiveEquipment `json:"active_equipment"`

	Conditions  []string `json:"conditions,omitempty"`
	Experiences []string `json:"experiences,omitempty"`

	MarkedHP     int `json:"marked_hp"`
	MarkedStress int `json:"marked_stress"`
	Hope         int `json:"hope"`
	MarkedArmor  int `json:"marked_armor"`

	Companion *Companion          `json:"companion,omitempty"`
	Beastform *BeastformSelection `json:"beastform,omitempty"`
}

// New returns a blank level-1 character.
func New(id, userID, name string) Character {
	return Character{
		ID:     id,
		UserID: userID,
		Name:   name,
		Level:  LevelMin,
		SelectedTraits: map[Trait]*int{
			TraitAgility: nil, TraitStrength: nil, TraitFinesse: nil,
			TraitInstinct: nil, TraitPresence: nil, TraitKnowledge: nil,
		},
		Hope: 2,
	}
}

// ClassIDs returns the chosen class ids, primary first.
func (c Character) ClassIDs() []string {
	var ids []string
	if c.PrimaryClassID != "" {
		ids = append(ids, c.PrimaryClassID)
	}
	if c.SecondaryClassID != "" {
		ids = append(ids, c.SecondaryClassID)
	}
	return ids
}

// EachLevelUp calls fn for every level-up slot from level 2 to maxLevel in
// level order, A before B. fn receives a pointer into the document.
func (c *Character) EachLevelUp(maxLevel int, fn func(level int, slot LevelUpSlot, choice *LevelUpChoice)) {
	for level := 2; level <= maxLevel; level++ {
		pair, ok := c.LevelUpChoices[level]
		if !ok {
			continue
		}
		fn(level, SlotA, &pair.A)
		fn(level, SlotB, &pair.B)
		c.LevelUpChoices[level] = pair
	}
}
