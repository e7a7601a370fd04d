package character

// LevelUpSlot names one of the two choices taken at each level.
type LevelUpSlot string

const (
	SlotA LevelUpSlot = "A"
	SlotB LevelUpSlot = "B"
)

// UpgradeTarget selects which class a subclass upgrade applies to.
type UpgradeTarget string

const (
	UpgradePrimary   UpgradeTarget = "primary"
	UpgradeSecondary UpgradeTarget = "secondary"
)

// LevelUpChoice is one chosen level-up option plus its option-specific payload.
type LevelUpChoice struct {
	OptionID            string        `json:"option_id,omitempty"`
	MarkedTraits        []Trait       `json:"marked_traits,omitempty"`
	SelectedExperiences []int         `json:"selected_experiences,omitempty"`
	SelectedDomainCard  *DomainCardID `json:"selected_domain_card,omitempty"`
	SubclassUpgrade     UpgradeTarget `json:"subclass_upgrade,omitempty"`
}

// IsBlank reports whether no option was chosen.
func (c LevelUpChoice) IsBlank() bool {
	return c.OptionID == ""
}

// IsZero reports whether neither the option nor any payload is set.
func (c LevelUpChoice) IsZero() bool {
	return c.OptionID == "" && len(c.MarkedTraits) == 0 && len(c.SelectedExperiences) == 0 &&
		c.SelectedDomainCard == nil && c.SubclassUpgrade == ""
}

// LevelUpChoices holds the A/B pair for one level.
type LevelUpChoices struct {
	A LevelUpChoice `json:"A"`
	B LevelUpChoice `json:"B"`
}

// Slot returns a pointer to the named slot.
func (p *LevelUpChoices) Slot(slot LevelUpSlot) *LevelUpChoice {
	if slot == SlotB {
		return &p.B
	}
	return &p.A
}

// IsBlank reports whether both slots are blank.
func (p LevelUpChoices) IsBlank() bool {
	return p.A.IsBlank() && p.B.IsBlank()
}

// LevelUpKind classifies level-up options with payload semantics.
type LevelUpKind string

const (
	LevelUpGeneric         LevelUpKind = "generic"
	LevelUpTraits          LevelUpKind = "traits"
	LevelUpExperienceBonus LevelUpKind = "experience_bonus"
	LevelUpDomainCard      LevelUpKind = "domain_card"
	LevelUpSubclassUpgrade LevelUpKind = "subclass_upgrade"
	LevelUpMulticlass      LevelUpKind = "multiclass"
)
