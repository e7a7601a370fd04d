package character

// BeastformSelection is the persisted beastform choice of a druid.
//
// Composite beastforms read BaseFormIDs plus the advantage and feature indices
// picked from each base form (keyed by base form id).
type BeastformSelection struct {
	BeastformID string           `json:"beastform_id"`
	Active      bool             `json:"active,omitempty"`
	BaseFormIDs []string         `json:"base_form_ids,omitempty"`
	Advantages  map[string][]int `json:"advantages,omitempty"`
	Features    map[string][]int `json:"features,omitempty"`
}

// CompanionPerk names a companion level-up perk.
type CompanionPerk string

const (
	PerkIntelligent    CompanionPerk = "intelligent"
	PerkVicious        CompanionPerk = "vicious"
	PerkResilient      CompanionPerk = "resilient"
	PerkLightInTheDark CompanionPerk = "light-in-the-dark"
	PerkAware          CompanionPerk = "aware"
)

// Vicious perk targets.
const (
	ViciousTargetDamage = "damage"
	ViciousTargetRange  = "range"
)

// CompanionLevelUp is one perk taken by the companion when its owner levels.
type CompanionLevelUp struct {
	Perk              CompanionPerk `json:"perk"`
	ExperienceIndices []int         `json:"experience_indices,omitempty"`
	ViciousTarget     string        `json:"vicious_target,omitempty"`
}

// CompanionAttack is the companion's standard attack.
type CompanionAttack struct {
	Name       string `json:"name"`
	Range      Range  `json:"range"`
	DamageDice string `json:"damage_dice"`
}

// Companion is the persisted animal companion of a beastbound ranger.
type Companion struct {
	Name                string             `json:"name"`
	Kind                string             `json:"kind,omitempty"`
	Evasion             int                `json:"evasion"`
	MaxStress           int                `json:"max_stress"`
	MarkedStress        int                `json:"marked_stress"`
	MaxHope             int                `json:"max_hope"`
	MarkedHope          int                `json:"marked_hope"`
	Attack              CompanionAttack    `json:"attack"`
	Experiences         []string           `json:"experiences,omitempty"`
	ExperienceModifiers []int              `json:"experience_modifiers,omitempty"`
	LevelUpChoices      []CompanionLevelUp `json:"level_up_choices,omitempty"`
}
