package character

// Behaviour selects how a modifier folds into the running value.
type Behaviour string

const (
	// BehaviourBase replaces the hard-coded default.
	BehaviourBase Behaviour = "base"
	// BehaviourBonus accumulates onto the running value.
	BehaviourBonus Behaviour = "bonus"
	// BehaviourOverride replaces the running value after every bonus.
	BehaviourOverride Behaviour = "override"
)

// Behaviours lists the resolution phases in application order.
var Behaviours = []Behaviour{BehaviourBase, BehaviourBonus, BehaviourOverride}

// ModifierType selects how a modifier computes its numeric contribution.
type ModifierType string

const (
	ModifierFlat                   ModifierType = "flat"
	ModifierDerivedFromTrait       ModifierType = "derived_from_trait"
	ModifierDerivedFromProficiency ModifierType = "derived_from_proficiency"
	ModifierDerivedFromLevel       ModifierType = "derived_from_level"
)

// Target names a derivable character statistic.
type Target string

const (
	TargetTrait                      Target = "trait"
	TargetEvasion                    Target = "evasion"
	TargetMaxHP                      Target = "max_hp"
	TargetProficiency                Target = "proficiency"
	TargetMaxStress                  Target = "max_stress"
	TargetPrimaryClassMasteryLevel   Target = "primary_class_mastery_level"
	TargetSecondaryClassMasteryLevel Target = "secondary_class_mastery_level"
	TargetMaxHope                    Target = "max_hope"
	TargetMaxArmor                   Target = "max_armor"
	TargetMaxBurden                  Target = "max_burden"
	TargetMajorDamageThreshold       Target = "major_damage_threshold"
	TargetSevereDamageThreshold      Target = "severe_damage_threshold"
	TargetMaxExperiences             Target = "max_experiences"
	TargetMaxLoadout                 Target = "max_loadout"
	TargetMaxConsumables             Target = "max_consumables"
	TargetSpellcastRollBonus         Target = "spellcast_roll_bonus"

	// TargetExperienceFromDomainCardChoice adjusts the experiences whose
	// indices are selected in a domain card choice.
	TargetExperienceFromDomainCardChoice Target = "experience_from_domain_card_choice_selection"
	// TargetExperienceFromAncestryCardChoice adjusts the experiences whose
	// indices are selected in an ancestry card choice.
	TargetExperienceFromAncestryCardChoice Target = "experience_from_ancestry_card_choice_selection"
)

// ChoiceRef addresses one choice slot on a card.
type ChoiceRef struct {
	CardID   string `json:"card_id" yaml:"card_id"`
	ChoiceID string `json:"choice_id" yaml:"choice_id"`
}

// CharacterModifier adjusts one derived character statistic.
//
// Trait selects which trait a TargetTrait modifier changes. SourceTrait and
// Multiplier parameterise the derived_from_* types; a nil Multiplier scales by
// one. Choice addresses the selection slot read by the experience targets.
type CharacterModifier struct {
	Behaviour   Behaviour            `json:"behaviour" yaml:"behaviour"`
	Target      Target               `json:"target" yaml:"target"`
	Type        ModifierType         `json:"type" yaml:"type"`
	Value       int                  `json:"value,omitempty" yaml:"value,omitempty"`
	Trait       Trait                `json:"trait,omitempty" yaml:"trait,omitempty"`
	SourceTrait Trait                `json:"source_trait,omitempty" yaml:"source_trait,omitempty"`
	Multiplier  *float64             `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
	Choice      *ChoiceRef           `json:"choice,omitempty" yaml:"choice,omitempty"`
	Conditions  []CharacterCondition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// WeaponTarget names a derivable weapon statistic.
type WeaponTarget string

const (
	WeaponTargetAttackRoll  WeaponTarget = "attack_roll"
	WeaponTargetDamageBonus WeaponTarget = "damage_bonus"
	WeaponTargetDamageDice  WeaponTarget = "damage_dice"
	WeaponTargetDamageType  WeaponTarget = "damage_type"
	WeaponTargetRange       WeaponTarget = "range"
	WeaponTargetTrait       WeaponTarget = "trait"
)

// TargetWeapon selects which derived weapon a WeaponModifier touches.
type TargetWeapon string

const (
	TargetWeaponAll       TargetWeapon = "all"
	TargetWeaponPrimary   TargetWeapon = "primary"
	TargetWeaponSecondary TargetWeapon = "secondary"
	TargetWeaponUnarmed   TargetWeapon = "unarmed"
)

// WeaponModifier adjusts one statistic on the derived weapons.
//
// Numeric targets (attack_roll, damage_bonus) use Type/Value/SourceTrait/
// Multiplier like CharacterModifier. The remaining targets read the matching
// typed payload field.
type WeaponModifier struct {
	Behaviour    Behaviour            `json:"behaviour" yaml:"behaviour"`
	Target       WeaponTarget         `json:"target" yaml:"target"`
	TargetWeapon TargetWeapon         `json:"target_weapon" yaml:"target_weapon"`
	Type         ModifierType         `json:"type,omitempty" yaml:"type,omitempty"`
	Value        int                  `json:"value,omitempty" yaml:"value,omitempty"`
	SourceTrait  Trait                `json:"source_trait,omitempty" yaml:"source_trait,omitempty"`
	Multiplier   *float64             `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
	DamageDice   string               `json:"damage_dice,omitempty" yaml:"damage_dice,omitempty"`
	DamageType   DamageType           `json:"damage_type,omitempty" yaml:"damage_type,omitempty"`
	Range        Range                `json:"range,omitempty" yaml:"range,omitempty"`
	Trait        Trait                `json:"trait,omitempty" yaml:"trait,omitempty"`
	Conditions   []CharacterCondition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// AppliesTo reports whether the modifier targets the given weapon slot.
func (m WeaponModifier) AppliesTo(slot TargetWeapon) bool {
	return m.TargetWeapon == TargetWeaponAll || m.TargetWeapon == slot
}

// DamageType classifies weapon damage.
type DamageType string

const (
	DamageTypePhysical DamageType = "physical"
	DamageTypeMagic    DamageType = "magic"
)

// Range is an attack range band.
type Range string

const (
	RangeMelee     Range = "melee"
	RangeVeryClose Range = "very_close"
	RangeClose     Range = "close"
	RangeFar       Range = "far"
	RangeVeryFar   Range = "very_far"
)

var rangeSteps = []Range{RangeMelee, RangeVeryClose, RangeClose, RangeFar, RangeVeryFar}

// Step returns the next range band outward, staying at very_far.
func (r Range) Step() Range {
	for i, candidate := range rangeSteps {
		if candidate == r && i+1 < len(rangeSteps) {
			return rangeSteps[i+1]
		}
	}
	return r
}
