package derive

import (
	"slices"
	"sort"

	"github.com/louisbranch/duality-sheet/internal/services/sheet/compendium"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
)

// Context is everything one derivation cycle reads.
//
// Previous is the sheet of the prior cycle; conditions, derived_from_*
// contributions, loadout size, and subclass mastery gates read it so a cycle
// never depends on its own output. It is nil on the first cycle.
type Context struct {
	Character  character.Character
	Compendium *compendium.Snapshot
	Previous   *Sheet
}

// Compute derives the sheet for ctx.Character. It never mutates the
// document.
func Compute(ctx Context) Sheet {
	c := &ctx.Character
	snap := ctx.Compendium
	prev := ctx.Previous
	level := character.ClampLevel(c.Level)

	refs := Resolve(c, snap)

	loadoutLimit := BaseMaxLoadout
	scope := Scope{
		Character:     c,
		ArmorEquipped: refs.ArmorEquipped(),
		Proficiency:   BaseProficiency + character.TierBumps(level),
		Traits:        selectedTraits(c),
	}
	mastery := Mastery{
		Primary:   baseMastery(c.PrimaryClassID, refs.LevelUps, character.UpgradePrimary),
		Secondary: baseMastery(c.SecondaryClassID, refs.LevelUps, character.UpgradeSecondary),
	}
	if prev != nil {
		loadoutLimit = prev.MaxLoadout
		scope.Proficiency = prev.Proficiency
		scope.Traits = prev.Traits
		mastery = Mastery{Primary: prev.PrimaryClassMasteryLevel, Secondary: prev.SecondaryClassMasteryLevel}
	}
	loadout := NormalizeLoadout(c.Loadout, refs.Vault, loadoutLimit)
	scope.Loadout = loadout

	var form *compendium.Beastform
	if canBeastform(c) {
		form = DeriveBeastform(c.Beastform, level, snap)
	}
	var activeForm *compendium.Beastform
	unarmed := Unarmed()
	if form != nil && c.Beastform.Active {
		activeForm = form
		unarmed = beastformAttack(activeForm)
	}

	mods := Aggregate(refs, unarmed, loadout, mastery, scope)
	chars := mods.Character

	sheet := Sheet{
		Level:     level,
		Tier:      character.Tier(level),
		Inventory: refs.Inventory,
		Vault:     refs.Vault,
		Beastform: form,
	}
	if refs.PrimarySubclass != nil {
		sheet.SpellcastTrait = refs.PrimarySubclass.SpellcastTrait
	}

	sheet.Traits = deriveTraits(c, refs.LevelUps, chars, activeForm, scope)
	scope.Traits = sheet.Traits

	sheet.Proficiency = ResolveStat(chars, character.TargetProficiency, BaseProficiency, character.TierBumps(level), scope)
	scope.Proficiency = sheet.Proficiency

	startingEvasion, startingHP := 0, 0
	if class := refs.PrimaryClass; class != nil {
		startingEvasion, startingHP = class.StartingEvasion, class.StartingHP
	}
	evasionBump := 0
	if activeForm != nil {
		evasionBump = activeForm.EvasionBonus
	}
	sheet.Evasion = ResolveStat(chars, character.TargetEvasion, startingEvasion, evasionBump, scope)
	sheet.MaxHP = ResolveStat(chars, character.TargetMaxHP, startingHP, 0, scope)
	sheet.MaxStress = ResolveStat(chars, character.TargetMaxStress, BaseMaxStress, 0, scope)
	sheet.PrimaryClassMasteryLevel = deriveMastery(c.PrimaryClassID, refs.LevelUps, character.UpgradePrimary,
		character.TargetPrimaryClassMasteryLevel, chars, scope)
	sheet.SecondaryClassMasteryLevel = deriveMastery(c.SecondaryClassID, refs.LevelUps, character.UpgradeSecondary,
		character.TargetSecondaryClassMasteryLevel, chars, scope)
	sheet.MaxHope = ResolveStat(chars, character.TargetMaxHope, BaseMaxHope, 0, scope)
	armorScore := 0
	if refs.Armor != nil {
		armorScore = refs.Armor.BaseScore
	}
	sheet.MaxArmor = ResolveStat(chars, character.TargetMaxArmor, armorScore, 0, scope)
	sheet.MaxBurden = ResolveStat(chars, character.TargetMaxBurden, BaseMaxBurden, 0, scope)
	sheet.MaxExperiences = max(0, ResolveStat(chars, character.TargetMaxExperiences, BaseMaxExperiences, character.TierBumps(level), scope))
	sheet.MaxLoadout = max(0, ResolveStat(chars, character.TargetMaxLoadout, BaseMaxLoadout, 0, scope))
	sheet.MaxConsumables = max(0, ResolveStat(chars, character.TargetMaxConsumables, BaseMaxConsumables, 0, scope))
	sheet.SpellcastRollBonus = ResolveStat(chars, character.TargetSpellcastRollBonus, BaseSpellcastBonus, 0, scope)

	equipment := DeriveEquipment(refs.PrimaryWeapon, refs.SecondaryWeapon, unarmed, mods.Weapon, scope)
	sheet.PrimaryWeapon = equipment.Primary
	sheet.SecondaryWeapon = equipment.Secondary
	sheet.UnarmedAttack = equipment.Unarmed
	sheet.Armor = refs.Armor

	sheet.DamageThresholds = deriveThresholds(level, refs.Armor, chars, scope)
	sheet.ExperienceModifiers = deriveExperienceModifiers(c, sheet.MaxExperiences, refs.LevelUps, chars, scope)
	sheet.Loadout = loadoutCards(loadout, refs.Vault)

	if hasCompanionSubclass(c) {
		sheet.Companion = DeriveCompanion(c.Companion, level, sheet.MaxExperiences)
	}
	return sheet
}

func canBeastform(c *character.Character) bool {
	return c.PrimaryClassID == BeastformClassID || c.SecondaryClassID == BeastformClassID
}

func hasCompanionSubclass(c *character.Character) bool {
	return c.PrimarySubclassID == CompanionSubclassID || c.SecondarySubclassID == CompanionSubclassID
}

// beastformAttack is the unarmed baseline replaced by the form's attack.
func beastformAttack(form *compendium.Beastform) compendium.Weapon {
	attack := Unarmed()
	attack.ID = form.ID
	attack.Title = form.Title
	if form.Attack.Range != "" {
		attack.Range = form.Attack.Range
	}
	if form.Attack.Trait != "" {
		attack.Traits = []character.Trait{form.Attack.Trait}
	}
	if form.Attack.DamageDice != "" {
		attack.DamageDice = form.Attack.DamageDice
	}
	if form.Attack.DamageType != "" {
		attack.DamageTypes = []character.DamageType{form.Attack.DamageType}
	}
	attack.DamageBonus = form.Attack.DamageBonus
	attack.Features = slices.Clone(form.Features)
	return attack
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
