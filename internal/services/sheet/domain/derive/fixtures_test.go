package derive

import (
	"github.com/louisbranch/duality-sheet/internal/services/sheet/compendium"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func floatPtr(v float64) *float64 { return &v }

func flat(behaviour character.Behaviour, target character.Target, value int, conditions ...character.CharacterCondition) character.CharacterModifier {
	return character.CharacterModifier{
		Behaviour:  behaviour,
		Target:     target,
		Type:       character.ModifierFlat,
		Value:      value,
		Conditions: conditions,
	}
}

func traitMod(behaviour character.Behaviour, trait character.Trait, value int) character.CharacterModifier {
	m := flat(behaviour, character.TargetTrait, value)
	m.Trait = trait
	return m
}

func feature(title string, mods ...character.CharacterModifier) compendium.Feature {
	return compendium.Feature{Title: title, CharacterModifiers: mods}
}

func weaponFeature(title string, mods ...character.WeaponModifier) compendium.Feature {
	return compendium.Feature{Title: title, WeaponModifiers: mods}
}

func card(domain, id, title string, level int) compendium.DomainCard {
	return compendium.DomainCard{ID: id, DomainID: domain, Title: title, Level: level}
}

func cardID(domain, id string) character.DomainCardID {
	return character.DomainCardID{DomainID: domain, CardID: id}
}

// testTables is a small but complete compendium: every table is present.
func testTables() compendium.Tables {
	physical := []character.DamageType{character.DamageTypePhysical}
	domainCards := map[string]map[string]compendium.DomainCard{
		"valor": {
			"bare-bones":       card("valor", "bare-bones", "Bare Bones", 1),
			"forceful-push":    card("valor", "forceful-push", "Forceful Push", 1),
			"i-am-your-shield": card("valor", "i-am-your-shield", "I Am Your Shield", 1),
			"body-basher":      card("valor", "body-basher", "Body Basher", 2),
			"critical-inspiration": func() compendium.DomainCard {
				c := card("valor", "critical-inspiration", "Critical Inspiration", 3)
				c.ForcedInLoadout = true
				return c
			}(),
		},
		"blade": {
			"get-back-up":     card("blade", "get-back-up", "Get Back Up", 1),
			"not-good-enough": card("blade", "not-good-enough", "Not Good Enough", 1),
			"whirlwind": func() compendium.DomainCard {
				c := card("blade", "whirlwind", "Whirlwind", 1)
				c.ForcedInVault = true
				return c
			}(),
			"deft-maneuvers": func() compendium.DomainCard {
				c := card("blade", "deft-maneuvers", "Deft Maneuvers", 1)
				c.AppliesInVault = true
				c.Features = []compendium.Feature{feature("Deft", flat(character.BehaviourBonus, character.TargetMaxStress, 1))}
				return c
			}(),
			"versatile-fighter": func() compendium.DomainCard {
				c := card("blade", "versatile-fighter", "Versatile Fighter", 2)
				c.Features = []compendium.Feature{feature("Versatile", flat(character.BehaviourBonus, character.TargetEvasion, 1))}
				c.Choices = []compendium.Choice{{
					ID:            "edge",
					Title:         "Edge",
					Kind:          compendium.ChoiceOptions,
					MaxSelections: 1,
					Options:       []compendium.ChoiceOption{{ID: "strength", Title: "Strength"}, {ID: "finesse", Title: "Finesse"}},
				}}
				return c
			}(),
		},
		"sage": {
			"gifted-tracker":  card("sage", "gifted-tracker", "Gifted Tracker", 1),
			"nature-familiar": card("sage", "nature-familiar", "Nature Familiar", 1),
		},
		"arcana": {
			"rune-ward": card("arcana", "rune-ward", "Rune Ward", 1),
		},
		"bone": {
			"untouchable": card("bone", "untouchable", "Untouchable", 1),
		},
	}

	return compendium.Tables{
		Weapons: map[string]compendium.Weapon{
			"broadsword": {
				ID: "broadsword", Title: "Broadsword", Slot: compendium.WeaponPrimary, Tier: 1,
				Traits: []character.Trait{character.TraitAgility}, Range: character.RangeMelee,
				DamageDice: "d8", DamageTypes: physical, Burden: 1,
			},
			"greatsword": {
				ID: "greatsword", Title: "Greatsword", Slot: compendium.WeaponPrimary, Tier: 1,
				Traits: []character.Trait{character.TraitStrength}, Range: character.RangeMelee,
				DamageDice: "d10", DamageBonus: 3, DamageTypes: physical, Burden: 2,
				Features: []compendium.Feature{feature("Massive",
					flat(character.BehaviourBonus, character.TargetEvasion, -1, character.CharacterCondition{
						Type: character.ConditionWeaponEquipped,
						Slot: character.TargetWeaponPrimary,
					}),
				)},
			},
			"runeblade": {
				ID: "runeblade", Title: "Runeblade", Slot: compendium.WeaponPrimary, Tier: 2, LevelRequirement: 5,
				Traits: []character.Trait{character.TraitKnowledge}, Range: character.RangeMelee,
				DamageDice: "d10", DamageTypes: []character.DamageType{character.DamageTypeMagic}, Burden: 1,
			},
			"round-shield": {
				ID: "round-shield", Title: "Round Shield", Slot: compendium.WeaponSecondary, Tier: 1,
				Traits: []character.Trait{character.TraitStrength}, Range: character.RangeMelee,
				DamageDice: "d4", DamageTypes: physical, Burden: 1,
				Features: []compendium.Feature{feature("Protective", flat(character.BehaviourBonus, character.TargetMaxArmor, 1))},
			},
			"small-dagger": {
				ID: "small-dagger", Title: "Small Dagger", Slot: compendium.WeaponSecondary, Tier: 1,
				Traits: []character.Trait{character.TraitFinesse}, Range: character.RangeMelee,
				DamageDice: "d8", DamageTypes: physical, Burden: 1,
			},
		},
		Armor: map[string]compendium.Armor{
			compendium.UnarmoredID: {ID: compendium.UnarmoredID, Title: "Unarmored"},
			"leather": {ID: "leather", Title: "Leather Armor", Tier: 1, BaseScore: 3, MajorThreshold: 6, SevereThreshold: 13},
			"full-plate": {
				ID: "full-plate", Title: "Full Plate", Tier: 2, LevelRequirement: 5, BaseScore: 6,
				MajorThreshold: 11, SevereThreshold: 24,
			},
		},
		Consumables: map[string]compendium.Consumable{
			"minor-health-potion":  {ID: "minor-health-potion", Title: "Minor Health Potion"},
			"minor-stamina-potion": {ID: "minor-stamina-potion", Title: "Minor Stamina Potion"},
		},
		Loot: map[string]compendium.Loot{
			"premium-bedroll": {ID: "premium-bedroll", Title: "Premium Bedroll"},
			"charging-quiver": {
				ID: "charging-quiver", Title: "Charging Quiver",
				Features: []compendium.Feature{feature("Charged",
					flat(character.BehaviourBonus, character.TargetSpellcastRollBonus, 1, character.CharacterCondition{
						Type: character.ConditionLootChoice, CardID: "charging-quiver", ChoiceID: "mode", SelectionID: "focus",
					}),
				)},
				Choices: []compendium.Choice{{
					ID: "mode", Kind: compendium.ChoiceOptions, MaxSelections: 1,
					Options: []compendium.ChoiceOption{{ID: "focus", Title: "Focus"}, {ID: "rest", Title: "Rest"}},
				}},
			},
		},
		Ancestries: map[string]compendium.Card{
			"giant": {ID: "giant", Title: "Giant", Features: []compendium.Feature{
				feature("Endurance", flat(character.BehaviourBonus, character.TargetMaxHP, 1)),
				feature("Reach"),
			}},
			"human": {ID: "human", Title: "Human", Features: []compendium.Feature{
				feature("High Stamina", flat(character.BehaviourBonus, character.TargetMaxStress, 1)),
				feature("Adaptability"),
			}},
			"simiah": {ID: "simiah", Title: "Simiah", Features: []compendium.Feature{
				feature("Natural Climber"),
				feature("Nimble", flat(character.BehaviourBonus, character.TargetEvasion, 1)),
			}},
			"clank": {
				ID: "clank", Title: "Clank",
				Features:   []compendium.Feature{
					feature("Purposeful Design", character.CharacterModifier{
						Behaviour: character.BehaviourBonus,
						Target:    character.TargetExperienceFromAncestryCardChoice,
						Type:      character.ModifierFlat,
						Value:     1,
						Choice:    &character.ChoiceRef{CardID: "clank", ChoiceID: "design"},
					}),
					feature("Efficient"),
				},
				Choices: []compendium.Choice{{ID: "design", Kind: compendium.ChoiceExperience, FeatureIndex: 0, MaxSelections: 1}},
			},
		},
		Communities: map[string]compendium.Card{
			"highborne": {ID: "highborne", Title: "Highborne", Features: []compendium.Feature{feature("Privilege")}},
			"wildborne": {ID: "wildborne", Title: "Wildborne", Features: []compendium.Feature{feature("Lightfoot")}},
		},
		Transformations: map[string]compendium.Card{
			"vampire": {ID: "vampire", Title: "Vampire", Features: []compendium.Feature{
				feature("Night Stalker", flat(character.BehaviourBonus, character.TargetMaxHope, -1)),
			}},
		},
		Classes: map[string]compendium.Class{
			"guardian": {
				ID: "guardian", Title: "Guardian", DomainIDs: []string{"valor", "blade"},
				StartingEvasion: 9, StartingHP: 7, HopeFeature: compendium.Feature{Title: "Frontline Tank"},
			},
			"druid": {
				ID: "druid", Title: "Druid", DomainIDs: []string{"sage", "arcana"},
				StartingEvasion: 10, StartingHP: 6, HopeFeature: compendium.Feature{Title: "Evolution"},
			},
			"ranger": {
				ID: "ranger", Title: "Ranger", DomainIDs: []string{"bone", "sage"},
				StartingEvasion: 12, StartingHP: 6, HopeFeature: compendium.Feature{Title: "Hold Them Off"},
			},
		},
		Subclasses: map[string]compendium.Subclass{
			"stalwart": {
				ID: "stalwart", ClassID: "guardian", Title: "Stalwart",
				Foundation: []compendium.Feature{feature("Unwavering",
					flat(character.BehaviourBonus, character.TargetMajorDamageThreshold, 1),
					flat(character.BehaviourBonus, character.TargetSevereDamageThreshold, 1),
				)},
				Specialization: []compendium.Feature{feature("Unrelenting",
					flat(character.BehaviourBonus, character.TargetMajorDamageThreshold, 2),
					flat(character.BehaviourBonus, character.TargetSevereDamageThreshold, 2),
				)},
				Mastery: []compendium.Feature{feature("Undaunted",
					flat(character.BehaviourBonus, character.TargetMajorDamageThreshold, 3),
					flat(character.BehaviourBonus, character.TargetSevereDamageThreshold, 3),
				)},
			},
			"warden-of-the-elements": {
				ID: "warden-of-the-elements", ClassID: "druid", Title: "Warden of the Elements",
				SpellcastTrait: character.TraitInstinct,
			},
			"beastbound": {ID: "beastbound", ClassID: "ranger", Title: "Beastbound", SpellcastTrait: character.TraitAgility},
		},
		Domains: map[string]compendium.Domain{
			"valor":  {ID: "valor", Title: "Valor"},
			"blade":  {ID: "blade", Title: "Blade"},
			"sage":   {ID: "sage", Title: "Sage"},
			"arcana": {ID: "arcana", Title: "Arcana"},
			"bone":   {ID: "bone", Title: "Bone"},
		},
		DomainCards: domainCards,
		Beastforms: map[string]compendium.Beastform{
			"agile-scout": {
				ID: "agile-scout", Title: "Agile Scout", Tier: 1, LevelRequirement: 1,
				Trait: character.TraitAgility, TraitBonus: 1, EvasionBonus: 2,
				Attack: compendium.BeastformAttack{
					Range: character.RangeMelee, Trait: character.TraitAgility, DamageDice: "d4", DamageType: character.DamageTypePhysical,
				},
				Advantages: []string{"deceive", "locate", "sneak"},
				Features:   []compendium.Feature{{Title: "Agile"}, {Title: "Fragile"}},
			},
			"household-friend": {
				ID: "household-friend", Title: "Household Friend", Tier: 1, LevelRequirement: 1,
				Trait: character.TraitInstinct, TraitBonus: 1, EvasionBonus: 2,
				Attack: compendium.BeastformAttack{
					Range: character.RangeMelee, Trait: character.TraitInstinct, DamageDice: "d6", DamageType: character.DamageTypePhysical,
				},
				Advantages: []string{"climb", "locate", "protect"},
				Features:   []compendium.Feature{{Title: "Companion"}, {Title: "Fragile"}},
			},
			"great-predator": {
				ID: "great-predator", Title: "Great Predator", Tier: 3, LevelRequirement: 5,
				Trait: character.TraitStrength, TraitBonus: 2, EvasionBonus: 1,
				Attack: compendium.BeastformAttack{
					Range: character.RangeMelee, Trait: character.TraitStrength, DamageDice: "d12", DamageBonus: 8, DamageType: character.DamageTypePhysical,
				},
				Advantages: []string{"attack", "sneak", "sprint"},
				Features:   []compendium.Feature{{Title: "Carrier"}, {Title: "Vicious Maul"}},
			},
			"armored-tortoise": {
				ID: "armored-tortoise", Title: "Armored Tortoise", Tier: 2, LevelRequirement: 3,
				Trait: character.TraitStrength, TraitBonus: 1,
				Attack: compendium.BeastformAttack{
					Range: character.RangeMelee, Trait: character.TraitStrength, DamageDice: "d8", DamageBonus: 1, DamageType: character.DamageTypePhysical,
				},
				Advantages: []string{"endure", "swim"},
				Features:   []compendium.Feature{
					feature("Hardened Shell", flat(character.BehaviourBonus, character.TargetMaxHP, 3)),
					{Title: "Slow"},
				},
			},
			"legendary-beast": {
				ID: "legendary-beast", Title: "Legendary Beast", Tier: 3, LevelRequirement: 5,
				Composite: compendium.CompositeLegendaryBeast,
			},
			"mythic-beast": {
				ID: "mythic-beast", Title: "Mythic Beast", Tier: 4, LevelRequirement: 8,
				Composite: compendium.CompositeMythicBeast,
			},
			"mythic-hybrid": {
				ID: "mythic-hybrid", Title: "Mythic Hybrid", Tier: 4, LevelRequirement: 8,
				Composite: compendium.CompositeMythicHybrid, Trait: character.TraitStrength, TraitBonus: 3, EvasionBonus: 2,
				Attack: compendium.BeastformAttack{
					Range: character.RangeClose, Trait: character.TraitStrength, DamageDice: "d12", DamageBonus: 10, DamageType: character.DamageTypePhysical,
				},
			},
			"legendary-hybrid": {
				ID: "legendary-hybrid", Title: "Legendary Hybrid", Tier: 3, LevelRequirement: 5,
				Composite: compendium.CompositeLegendaryHybrid, Trait: character.TraitStrength, TraitBonus: 2, EvasionBonus: 3,
				Attack: compendium.BeastformAttack{
					Range: character.RangeClose, Trait: character.TraitStrength, DamageDice: "d10", DamageBonus: 8, DamageType: character.DamageTypePhysical,
				},
			},
		},
		LevelUpOptions: map[string]compendium.LevelUpOption{
			"tier2-traits": {
				ID: "tier2-traits", Title: "Gain a +1 bonus to two unmarked traits", Tier: 2,
				Kind: character.LevelUpTraits, MaxUses: 3, MarkedTraitCount: 2,
			},
			"tier2-hp": {
				ID: "tier2-hp", Title: "Permanently gain one Hit Point slot", Tier: 2, Kind: character.LevelUpGeneric, MaxUses: 2,
				CharacterModifiers: []character.CharacterModifier{flat(character.BehaviourBonus, character.TargetMaxHP, 1)},
			},
			"tier2-evasion": {
				ID: "tier2-evasion", Title: "Permanently gain a +1 bonus to your Evasion", Tier: 2, Kind: character.LevelUpGeneric, MaxUses: 1,
				CharacterModifiers: []character.CharacterModifier{flat(character.BehaviourBonus, character.TargetEvasion, 1)},
			},
			"tier2-experience": {
				ID: "tier2-experience", Title: "Permanently gain a +1 bonus to two Experiences", Tier: 2,
				Kind: character.LevelUpExperienceBonus, MaxUses: 1,
			},
			"tier2-domain-card": {
				ID: "tier2-domain-card", Title: "Take an additional domain card", Tier: 2, Kind: character.LevelUpDomainCard, MaxUses: 1,
			},
			"tier2-proficiency": {
				ID: "tier2-proficiency", Title: "Increase your Proficiency by +1", Tier: 2, Kind: character.LevelUpGeneric, Cost: 2, MaxUses: 1,
				CharacterModifiers: []character.CharacterModifier{flat(character.BehaviourBonus, character.TargetProficiency, 1)},
			},
			"tier3-subclass": {
				ID: "tier3-subclass", Title: "Take an upgraded subclass card", Tier: 3, Kind: character.LevelUpSubclassUpgrade, MaxUses: 1,
			},
			"tier3-multiclass": {
				ID: "tier3-multiclass", Title: "Multiclass", Tier: 3, Kind: character.LevelUpMulticlass, Cost: 2, MaxUses: 1,
			},
			"any-subclass": {
				ID: "any-subclass", Title: "Unbounded subclass upgrade", Tier: 2, Kind: character.LevelUpSubclassUpgrade,
			},
		},
		Sources: map[string]compendium.Publication{
			"core": {ID: "core", Title: "Daggerheart Core Rulebook"},
		},
	}
}

func testSnapshot() *compendium.Snapshot {
	return compendium.NewSnapshot(testTables())
}

// baseCharacter is a level-1 guardian with a complete trait spread.
func baseCharacter() character.Character {
	c := character.New("char-1", "user-1", "Ilse")
	values := map[character.Trait]int{
		character.TraitAgility:   2,
		character.TraitStrength:  1,
		character.TraitFinesse:   1,
		character.TraitInstinct:  0,
		character.TraitPresence:  0,
		character.TraitKnowledge: -1,
	}
	for trait, value := range values {
		c.SelectedTraits[trait] = intPtr(value)
	}
	c.PrimaryClassID = "guardian"
	c.PrimarySubclassID = "stalwart"
	c.AncestryID = "giant"
	c.CommunityID = "highborne"
	c.Experiences = []string{"Bodyguard", "Blacksmith"}
	return c
}

func item(compendiumID string, seq int) character.InventoryItem {
	return character.InventoryItem{CompendiumID: compendiumID, Seq: seq}
}

func compute(c character.Character) Sheet {
	return Compute(Context{Character: c, Compendium: testSnapshot()})
}
