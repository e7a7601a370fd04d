package character

// Clone returns a deep copy of the document.
func (c Character) Clone() Character {
	out := c

	if c.SelectedTraits != nil {
		out.SelectedTraits = make(map[Trait]*int, len(c.SelectedTraits))
		for trait, value := range c.SelectedTraits {
			out.SelectedTraits[trait] = cloneIntPtr(value)
		}
	}

	out.AdditionalAncestryIDs = cloneSlice(c.AdditionalAncestryIDs)
	out.AdditionalCommunityIDs = cloneSlice(c.AdditionalCommunityIDs)
	out.AdditionalTransformationIDs = cloneSlice(c.AdditionalTransformationIDs)

	if c.LevelUpChoices != nil {
		out.LevelUpChoices = make(map[int]LevelUpChoices, len(c.LevelUpChoices))
		for level, pair := range c.LevelUpChoices {
			out.LevelUpChoices[level] = LevelUpChoices{A: pair.A.Clone(), B: pair.B.Clone()}
		}
	}

	out.StartingDomainCards = cloneSlice(c.StartingDomainCards)
	out.AdditionalDomainCards = cloneSlice(c.AdditionalDomainCards)
	out.Loadout = cloneSlice(c.Loadout)
	if c.LevelDomainCards != nil {
		out.LevelDomainCards = make(map[int]DomainCardID, len(c.LevelDomainCards))
		for level, id := range c.LevelDomainCards {
			out.LevelDomainCards[level] = id
		}
	}

	out.DomainCardChoices = c.DomainCardChoices.Clone()
	out.AncestryCardChoices = c.AncestryCardChoices.Clone()
	out.LootChoices = c.LootChoices.Clone()

	out.Inventory = c.Inventory.Clone()
	out.Conditions = cloneSlice(c.Conditions)
	out.Experiences = cloneSlice(c.Experiences)

	if c.Companion != nil {
		companion := c.Companion.Clone()
		out.Companion = &companion
	}
	if c.Beastform != nil {
		beastform := c.Beastform.Clone()
		out.Beastform = &beastform
	}
	return out
}

// Clone returns a deep copy of the choice.
func (c LevelUpChoice) Clone() LevelUpChoice {
	out := c
	out.MarkedTraits = cloneSlice(c.MarkedTraits)
	out.SelectedExperiences = cloneSlice(c.SelectedExperiences)
	if c.SelectedDomainCard != nil {
		id := *c.SelectedDomainCard
		out.SelectedDomainCard = &id
	}
	return out
}

// Clone returns a deep copy of the selections.
func (c ChoiceSelections) Clone() ChoiceSelections {
	if c == nil {
		return nil
	}
	out := make(ChoiceSelections, len(c))
	for cardID, choices := range c {
		inner := make(map[string][]string, len(choices))
		for choiceID, selections := range choices {
			inner[choiceID] = cloneSlice(selections)
		}
		out[cardID] = inner
	}
	return out
}

// Clone returns a deep copy of the inventory.
func (inv Inventory) Clone() Inventory {
	return Inventory{
		PrimaryWeapons:   cloneItems(inv.PrimaryWeapons),
		SecondaryWeapons: cloneItems(inv.SecondaryWeapons),
		Armor:            cloneItems(inv.Armor),
		Loot:             cloneItems(inv.Loot),
		Consumables:      cloneItems(inv.Consumables),
		AdventuringGear:  cloneSlice(inv.AdventuringGear),
	}
}

// Clone returns a deep copy of the customization.
func (c Customization) Clone() Customization {
	out := Customization{
		Title:            clonePtr(c.Title),
		Description:      clonePtr(c.Description),
		LevelRequirement: cloneIntPtr(c.LevelRequirement),
		Range:            clonePtr(c.Range),
		DamageTypes:      cloneSlice(c.DamageTypes),
		Burden:           cloneIntPtr(c.Burden),
		DamageDice:       clonePtr(c.DamageDice),
		DamageBonus:      cloneIntPtr(c.DamageBonus),
		AttackRollBonus:  cloneIntPtr(c.AttackRollBonus),
		BaseScore:        cloneIntPtr(c.BaseScore),
		MajorThreshold:   cloneIntPtr(c.MajorThreshold),
		SevereThreshold:  cloneIntPtr(c.SevereThreshold),
	}
	return out
}

// Clone returns a deep copy of the companion.
func (c Companion) Clone() Companion {
	out := c
	out.Experiences = cloneSlice(c.Experiences)
	out.ExperienceModifiers = cloneSlice(c.ExperienceModifiers)
	if c.LevelUpChoices != nil {
		out.LevelUpChoices = make([]CompanionLevelUp, len(c.LevelUpChoices))
		for i, choice := range c.LevelUpChoices {
			choice.ExperienceIndices = cloneSlice(choice.ExperienceIndices)
			out.LevelUpChoices[i] = choice
		}
	}
	return out
}

// Clone returns a deep copy of the selection.
func (b BeastformSelection) Clone() BeastformSelection {
	out := b
	out.BaseFormIDs = cloneSlice(b.BaseFormIDs)
	out.Advantages = cloneIndexMap(b.Advantages)
	out.Features = cloneIndexMap(b.Features)
	return out
}

func cloneItems(items map[string]InventoryItem) map[string]InventoryItem {
	if items == nil {
		return nil
	}
	out := make(map[string]InventoryItem, len(items))
	for id, item := range items {
		if item.Customization != nil {
			customization := item.Customization.Clone()
			item.Customization = &customization
		}
		out[id] = item
	}
	return out
}

func cloneIndexMap(in map[string][]int) map[string][]int {
	if in == nil {
		return nil
	}
	out := make(map[string][]int, len(in))
	for key, values := range in {
		out[key] = cloneSlice(values)
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func clonePtr[T any](in *T) *T {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}

func cloneIntPtr(in *int) *int {
	return clonePtr(in)
}
