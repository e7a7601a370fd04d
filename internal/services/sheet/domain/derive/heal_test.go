package derive

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/louisbranch/duality-sheet/internal/services/sheet/compendium"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
)

// messyCharacter breaks most heal rules at once.
func messyCharacter() character.Character {
	c := baseCharacter()
	c.Level = 12
	c.SelectedTraits[character.TraitStrength] = intPtr(2)
	c.Conditions = []string{"hidden", "hidden", "", "vulnerable"}
	c.CommunityID = "nowhere"
	c.AdditionalAncestryIDs = []string{"human", "human", "nope"}
	c.SecondaryClassID = "druid"
	c.SecondarySubclassID = "stalwart"
	c.LevelUpChoices = map[int]character.LevelUpChoices{
		2: {
			A: character.LevelUpChoice{OptionID: "tier3-subclass"},
			B: character.LevelUpChoice{MarkedTraits: []character.Trait{character.TraitAgility}},
		},
		3: {
			A: character.LevelUpChoice{OptionID: "tier2-proficiency"},
			B: character.LevelUpChoice{OptionID: "tier2-hp"},
		},
		4: {
			A: character.LevelUpChoice{OptionID: "tier2-traits", MarkedTraits: []character.Trait{character.TraitAgility, character.TraitStrength, character.TraitFinesse}},
			B: character.LevelUpChoice{OptionID: "tier2-traits", MarkedTraits: []character.Trait{character.TraitAgility}},
		},
		5:  {A: character.LevelUpChoice{OptionID: "any-subclass", SubclassUpgrade: character.UpgradeSecondary}},
		11: {A: character.LevelUpChoice{OptionID: "tier2-hp"}},
	}
	c.StartingDomainCards = []character.DomainCardID{cardID("valor", "bare-bones"), cardID("sage", "gifted-tracker")}
	c.Loadout = []character.DomainCardID{cardID("valor", "bare-bones"), cardID("arcana", "rune-ward")}
	c.Inventory.PrimaryWeapons = map[string]character.InventoryItem{"w-1": item("greatsword", 1)}
	c.Inventory.SecondaryWeapons = map[string]character.InventoryItem{"s-1": item("round-shield", 2)}
	c.Inventory.Consumables = map[string]character.InventoryItem{}
	for i := range 7 {
		c.Inventory.Consumables["c-"+string(rune('a'+i))] = item("minor-health-potion", 10+i)
	}
	c.ActiveEquipment = character.ActiveEquipment{PrimaryWeaponID: "w-1", SecondaryWeaponID: "s-1", ArmorID: "ghost"}
	c.MarkedHP = 99
	c.Hope = -1
	c.Companion = testCompanion()
	c.Beastform = &character.BeastformSelection{BeastformID: "agile-scout"}
	c.Experiences = []string{"a", "b", "c", "d", "e", "f", "g"}
	return c
}

func healWithSheet(c character.Character, snap *compendium.Snapshot) (character.Character, []Diagnostic, Env) {
	sheet := Compute(Context{Character: c, Compendium: snap})
	env := Env{Compendium: snap, Sheet: &sheet}
	healed, diagnostics := Heal(c, env)
	return healed, diagnostics, env
}

func rulesOf(diagnostics []Diagnostic) []string {
	var out []string
	for _, d := range diagnostics {
		if !slices.Contains(out, d.Rule) {
			out = append(out, d.Rule)
		}
	}
	return out
}

func TestHealIsIdempotent(t *testing.T) {
	c := messyCharacter()
	first, diagnostics, env := healWithSheet(c, testSnapshot())
	if len(diagnostics) == 0 {
		t.Fatal("expected corrections on the first run")
	}
	second, again := Heal(first, env)
	if len(again) != 0 {
		t.Fatalf("second run corrected again: %+v", again)
	}
	if diff := cmp.Diff(first, second, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("second run changed the document (-first +second):\n%s", diff)
	}
}

func TestHealEveryRuleIsIdempotent(t *testing.T) {
	c := messyCharacter()
	sheet := Compute(Context{Character: c, Compendium: testSnapshot()})
	env := Env{Compendium: testSnapshot(), Sheet: &sheet}
	for _, r := range rules {
		t.Run(r.name, func(t *testing.T) {
			once := c.Clone()
			r.apply(&once, env)
			twice := once.Clone()
			if messages := r.apply(&twice, env); len(messages) != 0 {
				t.Fatalf("second application reported %v", messages)
			}
			if diff := cmp.Diff(once, twice, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("second application changed the document:\n%s", diff)
			}
		})
	}
}

func TestHealDoesNotMutateInput(t *testing.T) {
	c := messyCharacter()
	before := c.Clone()
	healWithSheet(c, testSnapshot())
	if diff := cmp.Diff(before, c); diff != "" {
		t.Fatalf("input mutated:\n%s", diff)
	}
}

func TestHealCorrections(t *testing.T) {
	healed, diagnostics, env := healWithSheet(messyCharacter(), testSnapshot())

	if healed.Level != character.LevelMax {
		t.Errorf("level = %d, want %d", healed.Level, character.LevelMax)
	}
	if healed.SelectedTraits[character.TraitStrength] != nil {
		t.Errorf("duplicate trait value should reset strength")
	}
	if diff := cmp.Diff([]string{"hidden", "vulnerable"}, healed.Conditions); diff != "" {
		t.Errorf("conditions mismatch (-want +got):\n%s", diff)
	}
	if healed.CommunityID != "" {
		t.Errorf("community = %q, want cleared", healed.CommunityID)
	}
	if diff := cmp.Diff([]string{"human"}, healed.AdditionalAncestryIDs); diff != "" {
		t.Errorf("additional ancestries mismatch (-want +got):\n%s", diff)
	}
	if healed.SecondaryClassID != "" || healed.SecondarySubclassID != "" {
		t.Errorf("secondary class = %q/%q, want cleared", healed.SecondaryClassID, healed.SecondarySubclassID)
	}
	if _, ok := healed.LevelUpChoices[11]; ok {
		t.Errorf("level 11 choices should be removed")
	}
	if !healed.LevelUpChoices[2].IsBlank() || !healed.LevelUpChoices[2].B.IsZero() {
		t.Errorf("level 2 choices = %+v, want blank", healed.LevelUpChoices[2])
	}
	if got := healed.LevelUpChoices[3]; got.A.OptionID != "tier2-proficiency" || !got.B.IsBlank() {
		t.Errorf("level 3 choices = %+v, want B cleared by the two-slot option", got)
	}
	level4 := healed.LevelUpChoices[4]
	if diff := cmp.Diff([]character.Trait{character.TraitAgility, character.TraitStrength}, level4.A.MarkedTraits); diff != "" {
		t.Errorf("level 4A marks mismatch (-want +got):\n%s", diff)
	}
	if len(level4.B.MarkedTraits) != 0 {
		t.Errorf("level 4B marks = %v, want none", level4.B.MarkedTraits)
	}
	if got := healed.LevelUpChoices[5].A.SubclassUpgrade; got != "" {
		t.Errorf("secondary upgrade without multiclass = %q, want cleared", got)
	}
	if diff := cmp.Diff([]character.DomainCardID{cardID("valor", "bare-bones")}, healed.StartingDomainCards); diff != "" {
		t.Errorf("starting cards mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]character.DomainCardID{cardID("valor", "bare-bones")}, healed.Loadout); diff != "" {
		t.Errorf("loadout mismatch (-want +got):\n%s", diff)
	}
	if healed.ActiveEquipment.ArmorID != "" || healed.ActiveEquipment.SecondaryWeaponID != "" {
		t.Errorf("active equipment = %+v, want armor and secondary cleared", healed.ActiveEquipment)
	}
	if healed.ActiveEquipment.PrimaryWeaponID != "w-1" {
		t.Errorf("primary weapon should stay equipped")
	}
	if len(healed.Inventory.Consumables) != BaseMaxConsumables {
		t.Errorf("consumables = %d, want %d", len(healed.Inventory.Consumables), BaseMaxConsumables)
	}
	for _, oldest := range []string{"c-a", "c-b"} {
		if _, ok := healed.Inventory.Consumables[oldest]; ok {
			t.Errorf("oldest consumable %s should be removed first", oldest)
		}
	}
	if len(healed.Experiences) != 5 {
		t.Errorf("experiences = %d, want 5 at level 10", len(healed.Experiences))
	}
	if healed.MarkedHP != env.Sheet.MaxHP || healed.Hope != 0 {
		t.Errorf("marked resources = hp %d hope %d, want clamped", healed.MarkedHP, healed.Hope)
	}
	if healed.Companion != nil || healed.Beastform != nil {
		t.Errorf("companion and beastform should be cleared for a guardian")
	}

	want := []string{
		"level", "traits", "conditions", "heritage", "level_up_range", "level_up_options", "level_up_cost",
		"marked_traits", "subclass_upgrade_target", "level_up_payload", "secondary_class", "subclasses",
		"domain_cards", "loadout", "active_equipment", "burden", "consumables", "experiences",
		"marked_resources", "companion", "beastform",
	}
	got := rulesOf(diagnostics)
	for _, rule := range want {
		if !slices.Contains(got, rule) {
			t.Errorf("missing diagnostic for rule %s (got %v)", rule, got)
		}
	}
}

func TestHealWaitsForCompendium(t *testing.T) {
	c := messyCharacter()
	partial := compendium.NewSnapshot(compendium.Tables{Classes: testTables().Classes})
	healed, _, _ := healWithSheet(c, partial)

	if healed.CommunityID != "nowhere" {
		t.Errorf("community cleared before communities loaded")
	}
	if len(healed.Experiences) != len(c.Experiences) {
		t.Errorf("experiences resized before the compendium completed")
	}
	if len(healed.Inventory.Consumables) != len(c.Inventory.Consumables) {
		t.Errorf("consumables trimmed before the compendium completed")
	}
	if healed.LevelUpChoices[2].A.OptionID != "tier3-subclass" {
		t.Errorf("level-up options pruned before options loaded")
	}
	if healed.MarkedHP != c.MarkedHP {
		t.Errorf("marked hp clamped before the compendium completed")
	}
	if healed.Level != character.LevelMax {
		t.Errorf("level should clamp regardless of the compendium")
	}
}

func TestHealActiveEquipmentLevelRequirement(t *testing.T) {
	c := baseCharacter()
	c.Inventory.PrimaryWeapons = map[string]character.InventoryItem{"w-1": item("runeblade", 1)}
	c.ActiveEquipment.PrimaryWeaponID = "w-1"
	messages := healActiveEquipment(&c, Env{Compendium: testSnapshot()})
	if len(messages) != 1 || c.ActiveEquipment.PrimaryWeaponID != "" {
		t.Fatalf("runeblade at level 1: messages %v, active %q", messages, c.ActiveEquipment.PrimaryWeaponID)
	}

	c.Level = 5
	c.ActiveEquipment.PrimaryWeaponID = "w-1"
	if messages := healActiveEquipment(&c, Env{Compendium: testSnapshot()}); len(messages) != 0 {
		t.Fatalf("runeblade at level 5 corrected: %v", messages)
	}
}

func TestHealCustomizedLevelRequirement(t *testing.T) {
	c := baseCharacter()
	c.Inventory.Armor = map[string]character.InventoryItem{
		"a-1": {CompendiumID: "leather", Seq: 1, Customization: &character.Customization{LevelRequirement: intPtr(3)}},
	}
	c.ActiveEquipment.ArmorID = "a-1"
	healActiveEquipment(&c, Env{Compendium: testSnapshot()})
	if c.ActiveEquipment.ArmorID != "" {
		t.Fatal("customized level requirement should apply")
	}
}

func TestHealMulticlassExclusive(t *testing.T) {
	c := baseCharacter()
	c.Level = 7
	c.SecondaryClassID = "ranger"
	c.LevelUpChoices = map[int]character.LevelUpChoices{
		5: {A: character.LevelUpChoice{OptionID: "tier3-multiclass"}},
		6: {A: character.LevelUpChoice{OptionID: "tier3-subclass", SubclassUpgrade: character.UpgradeSecondary}},
		7: {A: character.LevelUpChoice{OptionID: "tier3-multiclass"}},
	}
	env := Env{Compendium: testSnapshot()}
	messages := healMulticlassExclusive(&c, env)
	if len(messages) != 2 {
		t.Fatalf("messages = %v, want the tier conflict and the repeat multiclass", messages)
	}
	if !c.LevelUpChoices[6].A.IsBlank() || !c.LevelUpChoices[7].A.IsBlank() {
		t.Fatalf("choices = %+v", c.LevelUpChoices)
	}
	if messages := healSecondaryClass(&c, env); len(messages) != 0 || c.SecondaryClassID != "ranger" {
		t.Fatalf("secondary class should survive with a multiclass choice: %v", messages)
	}
}

func TestHealSubclassUpgradeTargetAfterMulticlass(t *testing.T) {
	c := baseCharacter()
	c.Level = 7
	c.LevelUpChoices = map[int]character.LevelUpChoices{
		2: {A: character.LevelUpChoice{OptionID: "any-subclass", SubclassUpgrade: character.UpgradeSecondary}},
		5: {A: character.LevelUpChoice{OptionID: "tier3-multiclass"}},
		6: {A: character.LevelUpChoice{OptionID: "any-subclass", SubclassUpgrade: character.UpgradeSecondary}},
		7: {A: character.LevelUpChoice{OptionID: "any-subclass", SubclassUpgrade: "sideways"}},
	}
	healSubclassUpgradeTarget(&c, Env{Compendium: testSnapshot()})
	if got := c.LevelUpChoices[2].A.SubclassUpgrade; got != "" {
		t.Errorf("level 2 target = %q, want cleared", got)
	}
	if got := c.LevelUpChoices[6].A.SubclassUpgrade; got != character.UpgradeSecondary {
		t.Errorf("level 6 target = %q, want kept", got)
	}
	if got := c.LevelUpChoices[7].A.SubclassUpgrade; got != "" {
		t.Errorf("level 7 target = %q, want cleared", got)
	}
}

func TestHealLevelUpMaxUses(t *testing.T) {
	c := baseCharacter()
	c.Level = 4
	c.LevelUpChoices = map[int]character.LevelUpChoices{
		2: {A: character.LevelUpChoice{OptionID: "tier2-evasion"}},
		3: {A: character.LevelUpChoice{OptionID: "tier2-evasion"}},
	}
	healLevelUpMaxUses(&c, Env{Compendium: testSnapshot()})
	if c.LevelUpChoices[2].A.IsBlank() || !c.LevelUpChoices[3].A.IsBlank() {
		t.Fatalf("expected the later use to be cleared: %+v", c.LevelUpChoices)
	}
}

func TestHealChoices(t *testing.T) {
	c := baseCharacter()
	c.Level = 2
	c.AncestryID = "clank"
	c.StartingDomainCards = []character.DomainCardID{cardID("blade", "versatile-fighter")}
	c.DomainCardChoices = character.ChoiceSelections{
		"blade/versatile-fighter": {"edge": {"finesse", "strength", "wisdom"}, "gone": {"x"}},
		"valor/bare-bones":        {"edge": {"finesse"}},
	}
	c.AncestryCardChoices = character.ChoiceSelections{"clank": {"design": {"0", "7"}}}
	c.Inventory.Loot = map[string]character.InventoryItem{"l-1": item("charging-quiver", 1)}
	c.LootChoices = character.ChoiceSelections{"charging-quiver": {"mode": {"nap"}}}

	healed, _, _ := healWithSheet(c, testSnapshot())
	want := character.ChoiceSelections{"blade/versatile-fighter": {"edge": {"finesse"}}}
	if diff := cmp.Diff(want, healed.DomainCardChoices); diff != "" {
		t.Errorf("domain card choices mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(character.ChoiceSelections{"clank": {"design": {"0"}}}, healed.AncestryCardChoices); diff != "" {
		t.Errorf("ancestry choices mismatch (-want +got):\n%s", diff)
	}
	if healed.LootChoices != nil {
		t.Errorf("loot choices = %v, want cleared", healed.LootChoices)
	}
}

func TestRuleNames(t *testing.T) {
	names := RuleNames()
	if len(names) != len(rules) || names[0] != "level" || names[len(names)-1] != "beastform" {
		t.Fatalf("unexpected rule names: %v", names)
	}
}
