package derive

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
)

func testCompanion() *character.Companion {
	return &character.Companion{
		Name:         "Brindle",
		Kind:         "wolf",
		Evasion:      10,
		MaxStress:    3,
		MarkedStress: 3,
		MaxHope:      2,
		Attack:       character.CompanionAttack{Name: "Bite", Range: character.RangeMelee, DamageDice: "d6"},
		Experiences:  []string{"Tracking", "Guarding", "Howling"},
		LevelUpChoices: []character.CompanionLevelUp{
			{Perk: character.PerkIntelligent, ExperienceIndices: []int{0, 0, 7}},
			{Perk: character.PerkVicious, ViciousTarget: character.ViciousTargetDamage},
			{Perk: character.PerkVicious, ViciousTarget: character.ViciousTargetRange},
			{Perk: character.PerkAware},
		},
	}
}

func TestDeriveCompanionAppliesPerksUpToLevel(t *testing.T) {
	companion := testCompanion()
	derived := DeriveCompanion(companion, 3, 3)

	if diff := cmp.Diff([]int{3, 2, 2}, derived.ExperienceModifiers); diff != "" {
		t.Fatalf("experience modifiers mismatch (-want +got):\n%s", diff)
	}
	if derived.Attack.DamageDice != "d8" {
		t.Fatalf("damage dice = %q, want d8", derived.Attack.DamageDice)
	}
	if derived.Attack.Range != character.RangeMelee || derived.Evasion != 10 {
		t.Fatal("perks past level 3 must not apply")
	}
	if len(companion.ExperienceModifiers) != 0 || companion.Attack.DamageDice != "d6" {
		t.Fatal("derivation must not mutate the stored companion")
	}
}

func TestDeriveCompanionAllPerks(t *testing.T) {
	companion := testCompanion()
	companion.LevelUpChoices = append(companion.LevelUpChoices,
		character.CompanionLevelUp{Perk: character.PerkResilient},
		character.CompanionLevelUp{Perk: character.PerkLightInTheDark},
	)
	derived := DeriveCompanion(companion, 10, 3)
	if derived.Attack.Range != character.RangeVeryClose {
		t.Fatalf("range = %q, want very_close", derived.Attack.Range)
	}
	if derived.Evasion != 12 || derived.MaxStress != 4 || derived.MaxHope != 3 {
		t.Fatalf("stats = (%d, %d, %d), want (12, 4, 3)", derived.Evasion, derived.MaxStress, derived.MaxHope)
	}
}

func TestDeriveCompanionResizesToCharacterExperiences(t *testing.T) {
	companion := testCompanion()
	companion.LevelUpChoices = nil
	companion.ExperienceModifiers = []int{4, 4, 4, 4, 4}

	shrunk := DeriveCompanion(companion, 1, 2)
	if diff := cmp.Diff([]string{"Tracking", "Guarding"}, shrunk.Experiences); diff != "" {
		t.Fatalf("experiences mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{4, 4}, shrunk.ExperienceModifiers); diff != "" {
		t.Fatalf("modifiers mismatch (-want +got):\n%s", diff)
	}

	companion.ExperienceModifiers = []int{4}
	grown := DeriveCompanion(companion, 1, 4)
	if diff := cmp.Diff([]string{"Tracking", "Guarding", "Howling", ""}, grown.Experiences); diff != "" {
		t.Fatalf("experiences mismatch (-want +got):\n%s", diff)
	}
	want := []int{4, BaseExperienceModifier, BaseExperienceModifier, BaseExperienceModifier}
	if diff := cmp.Diff(want, grown.ExperienceModifiers); diff != "" {
		t.Fatalf("modifiers mismatch (-want +got):\n%s", diff)
	}
}

func TestDeriveCompanionClampsMarked(t *testing.T) {
	companion := testCompanion()
	companion.LevelUpChoices = nil
	companion.MarkedStress = 9
	companion.MarkedHope = -2
	derived := DeriveCompanion(companion, 1, 3)
	if derived.MarkedStress != 3 || derived.MarkedHope != 0 {
		t.Fatalf("marked = (%d, %d), want (3, 0)", derived.MarkedStress, derived.MarkedHope)
	}
}

func TestComputeCompanionNeedsBeastbound(t *testing.T) {
	c := baseCharacter()
	c.Companion = testCompanion()
	if compute(c).Companion != nil {
		t.Fatal("guardian should not derive a companion")
	}
	c.PrimaryClassID = "ranger"
	c.PrimarySubclassID = CompanionSubclassID
	if compute(c).Companion == nil {
		t.Fatal("beastbound ranger should derive a companion")
	}
}

func TestComputeCompanionFollowsCharacterExperienceCount(t *testing.T) {
	c := baseCharacter()
	c.Level = 2
	c.PrimaryClassID = "ranger"
	c.PrimarySubclassID = CompanionSubclassID
	c.Companion = testCompanion()
	c.Companion.LevelUpChoices = nil
	c.Companion.Experiences = []string{"Tracking"}

	sheet := compute(c)
	if sheet.MaxExperiences != 3 {
		t.Fatalf("max experiences = %d, want 3 at level 2", sheet.MaxExperiences)
	}
	if got := len(sheet.Companion.Experiences); got != sheet.MaxExperiences {
		t.Fatalf("companion experiences = %d, want %d", got, sheet.MaxExperiences)
	}
	if got := len(sheet.Companion.ExperienceModifiers); got != sheet.MaxExperiences {
		t.Fatalf("companion modifiers = %d, want %d", got, sheet.MaxExperiences)
	}
}
