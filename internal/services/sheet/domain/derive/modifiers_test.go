package derive

import (
	"testing"

	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
)

func TestContribution(t *testing.T) {
	c := baseCharacter()
	c.Level = 5
	scope := Scope{
		Character:   &c,
		Proficiency: 3,
		Traits:      map[character.Trait]int{character.TraitAgility: 3, character.TraitKnowledge: -1},
	}
	tests := []struct {
		name       string
		typ        character.ModifierType
		value      int
		trait      character.Trait
		multiplier *float64
		want       int
		ok         bool
	}{
		{name: "flat", typ: character.ModifierFlat, value: 4, want: 4, ok: true},
		{name: "untyped is flat", value: 2, want: 2, ok: true},
		{name: "trait", typ: character.ModifierDerivedFromTrait, trait: character.TraitAgility, want: 3, ok: true},
		{name: "trait rounds up", typ: character.ModifierDerivedFromTrait, trait: character.TraitAgility, multiplier: floatPtr(0.5), want: 2, ok: true},
		{name: "negative trait rounds toward zero", typ: character.ModifierDerivedFromTrait, trait: character.TraitKnowledge, multiplier: floatPtr(0.5), want: 0, ok: true},
		{name: "proficiency doubled", typ: character.ModifierDerivedFromProficiency, multiplier: floatPtr(2), want: 6, ok: true},
		{name: "explicit zero multiplier", typ: character.ModifierDerivedFromProficiency, multiplier: floatPtr(0), want: 0, ok: true},
		{name: "level", typ: character.ModifierDerivedFromLevel, want: 5, ok: true},
		{name: "unknown", typ: "derived_from_weather", value: 9, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Contribution(tt.typ, tt.value, tt.trait, tt.multiplier, scope)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("Contribution() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestResolveStatPhases(t *testing.T) {
	c := baseCharacter()
	scope := Scope{Character: &c}
	mods := Partition[character.CharacterModifier]{
		Base:  []character.CharacterModifier{flat(character.BehaviourBase, character.TargetEvasion, 11)},
		Bonus: []character.CharacterModifier{flat(character.BehaviourBonus, character.TargetEvasion, 2), flat(character.BehaviourBonus, character.TargetMaxHP, 5)},
	}
	if got := ResolveStat(mods, character.TargetEvasion, 9, 1, scope); got != 14 {
		t.Fatalf("evasion = %d, want 14 (base 11, bump 1, bonus 2)", got)
	}

	mods.Override = []character.CharacterModifier{flat(character.BehaviourOverride, character.TargetEvasion, 7)}
	if got := ResolveStat(mods, character.TargetEvasion, 9, 1, scope); got != 7 {
		t.Fatalf("evasion = %d, want override 7", got)
	}
}

func TestOverrideAlwaysBeatsBonus(t *testing.T) {
	c := baseCharacter()
	scope := Scope{Character: &c}
	for _, bonus := range []int{-10, 0, 3, 50} {
		mods := Partition[character.CharacterModifier]{
			Bonus:    []character.CharacterModifier{flat(character.BehaviourBonus, character.TargetMaxStress, bonus)},
			Override: []character.CharacterModifier{flat(character.BehaviourOverride, character.TargetMaxStress, 4)},
		}
		if got := ResolveStat(mods, character.TargetMaxStress, BaseMaxStress, 0, scope); got != 4 {
			t.Fatalf("bonus %d: max stress = %d, want 4", bonus, got)
		}
	}
}

func TestApplyModifiersSkipsFailedConditionsAndUnknownTypes(t *testing.T) {
	c := baseCharacter()
	scope := Scope{Character: &c}
	gated := flat(character.BehaviourBonus, character.TargetEvasion, 3, character.CharacterCondition{
		Type: character.ConditionLevel, MinLevel: 5,
	})
	unknown := character.CharacterModifier{Behaviour: character.BehaviourBonus, Target: character.TargetEvasion, Type: "mystery", Value: 8}
	wrongPhase := flat(character.BehaviourOverride, character.TargetEvasion, 1)
	got := ApplyModifiers([]character.CharacterModifier{gated, unknown, wrongPhase}, character.TargetEvasion, 9, character.BehaviourBonus, scope)
	if got != 9 {
		t.Fatalf("evasion = %d, want 9", got)
	}
}

func TestApplyTraitModifiersMatchesTrait(t *testing.T) {
	c := baseCharacter()
	scope := Scope{Character: &c}
	mods := []character.CharacterModifier{
		traitMod(character.BehaviourBonus, character.TraitAgility, 1),
		traitMod(character.BehaviourBonus, character.TraitStrength, 5),
	}
	if got := ApplyTraitModifiers(mods, character.TraitAgility, 2, character.BehaviourBonus, scope); got != 3 {
		t.Fatalf("agility = %d, want 3", got)
	}
}
