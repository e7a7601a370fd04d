package derive

import (
	"testing"

	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
)

func TestEvaluate(t *testing.T) {
	c := baseCharacter()
	c.Level = 4
	c.ActiveEquipment.PrimaryWeaponID = "gs-1"
	c.DomainCardChoices = character.ChoiceSelections{"blade/versatile-fighter": {"edge": {"finesse"}}}
	c.AncestryCardChoices = character.ChoiceSelections{"clank": {"design": {"1"}}}
	c.LootChoices = character.ChoiceSelections{"charging-quiver": {"mode": {"focus"}}}
	scope := Scope{
		Character:     &c,
		ArmorEquipped: true,
		Loadout:       []character.DomainCardID{cardID("valor", "bare-bones"), cardID("valor", "forceful-push"), cardID("blade", "get-back-up")},
	}
	versatile := cardID("blade", "versatile-fighter")

	tests := []struct {
		name string
		cond character.CharacterCondition
		want bool
	}{
		{name: "level in range", cond: character.CharacterCondition{Type: character.ConditionLevel, MinLevel: 2, MaxLevel: 4}, want: true},
		{name: "level below min", cond: character.CharacterCondition{Type: character.ConditionLevel, MinLevel: 5}, want: false},
		{name: "level above max", cond: character.CharacterCondition{Type: character.ConditionLevel, MaxLevel: 3}, want: false},
		{name: "level open bounds", cond: character.CharacterCondition{Type: character.ConditionLevel}, want: true},
		{name: "armor equipped", cond: character.CharacterCondition{Type: character.ConditionArmorEquipped, Equipped: true}, want: true},
		{name: "armor not equipped", cond: character.CharacterCondition{Type: character.ConditionArmorEquipped}, want: false},
		{name: "primary by id", cond: character.CharacterCondition{Type: character.ConditionWeaponEquipped, Slot: character.TargetWeaponPrimary, WeaponID: "gs-1"}, want: true},
		{name: "primary other id", cond: character.CharacterCondition{Type: character.ConditionWeaponEquipped, Slot: character.TargetWeaponPrimary, WeaponID: "gs-2"}, want: false},
		{name: "any slot", cond: character.CharacterCondition{Type: character.ConditionWeaponEquipped}, want: true},
		{name: "secondary empty", cond: character.CharacterCondition{Type: character.ConditionWeaponEquipped, Slot: character.TargetWeaponSecondary}, want: false},
		{name: "unarmed while armed", cond: character.CharacterCondition{Type: character.ConditionWeaponEquipped, Slot: character.TargetWeaponUnarmed}, want: false},
		{
			name: "domain card choice selected",
			cond: character.CharacterCondition{Type: character.ConditionDomainCardChoice, DomainCardID: &versatile, ChoiceID: "edge", SelectionID: "finesse"},
			want: true,
		},
		{
			name: "domain card choice not selected",
			cond: character.CharacterCondition{Type: character.ConditionDomainCardChoice, DomainCardID: &versatile, ChoiceID: "edge", SelectionID: "strength"},
			want: false,
		},
		{name: "domain card choice without card", cond: character.CharacterCondition{Type: character.ConditionDomainCardChoice, ChoiceID: "edge", SelectionID: "finesse"}, want: false},
		{name: "ancestry choice", cond: character.CharacterCondition{Type: character.ConditionAncestryCardChoice, CardID: "clank", ChoiceID: "design", SelectionID: "1"}, want: true},
		{name: "ancestry choice miss", cond: character.CharacterCondition{Type: character.ConditionAncestryCardChoice, CardID: "clank", ChoiceID: "design", SelectionID: "0"}, want: false},
		{name: "loot choice", cond: character.CharacterCondition{Type: character.ConditionLootChoice, CardID: "charging-quiver", ChoiceID: "mode", SelectionID: "focus"}, want: true},
		{name: "loadout from domain", cond: character.CharacterCondition{Type: character.ConditionMinLoadoutCardsFromDomain, DomainID: "valor", MinCards: 2}, want: true},
		{name: "loadout from domain short", cond: character.CharacterCondition{Type: character.ConditionMinLoadoutCardsFromDomain, DomainID: "blade", MinCards: 2}, want: false},
		{name: "unknown type holds", cond: character.CharacterCondition{Type: "phase_of_moon"}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.cond, scope); got != tt.want {
				t.Fatalf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateUnarmed(t *testing.T) {
	c := baseCharacter()
	scope := Scope{Character: &c}
	cond := character.CharacterCondition{Type: character.ConditionWeaponEquipped, Slot: character.TargetWeaponUnarmed}
	if !Evaluate(cond, scope) {
		t.Fatal("expected unarmed condition to hold with no weapons")
	}
}

func TestAllowsRequiresEveryCondition(t *testing.T) {
	c := baseCharacter()
	scope := Scope{Character: &c}
	conds := []character.CharacterCondition{
		{Type: character.ConditionLevel, MinLevel: 1},
		{Type: character.ConditionArmorEquipped, Equipped: true},
	}
	if scope.Allows(conds) {
		t.Fatal("expected failing armor condition to block")
	}
	if !scope.Allows(nil) {
		t.Fatal("expected no conditions to allow")
	}
}

func TestEvaluateWithoutCharacter(t *testing.T) {
	cond := character.CharacterCondition{Type: character.ConditionLevel, MaxLevel: 1}
	if !Evaluate(cond, Scope{}) {
		t.Fatal("expected empty scope to evaluate as level 1")
	}
}
