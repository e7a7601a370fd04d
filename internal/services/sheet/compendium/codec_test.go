package compendium

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
)

const weaponsYAML = `system_id: daggerheart
system_version: v1
source: core
locale: en-US
items:
  - id: longbow
    title: Longbow
    slot: primary
    tier: 1
    traits: [agility]
    range: very_far
    damage_dice: d8
    damage_bonus: 3
    damage_types: [physical]
    burden: 2
    features:
      - title: Cumbersome
        character_modifiers:
          - behaviour: bonus
            target: evasion
            type: flat
            value: -1
            conditions:
              - type: weapon_equipped
                slot: primary
`

func TestDecodeTableYAML(t *testing.T) {
	tables, header, err := DecodeTable(KindWeapons, []byte(weaponsYAML))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if header.Source != "core" || header.Locale != "en-US" {
		t.Fatalf("header = %+v", header)
	}
	got, ok := tables.Weapons["longbow"]
	if !ok {
		t.Fatal("longbow missing")
	}
	want := Weapon{
		ID:          "longbow",
		Title:       "Longbow",
		Slot:        WeaponPrimary,
		Tier:        1,
		Traits:      []character.Trait{character.TraitAgility},
		Range:       character.RangeVeryFar,
		DamageDice:  "d8",
		DamageBonus: 3,
		DamageTypes: []character.DamageType{character.DamageTypePhysical},
		Burden:      2,
		Features: []Feature{{
			Title: "Cumbersome",
			CharacterModifiers: []character.CharacterModifier{{
				Behaviour: character.BehaviourBonus,
				Target:    character.TargetEvasion,
				Type:      character.ModifierFlat,
				Value:     -1,
				Conditions: []character.CharacterCondition{{
					Type: character.ConditionWeaponEquipped,
					Slot: character.TargetWeaponPrimary,
				}},
			}},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("weapon mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeTableJSONDomainCards(t *testing.T) {
	data := `{"system_id":"daggerheart","system_version":"v1","source":"core","locale":"en-US",
"items":[{"id":"get-back-up","domain_id":"blade","title":"Get Back Up","level":1},
{"id":"i-am-your-shield","domain_id":"valor","title":"I Am Your Shield","level":1,"forced_in_loadout":true}]}`
	tables, _, err := DecodeTable(KindDomainCards, []byte(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	snap := NewSnapshot(tables)
	card, ok := snap.DomainCard(character.DomainCardID{DomainID: "valor", CardID: "i-am-your-shield"})
	if !ok || !card.ForcedInLoadout {
		t.Fatalf("card = %+v, %v", card, ok)
	}
	if _, ok := snap.DomainCard(character.DomainCardID{DomainID: "blade", CardID: "i-am-your-shield"}); ok {
		t.Fatal("card lookup must match both domain and card id")
	}
}

func TestDecodeTableSources(t *testing.T) {
	data := `{"system_id":"daggerheart","system_version":"v1","source":"core",
"items":[{"id":"core","title":"Core Rulebook","url":"https://example.com/core"}]}`
	tables, _, err := DecodeTable(KindSources, []byte(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, ok := NewSnapshot(tables).Source("core")
	if !ok {
		t.Fatal("core source missing")
	}
	want := Publication{ID: "core", Title: "Core Rulebook", URL: "https://example.com/core"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("source mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeTableRejectsBadContent(t *testing.T) {
	tests := map[string]string{
		"wrong system":  "system_id: other\nsystem_version: v1\nsource: core\nitems: []\n",
		"wrong version": "system_id: daggerheart\nsystem_version: v2\nsource: core\nitems: []\n",
		"no source":     "system_id: daggerheart\nsystem_version: v1\nitems: []\n",
		"missing id":    "system_id: daggerheart\nsystem_version: v1\nsource: core\nitems:\n  - title: Nameless\n",
		"duplicate id":  "system_id: daggerheart\nsystem_version: v1\nsource: core\nitems:\n  - id: a\n  - id: a\n",
		"unknown field": "system_id: daggerheart\nsystem_version: v1\nsource: core\nitems:\n  - id: a\n    colour: red\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, _, err := DecodeTable(KindArmor, []byte(data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDecodeTableDomainCardRequiresDomain(t *testing.T) {
	data := "system_id: daggerheart\nsystem_version: v1\nsource: core\nitems:\n  - id: a\n    title: A\n"
	_, _, err := DecodeTable(KindDomainCards, []byte(data))
	if err == nil || !strings.Contains(err.Error(), "domain_id") {
		t.Fatalf("err = %v, want domain_id error", err)
	}
}

func TestEntriesRoundTripThroughRows(t *testing.T) {
	tables := Tables{
		DomainCards: map[string]map[string]DomainCard{
			"blade": {"whirlwind": {ID: "whirlwind", DomainID: "blade", Title: "Whirlwind", Level: 1}},
			"bone":  {"untouchable": {ID: "untouchable", DomainID: "bone", Title: "Untouchable", Level: 1, AppliesInVault: true}},
		},
	}
	entries, err := tables.Entries(KindDomainCards)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 2 || entries[0].DomainID != "blade" || entries[1].DomainID != "bone" {
		t.Fatalf("entries out of order: %+v", entries)
	}
	decoded, err := TablesFromEntries(KindDomainCards, entries)
	if err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	if diff := cmp.Diff(tables.DomainCards, decoded.DomainCards); diff != "" {
		t.Fatalf("domain cards mismatch (-want +got):\n%s", diff)
	}
}

func TestUnknownKind(t *testing.T) {
	if _, _, err := DecodeTable(Kind("spells"), nil); err != ErrUnknownKind {
		t.Fatalf("decode err = %v", err)
	}
	if _, err := (Tables{}).Entries(Kind("spells")); err != ErrUnknownKind {
		t.Fatalf("entries err = %v", err)
	}
}
