package compendium

import (
	"sort"

	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
)

// Kind names one compendium table.
type Kind string

const (
	KindWeapons         Kind = "weapons"
	KindArmor           Kind = "armor"
	KindConsumables     Kind = "consumables"
	KindLoot            Kind = "loot"
	KindAncestries      Kind = "ancestries"
	KindCommunities     Kind = "communities"
	KindTransformations Kind = "transformations"
	KindClasses         Kind = "classes"
	KindSubclasses      Kind = "subclasses"
	KindDomains         Kind = "domains"
	KindDomainCards     Kind = "domain_cards"
	KindBeastforms      Kind = "beastforms"
	KindLevelUpOptions  Kind = "level_up_options"
	KindSources         Kind = "sources"
)

// Kinds lists every table in load order.
var Kinds = []Kind{
	KindWeapons,
	KindArmor,
	KindConsumables,
	KindLoot,
	KindAncestries,
	KindCommunities,
	KindTransformations,
	KindClasses,
	KindSubclasses,
	KindDomains,
	KindDomainCards,
	KindBeastforms,
	KindLevelUpOptions,
	KindSources,
}

// Valid reports whether k names a known table.
func (k Kind) Valid() bool {
	for _, kind := range Kinds {
		if kind == k {
			return true
		}
	}
	return false
}

// Tables holds raw content keyed by id. A nil map means the table is absent.
// DomainCards is keyed by domain id, then card id.
type Tables struct {
	Weapons         map[string]Weapon
	Armor           map[string]Armor
	Consumables     map[string]Consumable
	Loot            map[string]Loot
	Ancestries      map[string]Card
	Communities     map[string]Card
	Transformations map[string]Card
	Classes         map[string]Class
	Subclasses      map[string]Subclass
	Domains         map[string]Domain
	DomainCards     map[string]map[string]DomainCard
	Beastforms      map[string]Beastform
	LevelUpOptions  map[string]LevelUpOption
	Sources         map[string]Publication
}

// has reports whether the table for kind is present.
func (t Tables) has(kind Kind) bool {
	switch kind {
	case KindWeapons:
		return t.Weapons != nil
	case KindArmor:
		return t.Armor != nil
	case KindConsumables:
		return t.Consumables != nil
	case KindLoot:
		return t.Loot != nil
	case KindAncestries:
		return t.Ancestries != nil
	case KindCommunities:
		return t.Communities != nil
	case KindTransformations:
		return t.Transformations != nil
	case KindClasses:
		return t.Classes != nil
	case KindSubclasses:
		return t.Subclasses != nil
	case KindDomains:
		return t.Domains != nil
	case KindDomainCards:
		return t.DomainCards != nil
	case KindBeastforms:
		return t.Beastforms != nil
	case KindLevelUpOptions:
		return t.LevelUpOptions != nil
	case KindSources:
		return t.Sources != nil
	}
	return false
}

// with returns a copy of t whose table for kind comes from other.
func (t Tables) with(kind Kind, other Tables) Tables {
	switch kind {
	case KindWeapons:
		t.Weapons = other.Weapons
	case KindArmor:
		t.Armor = other.Armor
	case KindConsumables:
		t.Consumables = other.Consumables
	case KindLoot:
		t.Loot = other.Loot
	case KindAncestries:
		t.Ancestries = other.Ancestries
	case KindCommunities:
		t.Communities = other.Communities
	case KindTransformations:
		t.Transformations = other.Transformations
	case KindClasses:
		t.Classes = other.Classes
	case KindSubclasses:
		t.Subclasses = other.Subclasses
	case KindDomains:
		t.Domains = other.Domains
	case KindDomainCards:
		t.DomainCards = other.DomainCards
	case KindBeastforms:
		t.Beastforms = other.Beastforms
	case KindLevelUpOptions:
		t.LevelUpOptions = other.LevelUpOptions
	case KindSources:
		t.Sources = other.Sources
	}
	return t
}

// count returns the number of entries in the table for kind.
func (t Tables) count(kind Kind) int {
	switch kind {
	case KindWeapons:
		return len(t.Weapons)
	case KindArmor:
		return len(t.Armor)
	case KindConsumables:
		return len(t.Consumables)
	case KindLoot:
		return len(t.Loot)
	case KindAncestries:
		return len(t.Ancestries)
	case KindCommunities:
		return len(t.Communities)
	case KindTransformations:
		return len(t.Transformations)
	case KindClasses:
		return len(t.Classes)
	case KindSubclasses:
		return len(t.Subclasses)
	case KindDomains:
		return len(t.Domains)
	case KindDomainCards:
		total := 0
		for _, cards := range t.DomainCards {
			total += len(cards)
		}
		return total
	case KindBeastforms:
		return len(t.Beastforms)
	case KindLevelUpOptions:
		return len(t.LevelUpOptions)
	case KindSources:
		return len(t.Sources)
	}
	return 0
}

// Snapshot is an immutable view over the loaded tables. The zero value and a
// nil *Snapshot are both empty, with no table loaded.
type Snapshot struct {
	tables Tables
}

// NewSnapshot wraps tables. Every non-nil table counts as loaded. Callers
// must not mutate tables afterwards.
func NewSnapshot(tables Tables) *Snapshot {
	return &Snapshot{tables: tables}
}

// Loaded reports whether the table for kind has been fetched.
func (s *Snapshot) Loaded(kind Kind) bool {
	if s == nil {
		return false
	}
	return s.tables.has(kind)
}

// Count returns the number of entries loaded for kind.
func (s *Snapshot) Count(kind Kind) int {
	if s == nil {
		return 0
	}
	return s.tables.count(kind)
}

func (s *Snapshot) withTable(kind Kind, partial Tables) *Snapshot {
	var base Tables
	if s != nil {
		base = s.tables
	}
	return &Snapshot{tables: base.with(kind, partial)}
}

func lookup[T any](table map[string]T, id string) (T, bool) {
	value, ok := table[id]
	return value, ok && id != ""
}

// Weapon returns the weapon with id.
func (s *Snapshot) Weapon(id string) (Weapon, bool) {
	if s == nil {
		return Weapon{}, false
	}
	return lookup(s.tables.Weapons, id)
}

// Armor returns the armor with id.
func (s *Snapshot) Armor(id string) (Armor, bool) {
	if s == nil {
		return Armor{}, false
	}
	return lookup(s.tables.Armor, id)
}

// Consumable returns the consumable with id.
func (s *Snapshot) Consumable(id string) (Consumable, bool) {
	if s == nil {
		return Consumable{}, false
	}
	return lookup(s.tables.Consumables, id)
}

// Loot returns the loot with id.
func (s *Snapshot) Loot(id string) (Loot, bool) {
	if s == nil {
		return Loot{}, false
	}
	return lookup(s.tables.Loot, id)
}

// Ancestry returns the ancestry card with id.
func (s *Snapshot) Ancestry(id string) (Card, bool) {
	if s == nil {
		return Card{}, false
	}
	return lookup(s.tables.Ancestries, id)
}

// Community returns the community card with id.
func (s *Snapshot) Community(id string) (Card, bool) {
	if s == nil {
		return Card{}, false
	}
	return lookup(s.tables.Communities, id)
}

// Transformation returns the transformation card with id.
func (s *Snapshot) Transformation(id string) (Card, bool) {
	if s == nil {
		return Card{}, false
	}
	return lookup(s.tables.Transformations, id)
}

// Class returns the class with id.
func (s *Snapshot) Class(id string) (Class, bool) {
	if s == nil {
		return Class{}, false
	}
	return lookup(s.tables.Classes, id)
}

// Subclass returns the subclass with id.
func (s *Snapshot) Subclass(id string) (Subclass, bool) {
	if s == nil {
		return Subclass{}, false
	}
	return lookup(s.tables.Subclasses, id)
}

// Domain returns the domain with id.
func (s *Snapshot) Domain(id string) (Domain, bool) {
	if s == nil {
		return Domain{}, false
	}
	return lookup(s.tables.Domains, id)
}

// DomainCard returns the domain card addressed by id.
func (s *Snapshot) DomainCard(id character.DomainCardID) (DomainCard, bool) {
	if s == nil {
		return DomainCard{}, false
	}
	return lookup(s.tables.DomainCards[id.DomainID], id.CardID)
}

// DomainCards returns the cards of a domain ordered by level, then id.
func (s *Snapshot) DomainCards(domainID string) []DomainCard {
	if s == nil {
		return nil
	}
	cards := s.tables.DomainCards[domainID]
	out := make([]DomainCard, 0, len(cards))
	for _, card := range cards {
		out = append(out, card)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Beastform returns the beastform with id.
func (s *Snapshot) Beastform(id string) (Beastform, bool) {
	if s == nil {
		return Beastform{}, false
	}
	return lookup(s.tables.Beastforms, id)
}

// LevelUpOption returns the level-up option with id.
func (s *Snapshot) LevelUpOption(id string) (LevelUpOption, bool) {
	if s == nil {
		return LevelUpOption{}, false
	}
	return lookup(s.tables.LevelUpOptions, id)
}

// Source returns the publication with id.
func (s *Snapshot) Source(id string) (Publication, bool) {
	if s == nil {
		return Publication{}, false
	}
	return lookup(s.tables.Sources, id)
}
