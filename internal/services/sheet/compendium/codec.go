package compendium

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// SystemID is the only game system content files may declare.
	SystemID = "daggerheart"
	// SystemVersion is the only content schema version accepted.
	SystemVersion = "v1"
)

// Envelope is the on-disk shape of one content file.
type Envelope[T any] struct {
	SystemID      string `json:"system_id" yaml:"system_id"`
	SystemVersion string `json:"system_version" yaml:"system_version"`
	Source        string `json:"source" yaml:"source"`
	Locale        string `json:"locale" yaml:"locale"`
	Items         []T    `json:"items" yaml:"items"`
}

// Header describes where a decoded table came from.
type Header struct {
	Source string
	Locale string
}

func (e Envelope[T]) header() (Header, error) {
	if e.SystemID != SystemID {
		return Header{}, fmt.Errorf("unsupported system id %q", e.SystemID)
	}
	if e.SystemVersion != SystemVersion {
		return Header{}, fmt.Errorf("unsupported system version %q", e.SystemVersion)
	}
	if strings.TrimSpace(e.Source) == "" {
		return Header{}, errors.New("source is required")
	}
	return Header{Source: e.Source, Locale: e.Locale}, nil
}

func decodeEnvelope[T any](data []byte) (Envelope[T], error) {
	var env Envelope[T]
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		return env, err
	}
	return env, nil
}

func index[T any](items []T, id func(T) string) (map[string]T, error) {
	out := make(map[string]T, len(items))
	for _, item := range items {
		key := strings.TrimSpace(id(item))
		if key == "" {
			return nil, errors.New("item id is required")
		}
		if _, exists := out[key]; exists {
			return nil, fmt.Errorf("duplicate id %q", key)
		}
		out[key] = item
	}
	return out, nil
}

func decodeIndexed[T any](data []byte, id func(T) string) (map[string]T, Header, error) {
	env, err := decodeEnvelope[T](data)
	if err != nil {
		return nil, Header{}, err
	}
	header, err := env.header()
	if err != nil {
		return nil, Header{}, err
	}
	table, err := index(env.Items, id)
	if err != nil {
		return nil, Header{}, err
	}
	return table, header, nil
}

// DecodeTable decodes a YAML or JSON content file holding the table for kind.
func DecodeTable(kind Kind, data []byte) (Tables, Header, error) {
	var (
		tables Tables
		header Header
		err    error
	)
	switch kind {
	case KindWeapons:
		tables.Weapons, header, err = decodeIndexed(data, func(v Weapon) string { return v.ID })
	case KindArmor:
		tables.Armor, header, err = decodeIndexed(data, func(v Armor) string { return v.ID })
	case KindConsumables:
		tables.Consumables, header, err = decodeIndexed(data, func(v Consumable) string { return v.ID })
	case KindLoot:
		tables.Loot, header, err = decodeIndexed(data, func(v Loot) string { return v.ID })
	case KindAncestries:
		tables.Ancestries, header, err = decodeIndexed(data, func(v Card) string { return v.ID })
	case KindCommunities:
		tables.Communities, header, err = decodeIndexed(data, func(v Card) string { return v.ID })
	case KindTransformations:
		tables.Transformations, header, err = decodeIndexed(data, func(v Card) string { return v.ID })
	case KindClasses:
		tables.Classes, header, err = decodeIndexed(data, func(v Class) string { return v.ID })
	case KindSubclasses:
		tables.Subclasses, header, err = decodeIndexed(data, func(v Subclass) string { return v.ID })
	case KindDomains:
		tables.Domains, header, err = decodeIndexed(data, func(v Domain) string { return v.ID })
	case KindDomainCards:
		var env Envelope[DomainCard]
		env, err = decodeEnvelope[DomainCard](data)
		if err == nil {
			header, err = env.header()
		}
		if err == nil {
			tables.DomainCards, err = groupDomainCards(env.Items)
		}
	case KindBeastforms:
		tables.Beastforms, header, err = decodeIndexed(data, func(v Beastform) string { return v.ID })
	case KindLevelUpOptions:
		tables.LevelUpOptions, header, err = decodeIndexed(data, func(v LevelUpOption) string { return v.ID })
	case KindSources:
		tables.Sources, header, err = decodeIndexed(data, func(v Publication) string { return v.ID })
	default:
		return Tables{}, Header{}, ErrUnknownKind
	}
	if err != nil {
		return Tables{}, Header{}, fmt.Errorf("decode %s: %w", kind, err)
	}
	return tables, header, nil
}

func groupDomainCards(cards []DomainCard) (map[string]map[string]DomainCard, error) {
	out := map[string]map[string]DomainCard{}
	for _, card := range cards {
		if strings.TrimSpace(card.DomainID) == "" {
			return nil, fmt.Errorf("domain card %q: domain_id is required", card.ID)
		}
		if strings.TrimSpace(card.ID) == "" {
			return nil, errors.New("item id is required")
		}
		if out[card.DomainID] == nil {
			out[card.DomainID] = map[string]DomainCard{}
		}
		if _, exists := out[card.DomainID][card.ID]; exists {
			return nil, fmt.Errorf("duplicate id %q", card.Key().String())
		}
		out[card.DomainID][card.ID] = card
	}
	return out, nil
}

// Entry is one table row in storage form.
type Entry struct {
	ID       string
	DomainID string
	Payload  []byte
}

// Entries encodes the table for kind as JSON rows ordered by domain, then id.
func (t Tables) Entries(kind Kind) ([]Entry, error) {
	var entries []Entry
	add := func(id, domainID string, value any) error {
		payload, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", kind, id, err)
		}
		entries = append(entries, Entry{ID: id, DomainID: domainID, Payload: payload})
		return nil
	}
	var err error
	switch kind {
	case KindWeapons:
		err = addAll(t.Weapons, add)
	case KindArmor:
		err = addAll(t.Armor, add)
	case KindConsumables:
		err = addAll(t.Consumables, add)
	case KindLoot:
		err = addAll(t.Loot, add)
	case KindAncestries:
		err = addAll(t.Ancestries, add)
	case KindCommunities:
		err = addAll(t.Communities, add)
	case KindTransformations:
		err = addAll(t.Transformations, add)
	case KindClasses:
		err = addAll(t.Classes, add)
	case KindSubclasses:
		err = addAll(t.Subclasses, add)
	case KindDomains:
		err = addAll(t.Domains, add)
	case KindDomainCards:
		err = func() error {
			for domainID, cards := range t.DomainCards {
				for id, card := range cards {
					if err := add(id, domainID, card); err != nil {
						return err
					}
				}
			}
			return nil
		}()
	case KindBeastforms:
		err = addAll(t.Beastforms, add)
	case KindLevelUpOptions:
		err = addAll(t.LevelUpOptions, add)
	case KindSources:
		err = addAll(t.Sources, add)
	default:
		return nil, ErrUnknownKind
	}
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].DomainID != entries[j].DomainID {
			return entries[i].DomainID < entries[j].DomainID
		}
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}

func addAll[T any](table map[string]T, add func(id, domainID string, value any) error) error {
	for id, value := range table {
		if err := add(id, "", value); err != nil {
			return err
		}
	}
	return nil
}

func decodeRows[T any](entries []Entry) (map[string]T, error) {
	out := make(map[string]T, len(entries))
	for _, entry := range entries {
		var value T
		if err := json.Unmarshal(entry.Payload, &value); err != nil {
			return nil, fmt.Errorf("decode %s: %w", entry.ID, err)
		}
		out[entry.ID] = value
	}
	return out, nil
}

// TablesFromEntries decodes storage rows back into the table for kind.
func TablesFromEntries(kind Kind, entries []Entry) (Tables, error) {
	var (
		tables Tables
		err    error
	)
	switch kind {
	case KindWeapons:
		tables.Weapons, err = decodeRows[Weapon](entries)
	case KindArmor:
		tables.Armor, err = decodeRows[Armor](entries)
	case KindConsumables:
		tables.Consumables, err = decodeRows[Consumable](entries)
	case KindLoot:
		tables.Loot, err = decodeRows[Loot](entries)
	case KindAncestries:
		tables.Ancestries, err = decodeRows[Card](entries)
	case KindCommunities:
		tables.Communities, err = decodeRows[Card](entries)
	case KindTransformations:
		tables.Transformations, err = decodeRows[Card](entries)
	case KindClasses:
		tables.Classes, err = decodeRows[Class](entries)
	case KindSubclasses:
		tables.Subclasses, err = decodeRows[Subclass](entries)
	case KindDomains:
		tables.Domains, err = decodeRows[Domain](entries)
	case KindDomainCards:
		var cards map[string]DomainCard
		tables.DomainCards = map[string]map[string]DomainCard{}
		for _, entry := range entries {
			cards, err = decodeRows[DomainCard]([]Entry{entry})
			if err != nil {
				break
			}
			if tables.DomainCards[entry.DomainID] == nil {
				tables.DomainCards[entry.DomainID] = map[string]DomainCard{}
			}
			tables.DomainCards[entry.DomainID][entry.ID] = cards[entry.ID]
		}
	case KindBeastforms:
		tables.Beastforms, err = decodeRows[Beastform](entries)
	case KindLevelUpOptions:
		tables.LevelUpOptions, err = decodeRows[LevelUpOption](entries)
	case KindSources:
		tables.Sources, err = decodeRows[Publication](entries)
	default:
		return Tables{}, ErrUnknownKind
	}
	if err != nil {
		return Tables{}, fmt.Errorf("decode %s rows: %w", kind, err)
	}
	return tables, nil
}
