package derive

import (
	"sort"

	"github.com/louisbranch/duality-sheet/internal/services/sheet/compendium"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
)

// VaultOrigin names where a domain card in the vault was granted.
type VaultOrigin string

const (
	OriginStarting   VaultOrigin = "starting"
	OriginLevel      VaultOrigin = "level"
	OriginLevelUp    VaultOrigin = "level_up"
	OriginAdditional VaultOrigin = "additional"
)

// VaultSource is one domain card grant on the document.
type VaultSource struct {
	ID     character.DomainCardID
	Origin VaultOrigin
	// Level is the character level of level and level_up grants.
	Level int
	// Slot is the level-up slot of level_up grants.
	Slot character.LevelUpSlot
	// Index is the position of starting and additional grants.
	Index int
}

// VaultSources lists every domain card grant on c in vault order: starting
// cards, per-level cards, level-up selections, then additional cards. Grants
// from levels above c.Level are left out.
func VaultSources(c *character.Character) []VaultSource {
	var out []VaultSource
	for i, id := range c.StartingDomainCards {
		out = append(out, VaultSource{ID: id, Origin: OriginStarting, Index: i})
	}

	levels := make([]int, 0, len(c.LevelDomainCards))
	for level := range c.LevelDomainCards {
		if level <= c.Level {
			levels = append(levels, level)
		}
	}
	sort.Ints(levels)
	for _, level := range levels {
		out = append(out, VaultSource{ID: c.LevelDomainCards[level], Origin: OriginLevel, Level: level})
	}

	for _, level := range levelUpLevels(c) {
		pair := c.LevelUpChoices[level]
		for _, slot := range []character.LevelUpSlot{character.SlotA, character.SlotB} {
			if id := pair.Slot(slot).SelectedDomainCard; id != nil {
				out = append(out, VaultSource{ID: *id, Origin: OriginLevelUp, Level: level, Slot: slot})
			}
		}
	}

	for i, id := range c.AdditionalDomainCards {
		out = append(out, VaultSource{ID: id, Origin: OriginAdditional, Index: i})
	}
	return out
}

// BuildVault resolves sources into the vault. Unresolved ids are dropped and
// a card whose title is already in the vault is skipped.
func BuildVault(sources []VaultSource, snap *compendium.Snapshot) []compendium.DomainCard {
	var vault []compendium.DomainCard
	titles := map[string]struct{}{}
	for _, source := range sources {
		card, ok := snap.DomainCard(source.ID)
		if !ok {
			continue
		}
		if _, seen := titles[card.Title]; seen {
			continue
		}
		titles[card.Title] = struct{}{}
		card.Choices = ownChoices(card.Choices, card.Key().String())
		vault = append(vault, card)
	}
	return vault
}

// NormalizeLoadout returns requested reduced to a valid loadout: duplicates,
// cards outside the vault, and forced-in-vault cards are dropped, missing
// forced-in-loadout cards are put first, and the list is cut to limit by
// removing unforced cards from the end. Forced cards are never removed.
func NormalizeLoadout(requested []character.DomainCardID, vault []compendium.DomainCard, limit int) []character.DomainCardID {
	byKey := make(map[character.DomainCardID]compendium.DomainCard, len(vault))
	for _, card := range vault {
		byKey[card.Key()] = card
	}

	seen := map[character.DomainCardID]struct{}{}
	var kept []character.DomainCardID
	for _, id := range requested {
		card, ok := byKey[id]
		if !ok || card.ForcedInVault {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		kept = append(kept, id)
	}

	var forced []character.DomainCardID
	for _, card := range vault {
		if !card.ForcedInLoadout || card.ForcedInVault {
			continue
		}
		if _, ok := seen[card.Key()]; ok {
			continue
		}
		forced = append(forced, card.Key())
	}
	out := append(forced, kept...)

	for i := len(out) - 1; i >= 0 && len(out) > limit; i-- {
		if byKey[out[i]].ForcedInLoadout {
			continue
		}
		out = append(out[:i], out[i+1:]...)
	}
	return out
}

func loadoutCards(ids []character.DomainCardID, vault []compendium.DomainCard) []compendium.DomainCard {
	byKey := make(map[character.DomainCardID]compendium.DomainCard, len(vault))
	for _, card := range vault {
		byKey[card.Key()] = card
	}
	out := make([]compendium.DomainCard, 0, len(ids))
	for _, id := range ids {
		if card, ok := byKey[id]; ok {
			out = append(out, card)
		}
	}
	return out
}
