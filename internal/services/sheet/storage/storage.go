package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/duality-sheet/internal/services/sheet/compendium"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// CharacterSummary is the listing view of one stored character.
type CharacterSummary struct {
	ID        string
	UserID    string
	Name      string
	Level     int
	Version   int64
	UpdatedAt time.Time
}

// CharacterStore persists whole character documents.
type CharacterStore interface {
	GetCharacter(ctx context.Context, id string) (character.Character, error)
	// PutCharacter creates or replaces the document and returns it with the
	// stored Version and UpdatedAt.
	PutCharacter(ctx context.Context, c character.Character) (character.Character, error)
	ListCharacters(ctx context.Context, userID string) ([]CharacterSummary, error)
	DeleteCharacter(ctx context.Context, id string) error
}

// ContentStore persists compendium tables as encoded rows.
type ContentStore interface {
	// ReplaceContent swaps every row of kind for entries.
	ReplaceContent(ctx context.Context, kind compendium.Kind, entries []compendium.Entry) error
	ListContent(ctx context.Context, kind compendium.Kind) ([]compendium.Entry, error)
}

// ContentSource serves compendium tables from a ContentStore.
type ContentSource struct {
	Store ContentStore
}

// Fetch implements compendium.Source.
func (s ContentSource) Fetch(ctx context.Context, kind compendium.Kind) (compendium.Tables, error) {
	if !kind.Valid() {
		return compendium.Tables{}, compendium.ErrUnknownKind
	}
	entries, err := s.Store.ListContent(ctx, kind)
	if err != nil {
		return compendium.Tables{}, err
	}
	return compendium.TablesFromEntries(kind, entries)
}

var _ compendium.Source = ContentSource{}
