// Package postgres stores character documents and compendium rows in
// PostgreSQL as JSONB.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/louisbranch/duality-sheet/internal/services/sheet/compendium"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/storage"
)

// Schema is the DDL for the sheet tables. Execute it via [Store.Migrate] or
// apply it during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS characters (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL DEFAULT '',
    name       TEXT NOT NULL DEFAULT '',
    level      INTEGER NOT NULL DEFAULT 1,
    version    BIGINT NOT NULL DEFAULT 1,
    document   JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_characters_user ON characters(user_id, updated_at DESC);

CREATE TABLE IF NOT EXISTS content_entries (
    kind       TEXT NOT NULL,
    domain_id  TEXT NOT NULL DEFAULT '',
    id         TEXT NOT NULL,
    payload    JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (kind, domain_id, id)
);
`

// DB is the database interface used by [Store]. Both *pgxpool.Pool and
// *pgx.Conn satisfy it.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store implements the sheet storage contracts on PostgreSQL.
type Store struct {
	db DB
}

var (
	_ storage.CharacterStore = (*Store)(nil)
	_ storage.ContentStore   = (*Store)(nil)
)

// New returns a Store using db. Call [Store.Migrate] before issuing queries.
func New(db DB) *Store {
	return &Store{db: db}
}

// Migrate executes [Schema].
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// GetCharacter returns the stored document for id.
func (s *Store) GetCharacter(ctx context.Context, id string) (character.Character, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return character.Character{}, fmt.Errorf("character id is required")
	}
	const query = `SELECT document, version, updated_at FROM characters WHERE id = $1`

	var (
		document  []byte
		version   int64
		updatedAt time.Time
	)
	err := s.db.QueryRow(ctx, query, id).Scan(&document, &version, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return character.Character{}, storage.ErrNotFound
		}
		return character.Character{}, fmt.Errorf("postgres: get character %q: %w", id, err)
	}
	var c character.Character
	if err := json.Unmarshal(document, &c); err != nil {
		return character.Character{}, fmt.Errorf("postgres: decode character %q: %w", id, err)
	}
	c.ID = id
	c.Version = version
	c.UpdatedAt = updatedAt.UTC()
	return c, nil
}

// PutCharacter upserts the document. The stored version starts at 1 and
// increments on every write.
func (s *Store) PutCharacter(ctx context.Context, c character.Character) (character.Character, error) {
	c.ID = strings.TrimSpace(c.ID)
	if c.ID == "" {
		return character.Character{}, fmt.Errorf("character id is required")
	}
	document, err := json.Marshal(c)
	if err != nil {
		return character.Character{}, fmt.Errorf("postgres: encode character: %w", err)
	}

	const query = `
		INSERT INTO characters (id, user_id, name, level, version, document, updated_at)
		VALUES ($1, $2, $3, $4, 1, $5, now())
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			name = EXCLUDED.name,
			level = EXCLUDED.level,
			version = characters.version + 1,
			document = EXCLUDED.document,
			updated_at = now()
		RETURNING version, updated_at`

	err = s.db.QueryRow(ctx, query, c.ID, c.UserID, c.Name, c.Level, document).Scan(&c.Version, &c.UpdatedAt)
	if err != nil {
		return character.Character{}, fmt.Errorf("postgres: put character: %w", err)
	}
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

// ListCharacters returns summaries ordered by most recent update. An empty
// userID lists every character.
func (s *Store) ListCharacters(ctx context.Context, userID string) ([]storage.CharacterSummary, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if userID = strings.TrimSpace(userID); userID == "" {
		const query = `
			SELECT id, user_id, name, level, version, updated_at
			FROM characters
			ORDER BY updated_at DESC, id`
		rows, err = s.db.Query(ctx, query)
	} else {
		const query = `
			SELECT id, user_id, name, level, version, updated_at
			FROM characters
			WHERE user_id = $1
			ORDER BY updated_at DESC, id`
		rows, err = s.db.Query(ctx, query, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: list characters: %w", err)
	}
	defer rows.Close()

	var summaries []storage.CharacterSummary
	for rows.Next() {
		var summary storage.CharacterSummary
		if err := rows.Scan(&summary.ID, &summary.UserID, &summary.Name, &summary.Level, &summary.Version, &summary.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: list characters scan: %w", err)
		}
		summary.UpdatedAt = summary.UpdatedAt.UTC()
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list characters: %w", err)
	}
	return summaries, nil
}

// DeleteCharacter removes the document for id.
func (s *Store) DeleteCharacter(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM characters WHERE id = $1`, strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("postgres: delete character %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type contentRow struct {
	ID       string          `json:"id"`
	DomainID string          `json:"domain_id"`
	Payload  json.RawMessage `json:"payload"`
}

// ReplaceContent swaps every row of kind for entries in a single statement.
func (s *Store) ReplaceContent(ctx context.Context, kind compendium.Kind, entries []compendium.Entry) error {
	if !kind.Valid() {
		return fmt.Errorf("postgres: replace content: %w", compendium.ErrUnknownKind)
	}
	rows := make([]contentRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, contentRow{ID: entry.ID, DomainID: entry.DomainID, Payload: entry.Payload})
	}
	batch, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("postgres: encode %s content: %w", kind, err)
	}

	const query = `
		WITH incoming AS (
			SELECT id, domain_id, payload
			FROM jsonb_to_recordset($2::jsonb) AS e(id TEXT, domain_id TEXT, payload JSONB)
		), removed AS (
			DELETE FROM content_entries c
			WHERE c.kind = $1
			  AND NOT EXISTS (
				SELECT 1 FROM incoming i WHERE i.id = c.id AND i.domain_id = c.domain_id
			  )
		)
		INSERT INTO content_entries (kind, domain_id, id, payload, updated_at)
		SELECT $1, domain_id, id, payload, now() FROM incoming
		ON CONFLICT (kind, domain_id, id) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = now()`

	if _, err := s.db.Exec(ctx, query, string(kind), batch); err != nil {
		return fmt.Errorf("postgres: replace %s content: %w", kind, err)
	}
	return nil
}

// ListContent returns the rows of kind ordered by domain, then id.
func (s *Store) ListContent(ctx context.Context, kind compendium.Kind) ([]compendium.Entry, error) {
	const query = `
		SELECT domain_id, id, payload
		FROM content_entries
		WHERE kind = $1
		ORDER BY domain_id, id`

	rows, err := s.db.Query(ctx, query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("postgres: list %s content: %w", kind, err)
	}
	defer rows.Close()

	var entries []compendium.Entry
	for rows.Next() {
		var entry compendium.Entry
		if err := rows.Scan(&entry.DomainID, &entry.ID, &entry.Payload); err != nil {
			return nil, fmt.Errorf("postgres: list %s content scan: %w", kind, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list %s content: %w", kind, err)
	}
	return entries, nil
}
