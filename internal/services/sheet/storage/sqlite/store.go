package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/duality-sheet/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/compendium"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/storage"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists sheet state in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite sheet store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlitemigrate.ApplyFS(context.Background(), sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// GetCharacter returns the stored document for id.
func (s *Store) GetCharacter(ctx context.Context, id string) (character.Character, error) {
	if err := s.ready(ctx); err != nil {
		return character.Character{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return character.Character{}, fmt.Errorf("character id is required")
	}

	var (
		document  string
		version   int64
		updatedAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT document, version, updated_at FROM characters WHERE id = ?`,
		id,
	).Scan(&document, &version, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return character.Character{}, storage.ErrNotFound
		}
		return character.Character{}, fmt.Errorf("get character: %w", err)
	}

	var c character.Character
	if err := json.Unmarshal([]byte(document), &c); err != nil {
		return character.Character{}, fmt.Errorf("decode character %s: %w", id, err)
	}
	c.ID = id
	c.Version = version
	c.UpdatedAt = fromMillis(updatedAt)
	return c, nil
}

// PutCharacter upserts the document, bumping its version.
func (s *Store) PutCharacter(ctx context.Context, c character.Character) (character.Character, error) {
	if err := s.ready(ctx); err != nil {
		return character.Character{}, err
	}
	c.ID = strings.TrimSpace(c.ID)
	if c.ID == "" {
		return character.Character{}, fmt.Errorf("character id is required")
	}
	c.UpdatedAt = fromMillis(toMillis(s.now()))

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return character.Character{}, fmt.Errorf("begin put character: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current int64
	err = tx.QueryRowContext(ctx, `SELECT version FROM characters WHERE id = ?`, c.ID).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return character.Character{}, fmt.Errorf("read character version: %w", err)
	}
	c.Version = current + 1

	document, err := json.Marshal(c)
	if err != nil {
		return character.Character{}, fmt.Errorf("encode character: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO characters (id, user_id, name, level, version, document, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   user_id = excluded.user_id,
		   name = excluded.name,
		   level = excluded.level,
		   version = excluded.version,
		   document = excluded.document,
		   updated_at = excluded.updated_at`,
		c.ID,
		c.UserID,
		c.Name,
		c.Level,
		c.Version,
		string(document),
		toMillis(c.UpdatedAt),
	)
	if err != nil {
		return character.Character{}, fmt.Errorf("put character: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return character.Character{}, fmt.Errorf("commit put character: %w", err)
	}
	return c, nil
}

// ListCharacters returns the characters owned by userID, most recently
// updated first. An empty userID lists every character.
func (s *Store) ListCharacters(ctx context.Context, userID string) ([]storage.CharacterSummary, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	query := `SELECT id, user_id, name, level, version, updated_at FROM characters`
	var args []any
	if userID = strings.TrimSpace(userID); userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY updated_at DESC, id ASC`

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	var summaries []storage.CharacterSummary
	for rows.Next() {
		var (
			summary   storage.CharacterSummary
			updatedAt int64
		)
		if err := rows.Scan(&summary.ID, &summary.UserID, &summary.Name, &summary.Level, &summary.Version, &updatedAt); err != nil {
			return nil, fmt.Errorf("list characters: %w", err)
		}
		summary.UpdatedAt = fromMillis(updatedAt)
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	return summaries, nil
}

// DeleteCharacter removes the document for id.
func (s *Store) DeleteCharacter(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM characters WHERE id = ?`, strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("delete character: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete character: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ReplaceContent swaps every row of kind for entries in one transaction.
func (s *Store) ReplaceContent(ctx context.Context, kind compendium.Kind, entries []compendium.Entry) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if !kind.Valid() {
		return fmt.Errorf("replace content: %w", compendium.ErrUnknownKind)
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace content: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM content_entries WHERE kind = ?`, string(kind)); err != nil {
		return fmt.Errorf("clear %s content: %w", kind, err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO content_entries (kind, domain_id, id, payload, updated_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare content insert: %w", err)
	}
	defer stmt.Close()

	now := toMillis(s.now())
	for _, entry := range entries {
		if _, err := stmt.ExecContext(ctx, string(kind), entry.DomainID, entry.ID, string(entry.Payload), now); err != nil {
			return fmt.Errorf("insert %s %s: %w", kind, entry.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace content: %w", err)
	}
	return nil
}

// ListContent returns the rows of kind ordered by domain, then id.
func (s *Store) ListContent(ctx context.Context, kind compendium.Kind) ([]compendium.Entry, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT domain_id, id, payload FROM content_entries WHERE kind = ? ORDER BY domain_id ASC, id ASC`,
		string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("list %s content: %w", kind, err)
	}
	defer rows.Close()

	var entries []compendium.Entry
	for rows.Next() {
		var (
			entry   compendium.Entry
			payload string
		)
		if err := rows.Scan(&entry.DomainID, &entry.ID, &payload); err != nil {
			return nil, fmt.Errorf("list %s content: %w", kind, err)
		}
		entry.Payload = []byte(payload)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s content: %w", kind, err)
	}
	return entries, nil
}

var (
	_ storage.CharacterStore = (*Store)(nil)
	_ storage.ContentStore   = (*Store)(nil)
)
