// Package compendiumimporter loads compendium content files into the content
// database the sheet service reads when no compendium directory is set.
package compendiumimporter

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/louisbranch/duality-sheet/internal/services/sheet/compendium"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/storage"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/storage/sqlite"
)

// Config holds configuration for the compendium importer.
type Config struct {
	Dir    string
	DBPath string
	// Locale, when set, must match the locale every file declares.
	Locale string
	DryRun bool
}

// ParseConfig parses CLI flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{DBPath: filepath.Join("data", "content.db")}

	fs.StringVar(&cfg.Dir, "dir", "", "directory containing compendium content files")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "content database path")
	fs.StringVar(&cfg.Locale, "locale", "", "locale every content file must declare")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "validate without writing to the database")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(cfg.Dir) == "" {
		return Config{}, errors.New("dir is required")
	}
	return cfg, nil
}

type table struct {
	kind    compendium.Kind
	file    string
	entries []compendium.Entry
}

// Run validates every content file under cfg.Dir and, unless DryRun is set,
// replaces the matching tables in the content database.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if out == nil {
		out = io.Discard
	}
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		return errors.New("dir is required")
	}

	tables, err := readTables(dir, strings.TrimSpace(cfg.Locale))
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		return fmt.Errorf("no content files found in %s", dir)
	}

	if cfg.DryRun {
		_, err = fmt.Fprintf(out, "validated %d table(s)\n", len(tables))
		return err
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database dir: %w", err)
		}
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open content store: %w", err)
	}
	defer store.Close()

	if err := importTables(ctx, store, tables); err != nil {
		return err
	}
	for _, t := range tables {
		if _, err := fmt.Fprintf(out, "%s: %d entries\n", t.kind, len(t.entries)); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(out, "imported %d table(s) into %s\n", len(tables), cfg.DBPath)
	return err
}

func readTables(dir, locale string) ([]table, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	paths := make(map[compendium.Kind]string)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		kind, ok := compendium.KindForFile(file.Name())
		if !ok {
			continue
		}
		if prev, dup := paths[kind]; dup {
			return nil, fmt.Errorf("%s and %s both define %s", filepath.Base(prev), file.Name(), kind)
		}
		paths[kind] = filepath.Join(dir, file.Name())
	}

	tables := make([]table, 0, len(paths))
	for kind, path := range paths {
		t, err := readTable(path, kind, locale)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].kind < tables[j].kind })
	return tables, nil
}

func readTable(path string, kind compendium.Kind, locale string) (table, error) {
	name := filepath.Base(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return table{}, err
	}
	decoded, header, err := compendium.DecodeTable(kind, data)
	if err != nil {
		return table{}, fmt.Errorf("%s: %w", name, err)
	}
	if locale != "" && header.Locale != locale {
		return table{}, fmt.Errorf("%s: locale mismatch: %s", name, header.Locale)
	}
	entries, err := decoded.Entries(kind)
	if err != nil {
		return table{}, fmt.Errorf("%s: %w", name, err)
	}
	return table{kind: kind, file: name, entries: entries}, nil
}

func importTables(ctx context.Context, store storage.ContentStore, tables []table) error {
	if store == nil {
		return errors.New("content store is required")
	}
	for _, t := range tables {
		if err := store.ReplaceContent(ctx, t.kind, t.entries); err != nil {
			return fmt.Errorf("import %s: %w", t.file, err)
		}
	}
	return nil
}
