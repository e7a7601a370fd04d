package compendium

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

var contentExtensions = []string{".yaml", ".yml", ".json"}

// FileSource reads one content file per table from Dir. The file for a kind
// is named after it, for example weapons.yaml or domain_cards.json. A
// missing file loads as an empty table.
type FileSource struct {
	Dir string
}

// Fetch reads and decodes the file for kind.
func (s FileSource) Fetch(ctx context.Context, kind Kind) (Tables, error) {
	if !kind.Valid() {
		return Tables{}, ErrUnknownKind
	}
	if err := ctx.Err(); err != nil {
		return Tables{}, err
	}
	path, ok, err := s.path(kind)
	if err != nil {
		return Tables{}, err
	}
	if !ok {
		return Tables{}.with(kind, emptyTables()), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("read %s: %w", path, err)
	}
	tables, _, err := DecodeTable(kind, data)
	if err != nil {
		return Tables{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return tables, nil
}

func (s FileSource) path(kind Kind) (string, bool, error) {
	for _, ext := range contentExtensions {
		path := filepath.Join(s.Dir, string(kind)+ext)
		if _, err := os.Stat(path); err == nil {
			return path, true, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", false, err
		}
	}
	return "", false, nil
}

// KindForFile maps a content file name to its table.
func KindForFile(name string) (Kind, bool) {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	for _, candidate := range contentExtensions {
		if ext == candidate {
			kind := Kind(strings.TrimSuffix(base, ext))
			return kind, kind.Valid()
		}
	}
	return "", false
}

// Reloader refetches one table.
type Reloader interface {
	Reload(ctx context.Context, kind Kind) error
}

// watchDebounce coalesces editor write bursts into one reload.
const watchDebounce = 250 * time.Millisecond

// Watch reloads a table through r each time its file under dir changes. It
// blocks until ctx is done.
func Watch(ctx context.Context, dir string, r Reloader, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	pending := map[Kind]*time.Timer{}
	fire := make(chan Kind, len(Kinds))
	defer func() {
		for _, timer := range pending {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			kind, ok := KindForFile(event.Name)
			if !ok {
				continue
			}
			if timer, exists := pending[kind]; exists {
				timer.Reset(watchDebounce)
				continue
			}
			pending[kind] = time.AfterFunc(watchDebounce, func() {
				select {
				case fire <- kind:
				case <-ctx.Done():
				}
			})
		case kind := <-fire:
			delete(pending, kind)
			if err := r.Reload(ctx, kind); err != nil {
				logger.Warn("compendium reload failed", zap.String("kind", string(kind)), zap.Error(err))
				continue
			}
			logger.Info("compendium reloaded", zap.String("kind", string(kind)))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("compendium watcher error", zap.Error(err))
		}
	}
}
