// Package autosave persists a character document after local edits settle.
//
// Edits are debounced. Writes are serialized so at most one save is in flight
// per document, and every save reads the latest document at write time rather
// than the value that was current when the debounce fired. A failed save is
// logged and counted; the document stays dirty until the next edit retries.
package autosave

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap"

	"github.com/louisbranch/duality-sheet/internal/platform/telemetry/metrics"
	"github.com/louisbranch/duality-sheet/internal/platform/timeouts"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
)

// DefaultDebounce is the quiet period after the last edit before saving.
const DefaultDebounce = 750 * time.Millisecond

// ErrNotRunning is returned by Flush when Run has exited.
var ErrNotRunning = errors.New("autosave is not running")

// Store persists a character document.
type Store interface {
	PutCharacter(ctx context.Context, c character.Character) (character.Character, error)
}

// Status describes the last save.
type Status struct {
	Version   int64
	SavedAt   time.Time
	LastError error
	Saving    bool
}

// Option configures a Saver.
type Option func(*Saver)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(s *Saver) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithLogger sets the logger used for save outcomes.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Saver) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records save outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Saver) { s.metrics = m }
}

// WithOnSaved registers fn to receive the stored document after each
// successful save. fn runs on the save goroutine.
func WithOnSaved(fn func(character.Character)) Option {
	return func(s *Saver) { s.onSaved = fn }
}

// Saver debounces and serializes saves for one document.
type Saver struct {
	store    Store
	latest   func() character.Character
	debounce time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics
	onSaved  func(character.Character)

	notify chan struct{}
	flush  chan chan error
	done   chan struct{}

	mu        sync.Mutex
	lastSaved *character.Character
	status    Status
}

// New returns a Saver that reads the document to persist from latest. latest
// must return a copy the caller will not mutate afterwards.
func New(store Store, latest func() character.Character, opts ...Option) *Saver {
	s := &Saver{
		store:    store,
		latest:   latest,
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),
		notify:   make(chan struct{}, 1),
		flush:    make(chan chan error),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MarkSaved records c as already persisted, so an unchanged document is not
// written again. Use it for documents just loaded from the store.
func (s *Saver) MarkSaved(c character.Character) {
	saved := c.Clone()
	s.mu.Lock()
	s.lastSaved = &saved
	s.status.Version = c.Version
	s.status.SavedAt = c.UpdatedAt
	s.mu.Unlock()
}

// Notify reports a local edit. It never blocks.
func (s *Saver) Notify() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Status returns the outcome of the most recent save.
func (s *Saver) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Flush saves the latest document now, skipping the debounce, and returns
// the save error. It waits for an in-flight save to settle first.
func (s *Saver) Flush(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case s.flush <- reply:
	case <-s.done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes edits until ctx is done. Saves run on this goroutine, one
// at a time. A pending debounced save is dropped on exit; call Flush first to
// persist it.
func (s *Saver) Run(ctx context.Context) {
	defer close(s.done)

	timer := time.NewTimer(s.debounce)
	timer.Stop()
	defer timer.Stop()
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.notify:
			timer.Reset(s.debounce)
			pending = timer.C
		case <-pending:
			pending = nil
			_ = s.save(ctx)
		case reply := <-s.flush:
			timer.Stop()
			pending = nil
			reply <- s.save(ctx)
		}
	}
}

var ignoreStamps = cmpopts.IgnoreFields(character.Character{}, "Version", "UpdatedAt")

func (s *Saver) save(ctx context.Context) error {
	doc := s.latest()

	s.mu.Lock()
	unchanged := s.lastSaved != nil && cmp.Equal(*s.lastSaved, doc, ignoreStamps, cmpopts.EquateEmpty())
	if unchanged {
		s.mu.Unlock()
		return nil
	}
	s.status.Saving = true
	s.mu.Unlock()

	writeCtx, cancel := context.WithTimeout(ctx, timeouts.StoreWrite)
	stored, err := s.store.PutCharacter(writeCtx, doc)
	cancel()
	s.metrics.RecordAutosave(ctx, err)

	s.mu.Lock()
	s.status.Saving = false
	s.status.LastError = err
	if err == nil {
		s.lastSaved = &doc
		s.status.Version = stored.Version
		s.status.SavedAt = stored.UpdatedAt
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("autosave failed",
			zap.String("character_id", doc.ID),
			zap.Error(err),
		)
		return err
	}
	s.logger.Debug("character saved",
		zap.String("character_id", doc.ID),
		zap.Int64("version", stored.Version),
	)
	if s.onSaved != nil {
		s.onSaved(stored)
	}
	return nil
}
