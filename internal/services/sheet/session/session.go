// Package session owns open character documents.
//
// A Session is the single mutation path for one character: local edits,
// equipment changes, patches pushed over the live channel and compendium
// reloads all apply to the document under one lock, re-derive the sheet and
// hand the result to autosave. Derivation never runs concurrently for the
// same document.
package session

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/louisbranch/duality-sheet/internal/services/sheet/autosave"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/compendium"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/derive"
)

const tracerName = "github.com/louisbranch/duality-sheet/internal/services/sheet/session"

// View is a consistent read of a session: the document and the sheet
// derived from it. Callers must not modify it.
type View struct {
	Character   character.Character `json:"character"`
	Sheet       derive.Sheet        `json:"sheet"`
	Diagnostics []derive.Diagnostic `json:"diagnostics,omitempty"`
	Passes      int                 `json:"passes"`
	Converged   bool                `json:"converged"`
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAutosave persists the document through store after edits settle.
func WithAutosave(store autosave.Store, opts ...autosave.Option) Option {
	return func(s *Session) {
		s.saveStore = store
		s.saveOpts = opts
	}
}

// Session holds one character document and its derived sheet.
type Session struct {
	engine     *derive.Engine
	compendium *compendium.Store
	logger     *zap.Logger
	tracer     trace.Tracer

	saveStore autosave.Store
	saveOpts  []autosave.Option
	saver     *autosave.Saver

	mu     sync.Mutex
	doc    character.Character
	result derive.Result
}

// New opens a session on c and derives it against the current compendium
// snapshot. A document with a stored version is treated as already saved.
func New(c character.Character, store *compendium.Store, engine *derive.Engine, opts ...Option) *Session {
	s := &Session{
		engine:     engine,
		compendium: store,
		logger:     zap.NewNop(),
		tracer:     otel.Tracer(tracerName),
		doc:        c.Clone(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		s.engine = derive.NewEngine(derive.WithLogger(s.logger))
	}
	if s.saveStore != nil {
		saveOpts := append([]autosave.Option{
			autosave.WithLogger(s.logger),
			autosave.WithOnSaved(s.stamp),
		}, s.saveOpts...)
		s.saver = autosave.New(s.saveStore, s.Character, saveOpts...)
		if c.Version > 0 {
			s.saver.MarkSaved(c)
		}
	}

	s.mu.Lock()
	changed := s.rederive(context.Background(), "open", s.doc)
	s.mu.Unlock()
	if changed {
		s.notify()
	}
	return s
}

// ID returns the character id.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.ID
}

// Character returns a copy of the current document.
func (s *Session) Character() character.Character {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// View returns the current document and sheet.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

func (s *Session) view() View {
	return View{
		Character:   s.doc.Clone(),
		Sheet:       s.result.Sheet,
		Diagnostics: append([]derive.Diagnostic(nil), s.result.Diagnostics...),
		Passes:      s.result.Passes,
		Converged:   s.result.Converged,
	}
}

// Autosave returns the session saver, or nil when the session does not
// persist.
func (s *Session) Autosave() *autosave.Saver {
	return s.saver
}

// Edit applies fn to a copy of the document. When fn fails the session is
// left unchanged.
func (s *Session) Edit(ctx context.Context, fn func(*character.Character) error) (View, error) {
	return s.mutate(ctx, "edit", true, func(doc character.Character, _ *compendium.Snapshot) (character.Character, error) {
		id := doc.ID
		if err := fn(&doc); err != nil {
			return character.Character{}, err
		}
		doc.ID = id
		return doc, nil
	})
}

// ApplyPatch deep-merges a partial document from a local edit.
func (s *Session) ApplyPatch(ctx context.Context, patch map[string]any) (View, error) {
	return s.mutate(ctx, "patch", true, func(doc character.Character, _ *compendium.Snapshot) (character.Character, error) {
		return character.ApplyPatch(doc, patch)
	})
}

// ApplyRemote merges a partial document pushed by the live channel. The
// document is only queued for saving when derivation corrected it.
func (s *Session) ApplyRemote(ctx context.Context, patch map[string]any) (View, error) {
	return s.mutate(ctx, "remote", false, func(doc character.Character, _ *compendium.Snapshot) (character.Character, error) {
		return character.ApplyPatch(doc, patch)
	})
}

// Equip puts instanceID in slot. A rejected equip returns a user-facing
// error and changes nothing.
func (s *Session) Equip(ctx context.Context, slot derive.Slot, instanceID string) (View, error) {
	return s.mutate(ctx, "equip", true, func(doc character.Character, snap *compendium.Snapshot) (character.Character, error) {
		return derive.Equip(doc, snap, slot, instanceID)
	})
}

// Refresh re-derives the document against the latest compendium snapshot.
func (s *Session) Refresh(ctx context.Context) View {
	s.mu.Lock()
	changed := s.rederive(ctx, "refresh", s.doc)
	view := s.view()
	s.mu.Unlock()
	if changed {
		s.notify()
	}
	return view
}

func (s *Session) mutate(ctx context.Context, op string, local bool, fn func(character.Character, *compendium.Snapshot) (character.Character, error)) (View, error) {
	s.mu.Lock()
	next, err := fn(s.doc.Clone(), s.compendium.Snapshot())
	if err != nil {
		view := s.view()
		s.mu.Unlock()
		s.logger.Debug("character edit rejected",
			zap.String("character_id", view.Character.ID),
			zap.String("op", op),
			zap.Error(err),
		)
		return view, err
	}
	changed := s.rederive(ctx, op, next)
	view := s.view()
	s.mu.Unlock()

	if local || changed {
		s.notify()
	}
	return view, nil
}

// rederive runs the engine on doc and commits the result. It reports whether
// healing rewrote doc. Callers hold s.mu.
func (s *Session) rederive(ctx context.Context, op string, doc character.Character) bool {
	ctx, span := s.tracer.Start(ctx, "session."+op,
		trace.WithAttributes(attribute.String("character.id", doc.ID)))
	defer span.End()

	result := s.engine.Derive(ctx, doc, s.compendium.Snapshot())
	span.SetAttributes(
		attribute.Int("derive.passes", result.Passes),
		attribute.Int("derive.corrections", len(result.Diagnostics)),
		attribute.Bool("derive.converged", result.Converged),
	)
	if !result.Converged {
		span.SetStatus(codes.Error, "derivation did not converge")
	}
	s.doc = result.Character
	s.result = result
	return result.Changed()
}

func (s *Session) stamp(stored character.Character) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stored.ID != s.doc.ID {
		return
	}
	s.doc.Version = stored.Version
	s.doc.UpdatedAt = stored.UpdatedAt
}

func (s *Session) notify() {
	if s.saver != nil {
		s.saver.Notify()
	}
}

// Flush saves pending edits now.
func (s *Session) Flush(ctx context.Context) error {
	if s.saver == nil {
		return nil
	}
	return s.saver.Flush(ctx)
}

// Run re-derives on compendium updates and runs autosave until ctx is done.
func (s *Session) Run(ctx context.Context) {
	updates, cancel := s.compendium.Subscribe()
	defer cancel()

	var wg sync.WaitGroup
	if s.saver != nil {
		wg.Go(func() { s.saver.Run(ctx) })
	}
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			s.Refresh(ctx)
		}
	}
}
