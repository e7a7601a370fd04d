package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/louisbranch/duality-sheet/internal/platform/errors"
	"github.com/louisbranch/duality-sheet/internal/platform/id"
	"github.com/louisbranch/duality-sheet/internal/platform/telemetry/metrics"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/autosave"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/compendium"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/derive"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/live"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/storage"
)

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger shared by managed sessions.
func WithManagerLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithManagerMetrics records derive and save metrics on mt.
func WithManagerMetrics(mt *metrics.Metrics) ManagerOption {
	return func(m *Manager) { m.metrics = mt }
}

// WithDebounce sets the autosave debounce for every session.
func WithDebounce(d time.Duration) ManagerOption {
	return func(m *Manager) { m.debounce = d }
}

type entry struct {
	session *Session
	cancel  context.CancelFunc
	done    chan struct{}
}

// Manager opens sessions on stored characters and keeps them running until
// closed. It also routes live channel changes to open sessions.
type Manager struct {
	store      storage.CharacterStore
	compendium *compendium.Store
	engine     *derive.Engine
	logger     *zap.Logger
	metrics    *metrics.Metrics
	debounce   time.Duration

	base   context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*entry
	closed   bool
}

// NewManager returns a Manager backed by store.
func NewManager(store storage.CharacterStore, comp *compendium.Store, engine *derive.Engine, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:      store,
		compendium: comp,
		engine:     engine,
		logger:     zap.NewNop(),
		sessions:   map[string]*entry{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.engine == nil {
		m.engine = derive.NewEngine(derive.WithLogger(m.logger), derive.WithMetrics(m.metrics))
	}
	m.base, m.cancel = context.WithCancel(context.Background())
	return m
}

var errManagerClosed = errors.New("session manager is closed")

// Open returns the running session for id, loading it from the store when
// it is not open yet.
func (m *Manager) Open(ctx context.Context, characterID string) (*Session, error) {
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return nil, apperrors.New(apperrors.CodeNotFound, "character id is required")
	}
	if s, ok, err := m.lookup(characterID); ok || err != nil {
		return s, err
	}

	c, err := m.store.GetCharacter(ctx, characterID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "character "+characterID+" not found", err)
	}
	if err != nil {
		return nil, fmt.Errorf("load character %s: %w", characterID, err)
	}
	return m.start(c)
}

// Create stores a new blank character and opens a session on it.
func (m *Manager) Create(ctx context.Context, userID, name string) (*Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.New(apperrors.CodeCharacterEmptyName, "character name is required")
	}
	characterID, err := id.NewID()
	if err != nil {
		return nil, err
	}
	s, err := m.start(character.New(characterID, strings.TrimSpace(userID), name))
	if err != nil {
		return nil, err
	}
	if err := s.Flush(ctx); err != nil {
		m.Forget(characterID)
		return nil, fmt.Errorf("save new character: %w", err)
	}
	return s, nil
}

// List returns stored characters owned by userID, or every character when
// userID is empty.
func (m *Manager) List(ctx context.Context, userID string) ([]storage.CharacterSummary, error) {
	return m.store.ListCharacters(ctx, strings.TrimSpace(userID))
}

// Delete closes the session for id, if any, and removes the stored document.
func (m *Manager) Delete(ctx context.Context, characterID string) error {
	m.stop(characterID, false)
	err := m.store.DeleteCharacter(ctx, characterID)
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.Wrap(apperrors.CodeNotFound, "character "+characterID+" not found", err)
	}
	return err
}

// Forget stops the session for id without saving pending edits.
func (m *Manager) Forget(characterID string) {
	m.stop(characterID, false)
}

// Close flushes and stops every open session.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	ids := make([]string, 0, len(m.sessions))
	for characterID := range m.sessions {
		ids = append(ids, characterID)
	}
	m.mu.Unlock()

	var errs []error
	for _, characterID := range ids {
		if err := m.flushAndStop(ctx, characterID); err != nil {
			errs = append(errs, err)
		}
	}
	m.cancel()
	return errors.Join(errs...)
}

func (m *Manager) lookup(characterID string) (*Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, false, errManagerClosed
	}
	if e, ok := m.sessions[characterID]; ok {
		return e.session, true, nil
	}
	return nil, false, nil
}

func (m *Manager) start(c character.Character) (*Session, error) {
	saveOpts := []autosave.Option{autosave.WithMetrics(m.metrics)}
	if m.debounce > 0 {
		saveOpts = append(saveOpts, autosave.WithDebounce(m.debounce))
	}
	s := New(c, m.compendium, m.engine,
		WithLogger(m.logger.With(zap.String("character_id", c.ID))),
		WithAutosave(m.store, saveOpts...),
	)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, errManagerClosed
	}
	if e, ok := m.sessions[c.ID]; ok {
		return e.session, nil
	}
	ctx, cancel := context.WithCancel(m.base)
	e := &entry{session: s, cancel: cancel, done: make(chan struct{})}
	m.sessions[c.ID] = e
	go func() {
		defer close(e.done)
		s.Run(ctx)
	}()
	return s, nil
}

func (m *Manager) flushAndStop(ctx context.Context, characterID string) error {
	m.mu.Lock()
	e, ok := m.sessions[characterID]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	err := e.session.Flush(ctx)
	if err != nil {
		m.logger.Warn("flush on close failed", zap.String("character_id", characterID), zap.Error(err))
	}
	m.stop(characterID, true)
	return err
}

func (m *Manager) stop(characterID string, wait bool) {
	m.mu.Lock()
	e, ok := m.sessions[characterID]
	delete(m.sessions, characterID)
	m.mu.Unlock()
	if !ok {
		return
	}
	e.cancel()
	if wait {
		<-e.done
	}
}

// CharacterChanged applies a live channel patch to the open session for id.
// Characters that are not open are reloaded from the store on next open.
func (m *Manager) CharacterChanged(characterID string, patch map[string]any) {
	s, ok, _ := m.lookup(characterID)
	if !ok {
		return
	}
	if _, err := s.ApplyRemote(m.base, patch); err != nil {
		m.logger.Warn("live patch rejected", zap.String("character_id", characterID), zap.Error(err))
	}
}

// CharacterRemoved detaches an open character from its campaign.
func (m *Manager) CharacterRemoved(characterID string) {
	s, ok, _ := m.lookup(characterID)
	if !ok {
		return
	}
	if _, err := s.ApplyRemote(m.base, map[string]any{"campaign_id": ""}); err != nil {
		m.logger.Warn("live removal rejected", zap.String("character_id", characterID), zap.Error(err))
	}
}

var _ live.Handler = (*Manager)(nil)
