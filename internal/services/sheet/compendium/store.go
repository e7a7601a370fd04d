package compendium

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/louisbranch/duality-sheet/internal/platform/timeouts"
)

// ErrUnknownKind is returned by sources asked for a table they do not serve.
// Stores do not retry it.
var ErrUnknownKind = errors.New("unknown compendium kind")

// Source fetches one compendium table. The returned Tables only needs the
// table for kind set; a nil table is treated as empty.
type Source interface {
	Fetch(ctx context.Context, kind Kind) (Tables, error)
}

// RetryPolicy bounds the retries of a single table fetch.
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxTries        uint
}

// DefaultRetryPolicy retries a failing fetch five times over a few seconds.
var DefaultRetryPolicy = RetryPolicy{
	InitialInterval: 200 * time.Millisecond,
	MaxInterval:     2 * time.Second,
	MaxTries:        5,
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRetryPolicy overrides DefaultRetryPolicy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(s *Store) {
		s.retry = policy
	}
}

// Store lazily loads compendium tables and publishes immutable snapshots.
//
// Each table is fetched at most once unless Reload is called. Concurrent
// requests for the same table share one fetch. Subscribers are notified
// after every published change.
type Store struct {
	source Source
	logger *zap.Logger
	retry  RetryPolicy

	current atomic.Pointer[Snapshot]
	publish sync.Mutex
	group   singleflight.Group

	subsMu  sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

// NewStore returns a Store with no table loaded.
func NewStore(source Source, opts ...Option) *Store {
	s := &Store{
		source: source,
		logger: zap.NewNop(),
		retry:  DefaultRetryPolicy,
		subs:   map[int]chan struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(&Snapshot{})
	return s
}

// Snapshot returns the latest published snapshot. It is never nil.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Load fetches every table that has not been loaded yet, in parallel.
//
// Tables that still fail after retries stay unloaded and are reported in the
// joined error; the tables that did load are published regardless.
func (s *Store) Load(ctx context.Context) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(4)
	for _, kind := range Kinds {
		if s.Snapshot().Loaded(kind) {
			continue
		}
		g.Go(func() error {
			if err := s.Ensure(ctx, kind); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Ensure loads the table for kind unless it is already loaded.
func (s *Store) Ensure(ctx context.Context, kind Kind) error {
	if s.Snapshot().Loaded(kind) {
		return nil
	}
	return s.fetch(ctx, kind, string(kind))
}

// Reload fetches the table for kind again and republishes it.
func (s *Store) Reload(ctx context.Context, kind Kind) error {
	return s.fetch(ctx, kind, "reload:"+string(kind))
}

func (s *Store) fetch(ctx context.Context, kind Kind, key string) error {
	if !kind.Valid() {
		return fmt.Errorf("fetch %s: %w", kind, ErrUnknownKind)
	}
	if s.source == nil {
		return fmt.Errorf("fetch %s: compendium source is required", kind)
	}
	_, err, _ := s.group.Do(key, func() (any, error) {
		start := time.Now()
		tables, err := backoff.Retry(ctx, func() (Tables, error) {
			fetchCtx, cancel := context.WithTimeout(ctx, timeouts.CompendiumFetch)
			defer cancel()
			tables, err := s.source.Fetch(fetchCtx, kind)
			if errors.Is(err, ErrUnknownKind) {
				return Tables{}, backoff.Permanent(err)
			}
			return tables, err
		},
			backoff.WithBackOff(s.newBackOff()),
			backoff.WithMaxTries(s.retry.MaxTries),
			backoff.WithNotify(func(err error, next time.Duration) {
				s.logger.Warn("compendium fetch failed, retrying",
					zap.String("kind", string(kind)),
					zap.Duration("retry_in", next),
					zap.Error(err),
				)
			}),
		)
		if err != nil {
			s.logger.Error("compendium fetch gave up",
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
			return nil, fmt.Errorf("fetch %s: %w", kind, err)
		}
		s.store(kind, tables)
		s.logger.Debug("compendium table loaded",
			zap.String("kind", string(kind)),
			zap.Int("entries", tables.count(kind)),
			zap.Duration("elapsed", time.Since(start)),
		)
		return nil, nil
	})
	return err
}

func (s *Store) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if s.retry.InitialInterval > 0 {
		b.InitialInterval = s.retry.InitialInterval
	}
	if s.retry.MaxInterval > 0 {
		b.MaxInterval = s.retry.MaxInterval
	}
	return b
}

// store publishes tables as the new content for kind.
func (s *Store) store(kind Kind, tables Tables) {
	if !tables.has(kind) {
		tables = tables.with(kind, emptyTables())
	}
	s.publish.Lock()
	s.current.Store(s.current.Load().withTable(kind, tables))
	s.publish.Unlock()
	s.notify()
}

// Subscribe returns a channel that receives a value after each published
// change, coalescing bursts, and a function that cancels the subscription.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

func (s *Store) notify() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func emptyTables() Tables {
	return Tables{
		Weapons:         map[string]Weapon{},
		Armor:           map[string]Armor{},
		Consumables:     map[string]Consumable{},
		Loot:            map[string]Loot{},
		Ancestries:      map[string]Card{},
		Communities:     map[string]Card{},
		Transformations: map[string]Card{},
		Classes:         map[string]Class{},
		Subclasses:      map[string]Subclass{},
		Domains:         map[string]Domain{},
		DomainCards:     map[string]map[string]DomainCard{},
		Beastforms:      map[string]Beastform{},
		LevelUpOptions:  map[string]LevelUpOption{},
		Sources:         map[string]Publication{},
	}
}

// StaticSource serves fixed tables. Absent tables load as empty.
type StaticSource struct {
	Tables Tables
}

// Fetch returns the table for kind.
func (s StaticSource) Fetch(_ context.Context, kind Kind) (Tables, error) {
	if !kind.Valid() {
		return Tables{}, ErrUnknownKind
	}
	return Tables{}.with(kind, s.Tables), nil
}
