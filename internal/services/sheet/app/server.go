// Package app composes the sheet service: storage, compendium, sessions, the
// live channel client and the HTTP API.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/louisbranch/duality-sheet/internal/platform/logging"
	"github.com/louisbranch/duality-sheet/internal/platform/telemetry/metrics"
	"github.com/louisbranch/duality-sheet/internal/platform/timeouts"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/api/httpapi"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/compendium"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/derive"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/live"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/session"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/storage"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/storage/postgres"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/storage/sqlite"
)

// Config defines the inputs for the sheet service.
type Config struct {
	HTTPAddr string
	// DBPath is the SQLite character database, used unless PostgresDSN is set.
	DBPath        string
	PostgresDSN   string
	ContentDBPath string
	// CompendiumDir, when set, serves compendium tables from content files
	// and reloads them on change instead of reading the content database.
	CompendiumDir    string
	AutosaveDebounce time.Duration
	LiveURL          string
	LiveCampaignID   string

	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration

	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Server hosts the sheet HTTP process.
type Server struct {
	cfg        Config
	logger     *zap.Logger
	listener   net.Listener
	httpServer *http.Server
	sessions   *session.Manager
	compendium *compendium.Store
	live       *live.Client
	closers    []func()
}

// Run builds the server and serves until ctx is done.
func Run(ctx context.Context, cfg Config) error {
	srv, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}

// New opens storage, loads the compendium and binds the HTTP listener.
func New(ctx context.Context, cfg Config) (_ *Server, err error) {
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		return nil, errors.New("http address is required")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = timeouts.Shutdown
	}
	s := &Server{cfg: cfg, logger: logging.OrNop(cfg.Logger)}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	characters, err := s.openCharacterStore(ctx)
	if err != nil {
		return nil, err
	}
	source, err := s.openCompendiumSource()
	if err != nil {
		return nil, err
	}
	s.compendium = compendium.NewStore(source, compendium.WithLogger(s.logger.Named("compendium")))
	if err := s.compendium.Load(ctx); err != nil {
		// Derivation tolerates missing tables; sessions re-derive once a
		// later reload succeeds.
		s.logger.Warn("compendium partially loaded", zap.Error(err))
	}

	engine := derive.NewEngine(derive.WithLogger(s.logger.Named("derive")), derive.WithMetrics(cfg.Metrics))
	managerOpts := []session.ManagerOption{
		session.WithManagerLogger(s.logger.Named("session")),
		session.WithManagerMetrics(cfg.Metrics),
	}
	if cfg.AutosaveDebounce > 0 {
		managerOpts = append(managerOpts, session.WithDebounce(cfg.AutosaveDebounce))
	}
	s.sessions = session.NewManager(characters, s.compendium, engine, managerOpts...)

	if url := strings.TrimSpace(cfg.LiveURL); url != "" {
		s.live = live.NewClient(url, cfg.LiveCampaignID, s.sessions,
			live.WithLogger(s.logger.Named("live")),
			live.WithMetrics(cfg.Metrics),
		)
	}

	handler := httpapi.New(s.sessions, s.compendium,
		httpapi.WithLogger(s.logger.Named("http")),
		httpapi.WithMetrics(cfg.Metrics),
	)
	s.listener, err = net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}
	s.httpServer = &http.Server{
		Handler:           handler.Routes(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	return s, nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

func (s *Server) openCharacterStore(ctx context.Context) (storage.CharacterStore, error) {
	if dsn := strings.TrimSpace(s.cfg.PostgresDSN); dsn != "" {
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		store := postgres.New(pool)
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}
	store, err := openSQLite(s.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open character store: %w", err)
	}
	s.closers = append(s.closers, func() { _ = store.Close() })
	return store, nil
}

func (s *Server) openCompendiumSource() (compendium.Source, error) {
	if dir := strings.TrimSpace(s.cfg.CompendiumDir); dir != "" {
		return compendium.FileSource{Dir: dir}, nil
	}
	store, err := openSQLite(s.cfg.ContentDBPath)
	if err != nil {
		return nil, fmt.Errorf("open content store: %w", err)
	}
	s.closers = append(s.closers, func() { _ = store.Close() })
	return storage.ContentSource{Store: store}, nil
}

func openSQLite(path string) (*sqlite.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	return sqlite.Open(path)
}

// Serve runs the HTTP server and background workers until ctx is done, then
// flushes open sessions and shuts down.
func (s *Server) Serve(ctx context.Context) error {
	defer s.close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("sheet listening", zap.String("addr", s.Addr()))
		if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	if dir := strings.TrimSpace(s.cfg.CompendiumDir); dir != "" {
		g.Go(func() error {
			if err := compendium.Watch(gctx, dir, s.compendium, s.logger.Named("compendium")); err != nil {
				s.logger.Warn("compendium watch stopped", zap.Error(err))
			}
			return nil
		})
	}
	if s.live != nil {
		g.Go(func() error {
			if err := s.live.Run(gctx); err != nil {
				// A dropped campaign channel leaves sheets usable locally.
				s.logger.Error("live channel stopped", zap.Error(err))
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		var errs []error
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http: %w", err))
		}
		if err := s.sessions.Close(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("close sessions: %w", err))
		}
		return errors.Join(errs...)
	})
	return g.Wait()
}

func (s *Server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
	if s.listener != nil && s.httpServer == nil {
		_ = s.listener.Close()
	}
}
