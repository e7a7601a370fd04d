// Package sheet parses sheet command flags and composes the service entrypoint.
package sheet

import (
	"context"
	"flag"
	"fmt"
	"time"

	entrypoint "github.com/louisbranch/duality-sheet/internal/platform/cmd"
	"github.com/louisbranch/duality-sheet/internal/platform/logging"
	"github.com/louisbranch/duality-sheet/internal/platform/telemetry/metrics"
	server "github.com/louisbranch/duality-sheet/internal/services/sheet/app"
)

// Config holds sheet command configuration.
type Config struct {
	HTTPAddr         string        `env:"DUALITY_SHEET_HTTP_ADDR"         envDefault:":8090"`
	DBPath           string        `env:"DUALITY_SHEET_DB_PATH"           envDefault:"data/sheet.db"`
	ContentDBPath    string        `env:"DUALITY_SHEET_CONTENT_DB_PATH"   envDefault:"data/content.db"`
	PostgresDSN      string        `env:"DUALITY_SHEET_POSTGRES_DSN"`
	CompendiumDir    string        `env:"DUALITY_SHEET_COMPENDIUM_DIR"`
	AutosaveDebounce time.Duration `env:"DUALITY_SHEET_AUTOSAVE_DEBOUNCE" envDefault:"750ms"`
	LiveURL          string        `env:"DUALITY_SHEET_LIVE_URL"`
	LiveCampaignID   string        `env:"DUALITY_SHEET_LIVE_CAMPAIGN_ID"`

	Log logging.Config
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "sheet HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite character database path")
	fs.StringVar(&cfg.ContentDBPath, "content-db-path", cfg.ContentDBPath, "compendium content database path")
	fs.StringVar(&cfg.PostgresDSN, "postgres-dsn", cfg.PostgresDSN, "Postgres connection string; replaces the SQLite character database")
	fs.StringVar(&cfg.CompendiumDir, "compendium-dir", cfg.CompendiumDir, "directory of compendium content files, watched for changes")
	fs.DurationVar(&cfg.AutosaveDebounce, "autosave-debounce", cfg.AutosaveDebounce, "quiet period before an edited character is saved")
	fs.StringVar(&cfg.LiveURL, "live-url", cfg.LiveURL, "campaign live channel websocket URL")
	fs.StringVar(&cfg.LiveCampaignID, "live-campaign-id", cfg.LiveCampaignID, "campaign joined on the live channel")
	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "log level")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run builds the sheet app and serves until ctx is done.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSheet, func(ctx context.Context) error {
		logger, err := logging.New(cfg.Log)
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		if err := server.Run(ctx, server.Config{
			HTTPAddr:         cfg.HTTPAddr,
			DBPath:           cfg.DBPath,
			PostgresDSN:      cfg.PostgresDSN,
			ContentDBPath:    cfg.ContentDBPath,
			CompendiumDir:    cfg.CompendiumDir,
			AutosaveDebounce: cfg.AutosaveDebounce,
			LiveURL:          cfg.LiveURL,
			LiveCampaignID:   cfg.LiveCampaignID,
			Logger:           logger.Named(entrypoint.ServiceSheet),
			Metrics:          metrics.Default(),
		}); err != nil {
			return fmt.Errorf("serve sheet: %w", err)
		}
		return nil
	})
}
