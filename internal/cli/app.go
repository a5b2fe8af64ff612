// Package cli implements the stickercache commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/and161185/stickercache/internal/codec"
	"github.com/and161185/stickercache/internal/config"
	"github.com/and161185/stickercache/internal/model"
	"github.com/and161185/stickercache/internal/repository/postgres"
	"github.com/and161185/stickercache/internal/service"
)

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:   "stickercache",
		Short: "Inspect and maintain the sticker cache",
		Long: `stickercache manages the persistent cache of sticker sets, stickers and
reactions: it applies the schema, imports entities from JSON and decodes
stored records for inspection.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: config.yaml in the config dir)")

	load := func() (*app, error) { return newApp(configPath) }
	root.AddCommand(newMigrateCmd(load))
	root.AddCommand(newInspectCmd(load))
	root.AddCommand(newImportCmd(load))
	return root
}

type app struct {
	cfg *config.Config
	log *zap.Logger
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if cfg.Cache.PreviewLimit != codec.PreviewLimit {
		log.Warn("cache.preview_limit is fixed by the record format",
			zap.Int("configured", cfg.Cache.PreviewLimit),
			zap.Int("used", codec.PreviewLimit),
		)
	}
	return &app{cfg: cfg, log: log}, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

// openService connects to the database and returns the cache service for
// the configured account. closeFn releases the pool and flushes the logger.
func (a *app) openService(ctx context.Context) (svc *service.CacheServiceImpl, closeFn func(), err error) {
	account, err := a.cfg.Account()
	if err != nil {
		return nil, nil, err
	}
	db, err := postgres.New(ctx, a.cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	svc = service.NewCacheService(postgres.NewRecordRepo(db), account, a.log, membershipLogger{log: a.log})
	return svc, func() {
		db.Close()
		_ = a.log.Sync()
	}, nil
}

// membershipLogger reports sets materialized from the cache.
type membershipLogger struct{ log *zap.Logger }

func (m membershipLogger) OnStickerSetUpdated(set *model.StickerSet, isInstalled, isArchived, isNew bool) {
	m.log.Debug("sticker set updated",
		zap.Int64("set_id", int64(set.ID)),
		zap.Bool("installed", isInstalled),
		zap.Bool("archived", isArchived),
		zap.Bool("new", isNew),
	)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
