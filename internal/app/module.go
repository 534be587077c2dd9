package app

import (
	"context"
	"errors"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/yapchat/yap/internal/archive"
	"github.com/yapchat/yap/internal/bus"
	"github.com/yapchat/yap/internal/chat"
	"github.com/yapchat/yap/internal/config"
	"github.com/yapchat/yap/internal/lock"
	"github.com/yapchat/yap/internal/logging"
	"github.com/yapchat/yap/internal/profile"
	"github.com/yapchat/yap/internal/tui"
)

// Params holds the resolved profile and flag overrides passed to the fx
// module.
type Params struct {
	Profile   string
	ServerURL string // optional override; empty = config value
	Name      string
	Room      string
}

// Module composes all providers and lifecycle hooks for the client.
func Module(p Params) fx.Option {
	return fx.Module("yap",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideConfig,
			provideBus,
			provideLock,
			provideArchive,
			provideManager,
			provideApp,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	if err := profile.EnsureDir(p.Profile); err != nil {
		return nil, err
	}
	// No console tee: stderr output tears the TUI screen.
	return logging.New(profile.LogPath(p.Profile), p.Profile, false)
}

func provideConfig(p Params, logger *zap.Logger) (*config.Config, error) {
	cfg, err := config.Load(profile.ConfigPath())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = config.Default()
		logger.Info("no config file, using defaults")
	}
	if p.ServerURL != "" {
		cfg.ServerURL = p.ServerURL
	}
	if p.Name != "" {
		cfg.DisplayName = p.Name
	}
	if p.Room != "" {
		cfg.RoomCode = p.Room
	}
	logger.Info("config loaded", zap.String("server", cfg.ServerURL))
	return cfg, nil
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	logger.Info("acquiring profile lock", zap.String("profile", p.Profile))
	l, err := lock.Acquire(profile.Dir(p.Profile))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

func provideArchive(p Params, logger *zap.Logger) (*archive.DB, error) {
	dbPath := profile.ArchiveDBPath(p.Profile)
	db, err := archive.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("archive initialized", zap.String("path", dbPath))
	return db, nil
}

func provideManager(cfg *config.Config, db *archive.DB, b *bus.Bus, logger *zap.Logger) *chat.Manager {
	return chat.NewManager(cfg, db, b, logger)
}

func provideApp(p Params, cfg *config.Config, mgr *chat.Manager, b *bus.Bus, logger *zap.Logger) *tui.App {
	return tui.NewApp(p.Profile, cfg, mgr, b, logger)
}

func registerLifecycle(lc fx.Lifecycle, shutdowner fx.Shutdowner, app *tui.App, mgr *chat.Manager, db *archive.DB, lk *lock.Lock, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := app.Run(); err != nil {
					logger.Error("tui exited with error", zap.Error(err))
				}
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			app.Stop()
			mgr.Leave()
			if err := db.Close(); err != nil {
				logger.Warn("error closing archive", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("client stopped")
			return nil
		},
	})
}
