package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/roach88/slideboard/internal/config"
	"github.com/roach88/slideboard/internal/engine"
	"github.com/roach88/slideboard/internal/logger"
	"github.com/roach88/slideboard/internal/metrics"
	"github.com/roach88/slideboard/internal/model"
	"github.com/roach88/slideboard/internal/persist"
	"github.com/roach88/slideboard/internal/preview"
	"github.com/roach88/slideboard/internal/store"
)

// App is the wired runtime a command works against.
type App struct {
	Config    config.Config
	Log       *zap.Logger
	DB        *store.Store
	Store     *engine.Store
	Persister *persist.Persister
	Previews  *preview.Store
	Metrics   *metrics.Recorder
	Report    persist.Report

	detach func()
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "load config", err)
	}
	if opts.DBPath != "" {
		cfg.DBPath = opts.DBPath
	}
	if opts.LogFormat != "" {
		cfg.LogFormat = opts.LogFormat
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "config", err)
	}
	return cfg, nil
}

// openApp wires config, logging, the database, the restored state and
// persistence. A migrated document is written back right away.
func openApp(ctx context.Context, opts *RootOptions) (*App, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, WrapExitError(ExitCommandError, "create data directory", err)
		}
	}
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open database", err)
	}

	clock, ids := engine.SystemClock{}, engine.UUIDv7Generator{}
	env := persist.Env{Now: clock.Now(), NewID: ids.Generate}
	st, rep, err := persist.Load(ctx, db, cfg.SlotKey, env, logger.For(log, logger.ComponentPersist))
	if err != nil {
		db.Close()
		return nil, WrapExitError(ExitCommandError, "load state", err)
	}

	rec := metrics.New()
	app := &App{
		Config: cfg,
		Log:    log,
		DB:     db,
		Store: engine.New(st,
			engine.WithClock(clock),
			engine.WithIDs(ids),
			engine.WithLogger(logger.For(log, logger.ComponentEngine)),
			engine.WithObserver(rec)),
		Persister: persist.NewPersister(db,
			persist.WithKey(cfg.SlotKey),
			persist.WithLogger(logger.For(log, logger.ComponentPersist)),
			persist.WithWriteObserver(rec)),
		Metrics: rec,
		Report:  rep,
	}

	if rep.Migrated {
		if err := app.Persister.Save(ctx, st); err != nil {
			db.Close()
			return nil, fmt.Errorf("write migrated state: %w", err)
		}
	}
	app.detach = app.Persister.Attach(app.Store)

	app.Previews, err = preview.New(db, cfg.PreviewCacheSize,
		preview.WithLogger(logger.For(log, logger.ComponentPreview)),
		preview.WithObserver(rec))
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("preview cache: %w", err)
	}

	log.Debug("opened",
		zap.String("db", cfg.DBPath),
		zap.Int("decks", len(st.Presentations)),
		zap.Bool("migrated", rep.Migrated))
	return app, nil
}

// Close detaches persistence and closes the database.
func (a *App) Close() error {
	if a.detach != nil {
		a.detach()
	}
	_ = a.Log.Sync()
	return a.DB.Close()
}

// State returns the current snapshot.
func (a *App) State() model.State {
	return a.Store.State()
}

// errNotFound marks a failed deck or folder lookup.
var errNotFound = errors.New("not found")

// resolveDeck finds a deck by id or by exact name. An empty ref means the
// current presentation.
func resolveDeck(st model.State, ref string) (model.Deck, error) {
	if ref == "" {
		if d, ok := st.CurrentPresentation(); ok {
			return d, nil
		}
		return model.Deck{}, NewExitError(ExitCommandError, "no current presentation; name one")
	}
	if d, ok := st.Deck(ref); ok {
		return d, nil
	}

	var found []model.Deck
	for _, d := range st.Presentations {
		if d.Name == ref {
			found = append(found, d)
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return model.Deck{}, WrapExitError(ExitCommandError, fmt.Sprintf("presentation %q", ref), errNotFound)
	default:
		return model.Deck{}, NewExitError(ExitCommandError,
			fmt.Sprintf("%d presentations are named %q; use the id", len(found), ref))
	}
}

// resolveFolder finds a folder by id or by exact name.
func resolveFolder(st model.State, ref string) (model.Folder, error) {
	if i := st.FolderIndex(ref); i >= 0 {
		return st.Folders[i], nil
	}

	var found []model.Folder
	for _, f := range st.Folders {
		if f.Name == ref {
			found = append(found, f)
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return model.Folder{}, WrapExitError(ExitCommandError, fmt.Sprintf("folder %q", ref), errNotFound)
	default:
		return model.Folder{}, NewExitError(ExitCommandError,
			fmt.Sprintf("%d folders are named %q; use the id", len(found), ref))
	}
}

// refused reports an action the store turned down.
func refused(what string) error {
	return NewExitError(ExitFailure, what+": no change")
}
