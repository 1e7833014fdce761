package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/tracktoid/internal/config"
	"github.com/phrazzld/tracktoid/internal/platform/postgres"
	"github.com/phrazzld/tracktoid/internal/platform/preferences"
	"github.com/phrazzld/tracktoid/internal/service/auth"
	"github.com/phrazzld/tracktoid/internal/store"
	"github.com/phrazzld/tracktoid/internal/trakt"
)

// application holds the shared dependencies so they can be cleaned up
// together on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	db      *sql.DB
	prefs   store.PreferenceStore
	session *auth.Session
	manager *trakt.Manager

	stopListening context.CancelFunc
	listenDone    chan struct{}
}

// newApplication builds the preference store and installs the process-wide
// trakt manager.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	prefs, err := app.newPreferenceStore(ctx)
	if err != nil {
		app.cleanup()
		return nil, err
	}
	app.prefs = prefs

	hasher, err := auth.NewPasswordHasher(cfg.Auth.PasswordHash, cfg.Auth.BcryptCost)
	if err != nil {
		app.cleanup()
		return nil, err
	}

	app.session = auth.NewSession(cfg.Trakt.APIKey, logger)

	app.manager, err = trakt.Create(ctx, trakt.Options{
		Store:           prefs,
		Authenticator:   app.session,
		Hasher:          hasher,
		DeferredMessage: cfg.Trakt.DeferredMessage,
		Logger:          logger,
	})
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create trakt manager: %w", err)
	}

	return app, nil
}

func (app *application) newPreferenceStore(ctx context.Context) (store.PreferenceStore, error) {
	cfg := app.config.Preferences

	switch cfg.Backend {
	case config.BackendFile:
		fs, err := preferences.NewFileStore(cfg.File, app.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open preference file: %w", err)
		}
		if cfg.Watch {
			fs.Watch()
		}
		app.logger.Info("using file preference store", "path", cfg.File, "watch", cfg.Watch)
		return fs, nil

	case config.BackendPostgres:
		db, err := openDatabase(ctx, app.config.Database.URL, app.logger)
		if err != nil {
			return nil, err
		}
		app.db = db

		ps := postgres.NewPreferenceStore(db, app.logger)
		if cfg.Watch {
			app.listen(ctx, ps)
		}
		app.logger.Info("using postgres preference store", "watch", cfg.Watch)
		return ps, nil

	default:
		app.logger.Info("using in-memory preference store")
		return preferences.NewMemoryStore(nil), nil
	}
}

// listen forwards changes made by other database clients until cleanup.
func (app *application) listen(ctx context.Context, ps *postgres.PreferenceStore) {
	listenCtx, cancel := context.WithCancel(ctx)
	app.stopListening = cancel
	app.listenDone = make(chan struct{})

	go func() {
		defer close(app.listenDone)
		if err := ps.Listen(listenCtx, app.config.Database.URL); err != nil {
			app.logger.Error("preference listener stopped", "error", err)
		}
	}()
}

// cleanup releases everything newApplication acquired. It is safe to call
// on a partially built application and more than once.
func (app *application) cleanup() {
	if app.manager != nil {
		app.manager.Close()
	}

	if app.stopListening != nil {
		app.stopListening()
		<-app.listenDone
		app.stopListening = nil
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
		app.db = nil
	}
}
