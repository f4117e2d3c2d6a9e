package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/budgetwise/internal/web/credstore"
	webhttp "github.com/aussiebroadwan/budgetwise/internal/web/http"
	"github.com/aussiebroadwan/budgetwise/internal/web/identity"
	"github.com/aussiebroadwan/budgetwise/internal/web/session"
	"github.com/aussiebroadwan/budgetwise/internal/web/store/drivers/sqlite"
	"github.com/aussiebroadwan/budgetwise/pkg/budgetsdk"
	"github.com/aussiebroadwan/budgetwise/pkg/cryptox"
	"github.com/aussiebroadwan/budgetwise/pkg/slogx"
	"github.com/aussiebroadwan/budgetwise/web"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"

	// sealPurpose binds the at-rest key to this store's secret columns.
	sealPurpose = "budgetwise.store.v1"
)

// Application wires the web client: local store, identity, session, API
// client and the HTTP server rendering the pages.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       *sqlite.Store
	creds    *credstore.Store
	identity *identity.Client
	session  *session.Session

	server *http.Server
	router *webhttp.Router
}

func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "budgetwise-web",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initSession(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	if err := app.initHTTP(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	if err := app.identity.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start identity client: %w", err)
	}
	app.session.Start()
	if app.cfg.RefreshInterval > 0 {
		app.session.StartRefresh(app.cfg.RefreshInterval)
	}

	app.logger.Info("budgetwise web starting",
		"addr", app.cfg.Addr(),
		"version", BuildVersion,
		"api", app.cfg.APIURL,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.stop()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests, then stops the session and closes
// the store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down budgetwise web...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.stop(); err != nil {
		return err
	}

	app.logger.Info("budgetwise web stopped")
	return nil
}

func (app *Application) stop() error {
	app.session.Close()
	app.identity.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}

// initDatabase opens the store with secrets sealed under the master key
// and applies migrations.
func (app *Application) initDatabase() error {
	master, err := cryptox.LoadOrCreateKeyFile(app.cfg.MasterKeyPath)
	if err != nil {
		return fmt.Errorf("failed to load master key: %w", err)
	}
	sealer, err := cryptox.NewSealer(master, sealPurpose)
	if err != nil {
		return fmt.Errorf("failed to create sealer: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn, sealer)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initSession() error {
	app.creds = credstore.New(
		credstore.WithPersistence(app.db.Credentials()),
		credstore.WithLogger(app.logger),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.creds.Restore(ctx); err != nil {
		// A token that cannot be read is re-minted once the session loads.
		app.logger.Warn("failed to restore stored token", "error", err)
	}

	client, err := identity.NewClient(identity.Config{
		APIKey:   app.cfg.IdentityAPIKey,
		BaseURL:  app.cfg.IdentityBaseURL,
		TokenURL: app.cfg.IdentityTokenURL,
		Timeout:  app.cfg.RequestTimeout,
		Accounts: app.db.Accounts(),
		Logger:   app.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create identity client: %w", err)
	}
	app.identity = client

	app.session = session.New(client, app.creds, app.logger)
	return nil
}

func (app *Application) initHTTP() error {
	api, err := budgetsdk.NewClient(budgetsdk.Config{
		BaseURL:     app.cfg.APIURL,
		Timeout:     app.cfg.RequestTimeout,
		Credentials: app.creds,
		Navigator:   webhttp.Navigator{},
		Logger:      app.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	views, err := webhttp.NewViews(web.TemplatesFS)
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	static, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("failed to open static assets: %w", err)
	}

	router := webhttp.NewRouter(webhttp.RouterConfig{
		Session:      app.session,
		API:          api,
		Views:        views,
		Static:       static,
		DB:           app.db,
		BuildVersion: BuildVersion,
		Logger:       app.logger,
	})
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              app.cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
