// ABOUTME: Wiring shared by every CLI command: config, credential store, api client and session
// ABOUTME: The synchronizer is attached before the saved session loads so the store always mirrors it
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/harperreed/mbgctl/api"
	"github.com/harperreed/mbgctl/config"
	"github.com/harperreed/mbgctl/credentials"
	"github.com/harperreed/mbgctl/resources"
	"github.com/harperreed/mbgctl/session"
)

// App is the set of collaborators a command runs against.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    credentials.Store
	Client   *api.Client
	Set      *resources.Set
	Sessions *session.Manager
	Sync     *session.Synchronizer
	Metrics  *api.Metrics

	Out io.Writer
	In  io.Reader

	closers []func() error
}

// NewApp opens the credential store, restores the saved session and expires
// it if its access token has lapsed.
func NewApp(cfg *config.Config, logger *slog.Logger, metrics *api.Metrics) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, closeStore, err := credentials.Open(cfg.CredentialOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	opts := []api.Option{api.WithLogger(logger)}
	if metrics != nil {
		opts = append(opts, api.WithMetrics(metrics))
	}
	client, err := api.NewFactory(store, opts...).For(cfg.APIURL)
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	sessionPath := cfg.SessionFile
	if sessionPath == "" {
		sessionPath = session.DefaultPath()
	}

	app := &App{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Client:   client,
		Set:      resources.NewSet(client),
		Sessions: session.NewManager(client, session.WithPath(sessionPath), session.WithLogger(logger)),
		Sync:     session.NewSynchronizer(store, logger),
		Metrics:  metrics,
		Out:      os.Stdout,
		In:       os.Stdin,
		closers:  []func() error{closeStore},
	}

	detach, err := app.Sync.Attach(app.Sessions)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.closers = append(app.closers, func() error { detach(); return nil })

	if err := app.Sessions.Load(); err != nil {
		logger.Warn("ignoring saved session", "error", err)
	}
	if _, err := app.Sessions.ExpireIfStale(time.Now()); err != nil {
		logger.Warn("failed to expire session", "error", err)
	}

	return app, nil
}

// Close releases the credential store.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
