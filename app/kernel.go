// Package app is the application kernel: it owns the service container, the
// provider registry and the HTTP server lifecycle.
package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/pitchside/pitchside/config"
	"github.com/pitchside/pitchside/container"
	"github.com/pitchside/pitchside/logging"
	"github.com/pitchside/pitchside/providers"
	"github.com/pitchside/pitchside/routing"
)

// Application is the top-level kernel. It embeds the service container so
// bootstrap code can call app.Singleton(), app.Transient() and app.Make()
// directly.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry

	cfg *config.Config
	log *zap.Logger
}

// New loads configuration, builds the logger and container, and registers the
// core bindings ("config", "logger", "router").
func New(envFiles ...string) (*Application, error) {
	cfg := config.Load(envFiles...)

	log, err := logging.New(cfg.App.Env, cfg.App.Debug)
	if err != nil {
		return nil, err
	}

	c := container.New(
		container.WithLogger(log),
		container.WithInitTimeout(cfg.Lifecycle.InitTimeout),
	)

	app := &Application{
		Container: c,
		Providers: container.NewProviderRegistry(c),
		cfg:       cfg,
		log:       log,
	}

	if err := c.Instance("config", cfg); err != nil {
		return nil, err
	}
	if err := c.Instance("logger", log); err != nil {
		return nil, err
	}
	if err := app.Register(&providers.Router{}); err != nil {
		return nil, err
	}
	return app, nil
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) error {
	return a.Providers.Register(provider)
}

// Boot runs the provider Boot phase, then initializes every eligible
// singleton concurrently. The overall deadline comes from
// LIFECYCLE_BOOT_TIMEOUT; the per-service budget from LIFECYCLE_INIT_TIMEOUT.
func (a *Application) Boot(ctx context.Context) error {
	if err := a.Providers.Boot(); err != nil {
		return err
	}
	if a.cfg.Lifecycle.BootTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Lifecycle.BootTimeout)
		defer cancel()
	}
	return a.InitializeAll(ctx)
}

// Config returns the loaded configuration.
func (a *Application) Config() *config.Config { return a.cfg }

// Logger returns the application logger.
func (a *Application) Logger() *zap.Logger { return a.log }

// Router resolves *routing.Router from the container.
func (a *Application) Router() *routing.Router {
	return container.MustResolve[*routing.Router](a.Container, "router")
}

// Run boots the application (if needed) and serves HTTP until the context is
// canceled or SIGINT/SIGTERM arrives, then tears the container down.
func (a *Application) Run(ctx context.Context) error {
	if !a.Providers.Booted() {
		if err := a.Boot(ctx); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         a.cfg.Server.Addr(),
		Handler:      a.Router(),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("env", a.cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		shutdownErr := a.Shutdown()
		return errors.Join(err, shutdownErr)
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("http server shutdown", zap.Error(err))
	}
	return a.Shutdown()
}

// Shutdown tears down every registered service and empties the container.
// Cleanup failures are logged by the container and aggregated here.
func (a *Application) Shutdown() error {
	err := a.Clear()
	_ = a.log.Sync()
	return err
}
