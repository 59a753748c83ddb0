package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"storefront-banners/internal/analytics"
	"storefront-banners/internal/api"
	"storefront-banners/internal/banner"
	"storefront-banners/internal/config"
	"storefront-banners/internal/engine"
	"storefront-banners/internal/storage"
)

// App is the wired service: store, engine, admin service and HTTP handler.
type App struct {
	Store   storage.Store
	Engine  *engine.Engine
	Admin   *engine.AdminService
	Tracker *analytics.Tracker
	Handler http.Handler

	closers []func() error
}

// New opens the store (and Redis when enabled) and wires the HTTP stack.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	store, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := &App{Store: store, closers: []func() error{store.Close}}

	app.Tracker = analytics.New(nil)
	if cfg.Redis.Enabled {
		client, err := analytics.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.Tracker = analytics.New(client)
		app.closers = append(app.closers, client.Close)
	}

	app.Engine = engine.NewEngine(store, engine.WithTracker(app.Tracker))
	app.Admin = engine.NewAdminService(store, banner.NewValidator(), cfg.Banners.DefaultPage)

	h := api.NewBannerHandler(app.Engine, app.Admin, app.Tracker)
	app.Handler = api.Router(h, api.AuthOptions{
		JWTSecret: cfg.Auth.JWTSecret,
		AdminKey:  cfg.Auth.AdminKey,
		AdminRole: cfg.Auth.AdminRole,
	}, cfg.Server.RequestTimeout)
	return app, nil
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run serves HTTP until SIGINT/SIGTERM, then shuts down gracefully.
func Run(cfg config.Config) error {
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := New(rootCtx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      app.Handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("database", cfg.DSNRedacted()).
			Bool("redis", app.Tracker.Enabled()).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-waitForSignal():
	}
	log.Info().Msg("shutdown...")

	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	cancel()
	return srv.Shutdown(shCtx)
}

func waitForSignal() <-chan os.Signal {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	return c
}
