package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"ecobank/internal/backend"
	"ecobank/internal/cache"
	"ecobank/internal/cli"
	"ecobank/internal/config"
	apphttp "ecobank/internal/http"
	applog "ecobank/internal/log"
	"ecobank/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.MustLoadConfig(logger, (*config.Config).ValidateServer)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	beCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, beCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()
	be := res.Backend

	sessions := session.NewManager([]byte(cfg.SessionSecret), cfg.SessionTTL)
	caches := cache.NewManager()
	caches.Register("session_revocations", sessions.Revocations())

	// Ready when the persisted document can still be read.
	ready := func(ctx context.Context) error {
		_, err := be.Repo.Load(ctx)
		return err
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Auth:           be.Auth,
		Ledger:         be.Ledger,
		Sessions:       sessions,
		Logger:         logger,
		Ready:          ready,
		TrustedProxies: cfg.TrustedProxies,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		caches.StartCleanup(gctx, 5*time.Minute)
		<-gctx.Done()
		caches.Stop()
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting ecobank server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"events_enabled", be.Events != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("Shutting down HTTP server", "timeout", cfg.ShutdownTimeout)
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
