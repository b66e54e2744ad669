package main

import (
	"context"
	"flag"
	"os"

	"ecobank/internal/backend"
	"ecobank/internal/cli"
	"ecobank/internal/config"
	applog "ecobank/internal/log"
	"ecobank/internal/scheduler"
)

func main() {
	once := flag.Bool("once", false, "take a single snapshot and exit")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentSnapshot)
	cfg := cli.MustLoadConfig(logger, (*config.Config).ValidateSnapshots)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if err := run(ctx, cfg, logger, *once); err != nil {
		logger.Error("Snapshot job stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Snapshot job stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger, once bool) error {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	repo, err := backend.OpenRepository(bcfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	job := scheduler.NewSnapshotJob(repo, cfg.SnapshotDir, cfg.SnapshotRetain)

	logger.Info("Starting ecobank-snapshot",
		"backend", cfg.DataBackend,
		"dir", cfg.SnapshotDir,
		"schedule", cfg.SnapshotSchedule,
		"retain", cfg.SnapshotRetain)

	// Take one snapshot immediately so a fresh deployment has a copy
	// before the first scheduled tick.
	if _, err := job.Run(ctx); err != nil {
		if once {
			return err
		}
		logger.Warn("Initial snapshot failed", applog.FieldError, err)
	}
	if once {
		return nil
	}
	return job.Start(ctx, cfg.SnapshotSchedule)
}
