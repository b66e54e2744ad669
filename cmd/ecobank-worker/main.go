package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"ecobank/internal/amqp"
	"ecobank/internal/cache"
	"ecobank/internal/cli"
	"ecobank/internal/config"
	applog "ecobank/internal/log"
	ports "ecobank/internal/sheets"
	gsheet "ecobank/internal/sheets/google"
	"ecobank/internal/sheets/memory"
	"ecobank/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.MustLoadConfig(logger, (*config.Config).Validate)

	if !cfg.EventsEnabled() {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	exporter, err := newExporter(ctx, cfg, logger)
	if err != nil {
		return err
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	w := worker.NewExportWorker(exporter)
	caches := cache.NewManager()
	caches.Register("exported_entries", w.Cache())

	logger.Info("Starting ecobank-worker",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		caches.StartCleanup(gctx, 10*time.Minute)
		<-gctx.Done()
		caches.Stop()
		return nil
	})
	g.Go(func() error {
		err := client.Consume(gctx, w.HandleEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	return g.Wait()
}

// newExporter picks Google Sheets when a spreadsheet is configured and
// falls back to the in-memory exporter otherwise.
func newExporter(ctx context.Context, cfg *config.Config, logger *applog.Logger) (ports.EntryExporter, error) {
	if cfg.GoogleSpreadsheetID == "" {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, exporting to memory")
		return memory.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets exporter initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", client.SheetName())
	return client, nil
}
