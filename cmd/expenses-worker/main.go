package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"expenses/internal/cli"
	applog "expenses/internal/log"
	"expenses/internal/sheets"
	gsheet "expenses/internal/sheets/google"
	"expenses/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	be := cli.InitBackend(ctx, logger, cfg)
	defer cli.RunCleanup(logger, "backend", be.Cleanup)

	var mirror sheets.TableWriter
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			cli.RunCleanup(logger, "backend", be.Cleanup)
			os.Exit(1)
		}
		mirror = client
		logger.Info("Google Sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	w := worker.NewExportWorker(be.Service, cfg.ExportPath, mirror)

	logger.Info("Starting expenses-worker", "export_path", cfg.ExportPath, "schedule", cfg.ExportSchedule)
	if _, err := w.Refresh(ctx); err != nil {
		logger.Error("Startup export failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.RunScheduled(gctx, cfg.ExportSchedule)
	})
	if be.Publisher != nil {
		g.Go(func() error {
			return be.Publisher.ConsumeExpenseEvents(gctx, w.HandleEvent)
		})
	} else {
		logger.Info("AMQP disabled - relying on the export schedule only")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		cli.RunCleanup(logger, "backend", be.Cleanup)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
