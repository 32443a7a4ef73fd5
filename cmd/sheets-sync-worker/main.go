package main

import (
	"context"
	"errors"
	"os"

	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
	gsheet "expensetracker/internal/sheets/google"
	"expensetracker/internal/store"
	"expensetracker/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentWorker)
	logger.Info("Starting sheets-sync-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateSheets(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Sheets sync worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Sheets sync worker stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	sheetsClient, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	// The in-memory store is private to the API process, so there is nothing
	// to rebuild the mirror from.
	var reader store.Reader
	if cfg.DataBackend != config.BackendMemory {
		st := cli.OpenStore(ctx, logger, cfg)
		defer st.Close()
		reader = st
	}

	amqpClient, err := cli.ConnectAMQP(logger, cfg)
	if err != nil {
		return err
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(sheetsClient, reader)
	logger.Info("Performing startup sync")
	if err := syncWorker.StartupSync(ctx); err != nil {
		logger.Error("Startup sync failed", "error", err)
	}

	return amqpClient.ConsumeExpenseEvents(ctx, syncWorker.HandleEvent)
}
