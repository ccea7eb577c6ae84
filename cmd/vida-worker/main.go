package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"vida/internal/amqp"
	"vida/internal/backend"
	"vida/internal/config"
	applog "vida/internal/log"
	"vida/internal/sheets"
	gsheet "vida/internal/sheets/google"
	"vida/internal/sheets/memory"
	"vida/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	applog.SetDefault(logger)

	logger.Info("Starting vida-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the backup worker")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The worker reads items from the same store the server writes to.
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateStore(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize item store", "error", err)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Store cleanup failed", "error", err)
			}
		}()
	}

	// Backup destination: Google Sheets when configured, in-memory sink
	// otherwise (useful for local runs).
	var writer sheets.ItemBackupWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets backup enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = memory.New()
		logger.Info("Google Sheets disabled - backing up to memory sink")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	backupWorker := worker.NewBackupWorker(result.Store, writer)

	go func() {
		if err := backupWorker.Run(ctx, amqpClient); err != nil && err != context.Canceled {
			logger.Error("Event consumption failed", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	case <-ctx.Done():
	}

	logger.Info("Worker stopped gracefully")
}
