package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/export"
	"fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(log.ComponentWorker, cfg.LogLevel)

	logger.Info("Starting fintrack-worker")

	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The export worker exists to push rows to Sheets; without a
	// spreadsheet there is nothing for it to do.
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the export worker")
		os.Exit(1)
	}
	sheetsClient, err := export.NewSheetsClient(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(repo, sheetsClient, cfg.SyncBatchSize)

	// Catch rows recorded while no worker was running.
	logger.Info("Performing startup export check...")
	if err := exportWorker.StartupCheck(ctx); err != nil {
		logger.Error("Startup export check failed", "error", err)
	}

	go func() {
		handler := func(msg *amqp.ExpenseRecordedMessage) error {
			return exportWorker.HandleMessage(ctx, msg)
		}
		if err := amqpClient.ConsumeExpenseRecorded(ctx, handler); err != nil {
			if err != context.Canceled {
				logger.Error("Message consumption failed", "error", err)
			}
			cancel()
		}
	}()

	// Periodic sweep for rows whose message was lost.
	go exportWorker.RunPendingLoop(ctx, cfg.SyncInterval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down worker...")
	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
