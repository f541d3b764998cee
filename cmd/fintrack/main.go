package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/auth"
	"fintrack/internal/config"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(log.ComponentServer, cfg.LogLevel)

	if err := cfg.ValidateServer(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// AMQP is optional: without it expenses are saved but never exported.
	var publisher services.ExpensePublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - expenses will stay pending until a worker picks them up")
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	accounts := services.NewAccountService(repo, tokens)
	ledger := services.NewLedgerService(repo, publisher)
	goals := services.NewGoalService(repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ledger.StartCacheJanitor(ctx)

	srv := apphttp.NewServer(":"+cfg.Port, accounts, ledger, goals, tokens, cfg.APIToken)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting fintrack server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
