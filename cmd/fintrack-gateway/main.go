package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/config"
	"fintrack/internal/gateway"
	"fintrack/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(log.ComponentGateway, cfg.LogLevel)

	if err := cfg.ValidateGateway(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	upstream := gateway.NewUpstream(cfg.BackendAPIURL, cfg.APIToken, cfg.UpstreamTimeout)
	srv := gateway.NewServer(":"+cfg.GatewayPort, upstream)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Gateway shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting fintrack gateway", "port", cfg.GatewayPort, "backend", cfg.BackendAPIURL)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Gateway error", "error", err, "port", cfg.GatewayPort)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Gateway stopped gracefully")
}
