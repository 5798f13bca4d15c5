package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paydash/internal/amqp"
	"paydash/internal/backend"
	"paydash/internal/catalog"
	"paydash/internal/cli"
	apphttp "paydash/internal/http"
	applog "paydash/internal/log"
	"paydash/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)

	cfg := cli.LoadAndValidateConfig(logger)

	cat, err := catalog.Load(cfg.GoalsFile)
	if err != nil {
		logger.Error("Failed to load goal catalog", "error", err, "path", cfg.GoalsFile)
		os.Exit(1)
	}
	logger.Info("Goal catalog loaded",
		"path", cfg.GoalsFile,
		"goals", len(cat.Goals),
		"thresholds", len(cat.Thresholds))

	result, err := backend.NewFactory(logger.Logger).CreateBackend(
		context.Background(), backend.ConfigFromAppConfig(cfg))
	if err != nil {
		logger.Error("Failed to initialize earnings backend",
			"error", err, "backend", cfg.EarningsBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}()
	}

	epoch, err := cfg.EpochTime()
	if err != nil {
		logger.Error("Invalid earnings epoch", "error", err, "epoch", cfg.EarningsEpoch)
		os.Exit(1)
	}

	dashboard := services.NewDashboardService(cat, result.Source, epoch)
	if result.Staler != nil {
		dashboard = dashboard.WithStaleChecker(result.Staler)
	}

	// AMQP is optional: without a broker, POST /api/refresh reports 503 and
	// the worker refreshes on its own schedule.
	var publisher apphttp.RefreshPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, manual refresh disabled", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized",
				"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, dashboard, publisher, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 20 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

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
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting paydash server", "port", cfg.Port, "backend", cfg.EarningsBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
