package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paydash/internal/amqp"
	"paydash/internal/backend"
	"paydash/internal/cli"
	applog "paydash/internal/log"
	"paydash/internal/services"
	"paydash/internal/storage"
	"paydash/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)

	logger.Info("Starting paydash-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	// The snapshot database is the worker's output; the live source feeds it.
	repo := cli.InitSnapshotRepo(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Surface where the previous run left off before catching up.
	if run, err := repo.LastRun(context.Background()); err == nil {
		logger.Info("Previous refresh run",
			"run_id", run.ID,
			"started_at", run.StartedAt.Format(time.RFC3339),
			"days_updated", run.DaysUpdated,
			"failed", run.Error.Valid)
	} else if !errors.Is(err, storage.ErrNoSnapshots) {
		logger.Error("Failed to read last refresh run", "error", err)
	}

	// When the API serves from sqlite, the worker fills it from the live
	// reports API. Any other configured backend is consumed directly.
	liveBackend := cfg.EarningsBackend
	if liveBackend == "sqlite" {
		liveBackend = "api"
	}
	backendCfg := backend.ConfigFromAppConfig(cfg)
	backendCfg.Type = backend.BackendType(liveBackend)

	result, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize live earnings source",
			"error", err, "backend", liveBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Source cleanup failed", "error", err)
			}
		}()
	}

	epoch, err := cfg.EpochTime()
	if err != nil {
		logger.Error("Invalid earnings epoch", "error", err, "epoch", cfg.EarningsEpoch)
		os.Exit(1)
	}

	refresher := services.NewRefreshService(result.Source, repo, epoch)
	refreshWorker := worker.NewRefreshWorker(refresher, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Catch up immediately; a failure is not fatal, the dashboard keeps
	// serving the previous snapshot marked stale.
	if err := refreshWorker.StartupRefresh(ctx); err != nil {
		logger.Error("Startup refresh failed", "error", err)
	}

	if err := refreshWorker.Schedule(ctx, cfg.RefreshCron); err != nil {
		logger.Error("Failed to register refresh schedule", "error", err, "cron", cfg.RefreshCron)
		os.Exit(1)
	}
	defer refreshWorker.Stop()

	// Consume manual refresh requests when a broker is configured.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		go func() {
			if err := amqpClient.ConsumeRefreshRequests(ctx, refreshWorker.HandleRefreshRequest); err != nil {
				if err != context.Canceled {
					logger.Error("Refresh request consumption failed", "error", err)
				}
				cancel()
			}
		}()
	} else {
		logger.Info("No AMQP URL configured, running on schedule only")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	logger.Info("Shutting down worker...")

	// Give a running refresh a moment to finish before the deferred stops.
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
