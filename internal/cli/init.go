// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/paydash and cmd/paydash-worker.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"paydash/internal/config"
	applog "paydash/internal/log"
	"paydash/internal/storage"
)

// SetupLogger initializes structured logging with default settings.
// Returns the configured logger and sets it as the default logger.
func SetupLogger(component string) *applog.Logger {
	logger := applog.New(applog.DefaultConfig()).WithComponent(component)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitSnapshotRepo initializes the snapshot repository at the given path.
// Returns the repository or exits the process on failure.
func InitSnapshotRepo(logger *applog.Logger, dbPath string) *storage.SnapshotRepository {
	repo, err := storage.NewSnapshotRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize snapshot repository", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}
