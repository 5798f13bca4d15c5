package backend

import (
	"context"
	"fmt"
	"log/slog"

	"paydash/internal/config"
	"paydash/internal/earnings/clockify"
	"paydash/internal/earnings/gsheet"
	"paydash/internal/earnings/memory"
	"paydash/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case APIBackend:
		return f.createAPIBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createAPIBackend(config Config) (*BackendResult, error) {
	cli, err := clockify.New(clockify.Config{
		BaseURL:     config.ReportsBaseURL,
		APIKey:      config.ReportsAPIKey,
		WorkspaceID: config.ReportsWorkspaceID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize reports API client: %w", err)
	}

	f.logger.Info("Initialized reports API backend",
		"base_url", config.ReportsBaseURL,
		"workspace", config.ReportsWorkspaceID)

	return &BackendResult{
		Source: cli,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context) (*BackendResult, error) {
	cli, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend")

	return &BackendResult{
		Source: cli,
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSnapshotRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize snapshot repository: %w", err)
	}

	f.logger.Info("Initialized SQLite snapshot backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Source:  repo,
		Staler:  repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	src, err := memory.NewFromFile(config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
	}

	f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile)

	return &BackendResult{
		Source: src,
	}, nil
}

// ConfigFromAppConfig converts application config to backend config
func ConfigFromAppConfig(appConfig *config.Config) Config {
	return Config{
		Type:               BackendType(appConfig.EarningsBackend),
		ReportsBaseURL:     appConfig.ReportsBaseURL,
		ReportsAPIKey:      appConfig.ReportsAPIKey,
		ReportsWorkspaceID: appConfig.ReportsWorkspaceID,
		SQLiteDBPath:       appConfig.SQLiteDBPath,
		SeedFile:           appConfig.MemorySeedFile,
	}
}
