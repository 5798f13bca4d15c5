package backend

import (
	"context"

	"paydash/internal/earnings"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// StaleChecker reports whether the backend is serving stale earnings data.
// Only backends with a local cache (sqlite) implement it.
type StaleChecker interface {
	HasStale(ctx context.Context) (bool, error)
}

// BackendResult contains the earnings source and optional extras the
// backend provides.
type BackendResult struct {
	Source  earnings.Source
	Staler  StaleChecker
	Cleanup CleanupFunc
}

// Factory creates earnings backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Reports API specific (backend "api")
	ReportsBaseURL     string
	ReportsAPIKey      string
	ReportsWorkspaceID string

	// SQLite specific
	SQLiteDBPath string

	// Memory backend specific
	SeedFile string
}

// BackendType represents the type of earnings backend
type BackendType string

const (
	// APIBackend fetches earnings live from the time-tracking reports API.
	APIBackend BackendType = "api"
	// SheetsBackend reads an earnings log from a Google Sheet.
	SheetsBackend BackendType = "sheets"
	// SQLiteBackend serves earnings from the local snapshot database
	// maintained by the refresh worker.
	SQLiteBackend BackendType = "sqlite"
	// MemoryBackend serves a fixed in-memory series, optionally seeded
	// from a YAML file. Meant for development and tests.
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case APIBackend, SheetsBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
