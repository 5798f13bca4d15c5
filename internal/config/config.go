package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Earnings backend selection: api, sheets, sqlite, memory
	EarningsBackend string

	// Time-tracking reports API (backend "api")
	ReportsBaseURL     string
	ReportsAPIKey      string
	ReportsWorkspaceID string

	// Snapshot database (backend "sqlite" and the worker)
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Goal catalog
	GoalsFile string

	// Earnings accumulate from this date (YYYY-MM-DD).
	EarningsEpoch string

	// Worker
	RefreshCron string

	// Memory backend seed file
	MemorySeedFile string
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8081"),
		EarningsBackend: getEnv("EARNINGS_BACKEND", "memory"),

		ReportsBaseURL:     getEnv("REPORTS_BASE_URL", "https://reports.api.clockify.me/v1"),
		ReportsAPIKey:      getEnv("REPORTS_API_KEY", ""),
		ReportsWorkspaceID: getEnv("REPORTS_WORKSPACE_ID", ""),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/paydash.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "paydash"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "refresh_earnings"),

		GoalsFile: getEnv("GOALS_FILE", "./goals.yaml"),

		EarningsEpoch: getEnv("EARNINGS_EPOCH", "2024-01-01"),

		RefreshCron: getEnv("REFRESH_CRON", "30 * * * *"),

		MemorySeedFile: getEnv("MEMORY_SEED_FILE", "./data/earnings.yaml"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"api", "sheets", "sqlite", "memory"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.EarningsBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid earnings backend '%s': must be one of %v", c.EarningsBackend, validBackends))
	}

	if c.EarningsBackend == "api" {
		if c.ReportsAPIKey == "" {
			errors = append(errors, "REPORTS_API_KEY is required when using the api backend")
		}
		if c.ReportsWorkspaceID == "" {
			errors = append(errors, "REPORTS_WORKSPACE_ID is required when using the api backend")
		}
		if c.ReportsBaseURL == "" {
			errors = append(errors, "REPORTS_BASE_URL cannot be empty when using the api backend")
		}
	}

	if c.EarningsBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using the sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoalsFile == "" {
		errors = append(errors, "goals file path cannot be empty")
	}

	if _, err := c.EpochTime(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid earnings epoch '%s': must be YYYY-MM-DD", c.EarningsEpoch))
	}

	if strings.TrimSpace(c.RefreshCron) == "" {
		errors = append(errors, "refresh cron spec cannot be empty")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// EpochTime parses the earnings epoch as a UTC date.
func (c *Config) EpochTime() (time.Time, error) {
	return time.Parse("2006-01-02", c.EarningsEpoch)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
