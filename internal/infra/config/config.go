package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL string
	LogLevel    string
	Environment string

	// Fixer-compatible FX rate provider. An empty API key disables the
	// rate-refresh job.
	FixerAPIKey string
	FixerAPIURL string

	CronSpecUpcoming     string
	CronSpecOverdue      string
	CronSpecCancellation string
	CronSpecRateRefresh  string

	// Outbound notification sends per second across all channels.
	NotifySendsPerSecond float64
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.FixerAPIKey = os.Getenv("FIXER_API_KEY")
	cfg.FixerAPIURL = os.Getenv("FIXER_API_URL")
	if cfg.FixerAPIURL == "" {
		cfg.FixerAPIURL = "https://api.fixer.io/latest"
	}

	cfg.CronSpecUpcoming = os.Getenv("CRON_SPEC_UPCOMING")
	if cfg.CronSpecUpcoming == "" {
		cfg.CronSpecUpcoming = "0 9 * * *" // Default: 9:00 AM daily
	}
	cfg.CronSpecOverdue = os.Getenv("CRON_SPEC_OVERDUE")
	if cfg.CronSpecOverdue == "" {
		cfg.CronSpecOverdue = "0 8 * * *" // Default: 8:00 AM daily
	}
	cfg.CronSpecCancellation = os.Getenv("CRON_SPEC_CANCELLATION")
	if cfg.CronSpecCancellation == "" {
		cfg.CronSpecCancellation = "0 10 * * *" // Default: 10:00 AM daily
	}
	cfg.CronSpecRateRefresh = os.Getenv("CRON_SPEC_RATE_REFRESH")
	if cfg.CronSpecRateRefresh == "" {
		cfg.CronSpecRateRefresh = "0 2 * * *" // Default: 2:00 AM daily
	}

	cfg.NotifySendsPerSecond = 5
	if raw := os.Getenv("NOTIFY_SENDS_PER_SECOND"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid NOTIFY_SENDS_PER_SECOND: %q", raw)
		}
		cfg.NotifySendsPerSecond = v
	}

	return cfg, nil
}
