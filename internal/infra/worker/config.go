package worker

import (
	"fmt"
	"log/slog"
	"time"

	"pravo-monitor/internal/pkg/config"
)

// WorkerConfig holds the configuration for the discovery worker component.
// This configuration controls the discovery loop cadence, the scheduled full
// refresh, notification settings, and other operational parameters.
//
// Configuration sources:
//   - Environment variables (loaded via LoadConfigFromEnv)
//   - Default values (provided by DefaultConfig)
//
// All fields have sensible defaults and validation rules to ensure
// the worker can operate safely even with invalid or missing configuration.
//
// Example usage:
//
//	// Use defaults
//	config := DefaultConfig()
//
//	// Load from environment with fallback
//	config, err := LoadConfigFromEnv(logger, metrics)
//	if err != nil {
//	    // This should never happen with fail-open strategy
//	    log.Fatal("Unexpected configuration error: %v", err)
//	}
//
//	// Validate before use (optional, LoadConfigFromEnv already validates)
//	if err := config.Validate(); err != nil {
//	    log.Fatal("Invalid configuration: %v", err)
//	}
type WorkerConfig struct {
	// DataDir is the directory holding the JSON document, boundary,
	// notified and subscriber stores.
	// Default: "./data"
	DataDir string

	// BotToken is the Telegram Bot API token.
	// There is no usable default; an empty value disables delivery and
	// is reported by Validate.
	BotToken string

	// SourcesFile is an optional path to a YAML source catalog that
	// overrides the built-in source list. Empty means built-in sources.
	// Default: ""
	SourcesFile string

	// CheckInterval is the delay between discovery cycles.
	// Range: 1 minute - 24 hours
	// Default: 1 hour
	CheckInterval time.Duration

	// ErrorCooldown is the shortened delay applied after a failed cycle.
	// Must be positive (> 0)
	// Default: 60 seconds
	ErrorCooldown time.Duration

	// DocumentLimit bounds how many documents a single source walk may return.
	// Range: 1-2000
	// Default: 500
	DocumentLimit int

	// MaxPages bounds how many listing pages a single source walk may visit.
	// Range: 1-100
	// Default: 20
	MaxPages int

	// NotifyMaxConcurrent is the maximum number of concurrent subscriber
	// deliveries.
	// Range: 1-50
	// Default: 5
	NotifyMaxConcurrent int

	// RefreshCronSchedule is the cron expression for the daily full refresh.
	// Format: "minute hour day month weekday"
	// Example: "30 5 * * *" (every day at 5:30)
	// Validation: Must be a valid cron expression (5 fields)
	// Default: "30 5 * * *"
	RefreshCronSchedule string

	// Timezone is the IANA timezone name for cron scheduling.
	// Example: "Europe/Moscow", "UTC"
	// Validation: Must be a valid IANA timezone name
	// Default: "Europe/Moscow"
	Timezone string

	// HealthPort is the port number for the health check HTTP server.
	// Range: 1024-65535 (avoid privileged ports)
	// Default: 9091
	HealthPort int
}

// DefaultConfig returns a WorkerConfig with sensible default values.
// These defaults are optimized for:
//   - Typical usage: Hourly discovery plus a daily 5:30 AM MSK full refresh
//   - Safety: 60-second cooldown after a failed cycle avoids hammering sources
//   - Performance: 5 concurrent deliveries stays under Telegram rate limits
//   - Standard ports: 9091 for health checks (common Prometheus exporter port)
//
// Returns:
//   - WorkerConfig with production-ready default values
//
// Example:
//
//	config := DefaultConfig()
//	config.CheckInterval = 30 * time.Minute // Customize to check twice as often
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		DataDir:             "./data",
		BotToken:            "",
		SourcesFile:         "",
		CheckInterval:       1 * time.Hour,
		ErrorCooldown:       60 * time.Second,
		DocumentLimit:       500,
		MaxPages:            20,
		NotifyMaxConcurrent: 5,
		RefreshCronSchedule: "30 5 * * *", // Every day at 5:30 AM
		Timezone:            "Europe/Moscow",
		HealthPort:          9091, // Standard Prometheus exporter port
	}
}

// Validate checks if the configuration values are valid.
// This method validates each field using the reusable validators from internal/pkg/config.
// If multiple fields are invalid, all errors are collected and returned together.
//
// Validation rules:
//   - BotToken: Must be non-empty
//   - CheckInterval: Must be between 1 minute and 24 hours
//   - ErrorCooldown: Must be positive (> 0)
//   - DocumentLimit: Must be between 1 and 2000 (inclusive)
//   - MaxPages: Must be between 1 and 100 (inclusive)
//   - NotifyMaxConcurrent: Must be between 1 and 50 (inclusive)
//   - RefreshCronSchedule: Must be a valid cron expression (validated by robfig/cron parser)
//   - Timezone: Must be a valid IANA timezone name (validated by time.LoadLocation)
//   - HealthPort: Must be between 1024 and 65535 (avoid privileged ports)
//
// Returns:
//   - error: nil if configuration is valid, aggregated error if any validation fails
//
// Example:
//
//	config := DefaultConfig()
//	config.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
//	if err := config.Validate(); err != nil {
//	    log.Fatal("Invalid configuration: %v", err)
//	}
func (c *WorkerConfig) Validate() error {
	var errors []error

	if c.BotToken == "" {
		errors = append(errors, fmt.Errorf("bot token: must not be empty"))
	}

	if err := config.ValidateDuration(c.CheckInterval, 1*time.Minute, 24*time.Hour); err != nil {
		errors = append(errors, fmt.Errorf("check interval: %w", err))
	}

	if err := config.ValidatePositiveDuration(c.ErrorCooldown); err != nil {
		errors = append(errors, fmt.Errorf("error cooldown: %w", err))
	}

	if err := config.ValidateIntRange(c.DocumentLimit, 1, 2000); err != nil {
		errors = append(errors, fmt.Errorf("document limit: %w", err))
	}

	if err := config.ValidateIntRange(c.MaxPages, 1, 100); err != nil {
		errors = append(errors, fmt.Errorf("max pages: %w", err))
	}

	if err := config.ValidateIntRange(c.NotifyMaxConcurrent, 1, 50); err != nil {
		errors = append(errors, fmt.Errorf("notify max concurrent: %w", err))
	}

	if err := config.ValidateCronSchedule(c.RefreshCronSchedule); err != nil {
		errors = append(errors, fmt.Errorf("refresh cron schedule: %w", err))
	}

	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errors = append(errors, fmt.Errorf("timezone: %w", err))
	}

	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errors = append(errors, fmt.Errorf("health port: %w", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}

	return nil
}

// LoadConfigFromEnv loads worker configuration from environment variables
// with validation and automatic fallback to default values on failure.
//
// This function implements the fail-open strategy:
//  1. Start with DefaultConfig() as base
//  2. Load each field from environment variables
//  3. Validate each loaded value
//  4. If validation fails: use default value, log warning, increment metrics
//  5. Never return error - always return a valid configuration
//
// Note: BotToken has no safe fallback. It is loaded as-is and its absence is
// surfaced by Validate, not here.
//
// Environment variables:
//   - TELEGRAM_BOT_TOKEN: Telegram Bot API token (no default)
//   - DATA_DIR: Directory for JSON stores (default: "./data")
//   - SOURCES_FILE: Optional YAML source catalog path (default: "")
//   - CHECK_INTERVAL: Duration string, e.g., "1h" (default: 1 hour)
//   - ERROR_COOLDOWN: Duration string, e.g., "60s" (default: 60 seconds)
//   - DOCUMENT_LIMIT: Integer 1-2000 (default: 500)
//   - MAX_PAGES: Integer 1-100 (default: 20)
//   - NOTIFY_MAX_CONCURRENT: Integer 1-50 (default: 5)
//   - REFRESH_CRON_SCHEDULE: Cron expression (default: "30 5 * * *")
//   - WORKER_TIMEZONE: IANA timezone name (default: "Europe/Moscow")
//   - WORKER_HEALTH_PORT: Integer 1024-65535 (default: 9091)
//
// Metrics updated:
//   - ValidationErrorsTotal: Incremented for each validation failure
//   - FallbacksTotal: Incremented for each fallback applied
//   - FallbackActive: Set to 1 if any fallback is active, 0 otherwise
//   - LoadTimestamp: Set to current time after successful load
//
// Parameters:
//   - logger: Structured logger for warnings
//   - metrics: Metrics instance for tracking fallbacks
//
// Returns:
//   - *WorkerConfig: Valid configuration (never nil)
//   - error: Always nil (fail-open strategy)
//
// Example:
//
//	logger := slog.Default()
//	metrics := NewWorkerMetrics()
//	config, _ := LoadConfigFromEnv(logger, metrics)
//	// config is always populated; Validate catches a missing bot token
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	// Start with default config
	cfg := DefaultConfig()
	fallbackApplied := false

	// BotToken and paths carry no validators; empty token is caught by Validate.
	cfg.BotToken = config.LoadEnvString("TELEGRAM_BOT_TOKEN", cfg.BotToken)
	cfg.DataDir = config.LoadEnvString("DATA_DIR", cfg.DataDir)
	cfg.SourcesFile = config.LoadEnvString("SOURCES_FILE", cfg.SourcesFile)

	// Load CheckInterval (with 1m-24h range limit)
	result := config.LoadEnvDuration("CHECK_INTERVAL", cfg.CheckInterval, func(d time.Duration) error {
		return config.ValidateDuration(d, 1*time.Minute, 24*time.Hour)
	})
	cfg.CheckInterval = result.Value.(time.Duration)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("check_interval")
		metrics.RecordFallback("check_interval", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", "CheckInterval"),
				slog.String("warning", warning))
		}
	}

	// Load ErrorCooldown
	result = config.LoadEnvDuration("ERROR_COOLDOWN", cfg.ErrorCooldown, config.ValidatePositiveDuration)
	cfg.ErrorCooldown = result.Value.(time.Duration)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("error_cooldown")
		metrics.RecordFallback("error_cooldown", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", "ErrorCooldown"),
				slog.String("warning", warning))
		}
	}

	// Load DocumentLimit
	result = config.LoadEnvInt("DOCUMENT_LIMIT", cfg.DocumentLimit, func(v int) error {
		return config.ValidateIntRange(v, 1, 2000)
	})
	cfg.DocumentLimit = result.Value.(int)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("document_limit")
		metrics.RecordFallback("document_limit", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", "DocumentLimit"),
				slog.String("warning", warning))
		}
	}

	// Load MaxPages
	result = config.LoadEnvInt("MAX_PAGES", cfg.MaxPages, func(v int) error {
		return config.ValidateIntRange(v, 1, 100)
	})
	cfg.MaxPages = result.Value.(int)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("max_pages")
		metrics.RecordFallback("max_pages", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", "MaxPages"),
				slog.String("warning", warning))
		}
	}

	// Load NotifyMaxConcurrent
	result = config.LoadEnvInt("NOTIFY_MAX_CONCURRENT", cfg.NotifyMaxConcurrent, func(v int) error {
		return config.ValidateIntRange(v, 1, 50)
	})
	cfg.NotifyMaxConcurrent = result.Value.(int)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("notify_max_concurrent")
		metrics.RecordFallback("notify_max_concurrent", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", "NotifyMaxConcurrent"),
				slog.String("warning", warning))
		}
	}

	// Load RefreshCronSchedule
	result = config.LoadEnvWithFallback("REFRESH_CRON_SCHEDULE", cfg.RefreshCronSchedule, config.ValidateCronSchedule)
	cfg.RefreshCronSchedule = result.Value.(string)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("refresh_cron_schedule")
		metrics.RecordFallback("refresh_cron_schedule", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", "RefreshCronSchedule"),
				slog.String("warning", warning))
		}
	}

	// Load Timezone
	result = config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("timezone")
		metrics.RecordFallback("timezone", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", "Timezone"),
				slog.String("warning", warning))
		}
	}

	// Load HealthPort
	result = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = result.Value.(int)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("health_port")
		metrics.RecordFallback("health_port", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", "HealthPort"),
				slog.String("warning", warning))
		}
	}

	// Update metrics
	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	// Always return valid config (fail-open strategy)
	return &cfg, nil
}
