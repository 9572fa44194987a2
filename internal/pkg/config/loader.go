package config

import (
	"fmt"
	"os"
	"time"
)

// ConfigLoadResult is the outcome of loading a single configuration value.
//
// Loading never fails: when an environment variable is unset the default is
// used silently, and when it is set but unparseable or invalid the default
// is used with FallbackApplied set and a human-readable warning appended.
// Callers log the warnings and keep running.
//
// Example:
//
//	result := LoadEnvDuration("CHECK_INTERVAL", time.Hour, ValidatePositiveDuration)
//	for _, w := range result.Warnings {
//	    logger.Warn("Configuration fallback applied", slog.String("warning", w))
//	}
//	interval := result.Value.(time.Duration)
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

// fallbackResult builds the result for a rejected environment value.
func fallbackResult(value interface{}, warning string) ConfigLoadResult {
	return ConfigLoadResult{
		Value:           value,
		Warnings:        []string{warning},
		FallbackApplied: true,
	}
}

// LoadEnvString reads a string environment variable, returning defaultValue
// when the variable is unset or empty. No validation is applied; use
// LoadEnvWithFallback when the value must be checked.
//
//	dataDir := LoadEnvString("DATA_DIR", "./data")
func LoadEnvString(envKey, defaultValue string) string {
	value := os.Getenv(envKey)
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadEnvWithFallback reads a string environment variable and validates it
// with the given validator (nil skips validation). An unset variable yields
// the default without a warning; a value that fails validation yields the
// default with FallbackApplied set.
//
//	result := LoadEnvWithFallback("REFRESH_CRON_SCHEDULE", "30 5 * * *", ValidateCronSchedule)
//	schedule := result.Value.(string)
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) ConfigLoadResult {
	value := os.Getenv(envKey)
	if value == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	if validator != nil {
		if err := validator(value); err != nil {
			return fallbackResult(defaultValue, fmt.Sprintf(
				"Invalid %s='%s': %v, falling back to default '%s'",
				envKey, value, err, defaultValue))
		}
	}

	return ConfigLoadResult{Value: value}
}

// LoadEnvDuration reads a Go duration string ("90s", "5m", "1h30m") from an
// environment variable, parses it with time.ParseDuration and validates the
// parsed value with the given validator (nil skips validation). Parse and
// validation failures both fall back to the default with a warning.
//
//	result := LoadEnvDuration("CHECK_INTERVAL", time.Hour, func(d time.Duration) error {
//	    return ValidateDuration(d, time.Minute, 24*time.Hour)
//	})
//	interval := result.Value.(time.Duration)
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	valueStr := os.Getenv(envKey)
	if valueStr == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	parsed, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallbackResult(defaultValue, fmt.Sprintf(
			"Invalid %s='%s': %v, falling back to default '%v'",
			envKey, valueStr, err, defaultValue))
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallbackResult(defaultValue, fmt.Sprintf(
				"Invalid %s='%s': %v, falling back to default '%v'",
				envKey, valueStr, err, defaultValue))
		}
	}

	return ConfigLoadResult{Value: parsed}
}

// LoadEnvInt reads an integer from an environment variable and validates the
// parsed value with the given validator (nil skips validation). Parse and
// validation failures both fall back to the default with a warning.
//
//	result := LoadEnvInt("DOCUMENT_LIMIT", 500, func(v int) error {
//	    return ValidateIntRange(v, 1, 2000)
//	})
//	limit := result.Value.(int)
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	valueStr := os.Getenv(envKey)
	if valueStr == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	var parsed int
	if _, err := fmt.Sscanf(valueStr, "%d", &parsed); err != nil {
		return fallbackResult(defaultValue, fmt.Sprintf(
			"Invalid %s='%s': invalid integer format, falling back to default '%d'",
			envKey, valueStr, defaultValue))
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallbackResult(defaultValue, fmt.Sprintf(
				"Invalid %s='%s': %v, falling back to default '%d'",
				envKey, valueStr, err, defaultValue))
		}
	}

	return ConfigLoadResult{Value: parsed}
}
