package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gostudy/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Study       StudyConfig
	Rarefaction RarefactionConfig
	Cloud       CloudConfig
	Log         LogConfig
}

// StudyConfig holds settings shared by every run
type StudyConfig struct {
	Seed          uint64
	SubjectColumn string
}

// RarefactionConfig holds rarefaction series defaults
type RarefactionConfig struct {
	Steps      int
	Iterations int
}

// CloudConfig holds cloud runner settings
type CloudConfig struct {
	Axes       int
	Iterations int
	Workers    int
	Timeout    time.Duration
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	seed, err := getEnvUint64OrDefault("STUDY_SEED", 42)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Study: StudyConfig{
			Seed:          seed,
			SubjectColumn: getEnvOrDefault("SUBJECT_COLUMN", "HOST_SUBJECT_ID"),
		},
		Rarefaction: RarefactionConfig{
			Steps:      getEnvIntOrDefault("RAREFACTION_STEPS", 4),
			Iterations: getEnvIntOrDefault("RAREFACTION_ITERATIONS", 10),
		},
		Cloud: CloudConfig{
			Axes:       getEnvIntOrDefault("CLOUD_AXES", 3),
			Iterations: getEnvIntOrDefault("CLOUD_ITERATIONS", 10),
			Workers:    getEnvIntOrDefault("STUDY_WORKERS", 4),
			Timeout:    getEnvDurationOrDefault("ORDINATION_TIMEOUT", 30*time.Second),
		},
		Log: LogConfig{
			Level: strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if strings.TrimSpace(config.Study.SubjectColumn) == "" {
		return errors.ConfigInvalid("SUBJECT_COLUMN must not be empty")
	}
	if config.Rarefaction.Steps <= 0 {
		return errors.ConfigInvalid("RAREFACTION_STEPS must be positive")
	}
	if config.Rarefaction.Iterations <= 0 {
		return errors.ConfigInvalid("RAREFACTION_ITERATIONS must be positive")
	}
	if config.Cloud.Axes <= 0 {
		return errors.ConfigInvalid("CLOUD_AXES must be positive")
	}
	if config.Cloud.Iterations <= 0 {
		return errors.ConfigInvalid("CLOUD_ITERATIONS must be positive")
	}
	if config.Cloud.Workers <= 0 {
		return errors.ConfigInvalid("STUDY_WORKERS must be positive")
	}
	if config.Cloud.Timeout < 0 {
		return errors.ConfigInvalid("ORDINATION_TIMEOUT must not be negative")
	}
	switch config.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.ConfigInvalid("LOG_LEVEL must be one of debug, info, warn, error")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// seeds are not silently defaulted: a typo would change every result
func getEnvUint64OrDefault(key string, defaultValue uint64) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.ConfigInvalid(key + " must be an unsigned integer")
	}
	return parsed, nil
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
