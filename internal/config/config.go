package config

import (
	"os"
	"strconv"
	"time"

	"croplearn/domain/learning"
	"croplearn/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Engine   EngineConfig
	Learning learning.Params
}

// DatabaseConfig holds database connection settings. An empty URL selects the
// in-memory store.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	APIPort    string
	ReportPort string
	GinMode    string
}

// EngineConfig holds orchestrator and batch settings
type EngineConfig struct {
	LockTimeout      time.Duration
	BatchInterval    time.Duration
	BatchTimeout     time.Duration
	BatchRetries     int
	BatchParallelism int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
		Server: ServerConfig{
			APIPort:    getEnvOrDefault("PORT", "8080"),
			ReportPort: getEnvOrDefault("REPORT_PORT", "8081"),
			GinMode:    getEnvOrDefault("GIN_MODE", "release"),
		},
		Engine: EngineConfig{
			LockTimeout:      getEnvDurationOrDefault("KEY_LOCK_TIMEOUT", 5*time.Second),
			BatchInterval:    getEnvDurationOrDefault("BATCH_INTERVAL", 24*time.Hour),
			BatchTimeout:     getEnvDurationOrDefault("BATCH_TIMEOUT", 30*time.Minute),
			BatchRetries:     getEnvIntOrDefault("BATCH_RETRIES", 2),
			BatchParallelism: getEnvIntOrDefault("BATCH_PARALLELISM", 8),
		},
		Learning: loadLearningParams(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// loadLearningParams starts from the engine defaults and applies any
// per-deployment overrides. The tuned constants are deployment knobs, not
// hard-coded truths.
func loadLearningParams() learning.Params {
	params := learning.DefaultParams()
	params.BiasActivation = getEnvFloatOrDefault("BIAS_ACTIVATION", params.BiasActivation)
	params.ColdHighMultiplier = getEnvFloatOrDefault("COLD_HIGH_MULTIPLIER", params.ColdHighMultiplier)
	params.ColdLowMultiplier = getEnvFloatOrDefault("COLD_LOW_MULTIPLIER", params.ColdLowMultiplier)
	params.ZThresholdEarly = getEnvFloatOrDefault("Z_THRESHOLD_EARLY", params.ZThresholdEarly)
	params.ZThresholdSteady = getEnvFloatOrDefault("Z_THRESHOLD_STEADY", params.ZThresholdSteady)
	params.TrendThresholdPct = getEnvFloatOrDefault("TREND_THRESHOLD_PCT", params.TrendThresholdPct)
	params.RecencyHorizonDays = getEnvFloatOrDefault("RECENCY_HORIZON_DAYS", params.RecencyHorizonDays)
	params.DefaultBufferPct = getEnvIntOrDefault("DEFAULT_BUFFER_PCT", params.DefaultBufferPct)
	return params
}

func validateConfig(config *Config) error {
	if config.Server.APIPort == "" {
		return errors.ConfigInvalid("API port is required")
	}
	if config.Engine.LockTimeout <= 0 {
		return errors.ConfigInvalid("key lock timeout must be positive")
	}
	if config.Engine.BatchParallelism < 1 {
		return errors.ConfigInvalid("batch parallelism must be at least 1")
	}
	if err := config.Learning.Validate(); err != nil {
		return errors.ConfigInvalid(err.Error())
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

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
