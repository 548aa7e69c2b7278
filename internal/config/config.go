package config

import (
	"os"
	"strconv"

	"github.com/JungMoonYoung/auto-insight-platform/internal/errors"
)

// Config is the complete application configuration, read once at startup
// from environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Mapping  MappingConfig
	Upload   UploadConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds the SQLite result store settings.
type DatabaseConfig struct {
	Path string
}

// MappingConfig holds the hybrid resolver tunables.
type MappingConfig struct {
	NameWeight float64
	DataWeight float64
	MaxColumns int
}

// UploadConfig bounds file ingestion.
type UploadConfig struct {
	MaxBytes int64
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Path: getEnvOrDefault("DB_PATH", "insight.db"),
		},
		Mapping: MappingConfig{
			NameWeight: getEnvFloatOrDefault("MAPPING_NAME_WEIGHT", 0.6),
			DataWeight: getEnvFloatOrDefault("MAPPING_DATA_WEIGHT", 0.4),
			MaxColumns: getEnvIntOrDefault("MAPPING_MAX_COLUMNS", 200),
		},
		Upload: UploadConfig{
			MaxBytes: int64(getEnvIntOrDefault("UPLOAD_MAX_BYTES", 32<<20)),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Database.Path == "" {
		return errors.ConfigInvalid("DB_PATH must not be empty")
	}
	if config.Mapping.NameWeight < 0 || config.Mapping.DataWeight < 0 {
		return errors.ConfigInvalid("mapping weights must be non-negative")
	}
	if config.Mapping.NameWeight == 0 && config.Mapping.DataWeight == 0 {
		return errors.ConfigInvalid("at least one mapping weight must be positive")
	}
	if config.Mapping.MaxColumns < 1 {
		return errors.ConfigInvalid("MAPPING_MAX_COLUMNS must be at least 1")
	}
	if config.Upload.MaxBytes < 1 {
		return errors.ConfigInvalid("UPLOAD_MAX_BYTES must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing.
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
