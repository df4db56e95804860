// pkg/config/config.go
package config

import (
	"errors"
	"os"
	"strconv"
)

// Config represents the application configuration
type Config struct {
	// Schema matching
	ConfidenceThreshold float64
	SuggestionFloor     float64
	SuggestionLimit     int

	// Validation
	ErrorCeiling int

	// Ingestion
	ChunkSize int

	// Mapping cache
	CachePath string

	// Registry
	RegistryPath string

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		// Default values
		ConfidenceThreshold: getEnvAsFloat("CONFIDENCE_THRESHOLD", 0.8),
		SuggestionFloor:     getEnvAsFloat("SUGGESTION_FLOOR", 0.3),
		SuggestionLimit:     getEnvAsInt("SUGGESTION_LIMIT", 3),
		ErrorCeiling:        getEnvAsInt("ERROR_CEILING", 20),
		ChunkSize:           getEnvAsInt("CHUNK_SIZE", 5000),
		CachePath:           getEnv("MAPPING_CACHE_PATH", "mappings.db"),
		RegistryPath:        getEnv("REGISTRY_PATH", ""), // empty means the embedded registry
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1 {
		return errors.New("confidence threshold must be in (0, 1]")
	}

	if c.SuggestionFloor < 0 || c.SuggestionFloor >= c.ConfidenceThreshold {
		return errors.New("suggestion floor must be non-negative and below the confidence threshold")
	}

	if c.SuggestionLimit <= 0 {
		return errors.New("suggestion limit must be positive")
	}

	if c.ErrorCeiling < 0 {
		return errors.New("error ceiling cannot be negative")
	}

	if c.ChunkSize <= 0 {
		return errors.New("chunk size must be positive")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
