package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabasePath        string
	AnalyticsServiceURL string
	LogLevel            string
	Port                int
	DevMode             bool
	TelegramSyncCron    string
	SparklineSyncCron   string
	SparklineDays       int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnvAsInt("PORT", 8090),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		DatabasePath:        getEnv("DATABASE_PATH", "./data/tracker.db"),
		AnalyticsServiceURL: getEnv("ANALYTICS_SERVICE_URL", "http://localhost:8000"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		TelegramSyncCron:    getEnv("TELEGRAM_SYNC_CRON", "0 */15 * * * *"),
		SparklineSyncCron:   getEnv("SPARKLINE_SYNC_CRON", "0 5 * * * *"),
		SparklineDays:       getEnvAsInt("SPARKLINE_DAYS", 30),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.AnalyticsServiceURL == "" {
		return fmt.Errorf("ANALYTICS_SERVICE_URL is required")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
