package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Feed     FeedConfig
	Ingest   IngestConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// FeedConfig holds the upstream NAV feed configuration.
// URLTemplate must contain a single %s placeholder that receives the
// business date in dd-MMM-yyyy format.
type FeedConfig struct {
	URLTemplate string
	MaxAttempts int
	RetryDelay  time.Duration
	Timeout     time.Duration
}

// IngestConfig holds ingestion pipeline configuration.
// Timezone is the business timezone used for the "yesterday" default and
// the daily schedule; it is explicit configuration, not ambient system time.
type IngestConfig struct {
	BatchSize int
	Timezone  string
	Schedule  string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/fundadmin.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost",
			},
		},
		Feed: FeedConfig{
			URLTemplate: getEnv("NAV_FEED_URL", "https://portal.amfiindia.com/DownloadNAVHistoryReport_Po.aspx?frmdt=%s"),
			MaxAttempts: getEnvInt("NAV_FEED_MAX_ATTEMPTS", 3),
			RetryDelay:  getEnvDuration("NAV_FEED_RETRY_DELAY", 5*time.Second),
			Timeout:     getEnvDuration("NAV_FEED_TIMEOUT", 30*time.Second),
		},
		Ingest: IngestConfig{
			BatchSize: getEnvInt("NAV_BATCH_SIZE", 50000),
			Timezone:  getEnv("BUSINESS_TIMEZONE", "Asia/Kolkata"),
			Schedule:  getEnv("NAV_SCHEDULE", "30 23 * * *"),
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// Location resolves the configured business timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Ingest.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid business timezone %q: %w", c.Ingest.Timezone, err)
	}
	return loc, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvDuration gets a duration environment variable or returns a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
