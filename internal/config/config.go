package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Database configuration
	DatabaseURL string

	// Collaborator timeouts
	FetchTimeout   time.Duration
	ExtractTimeout time.Duration

	// Scan defaults
	ScanTimeout  time.Duration
	ScanPageSize int

	// Backlog sweep configuration
	SweepSchedule  string // cron expression (with seconds field)
	SweepBatchSize int

	// OpenAI configuration
	OpenAIAPIKey string
	OpenAIModel  string

	// Reddit API credentials
	RedditClientID     string
	RedditClientSecret string

	// Raw page archive (optional). A zero retention keeps pages forever.
	StorageAccount   string
	StorageContainer string
	ArchiveRetention time.Duration

	// Notification configuration (optional)
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		FetchTimeout:   getDurationEnv("FETCH_TIMEOUT", 30*time.Second),
		ExtractTimeout: getDurationEnv("EXTRACT_TIMEOUT", 60*time.Second),

		ScanTimeout:  getDurationEnv("SCAN_TIMEOUT", 10*time.Minute),
		ScanPageSize: getIntEnv("SCAN_PAGE_SIZE", 50),

		SweepSchedule:  getEnv("SWEEP_SCHEDULE", "0 0 * * * *"),
		SweepBatchSize: getIntEnv("SWEEP_BATCH_SIZE", 50),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		RedditClientID:     getEnv("REDDIT_CLIENT_ID", ""),
		RedditClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "scan-pages"),
		ArchiveRetention: getDurationEnv("ARCHIVE_RETENTION", 0),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.ScanPageSize < 1 || c.ScanPageSize > 100 {
		return fmt.Errorf("SCAN_PAGE_SIZE must be between 1 and 100")
	}

	if c.SweepBatchSize < 1 {
		return fmt.Errorf("SWEEP_BATCH_SIZE must be positive")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
