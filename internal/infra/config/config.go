package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds the runtime settings of the application.
// Domain rules live in the YAML file at RulesPath, see Rules.
type AppConfig struct {
	RulesPath   string
	LogLevel    string
	Environment string

	DatabaseURL string // optional, run history is kept in memory without it

	TelegramToken   string // optional, enables the admin Telegram notifier
	AdminTelegramID int64

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	BrowserHeadless bool
	BrowserTimeout  time.Duration

	AWSRegion    string
	AWSEndpoint  string
	AWSAccessKey string
	AWSSecretKey string

	OutboxDir string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.RulesPath = getEnv("RULES_PATH", "config.yaml")

	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getEnv("ENVIRONMENT", "development"))

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID"); adminIDStr != "" {
		cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}
	if cfg.TelegramToken != "" && cfg.AdminTelegramID == 0 {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is not set")
	}

	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.SMTPPort, err = strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")

	cfg.BrowserHeadless, err = strconv.ParseBool(getEnv("BROWSER_HEADLESS", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid BROWSER_HEADLESS: %w", err)
	}
	cfg.BrowserTimeout, err = time.ParseDuration(getEnv("BROWSER_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid BROWSER_TIMEOUT: %w", err)
	}

	cfg.AWSRegion = getEnv("AWS_REGION", "us-east-1")
	cfg.AWSEndpoint = os.Getenv("AWS_ENDPOINT")
	cfg.AWSAccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
	cfg.AWSSecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")

	cfg.OutboxDir = getEnv("OUTBOX_DIR", "outbox")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
