package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken            string
	DatabaseURL              string
	OperatorTelegramIDs      []int64
	LogLevel                 string
	Environment              string
	CronSpecFulfillmentCheck string // monthly pipeline digest, on the 15th by default
	CronSpecDailyDigest      string // calendar digest
	FulfillmentGrace         time.Duration
	Location                 *time.Location
	LabelsFile               string
}

// Load reads configuration from environment variables and .env file (if present).
// Telegram settings are optional here; commands that start the bot call ValidateBot.
func Load() (*AppConfig, error) {
	// godotenv.Load does not override variables that are already set.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.OperatorTelegramIDs, err = parseIDList(os.Getenv("OPERATOR_TELEGRAM_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid OPERATOR_TELEGRAM_IDS: %w", err)
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.CronSpecFulfillmentCheck = os.Getenv("CRON_SPEC_FULFILLMENT_CHECK")
	if cfg.CronSpecFulfillmentCheck == "" {
		cfg.CronSpecFulfillmentCheck = "0 10 15 * *" // 10:00 on the 15th
	}

	cfg.CronSpecDailyDigest = os.Getenv("CRON_SPEC_DAILY_DIGEST")
	if cfg.CronSpecDailyDigest == "" {
		cfg.CronSpecDailyDigest = "0 9 * * *"
	}

	graceDays := 7
	if v := os.Getenv("FULFILLMENT_CHECK_GRACE_DAYS"); v != "" {
		graceDays, err = strconv.Atoi(v)
		if err != nil || graceDays < 0 {
			return nil, fmt.Errorf("invalid FULFILLMENT_CHECK_GRACE_DAYS %q", v)
		}
	}
	cfg.FulfillmentGrace = time.Duration(graceDays) * 24 * time.Hour

	tz := os.Getenv("TIMEZONE")
	if tz == "" {
		tz = "Europe/Warsaw"
	}
	cfg.Location, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	cfg.LabelsFile = os.Getenv("LABELS_FILE")

	return cfg, nil
}

// ValidateBot checks the settings only the Telegram bot needs.
func (c *AppConfig) ValidateBot() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is not set")
	}
	if len(c.OperatorTelegramIDs) == 0 {
		return fmt.Errorf("OPERATOR_TELEGRAM_IDS is not set")
	}
	return nil
}

// IsOperator reports whether the Telegram user may use the bot.
func (c *AppConfig) IsOperator(id int64) bool {
	for _, op := range c.OperatorTelegramIDs {
		if op == id {
			return true
		}
	}
	return false
}

// Now returns the current time in the configured location.
func (c *AppConfig) Now() time.Time {
	return time.Now().In(c.Location)
}

func parseIDList(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a Telegram ID: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
