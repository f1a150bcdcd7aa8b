package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const (
	DispatchModeImmediate = "immediate"
	DispatchModeScheduled = "scheduled"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL string
	ListenAddr  string

	// Connection pool bounds. Zero values mean the database package's
	// defaults apply.
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Dispatch mode: "immediate" sends on the birthday itself, "scheduled"
	// defers delivery through the external automation flow.
	DispatchMode string

	GenderServiceURL string
	GenderCountryID  int // ISO 3166 numeric, defaults to Germany (276)

	FlowTriggerURL string
	SendHourUTC    int // Hour of day for deferred deliveries

	DefaultSenderID uuid.UUID

	TemplatesFile string

	SMTPHost        string
	SMTPPort        string
	SMTPUsername    string
	SMTPPassword    string
	SMTPFromName    string
	SMTPFromAddress string

	// Optional Telegram ops alert channel. Alerts are disabled when the
	// token is empty.
	AlertTelegramToken  string
	AlertTelegramChatID int64

	LogLevel              string
	Environment           string
	CronSpecBirthdaySweep string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	if v := os.Getenv("DB_MAX_OPEN_CONNS"); v != "" {
		cfg.DBMaxOpenConns, err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
		}
	}
	if v := os.Getenv("DB_MAX_IDLE_CONNS"); v != "" {
		cfg.DBMaxIdleConns, err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %w", err)
		}
	}
	if v := os.Getenv("DB_CONN_MAX_LIFETIME"); v != "" {
		cfg.DBConnMaxLifetime, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
		}
	}

	cfg.ListenAddr = os.Getenv("LISTEN_ADDR")
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}

	cfg.DispatchMode = strings.ToLower(os.Getenv("DISPATCH_MODE"))
	if cfg.DispatchMode == "" {
		cfg.DispatchMode = DispatchModeScheduled
	}
	if cfg.DispatchMode != DispatchModeImmediate && cfg.DispatchMode != DispatchModeScheduled {
		return nil, fmt.Errorf("invalid DISPATCH_MODE %q: must be %q or %q", cfg.DispatchMode, DispatchModeImmediate, DispatchModeScheduled)
	}

	cfg.GenderServiceURL = os.Getenv("GENDER_SERVICE_URL")
	if cfg.GenderServiceURL == "" {
		return nil, fmt.Errorf("GENDER_SERVICE_URL is not set")
	}

	countryIDStr := os.Getenv("GENDER_COUNTRY_ID")
	if countryIDStr == "" {
		cfg.GenderCountryID = 276 // ISO 3166 Germany
	} else {
		cfg.GenderCountryID, err = strconv.Atoi(countryIDStr)
		if err != nil {
			return nil, fmt.Errorf("invalid GENDER_COUNTRY_ID: %w", err)
		}
	}

	cfg.FlowTriggerURL = os.Getenv("FLOW_TRIGGER_URL")
	if cfg.DispatchMode == DispatchModeScheduled && cfg.FlowTriggerURL == "" {
		return nil, fmt.Errorf("FLOW_TRIGGER_URL is not set (required in scheduled mode)")
	}

	sendHourStr := os.Getenv("SEND_HOUR_UTC")
	if sendHourStr == "" {
		cfg.SendHourUTC = 9
	} else {
		cfg.SendHourUTC, err = strconv.Atoi(sendHourStr)
		if err != nil || cfg.SendHourUTC < 0 || cfg.SendHourUTC > 23 {
			return nil, fmt.Errorf("invalid SEND_HOUR_UTC %q: must be an hour 0-23", sendHourStr)
		}
	}

	senderIDStr := os.Getenv("DEFAULT_SENDER_ID")
	if senderIDStr == "" {
		return nil, fmt.Errorf("DEFAULT_SENDER_ID is not set")
	}
	cfg.DefaultSenderID, err = uuid.Parse(senderIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_SENDER_ID: %w", err)
	}

	cfg.TemplatesFile = os.Getenv("TEMPLATES_FILE")

	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP_HOST is not set")
	}
	cfg.SMTPPort = os.Getenv("SMTP_PORT")
	if cfg.SMTPPort == "" {
		cfg.SMTPPort = "587"
	}
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.SMTPFromName = os.Getenv("SMTP_FROM_NAME")
	cfg.SMTPFromAddress = os.Getenv("SMTP_FROM_ADDRESS")
	if cfg.SMTPFromAddress == "" {
		return nil, fmt.Errorf("SMTP_FROM_ADDRESS is not set")
	}

	cfg.AlertTelegramToken = os.Getenv("ALERT_TELEGRAM_TOKEN")
	if cfg.AlertTelegramToken != "" {
		chatIDStr := os.Getenv("ALERT_TELEGRAM_CHAT_ID")
		if chatIDStr == "" {
			return nil, fmt.Errorf("ALERT_TELEGRAM_CHAT_ID is not set but ALERT_TELEGRAM_TOKEN is")
		}
		cfg.AlertTelegramChatID, err = strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ALERT_TELEGRAM_CHAT_ID: %w", err)
		}
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.CronSpecBirthdaySweep = os.Getenv("CRON_SPEC_BIRTHDAY_SWEEP")
	if cfg.CronSpecBirthdaySweep == "" {
		cfg.CronSpecBirthdaySweep = "0 9 * * *" // Default: 9 AM daily
	}

	return cfg, nil
}
