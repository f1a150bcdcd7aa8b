// internal/infra/logger/logger.go

// Package logger configures the process-wide logrus instance shared by the
// webhook server, the scheduler, and the dispatch pipeline.
package logger

import (
	"os"
	"strings"

	"github.com/Telyonok/Congratulator-Plugin/internal/infra/config"

	"github.com/sirupsen/logrus"
)

// Log is the shared logger. Components receive it through constructor
// injection; Get is for wiring code only.
var Log = logrus.New()

// Init applies level and format from the application configuration.
// Production-like environments emit JSON for the log ingestion pipeline,
// everything else gets human-readable text.
func Init(cfg *config.AppConfig) {
	Log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		Log.Warnf("Invalid log level %q, falling back to info: %v", cfg.LogLevel, err)
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	switch strings.ToLower(cfg.Environment) {
	case "production", "staging":
		Log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00", // ISO8601
		})
	default:
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			ForceColors:     true,
		})
	}

	Log.WithFields(logrus.Fields{
		"level":       Log.GetLevel().String(),
		"environment": cfg.Environment,
	}).Info("Logger initialized.")
}

// Get returns the configured global logger.
func Get() *logrus.Logger {
	return Log
}
