// Package logger configures the process-wide logrus instance.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"

	"subwatch/internal/infra/config"
)

// New builds a logger from application config: level from LOG_LEVEL, JSON
// output in production and staging, colored text everywhere else.
func New(cfg *config.AppConfig) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	switch cfg.Environment {
	case "production", "staging":
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	default:
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			ForceColors:     true,
		})
	}

	if err != nil {
		log.Warnf("Invalid log level %q, defaulting to info", cfg.LogLevel)
	}
	return log
}
