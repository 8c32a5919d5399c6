// internal/infra/logger/logger.go
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"ecommify/internal/infra/config"
)

// Log is the global logger instance
var Log = logrus.New()

// Configure applies level and formatter to l. JSON output is used in
// production and staging, coloured text everywhere else.
func Configure(l *logrus.Logger, level, environment string, out io.Writer) {
	l.SetOutput(out)

	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		l.Warnf("Invalid log level '%s', defaulting to 'info'. Error: %v", level, err)
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	switch strings.ToLower(environment) {
	case "production", "staging":
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	default:
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			ForceColors:     true,
		})
	}
}

// Init initializes the global logger based on application configuration.
func Init(cfg *config.AppConfig) {
	Configure(Log, cfg.LogLevel, cfg.Environment, os.Stdout)
	Log.WithFields(logrus.Fields{
		"level":       Log.GetLevel().String(),
		"environment": cfg.Environment,
	}).Debug("Logger initialized.")
}

// Component returns an entry tagged with the component name.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
