// Package logging builds the logrus logger shared by the probe drivers.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/torosent/hostprobe/internal/config"
)

// LevelEnv is consulted when no level is configured.
const LevelEnv = "HOSTPROBE_LOG_LEVEL"

// New returns a logger writing to out. A nil out means stderr so that
// reports on stdout stay clean.
func New(cfg config.LogConfig, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stderr
	}
	logger := logrus.New()
	logger.SetOutput(out)
	logger.Formatter = NewFormatter(cfg.Format)
	logger.Level = levelFor(cfg.Level)
	return logger
}

// NewFormatter returns a JSON formatter for "json" and a plain text one otherwise.
func NewFormatter(format string) logrus.Formatter {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return &logrus.JSONFormatter{}
	}
	return &logrus.TextFormatter{
		TimestampFormat: "Jan 02 15:04:05",
		FullTimestamp:   true,
		DisableColors:   true,
	}
}

// Discard returns a logger that drops everything. Used where no logger was supplied.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func levelFor(configured string) logrus.Level {
	level := strings.TrimSpace(configured)
	if level == "" {
		level = os.Getenv(LevelEnv)
	}
	switch strings.ToLower(level) {
	case "error":
		return logrus.ErrorLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}
