package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/junsooki/stbshim/internal/config"
)

// NewLogger returns a logger tagged with the binary name and version.
func NewLogger(cfg config.LogConfig, app, version string) *logrus.Entry {
	return newLogger(cfg, os.Stderr).WithFields(logrus.Fields{
		"app":     app,
		"version": version,
	})
}

func newLogger(cfg config.LogConfig, out io.Writer) *logrus.Logger {
	log := logrus.New()
	if cfg.Disabled {
		log.Out = io.Discard
		log.SetLevel(logrus.ErrorLevel)
		return log
	}

	log.SetOutput(out)
	log.SetLevel(getLogLevel(cfg))
	if cfg.Debug {
		log.Formatter = &logrus.JSONFormatter{}
	} else {
		log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	}
	return log
}

func getLogLevel(cfg config.LogConfig) logrus.Level {
	strLevel := os.Getenv("LOG_LEVEL")
	if strLevel == "" {
		strLevel = cfg.Level
	}
	level, err := logrus.ParseLevel(strLevel)
	if err != nil {
		if cfg.Debug {
			return logrus.DebugLevel
		}
		return logrus.InfoLevel
	}
	return level
}

// Discard returns an entry that drops everything. Used by tests.
func Discard() *logrus.Entry {
	return logrus.NewEntry(newLogger(config.LogConfig{Disabled: true}, io.Discard))
}
