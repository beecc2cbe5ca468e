package log

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junsooki/stbshim/internal/config"
)

func TestGetLogLevel(t *testing.T) {
	type scenario struct {
		env      string
		cfg      config.LogConfig
		expected logrus.Level
	}

	scenarios := []scenario{
		{"", config.LogConfig{}, logrus.InfoLevel},
		{"", config.LogConfig{Debug: true}, logrus.DebugLevel},
		{"", config.LogConfig{Level: "warn"}, logrus.WarnLevel},
		{"error", config.LogConfig{Level: "warn"}, logrus.ErrorLevel},
		{"nonsense", config.LogConfig{}, logrus.InfoLevel},
	}

	for _, s := range scenarios {
		t.Setenv("LOG_LEVEL", s.env)
		assert.Equal(t, s.expected, getLogLevel(s.cfg))
	}
}

func TestNewLoggerDebugWritesJSON(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	var buf bytes.Buffer
	log := newLogger(config.LogConfig{Debug: true}, &buf)
	log.WithField("seq", 3).Debug("decoded")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "decoded", line["msg"])
	assert.EqualValues(t, 3, line["seq"])
}

func TestNewLoggerDisabled(t *testing.T) {
	log := newLogger(config.LogConfig{Disabled: true, Debug: true}, nil)
	assert.Equal(t, io.Discard, log.Out)
	assert.Equal(t, logrus.ErrorLevel, log.GetLevel())
}

func TestNewLoggerFields(t *testing.T) {
	entry := NewLogger(config.LogConfig{}, "stbshim-server", "dev")
	assert.Equal(t, "stbshim-server", entry.Data["app"])
	assert.Equal(t, "dev", entry.Data["version"])
}
