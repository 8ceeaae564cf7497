package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{
			name: "console format",
			cfg:  &Config{Level: "debug", Format: "console", Output: "stdout", TimeFormat: "2006-01-02T15:04:05Z07:00"},
		},
		{
			name: "json format",
			cfg:  &Config{Level: "info", Format: "json", Output: "stderr", TimeFormat: "2006-01-02T15:04:05Z07:00"},
		},
		{
			name: "empty output defaults to stdout",
			cfg:  &Config{Level: "warn", Format: "json", TimeFormat: "2006-01-02T15:04:05Z07:00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			require.NoError(t, err)
			assert.NotNil(t, log)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.level))
		})
	}
}

func TestNewSinkFile(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "payables-log-*.log")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())
	tmpFile.Close()

	sink := newSink(tmpFile.Name())
	assert.NotNil(t, sink)
}

func TestJSONOutputShape(t *testing.T) {
	var buf bytes.Buffer
	core := zapcore.NewCore(
		newEncoder(&Config{Format: "json", TimeFormat: "2006-01-02T15:04:05Z07:00"}),
		zapcore.AddSync(&buf),
		zapcore.InfoLevel,
	)
	log := zap.New(core)

	log.Info("invoice saved", zap.String("invoice_number", "INV-001"))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "invoice saved", out["msg"])
	assert.Equal(t, "info", out["level"])
	assert.Equal(t, "INV-001", out["invoice_number"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	core := zapcore.NewCore(
		newEncoder(&Config{Format: "json", TimeFormat: "2006-01-02T15:04:05Z07:00"}),
		zapcore.AddSync(&buf),
		parseLevel("warn"),
	)
	log := zap.New(core)

	log.Info("filtered")
	assert.Empty(t, buf.String())

	log.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}
