package pkg

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLogs routes component logging into a buffer at level for the
// duration of the test.
func captureLogs(t *testing.T, level slog.Level, jsonFormat bool) *bytes.Buffer {
	t.Helper()
	prevLogger, prevLevel := DefaultLogger, GetLogLevel()
	t.Cleanup(func() {
		SetLogger(prevLogger)
		SetLogLevel(prevLevel)
	})

	var buf bytes.Buffer
	SetLogLevel(level)
	if jsonFormat {
		SetLogger(NewJSONLogger(&buf, nil))
	} else {
		SetLogger(NewLogger(&buf, nil))
	}
	return &buf
}

func TestSetLogLevel(t *testing.T) {
	prev := GetLogLevel()
	defer SetLogLevel(prev)

	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		SetLogLevel(level)
		assert.Equal(t, level, GetLogLevel())
	}
}

func TestComponentLogging(t *testing.T) {
	tests := []struct {
		name      string
		log       func(Component, string, ...any)
		component Component
		level     string
	}{
		{"debug", LogDebug, ComponentSession, "DEBUG"},
		{"info", LogInfo, ComponentCodec, "INFO"},
		{"warn", LogWarn, ComponentSim, "WARN"},
		{"error", LogError, ComponentHAL, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t, slog.LevelDebug, false)
			tt.log(tt.component, "header sent", "step", "preset")

			out := buf.String()
			assert.Contains(t, out, "level="+tt.level)
			assert.Contains(t, out, `msg="header sent"`)
			assert.Contains(t, out, "component="+string(tt.component))
			assert.Contains(t, out, "step=preset")
		})
	}
}

func TestComponentLogging_Filtered(t *testing.T) {
	buf := captureLogs(t, slog.LevelWarn, false)

	LogDebug(ComponentSession, "session opened")
	LogInfo(ComponentSession, "preset applied")
	assert.Empty(t, buf.String())

	LogWarn(ComponentSession, "short transfer ignored")
	assert.Contains(t, buf.String(), "short transfer ignored")
}

func TestComponentLogging_JSON(t *testing.T) {
	buf := captureLogs(t, slog.LevelInfo, true)
	LogInfo(ComponentConfig, "config loaded", "path", "/tmp/config.yaml")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "config loaded", rec["msg"])
	assert.Equal(t, "config", rec["component"])
	assert.Equal(t, "/tmp/config.yaml", rec["path"])
}

func TestNewLogger_ExplicitOptions(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, &slog.HandlerOptions{Level: slog.LevelError})
	logger.Warn("dropped")
	logger.Error("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLogLevel(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParameter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLogFormat(t *testing.T) {
	f, err := ParseLogFormat("json")
	require.NoError(t, err)
	assert.Equal(t, LogFormatJSON, f)

	f, err = ParseLogFormat("Text")
	require.NoError(t, err)
	assert.Equal(t, LogFormatText, f)

	_, err = ParseLogFormat("xml")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
