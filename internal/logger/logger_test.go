package logger

import (
	"bytes"
	"strings"
	"testing"

	"travel-crm/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		expected zerolog.Level
	}{
		{"empty defaults to info", "", zerolog.InfoLevel},
		{"trace level", "trace", zerolog.TraceLevel},
		{"debug level", "debug", zerolog.DebugLevel},
		{"info level", "info", zerolog.InfoLevel},
		{"warn level", "warn", zerolog.WarnLevel},
		{"warning level", "warning", zerolog.WarnLevel},
		{"error level", "error", zerolog.ErrorLevel},
		{"fatal level", "fatal", zerolog.FatalLevel},
		{"panic level", "panic", zerolog.PanicLevel},
		{"uppercase INFO", "INFO", zerolog.InfoLevel},
		{"unknown defaults to info", "unknown", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.level))
		})
	}
}

func TestInit(t *testing.T) {
	t.Run("development mode uses console writer", func(t *testing.T) {
		Init(config.LoggerConfig{Level: "debug", Environment: "development"})
		assert.Equal(t, zerolog.DebugLevel, Get().GetLevel())
	})

	t.Run("production mode uses JSON", func(t *testing.T) {
		Init(config.LoggerConfig{Level: "warn", Environment: "production"})
		assert.Equal(t, zerolog.WarnLevel, Get().GetLevel())
	})
}

func TestLoggerFunctions(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, zerolog.DebugLevel)

	t.Run("Info logs at info level", func(t *testing.T) {
		buf.Reset()
		Info().Msg("test info message")
		assert.Contains(t, buf.String(), `"level":"info"`)
		assert.Contains(t, buf.String(), "test info message")
	})

	t.Run("Warn carries error and fields", func(t *testing.T) {
		buf.Reset()
		Warn().Err(assert.AnError).Str("email", "a@b.com").Msg("email pass failed")
		output := buf.String()
		assert.Contains(t, output, `"level":"warn"`)
		assert.Contains(t, output, assert.AnError.Error())
		assert.Contains(t, output, "a@b.com")
	})

	t.Run("Error logs at error level", func(t *testing.T) {
		buf.Reset()
		Error().Msg("test error message")
		assert.Contains(t, buf.String(), `"level":"error"`)
	})
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, zerolog.InfoLevel)

	l := Component("matcher")
	l.Info().Msg("component message")

	assert.Contains(t, buf.String(), `"component":"matcher"`)
	assert.Contains(t, buf.String(), "component message")
}

func TestLogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, zerolog.WarnLevel)

	Debug().Msg("debug message")
	Info().Msg("info message")
	Warn().Msg("warn message")

	output := buf.String()
	assert.False(t, strings.Contains(output, "debug message"), "debug should be filtered")
	assert.False(t, strings.Contains(output, "info message"), "info should be filtered")
	assert.Contains(t, output, "warn message")
}
