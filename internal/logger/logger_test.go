package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"codeberg.org/mutker/sleepctl/internal/errors"
	"codeberg.org/mutker/sleepctl/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in    string
		want  logger.LogLevel
		valid bool
	}{
		{"debug", logger.DebugLevel, true},
		{"info", logger.InfoLevel, true},
		{"warning", logger.WarnLevel, true},
		{"warn", logger.WarnLevel, true},
		{"error", logger.ErrorLevel, true},
		{"loud", logger.InfoLevel, false},
	}

	for _, tt := range tests {
		got, ok := logger.ParseLevel(tt.in)
		assert.Equal(t, tt.valid, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestErrorWithCode(t *testing.T) {
	logger.SetLogLevel(logger.DebugLevel)

	var buf bytes.Buffer
	log := logger.New(&buf)

	log.ErrorWithCode(errors.New().New(errors.ErrSleepEntry)).Msg("sleep failed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "sleep_entry_failed", entry["error_code"])
	assert.Equal(t, "Failed to enter light sleep", entry["error"])
	assert.Equal(t, "sleep failed", entry["message"])
}

func TestLevelFiltering(t *testing.T) {
	logger.SetLogLevel(logger.WarnLevel)
	defer logger.SetLogLevel(logger.DebugLevel)

	var buf bytes.Buffer
	log := logger.New(&buf)

	log.Debug().Msg("hidden")
	log.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	log.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}
