package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"", zerolog.WarnLevel},
		{"verbose", zerolog.WarnLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestJSONLoggerWritesComponent(t *testing.T) {
	var buf bytes.Buffer
	Init(&buf, "debug", true)
	t.Cleanup(func() { Init(&bytes.Buffer{}, "warn", false) })

	l := WithComponent("sender")
	l.Debug().Uint64("nonce_key", 3).Msg("allocated")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "sender", line["component"])
	assert.Equal(t, "allocated", line["message"])
	assert.EqualValues(t, 3, line["nonce_key"])
}

func TestLevelFiltersBelowThreshold(t *testing.T) {
	var buf bytes.Buffer
	Init(&buf, "error", true)
	t.Cleanup(func() { Init(&bytes.Buffer{}, "warn", false) })

	Logger.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	Logger.Error().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}
