package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", "json")

	log.Info().Str("subject", "mat").Msg("grade recorded")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "mat", line["subject"])
	assert.Equal(t, "grade recorded", line["message"])
	assert.Contains(t, line, "time")
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn", "json")

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestNew_UnknownLevelFallsBack(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "loud", "json")
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())

	log = New(&buf, "", "json")
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestNew_Pretty(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug", "pretty")
	log.Info().Msg("ready")

	out := buf.String()
	assert.Contains(t, out, "ready")
	assert.False(t, strings.HasPrefix(out, "{"), "pretty output should not be JSON: %q", out)
}
