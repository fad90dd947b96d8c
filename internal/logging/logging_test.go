package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "receiver", zerolog.InfoLevel)

	log.Debug().Msg("hidden")
	log.Info().Str("addr", "ws://x").Msg("connected")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"app":"receiver"`)
	assert.Contains(t, out, `"message":"connected"`)
}

func TestNewFile(t *testing.T) {
	dir := t.TempDir() + "/logs"
	log, closer, err := NewFile(dir, "sender", zerolog.DebugLevel)
	require.NoError(t, err)

	log.Info().Msg("hello")
	require.NoError(t, closer.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".log"))

	data, err := os.ReadFile(dir + "/" + entries[0].Name())
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want zerolog.Level
		ok   bool
	}{
		{"debug", zerolog.DebugLevel, true},
		{" WARN ", zerolog.WarnLevel, true},
		{"off", zerolog.Disabled, true},
		{"", zerolog.InfoLevel, false},
		{"loud", zerolog.InfoLevel, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
	}
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	assert.Equal(t, zerolog.ErrorLevel, LevelFromEnv(zerolog.InfoLevel))

	t.Setenv(EnvLogLevel, "")
	assert.Equal(t, zerolog.DebugLevel, LevelFromEnv(zerolog.DebugLevel))
}
