package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("chatty"))
}

func TestFile_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "apps.log")
	logger, closer, err := File(path, "debug")
	require.NoError(t, err)

	logger.Debug().Str("command", "list-stores").Msg("backend call")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"command":"list-stores"`)
	assert.Contains(t, string(data), `"level":"debug"`)
}

func TestFile_EmptyPathDisablesLogging(t *testing.T) {
	logger, closer, err := File("", "info")
	require.NoError(t, err)
	logger.Error().Msg("dropped")
	assert.NoError(t, closer.Close())
}

func TestConsole_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := Console(&buf, "warn")
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
