package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/wtldr/internal/model"
)

func TestFileName(t *testing.T) {
	ts := time.Date(2024, time.May, 14, 10, 26, 3, 0, time.UTC)
	assert.Equal(t, "wtldr_log_2024-05-14_10-26-03.log", FileName(ts))
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(model.LoggingConfig{Level: "WARN"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	logger, _, err := New(model.LoggingConfig{Level: "chatty"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())

	logger, _, err = New(model.LoggingConfig{}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestNew_File(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	logger, closer, err := New(model.LoggingConfig{Level: "debug", Dir: dir}, nil)
	require.NoError(t, err)

	logger.Debug().Str("k", "v").Msg("to file")
	require.NoError(t, closer.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^wtldr_log_\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}\.log$`, entries[0].Name())

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"to file"`)
	assert.Contains(t, string(data), `"service":"wtldr"`)
}
