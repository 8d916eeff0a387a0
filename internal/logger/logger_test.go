package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel(" error "))
	assert.Equal(t, LevelInfo, ParseLevel(""))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestGetLogLevelFromEnv(t *testing.T) {
	t.Setenv("DEBUG", "")
	assert.Equal(t, LevelInfo, GetLogLevelFromEnv(false))
	assert.Equal(t, LevelDebug, GetLogLevelFromEnv(true))

	t.Setenv("DEBUG", "1")
	assert.Equal(t, LevelDebug, GetLogLevelFromEnv(false))

	t.Setenv("DEBUG", "false")
	assert.Equal(t, LevelInfo, GetLogLevelFromEnv(true))
}

func TestConfigureWriterFiltersAndTags(t *testing.T) {
	prevLogger, prevLevel := Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	ConfigureWriter(LevelWarn, false, &buf)

	Infof("hidden %d", 1)
	assert.Empty(t, buf.String())

	l := WithSession("abc")
	l.Warn().Msg("visible")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "abc", line["session"])
	assert.Equal(t, "visible", line["message"])
}
