package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"":           zapcore.InfoLevel,
		LevelTerse:   zapcore.InfoLevel,
		LevelVerbose: zapcore.DebugLevel,
		LevelQuiet:   zapcore.WarnLevel,
	}
	for name, want := range cases {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("chatty")
	require.Error(t, err)
}

func TestNewWritesToWriterAtLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(LevelTerse, &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown")
	require.NoError(t, logger.Sync())

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	_, err := New("loud", nil)
	require.EqualError(t, err, `unknown log level "loud"`)
}
