package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		name     string
		expected slog.Level
		hasError bool
	}{
		{name: "debug", expected: slog.LevelDebug},
		{name: "", expected: slog.LevelInfo},
		{name: "WARN", expected: slog.LevelWarn},
		{name: "error", expected: slog.LevelError},
		{name: "loud", expected: slog.LevelInfo, hasError: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			level, err := ParseLevel(testCase.name)
			if testCase.hasError {
				assert.ErrorIs(t, err, ErrUnknownLevel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, level)
		})
	}
}

func TestNew(t *testing.T) {
	buffer := &bytes.Buffer{}
	log, err := New(Config{Level: "debug", Format: "json"}, buffer)
	require.NoError(t, err)
	Phase(log, "prune", "reachable", 3)
	assert.Contains(t, buffer.String(), `"phase":"prune"`)
	assert.Contains(t, buffer.String(), `"reachable":3`)

	buffer.Reset()
	log, err = New(DefaultConfig(), buffer)
	require.NoError(t, err)
	Phase(log, "prune")
	assert.Empty(t, buffer.String())

	_, err = New(Config{Format: "xml"}, buffer)
	assert.Error(t, err)
}
