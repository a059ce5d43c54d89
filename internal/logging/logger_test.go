package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
		ok       bool
	}{
		{"ERROR", LevelError, true},
		{"warn", LevelWarn, true},
		{"Info", LevelInfo, true},
		{"debug", LevelDebug, true},
		{"TRACE", LevelTrace, true},
		{"verbose", LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, ok := ParseLevel(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestLevelGating(t *testing.T) {
	logger := GetLogger().WithPrefix("test")
	defer SetLevel(LevelInfo)

	SetLevel(LevelWarn)
	assert.True(t, logger.Enabled(LevelError))
	assert.True(t, logger.Enabled(LevelWarn))
	assert.False(t, logger.Enabled(LevelInfo))
	assert.False(t, logger.Enabled(LevelTrace))

	SetLevel(LevelDebug)
	assert.True(t, logger.Enabled(LevelDebug))
	assert.False(t, logger.Enabled(LevelTrace))

	SetLevel(LevelTrace)
	assert.True(t, logger.Enabled(LevelTrace))
}

func TestInitWritesToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "unifiedfs.log")
	require.NoError(t, Init(Config{Level: "info", Format: "json", Output: out}))
	defer func() {
		require.NoError(t, Init(Config{Level: "info", Output: "stderr"}))
	}()

	GetLogger().WithPrefix("registry").Info("Added top directory: %s", "/data/files/Folder1")
	require.NoError(t, Sync())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Added top directory: /data/files/Folder1")
	assert.Contains(t, string(data), `"logger":"registry"`)
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	err := Init(Config{Level: "loud", Output: "stderr"})
	assert.Error(t, err)
}
