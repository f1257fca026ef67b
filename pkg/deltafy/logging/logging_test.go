package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "debug", want: LevelDebug},
		{in: "INFO", want: LevelInfo},
		{in: "", want: LevelInfo},
		{in: "warning", want: LevelWarn},
		{in: "warn", want: LevelWarn},
		{in: "error", want: LevelError},
		{in: "loud", want: LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLevel)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "debug", LevelDebug.String())
	assert.Equal(t, "warn", LevelWarn.String())
	assert.Equal(t, "unknown", Level(42).String())
}

func TestGet_SilentBeforeInit(t *testing.T) {
	t.Cleanup(func() { _ = Close() })

	logger := Get("silent")
	require.NotNil(t, logger)
	assert.NotPanics(t, func() { logger.Info("nobody hears this", "k", "v") })
	assert.Same(t, logger, Get("silent"))
}

func TestInit_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "deltafy.log")
	t.Cleanup(func() { _ = Close() })

	early := Get("scanner")
	require.NoError(t, Init(Config{
		Level:      "info",
		Path:       path,
		Components: map[string]string{"store": "error"},
	}))

	early.Info("scan finished", "deltas", 3)
	early.Debug("below threshold")
	Get("store").Warn("suppressed by component level")
	Get("store").Error("store failed")
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "scan finished")
	assert.Contains(t, content, "deltas=3")
	assert.Contains(t, content, "scanner")
	assert.NotContains(t, content, "below threshold")
	assert.NotContains(t, content, "suppressed by component level")
	assert.Contains(t, content, "store failed")
}

func TestInit_Console(t *testing.T) {
	var buf bytes.Buffer
	global.mu.Lock()
	global.consoleOut = &buf
	global.mu.Unlock()
	t.Cleanup(func() {
		_ = Close()
		global.mu.Lock()
		global.consoleOut = os.Stderr
		global.mu.Unlock()
	})

	require.NoError(t, Init(Config{
		Path:         filepath.Join(t.TempDir(), "deltafy.log"),
		ConsoleLevel: "debug",
	}))
	Get("poller").With("root", "/data").Debug("tick")

	assert.Contains(t, buf.String(), "tick")
	assert.Contains(t, buf.String(), "root=/data")
}

func TestInit_InvalidLevels(t *testing.T) {
	dir := t.TempDir()
	assert.ErrorIs(t, Init(Config{Level: "nope", Path: filepath.Join(dir, "a.log")}), ErrInvalidLevel)
	assert.ErrorIs(t, Init(Config{ConsoleLevel: "nope", Path: filepath.Join(dir, "a.log")}), ErrInvalidLevel)
	assert.ErrorIs(t, Init(Config{Components: map[string]string{"x": "nope"}, Path: filepath.Join(dir, "a.log")}), ErrInvalidLevel)
}

func TestDefaultLogPath(t *testing.T) {
	path := DefaultLogPath()
	assert.True(t, strings.HasSuffix(path, filepath.Join("deltafy", "deltafy.log")))
}
