package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTextLogger(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Service: "test", Output: &buf})
	log.Info("hello", "key", "value")

	out := buf.String()
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "service=test")
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{JSON: true, Service: "test", Output: &buf})
	log.Info("hello")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "test", rec["service"])
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelWarn, Output: &buf})
	log.Info("dropped")
	log.Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestLogDirWritesFile(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	log := New(Config{Service: "test", LogDir: dir, Output: &buf})
	log.Info("to file")

	matches, err := filepath.Glob(filepath.Join(dir, "test_*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
}
