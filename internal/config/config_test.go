package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, SettingsFileName), []byte(content), 0o644))
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	s, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
}

func TestLoadFullFile(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "history_limit: 100\nlog_level: debug\n")

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 100, s.HistoryLimit)
	assert.Equal(t, "debug", s.LogLevel)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "log_level: warn\n")

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Defaults().HistoryLimit, s.HistoryLimit)
	assert.Equal(t, "warn", s.LogLevel)
}

func TestLoadRejectsUnknownLogLevel(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "log_level: verbose\n")

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown log_level")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "history_limit: [oops\n")

	_, err := Load(dir)
	require.Error(t, err)
}

func TestLoadNonPositiveHistoryLimit(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "history_limit: -3\n")

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Defaults().HistoryLimit, s.HistoryLimit)
}
