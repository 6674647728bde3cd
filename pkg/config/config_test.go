package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: "debug"

content:
  type: "memory"

snapshot:
  type: "memory"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, "memory", cfg.Content.Type)
	assert.Equal(t, "file-system-storage", cfg.Snapshot.Name)
	assert.Equal(t, 100*time.Millisecond, cfg.Editor.Debounce)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.Equal(t, 1, cfg.Autosave.Burst)
}

func TestLoad_ExplicitValues(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
logging:
  level: WARN
  format: json
  output: stderr
content:
  type: filesystem
  filesystem:
    path: `+filepath.Join(dir, "content")+`
snapshot:
  type: file
  name: project
  file:
    dir: `+filepath.Join(dir, "snap")+`
    backup_count: 2
editor:
  debounce: 250ms
autosave:
  enabled: true
  interval: 5s
  burst: 3
metrics:
  enabled: true
  port: 9191
workspace:
  skip_welcome: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "WARN", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.Equal(t, filepath.Join(dir, "content"), cfg.Content.Filesystem["path"])
	assert.Equal(t, "project", cfg.Snapshot.Name)
	assert.Equal(t, 250*time.Millisecond, cfg.Editor.Debounce)
	assert.True(t, cfg.Autosave.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Autosave.Interval)
	assert.Equal(t, 3, cfg.Autosave.Burst)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9191, cfg.Metrics.Port)
	assert.True(t, cfg.Workspace.SkipWelcome)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: INFO
content:
  type: memory
snapshot:
  type: memory
`)
	t.Setenv("WORKSPACEFS_LOGGING_LEVEL", "error")
	t.Setenv("WORKSPACEFS_METRICS_PORT", "9300")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ERROR", cfg.Logging.Level)
	assert.Equal(t, 9300, cfg.Metrics.Port)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "badger", cfg.Content.Type)
	assert.Equal(t, "badger", cfg.Snapshot.Type)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := writeConfig(t, "logging: [unclosed")

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	path := writeConfig(t, `
content:
  type: floppy
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Type")
}

func TestGetConfigDir(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	assert.Equal(t, filepath.Join(xdg, "workspacefs"), GetConfigDir())
	assert.Equal(t, filepath.Join(xdg, "workspacefs", "config.yaml"), GetDefaultConfigPath())
	assert.False(t, ConfigExists())
}
