package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/auditforge/workspacefs/pkg/editor"
	"github.com/auditforge/workspacefs/pkg/filesystem"
	"github.com/auditforge/workspacefs/pkg/store/postgres"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", nil) are replaced with defaults
//   - Explicit values are preserved
//   - Store-specific defaults are handled by store implementations
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyContentDefaults(&cfg.Content)
	applySnapshotDefaults(&cfg.Snapshot)
	applyEditorDefaults(&cfg.Editor)
	applyAutosaveDefaults(&cfg.Autosave)
	applyMetricsDefaults(&cfg.Metrics)
	applyGCDefaults(&cfg.GC)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// dataDir is the default root for on-disk stores.
func dataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "workspacefs")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "workspacefs")
	}
	return filepath.Join(home, ".local", "share", "workspacefs")
}

// applyContentDefaults sets content store defaults.
func applyContentDefaults(cfg *ContentConfig) {
	if cfg.Type == "" {
		cfg.Type = "badger"
	}

	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if cfg.Filesystem == nil {
		cfg.Filesystem = make(map[string]any)
	}
	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}
	if cfg.Postgres == nil {
		cfg.Postgres = make(map[string]any)
	}

	// Defaults for every store type so generated files document them.
	if _, ok := cfg.Badger["db_path"]; !ok {
		cfg.Badger["db_path"] = filepath.Join(dataDir(), "db")
	}
	if _, ok := cfg.Filesystem["path"]; !ok {
		cfg.Filesystem["path"] = filepath.Join(dataDir(), "content")
	}
	if _, ok := cfg.S3["region"]; !ok {
		cfg.S3["region"] = "us-east-1"
	}
	if _, ok := cfg.S3["key_prefix"]; !ok {
		cfg.S3["key_prefix"] = "workspacefs/content/"
	}
	applyPostgresDefaults(cfg.Postgres)
}

// applyPostgresDefaults fills a postgres section. The dsn has no default.
func applyPostgresDefaults(section map[string]any) {
	if _, ok := section["namespace"]; !ok {
		section["namespace"] = postgres.DefaultNamespace
	}
}

// applySnapshotDefaults sets snapshot store defaults.
func applySnapshotDefaults(cfg *SnapshotConfig) {
	if cfg.Type == "" {
		cfg.Type = "badger"
	}
	if cfg.Name == "" {
		cfg.Name = filesystem.DefaultSnapshotName
	}

	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if cfg.File == nil {
		cfg.File = make(map[string]any)
	}
	if cfg.Postgres == nil {
		cfg.Postgres = make(map[string]any)
	}

	if _, ok := cfg.Badger["db_path"]; !ok {
		cfg.Badger["db_path"] = filepath.Join(dataDir(), "db")
	}
	if _, ok := cfg.File["dir"]; !ok {
		cfg.File["dir"] = filepath.Join(dataDir(), "snapshots")
	}
	applyPostgresDefaults(cfg.Postgres)
}

// applyEditorDefaults sets editor defaults.
func applyEditorDefaults(cfg *EditorConfig) {
	if cfg.Debounce == 0 {
		cfg.Debounce = editor.DefaultDebounce
	}
}

// applyAutosaveDefaults sets autosave defaults.
func applyAutosaveDefaults(cfg *AutosaveConfig) {
	// Enabled defaults to false; the CLI persists explicitly after each command.
	if cfg.Interval == 0 {
		cfg.Interval = time.Second
	}
	if cfg.Burst == 0 {
		cfg.Burst = 1
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// applyGCDefaults sets garbage collector defaults.
func applyGCDefaults(cfg *GCConfig) {
	if cfg.Interval == 0 {
		cfg.Interval = time.Hour
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{}

	ApplyDefaults(cfg)
	return cfg
}
