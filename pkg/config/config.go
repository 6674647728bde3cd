package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete workspacefs configuration.
//
// This structure captures all configurable aspects of a workspace including:
//   - Logging configuration
//   - Content store selection and configuration (store-specific)
//   - Snapshot store selection and configuration (store-specific)
//   - Editor and autosave timing
//   - Metrics exposure
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (WORKSPACEFS_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
//
// Store Configuration Pattern:
// Each store implementation defines its own configuration type. The Config
// struct contains type-specific sections (e.g., content.filesystem,
// content.s3) and only the section matching the selected type is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Content specifies the content store type and type-specific configuration
	Content ContentConfig `mapstructure:"content" yaml:"content"`

	// Snapshot specifies where the filesystem state is persisted
	Snapshot SnapshotConfig `mapstructure:"snapshot" yaml:"snapshot"`

	// Editor controls draft handling
	Editor EditorConfig `mapstructure:"editor" yaml:"editor"`

	// Autosave controls background snapshot writes
	Autosave AutosaveConfig `mapstructure:"autosave" yaml:"autosave"`

	// Metrics controls the Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Workspace controls first-start behavior
	Workspace WorkspaceConfig `mapstructure:"workspace" yaml:"workspace"`

	// GC controls background removal of orphaned content
	GC GCConfig `mapstructure:"gc" yaml:"gc"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// ContentConfig specifies content store configuration.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used.
type ContentConfig struct {
	// Type specifies which content store implementation to use
	// Valid values: memory, badger, filesystem, s3, postgres
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory badger filesystem s3 postgres"`

	// Memory contains memory-specific configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory" yaml:"memory"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger" yaml:"badger"`

	// Filesystem contains filesystem-specific configuration
	// Only used when Type = "filesystem"
	Filesystem map[string]any `mapstructure:"filesystem" yaml:"filesystem"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3" yaml:"s3"`

	// Postgres contains PostgreSQL-specific configuration
	// Only used when Type = "postgres"
	Postgres map[string]any `mapstructure:"postgres" yaml:"postgres"`
}

// SnapshotConfig specifies snapshot store configuration.
type SnapshotConfig struct {
	// Type specifies which snapshot store implementation to use
	// Valid values: memory, badger, file, postgres
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory badger file postgres"`

	// Name is the key the filesystem state is saved under
	Name string `mapstructure:"name" yaml:"name" validate:"required,snapshotname"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger". A db_path equal to the content
	// store's shares one database.
	Badger map[string]any `mapstructure:"badger" yaml:"badger"`

	// File contains file-specific configuration
	// Only used when Type = "file"
	File map[string]any `mapstructure:"file" yaml:"file"`

	// Postgres contains PostgreSQL-specific configuration
	// Only used when Type = "postgres". A dsn and namespace equal to the
	// content store's share one connection pool.
	Postgres map[string]any `mapstructure:"postgres" yaml:"postgres"`
}

// EditorConfig controls draft handling.
type EditorConfig struct {
	// Debounce is how long edits settle before the draft is updated
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce" validate:"gte=0"`
}

// AutosaveConfig controls background snapshot writes.
type AutosaveConfig struct {
	// Enabled turns on saving after every filesystem change
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Interval is the minimum spacing between saves once Burst is spent
	Interval time.Duration `mapstructure:"interval" yaml:"interval" validate:"gte=0"`

	// Burst is how many saves may happen back to back
	Burst int `mapstructure:"burst" yaml:"burst" validate:"gte=0"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled registers collectors and serves /metrics
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for /metrics
	Port int `mapstructure:"port" yaml:"port" validate:"omitempty,min=1,max=65535"`
}

// WorkspaceConfig controls first-start behavior.
type WorkspaceConfig struct {
	// SkipWelcome disables creating and opening the welcome file in the
	// default workspace the first time the filesystem is loaded.
	SkipWelcome bool `mapstructure:"skip_welcome" yaml:"skip_welcome"`
}

// GCConfig controls the orphaned content collector.
type GCConfig struct {
	// Enabled runs the collector in the background of long-running commands
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Interval is how often the background collector runs
	Interval time.Duration `mapstructure:"interval" yaml:"interval" validate:"gte=0"`

	// DryRun logs orphans without deleting them
	DryRun bool `mapstructure:"dry_run" yaml:"dry_run"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (WORKSPACEFS_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Example: WORKSPACEFS_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("WORKSPACEFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only affects keys viper already knows about.
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/workspacefs/config.yaml
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// envKeys are the scalar settings overridable from the environment.
var envKeys = []string{
	"logging.level",
	"logging.format",
	"logging.output",
	"content.type",
	"content.postgres.dsn",
	"snapshot.type",
	"snapshot.postgres.dsn",
	"snapshot.name",
	"editor.debounce",
	"autosave.enabled",
	"autosave.interval",
	"autosave.burst",
	"metrics.enabled",
	"metrics.port",
	"workspace.skip_welcome",
	"gc.enabled",
	"gc.interval",
	"gc.dry_run",
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is acceptable - use defaults
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "workspacefs")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "workspacefs")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
