package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(cfg *Config) {},
		},
		{
			name:    "bad log level",
			mutate:  func(cfg *Config) { cfg.Logging.Level = "TRACE" },
			wantErr: "Level",
		},
		{
			name:    "bad log format",
			mutate:  func(cfg *Config) { cfg.Logging.Format = "xml" },
			wantErr: "Format",
		},
		{
			name:    "unknown content type",
			mutate:  func(cfg *Config) { cfg.Content.Type = "tape" },
			wantErr: "Type",
		},
		{
			name:    "unknown snapshot type",
			mutate:  func(cfg *Config) { cfg.Snapshot.Type = "s3" },
			wantErr: "Type",
		},
		{
			name:    "snapshot name with separator",
			mutate:  func(cfg *Config) { cfg.Snapshot.Name = "a/b" },
			wantErr: "snapshot.name",
		},
		{
			name:    "negative debounce",
			mutate:  func(cfg *Config) { cfg.Editor.Debounce = -1 },
			wantErr: "Debounce",
		},
		{
			name:    "port out of range",
			mutate:  func(cfg *Config) { cfg.Metrics.Port = 70000 },
			wantErr: "Port",
		},
		{
			name:    "s3 without bucket",
			mutate:  func(cfg *Config) { cfg.Content.Type = "s3" },
			wantErr: "content.s3.bucket",
		},
		{
			name:    "postgres content without dsn",
			mutate:  func(cfg *Config) { cfg.Content.Type = "postgres" },
			wantErr: "content.postgres.dsn",
		},
		{
			name:    "postgres snapshot without dsn",
			mutate:  func(cfg *Config) { cfg.Snapshot.Type = "postgres" },
			wantErr: "snapshot.postgres.dsn",
		},
		{
			name: "postgres with dsn",
			mutate: func(cfg *Config) {
				cfg.Content.Type = "postgres"
				cfg.Content.Postgres["dsn"] = "postgres://localhost/workspaces"
			},
		},
		{
			name: "s3 with bucket",
			mutate: func(cfg *Config) {
				cfg.Content.Type = "s3"
				cfg.Content.S3["bucket"] = "workspaces"
			},
		},
		{
			name: "autosave to memory",
			mutate: func(cfg *Config) {
				cfg.Snapshot.Type = "memory"
				cfg.Autosave.Enabled = true
			},
			wantErr: "autosave",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "warn"},
		Content: ContentConfig{
			Type:   "badger",
			Badger: map[string]any{"db_path": "/srv/ws"},
		},
		Snapshot: SnapshotConfig{Name: "mine"},
		Metrics:  MetricsConfig{Port: 9999},
	}

	ApplyDefaults(cfg)

	assert.Equal(t, "WARN", cfg.Logging.Level)
	assert.Equal(t, "/srv/ws", cfg.Content.Badger["db_path"])
	assert.Equal(t, "mine", cfg.Snapshot.Name)
	assert.Equal(t, 9999, cfg.Metrics.Port)
	assert.NotEmpty(t, cfg.Content.Filesystem["path"])
	assert.NotEmpty(t, cfg.Snapshot.File["dir"])
}

func TestValidate_ReportsEveryField(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "xml"
	cfg.Metrics.Port = 70000

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Format")
	assert.Contains(t, err.Error(), "Port")
}
