package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configHeader = `# workspacefs Configuration File
#
# Values shown are the defaults. Environment variables override this file
# using the WORKSPACEFS_ prefix, e.g. WORKSPACEFS_LOGGING_LEVEL=DEBUG.
#
# content.type selects one of: memory, badger, filesystem, s3, postgres
# snapshot.type selects one of: memory, badger, file, postgres
# Only the section matching the selected type is read.
# Durations use Go syntax: 100ms, 5s, 1h.

`

// InitConfig writes a default configuration file to the default location.
//
// Returns the path written. An existing file is left alone unless force is
// set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a default configuration file to path, creating
// parent directories as needed.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use force to overwrite)", path)
		}
	}

	data, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// generateYAMLWithComments renders cfg as YAML under the explanatory header.
func generateYAMLWithComments(cfg *Config) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(configHeader)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	return buf.String(), nil
}
