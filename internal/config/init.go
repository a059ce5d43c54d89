package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configHeader = `# unifiedfs configuration file
#
# provider.top_dirs entries have the form "path;displayName[;options]".
# Paths are relative to provider.base_dir and may start with "..".
# The only option is "nosubdirs", which hides subdirectories.
#
# Every key can be overridden from the environment, e.g.
# UNIFIEDFS_SERVER_LISTEN=0.0.0.0:8750
`

// InitConfig writes the default configuration to path, or to the default
// location when path is empty, and returns the path written. An existing
// file is only replaced when force is set.
func InitConfig(path string, force bool) (string, error) {
	if path == "" {
		path = GetDefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	data, err := Marshal(Default())
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return path, nil
}

// Marshal renders cfg as commented YAML.
func Marshal(cfg *Config) ([]byte, error) {
	body, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return append([]byte(configHeader+"\n"), body...), nil
}
