package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDirName  = ".config"
	userConfigAppName  = "autodev"
	userConfigFileName = "config.yaml"
)

// ErrNotFound indicates the settings file does not exist.
var ErrNotFound = errors.New("configuration file not found")

// DefaultPath resolves the user settings file path.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}
	return filepath.Join(homeDir, userConfigDirName, userConfigAppName, userConfigFileName), nil
}

// Load reads and decodes the settings file, applying defaults.
// An empty path resolves to the default user location.
func Load(path string, warn func(string)) (Config, error) {
	if strings.TrimSpace(path) == "" {
		resolved, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = resolved
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("%w at %s", ErrNotFound, path)
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return ApplyDefaults(cfg, warn), nil
}
