package config

import (
	"os"
	"path/filepath"
)

const appName = "openapi-diagram"

// UserConfigPath returns the path to the user-level config file:
// - Linux: ~/.config/openapi-diagram/config.yml
// - macOS: ~/Library/Application Support/openapi-diagram/config.yml
// - Windows: %APPDATA%\openapi-diagram\config.yml
//
// If XDG_CONFIG_HOME is set, it will be respected on Linux.
func UserConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName, "config.yml"), nil
}

// ProjectConfigPath returns the path to the project-level config file.
// This is always .openapi-diagram.yml relative to the current directory.
func ProjectConfigPath() string {
	return ".openapi-diagram.yml"
}

// DefaultCacheDir returns the per-user cache directory for renderer jars,
// falling back to the system temp directory.
func DefaultCacheDir() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	return filepath.Join(cacheDir, appName)
}
