// Package config provides configuration management for the ostruct CLI.
package config

import (
	"os"
	"path/filepath"
)

// CacheDir returns the ostruct cache directory.
// Uses XDG_CACHE_HOME/ostruct, defaulting to ~/.cache/ostruct.
func CacheDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "ostruct"), nil
}

// Dir returns the ostruct config directory.
// Uses XDG_CONFIG_HOME/ostruct, defaulting to ~/.config/ostruct.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "ostruct"), nil
}
