// Package config provides configuration utilities for the application.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// defaultDatabasePath is used when config.yaml sets no database.path.
const defaultDatabasePath = "$HOME/.local/share/buildtally/tally.db"

// DatabasePath resolves the database location: the configured path if
// one is given, otherwise the default, with ~ and $VARs expanded.
func DatabasePath(configured string) string {
	if configured == "" {
		configured = defaultDatabasePath
	}
	return ExpandPath(configured)
}

// ExpandPath expands ~ and environment variables in a file path.
// It handles both ~ for home directory and $VAR style environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}
