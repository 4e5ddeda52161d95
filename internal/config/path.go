// Package config loads cardcarry settings from viper and the environment.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// AppName names the config and data directories.
const AppName = "cardcarry"

// ExpandPath expands a leading ~ and $VAR references in a path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	switch {
	case path == "~":
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	case strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}

// ConfigDir is where config.yaml is searched for.
func ConfigDir() string {
	return ExpandPath(filepath.Join("~", ".config", AppName))
}

// DataDir holds the knowledge store and saved source credentials.
func DataDir() string {
	return ExpandPath(filepath.Join("~", ".local", "share", AppName))
}

// DefaultDatabasePath is the SQLite knowledge store location when none is configured.
func DefaultDatabasePath() string {
	return filepath.Join(DataDir(), AppName+".db")
}

// SimpleFINStatePath is where a claimed SimpleFIN access URL is saved.
func SimpleFINStatePath() string {
	return filepath.Join(DataDir(), "simplefin_auth.json")
}
