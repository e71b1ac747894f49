// Package config loads the tool's settings and the reviewer's tuning file.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Default locations, before ExpandPath.
const (
	DefaultConfigDir    = "~/.config/hfh"
	DefaultDatabasePath = "~/.local/share/hfh/hfh.db"
	DefaultTuningPath   = DefaultConfigDir + "/tuning.yaml"
)

// ExpandPath expands a leading ~ and $VAR references in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}

	return os.ExpandEnv(path)
}
