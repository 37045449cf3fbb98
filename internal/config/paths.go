package config

import (
	"os"
	"path/filepath"
)

// GetMgitHome returns MGIT_HOME or ~/.mgit default
func GetMgitHome() string {
	mgitHome := os.Getenv("MGIT_HOME")
	if mgitHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ".mgit"
		}
		return filepath.Join(homeDir, ".mgit")
	}
	return ExpandPath(mgitHome)
}

// GetSettingsPath returns $MGIT_HOME/settings.json
func GetSettingsPath() string {
	return filepath.Join(GetMgitHome(), "settings.json")
}

// ExpandPath expands ~ to home directory
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			if len(path) == 1 {
				return homeDir
			}
			return filepath.Join(homeDir, path[1:])
		}
	}
	return path
}
