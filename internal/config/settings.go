package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Settings represents the structure of ~/.mgit/settings.json
type Settings struct {
	Debug       *bool `json:"debug,omitempty"`
	MaxLogFiles *int  `json:"max_log_files,omitempty"`
	StaleDays   *int  `json:"stale_days,omitempty"`
	Workers     *int  `json:"workers,omitempty"`
}

// LoadSettings loads settings from $MGIT_HOME/settings.json (or ~/.mgit/settings.json if not set)
// Returns empty Settings if file doesn't exist (not an error)
func LoadSettings() (*Settings, error) {
	path := GetSettingsPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Settings{}, nil // Not an error, use defaults
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("invalid settings.json: %w", err)
	}

	if settings.Workers != nil && *settings.Workers < 0 {
		return nil, fmt.Errorf("invalid settings.json: workers must not be negative")
	}
	if settings.StaleDays != nil && *settings.StaleDays < 0 {
		return nil, fmt.Errorf("invalid settings.json: stale_days must not be negative")
	}

	return &settings, nil
}

// SaveSettings saves settings to $MGIT_HOME/settings.json
func SaveSettings(settings *Settings) error {
	path := GetSettingsPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}
