package config

import (
	"os"
	"path/filepath"

	"vid2txt/internal/domain"
)

// DefaultSettings returns baseline configuration for first run. An empty
// output directory means the current working directory.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		Language: "auto",
	}
}

// DefaultPath returns the settings file location under the platform
// config directory.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "vid2txt", "settings.json"), nil
}
