package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Preferences is the small per-user state kept between sessions.
type Preferences struct {
	HelpShown bool `yaml:"help_shown"`
}

// DefaultPreferencesPath returns orrery/preferences.yaml under the user
// config directory.
func DefaultPreferencesPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "orrery", "preferences.yaml"), nil
}

// LoadPreferences reads path. A missing file yields zero preferences.
func LoadPreferences(path string) (Preferences, error) {
	var p Preferences
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, err
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Preferences{}, err
	}
	return p, nil
}

func SavePreferences(path string, p Preferences) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
