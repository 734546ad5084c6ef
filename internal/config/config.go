// Package config loads engine and CLI settings from an optional YAML file at
// the project root. Missing files yield defaults; a present but malformed
// file is an error.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SettingsFileName is looked up relative to the project root.
const SettingsFileName = "planwright.yaml"

// Settings tunes the engine.
type Settings struct {
	// HistoryLimit caps the state document's history log.
	HistoryLimit int `yaml:"history_limit"`
	// LogLevel selects the slog level: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Defaults returns the settings used when no file exists.
func Defaults() Settings {
	return Settings{
		HistoryLimit: 500,
		LogLevel:     "info",
	}
}

// Load reads settings from projectRoot, applying defaults for absent fields.
func Load(projectRoot string) (Settings, error) {
	s := Defaults()

	path := filepath.Join(projectRoot, SettingsFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return Settings{}, fmt.Errorf("read settings %s: %w", path, err)
	}

	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings %s: %w", path, err)
	}

	if s.HistoryLimit <= 0 {
		s.HistoryLimit = Defaults().HistoryLimit
	}
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	case "":
		s.LogLevel = Defaults().LogLevel
	default:
		return Settings{}, fmt.Errorf("parse settings %s: unknown log_level %q", path, s.LogLevel)
	}

	return s, nil
}
