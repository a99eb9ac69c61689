package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"focusflow/internal/ui/preferences"
	"focusflow/internal/window"

	"gopkg.in/yaml.v3"
)

type yamlSettings struct {
	DefaultCountdownMinutes int     `yaml:"default_countdown_minutes"`
	OverlayMode             string  `yaml:"overlay_mode"`
	OverlayOpacity          float64 `yaml:"overlay_opacity"`
	ShowOverlayOnStart      bool    `yaml:"show_overlay_on_start"`
	MinimizeOnStart         *bool   `yaml:"minimize_on_start"`
	IdlePauseEnabled        bool    `yaml:"idle_pause_enabled"`
	IdlePauseAfterMinutes   int     `yaml:"idle_pause_after_minutes"`
	CheckUpdates            *bool   `yaml:"check_updates"`
	UpdateFeed              string  `yaml:"update_feed"`
	LogLevel                string  `yaml:"log_level"`
	HistoryKeep             int     `yaml:"history_keep"`
}

// LoadSettings reads user preferences from YAML.
// If the settings file does not exist, default settings are returned.
func LoadSettings(path string) (preferences.Settings, error) {
	settings := preferences.DefaultSettings()

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

// SaveSettings writes user preferences to YAML.
func SaveSettings(path string, settings preferences.Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	minimize := settings.MinimizeOnStart
	checkUpdates := settings.CheckUpdates
	fileData := yamlSettings{
		DefaultCountdownMinutes: int(settings.DefaultCountdown / time.Minute),
		OverlayMode:             string(settings.OverlayMode),
		OverlayOpacity:          settings.OverlayOpacity,
		ShowOverlayOnStart:      settings.ShowOverlayOnStart,
		MinimizeOnStart:         &minimize,
		IdlePauseEnabled:        settings.IdlePauseEnabled,
		IdlePauseAfterMinutes:   int(settings.IdlePauseAfter / time.Minute),
		CheckUpdates:            &checkUpdates,
		UpdateFeed:              settings.UpdateFeed,
		LogLevel:                settings.LogLevel,
		HistoryKeep:             settings.HistoryKeep,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(path, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

func applyYamlSettings(settings *preferences.Settings, fileData yamlSettings) {
	if fileData.DefaultCountdownMinutes > 0 && fileData.DefaultCountdownMinutes <= 24*60 {
		settings.DefaultCountdown = time.Duration(fileData.DefaultCountdownMinutes) * time.Minute
	}
	if mode := window.Mode(fileData.OverlayMode); mode.Valid() {
		settings.OverlayMode = mode
	}
	if fileData.OverlayOpacity >= 0.5 && fileData.OverlayOpacity <= 1 {
		settings.OverlayOpacity = fileData.OverlayOpacity
	}
	if fileData.IdlePauseAfterMinutes > 0 {
		settings.IdlePauseAfter = time.Duration(fileData.IdlePauseAfterMinutes) * time.Minute
	}
	if fileData.UpdateFeed != "" {
		settings.UpdateFeed = fileData.UpdateFeed
	}
	switch fileData.LogLevel {
	case "debug", "info", "warn", "error":
		settings.LogLevel = fileData.LogLevel
	}
	if fileData.HistoryKeep > 0 {
		settings.HistoryKeep = fileData.HistoryKeep
	}
	if fileData.MinimizeOnStart != nil {
		settings.MinimizeOnStart = *fileData.MinimizeOnStart
	}
	if fileData.CheckUpdates != nil {
		settings.CheckUpdates = *fileData.CheckUpdates
	}

	settings.ShowOverlayOnStart = fileData.ShowOverlayOnStart
	settings.IdlePauseEnabled = fileData.IdlePauseEnabled
}
