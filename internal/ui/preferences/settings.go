package preferences

import (
	"time"

	"focusflow/internal/core/model"
	"focusflow/internal/window"
)

// Settings defines editable user preferences.
type Settings struct {
	DefaultCountdown time.Duration

	OverlayMode        window.Mode
	OverlayOpacity     float64
	ShowOverlayOnStart bool
	MinimizeOnStart    bool

	IdlePauseEnabled bool
	IdlePauseAfter   time.Duration

	CheckUpdates bool
	UpdateFeed   string

	LogLevel    string
	HistoryKeep int
}

// DefaultSettings returns default settings for FocusFlow.
func DefaultSettings() Settings {
	return Settings{
		DefaultCountdown:   25 * time.Minute,
		OverlayMode:        window.ModeBar,
		OverlayOpacity:     0.92,
		ShowOverlayOnStart: false,
		MinimizeOnStart:    true,
		IdlePauseEnabled:   false,
		IdlePauseAfter:     5 * time.Minute,
		CheckUpdates:       true,
		UpdateFeed:         "",
		LogLevel:           "info",
		HistoryKeep:        200,
	}
}

// TimerConfig converts settings to the timer engine configuration.
func (settings Settings) TimerConfig() model.TimerConfig {
	config := model.DefaultTimerConfig()
	config.DefaultCountdown = settings.DefaultCountdown
	config.Idle = model.IdlePauseConfig{
		Enabled:       settings.IdlePauseEnabled,
		After:         settings.IdlePauseAfter,
		CheckInterval: 5 * time.Second,
	}
	return config
}
