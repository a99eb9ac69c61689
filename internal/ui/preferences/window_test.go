package preferences

import (
	"testing"
	"time"

	"fyne.io/fyne/v2/test"

	"focusflow/internal/window"
)

func TestCollectReadsForm(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	prefs := New(app, DefaultSettings(), nil)
	prefs.countdown.SetText("50")
	prefs.idleAfter.SetText("nope")
	prefs.overlayMode.SetSelected("dot")
	prefs.idleCheck.SetChecked(true)
	prefs.updateFeed.SetText("  https://updates.example.com/latest.json ")

	settings := prefs.Collect()
	if settings.DefaultCountdown != 50*time.Minute {
		t.Fatalf("countdown = %v", settings.DefaultCountdown)
	}
	if settings.IdlePauseAfter != 5*time.Minute {
		t.Fatalf("invalid idle minutes changed value to %v", settings.IdlePauseAfter)
	}
	if settings.OverlayMode != window.ModeDot || !settings.IdlePauseEnabled {
		t.Fatalf("settings = %+v", settings)
	}
	if settings.UpdateFeed != "https://updates.example.com/latest.json" {
		t.Fatalf("feed = %q", settings.UpdateFeed)
	}
}

func TestSaveCallsBack(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	var saved Settings
	prefs := New(app, DefaultSettings(), func(settings Settings) { saved = settings })
	prefs.countdown.SetText("2000")
	prefs.handleSave()

	if saved.DefaultCountdown != 25*time.Minute {
		t.Fatalf("out of range countdown saved as %v", saved.DefaultCountdown)
	}
	if cfg := saved.TimerConfig(); cfg.DefaultCountdown != 25*time.Minute {
		t.Fatalf("timer config = %+v", cfg)
	}
}
