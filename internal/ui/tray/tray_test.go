package tray

import (
	"testing"

	"fyne.io/fyne/v2"

	"focusflow/internal/core/model"
)

type fakeApp struct {
	menus []*fyne.Menu
	icons []fyne.Resource
}

func (app *fakeApp) SetSystemTrayMenu(menu *fyne.Menu)   { app.menus = append(app.menus, menu) }
func (app *fakeApp) SetSystemTrayIcon(icon fyne.Resource) { app.icons = append(app.icons, icon) }

func (app *fakeApp) item(t *testing.T, label string) *fyne.MenuItem {
	t.Helper()
	menu := app.menus[len(app.menus)-1]
	for _, item := range menu.Items {
		if item.Label == label {
			return item
		}
	}
	t.Fatalf("menu item %q not found", label)
	return nil
}

func newManager(callbacks Callbacks) (*Manager, *fakeApp, *[]string) {
	app := &fakeApp{}
	idle := fyne.NewStaticResource("idle.svg", []byte("<svg/>"))
	active := fyne.NewStaticResource("active.svg", []byte("<svg/>"))
	manager := New(app, callbacks, Icons{Idle: idle, Active: active})

	titles := &[]string{}
	manager.setTitle = func(title string) { *titles = append(*titles, title) }
	manager.setTooltip = func(string) {}
	return manager, app, titles
}

func TestShowOverlayItem(t *testing.T) {
	shown := 0
	_, app, _ := newManager(Callbacks{OnShowOverlay: func() { shown++ }})

	app.item(t, "Show timer overlay").Action()
	if shown != 1 {
		t.Fatalf("show overlay calls = %d", shown)
	}
}

func TestTitleFollowsTicks(t *testing.T) {
	manager, app, titles := newManager(Callbacks{})

	manager.SetPayload(model.TimerPayload{Mode: model.TimerCountdown, Remaining: 1500, Label: "Focus"})
	manager.SetPayload(model.TimerPayload{Mode: model.TimerCountdown, Remaining: 1499, Label: "Focus"})
	manager.SetPayload(model.TimerPayload{Mode: model.TimerIdle, Remaining: 1500, IsPaused: true})

	want := []string{"25:00", "24:59", ""}
	if len(*titles) != len(want) {
		t.Fatalf("titles = %v", *titles)
	}
	for index, title := range want {
		if (*titles)[index] != title {
			t.Fatalf("titles = %v", *titles)
		}
	}
	if len(app.icons) != 3 {
		t.Fatalf("icon swaps = %d, want initial + start + stop", len(app.icons))
	}
}

func TestPauseItemLabel(t *testing.T) {
	toggles := 0
	manager, app, _ := newManager(Callbacks{OnTogglePause: func() { toggles++ }})

	if !app.item(t, "Pause").Disabled {
		t.Fatal("pause should be disabled while idle")
	}
	manager.SetPayload(model.TimerPayload{Mode: model.TimerStopwatch, Elapsed: 5, IsPaused: true, Label: "Stopwatch"})

	resume := app.item(t, "Resume")
	if resume.Disabled {
		t.Fatal("resume should be enabled for a paused stopwatch")
	}
	resume.Action()
	if toggles != 1 {
		t.Fatalf("toggles = %d", toggles)
	}
	if status := app.item(t, "Stopwatch 00:05 (paused)"); status == nil {
		t.Fatal("status item missing")
	}
}

func TestStatus(t *testing.T) {
	if got := Status(model.TimerPayload{Mode: model.TimerIdle}); got != "No timer running" {
		t.Fatalf("idle status = %q", got)
	}
	if got := Status(model.TimerPayload{Mode: model.TimerCountdown, Remaining: 61}); got != "countdown 01:01" {
		t.Fatalf("unlabelled status = %q", got)
	}
}
