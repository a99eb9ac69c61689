// Package tray keeps the system tray menu and the tray title in step with
// the timer.
package tray

import (
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/systray"

	"focusflow/internal/core/model"
)

// App is the part of desktop.App the tray uses.
type App interface {
	SetSystemTrayMenu(menu *fyne.Menu)
	SetSystemTrayIcon(icon fyne.Resource)
}

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnShowOverlay func()
	OnOpen        func()
	OnPreferences func()
	OnTogglePause func()
	OnQuit        func()
}

// Icons are swapped when a timer starts or stops.
type Icons struct {
	Idle   fyne.Resource
	Active fyne.Resource
	Paused fyne.Resource
}

// Manager handles system tray state.
type Manager struct {
	app       App
	callbacks Callbacks
	icons     Icons

	// setTitle and setTooltip write the native tray text.
	setTitle   func(string)
	setTooltip func(string)

	mu         sync.Mutex
	statusItem *fyne.MenuItem
	pauseItem  *fyne.MenuItem
	payload    model.TimerPayload
	title      string
}

// New creates a tray manager with the provided callbacks.
func New(app App, callbacks Callbacks, icons Icons) *Manager {
	manager := &Manager{
		app:        app,
		callbacks:  callbacks,
		icons:      icons,
		setTitle:   systray.SetTitle,
		setTooltip: systray.SetTooltip,
		payload:    model.TimerPayload{Mode: model.TimerIdle, IsPaused: true},
	}

	manager.statusItem = fyne.NewMenuItem("No timer running", nil)
	manager.statusItem.Disabled = true
	manager.pauseItem = fyne.NewMenuItem("Pause", func() {
		if manager.callbacks.OnTogglePause != nil {
			manager.callbacks.OnTogglePause()
		}
	})
	manager.pauseItem.Disabled = true

	manager.refreshMenu()
	if icons.Idle != nil {
		app.SetSystemTrayIcon(icons.Idle)
	}
	return manager
}

// SetPayload renders the timer state in the menu and the tray title.
func (manager *Manager) SetPayload(payload model.TimerPayload) {
	manager.mu.Lock()
	previous := manager.payload
	manager.payload = payload
	title := Title(payload)
	titleChanged := title != manager.title
	manager.title = title

	manager.statusItem.Label = Status(payload)
	manager.pauseItem.Disabled = !payload.Mode.Active()
	if payload.Mode.Active() && payload.IsPaused {
		manager.pauseItem.Label = "Resume"
	} else {
		manager.pauseItem.Label = "Pause"
	}
	menuChanged := previous.Mode != payload.Mode || previous.IsPaused != payload.IsPaused
	manager.mu.Unlock()

	if titleChanged {
		manager.setTitle(title)
		manager.setTooltip("FocusFlow " + Status(payload))
	}
	if previous.Mode.Active() != payload.Mode.Active() || previous.IsPaused != payload.IsPaused {
		manager.swapIcon(payload)
	}
	if menuChanged {
		manager.refreshMenu()
	}
}

// Title is the tray text: mm:ss while a timer is engaged, empty when idle.
func Title(payload model.TimerPayload) string {
	if !payload.Mode.Active() {
		return ""
	}
	return model.FormatMMSS(payload.DisplaySeconds())
}

// Status is the menu status line.
func Status(payload model.TimerPayload) string {
	if !payload.Mode.Active() {
		return "No timer running"
	}
	label := payload.Label
	if label == "" {
		label = string(payload.Mode)
	}
	status := fmt.Sprintf("%s %s", label, model.FormatMMSS(payload.DisplaySeconds()))
	if payload.IsPaused {
		status += " (paused)"
	}
	return status
}

func (manager *Manager) swapIcon(payload model.TimerPayload) {
	icon := manager.icons.Idle
	switch {
	case !payload.Mode.Active():
	case payload.IsPaused && manager.icons.Paused != nil:
		icon = manager.icons.Paused
	case manager.icons.Active != nil:
		icon = manager.icons.Active
	}
	if icon != nil {
		manager.app.SetSystemTrayIcon(icon)
	}
}

func (manager *Manager) refreshMenu() {
	if manager.app == nil {
		return
	}
	manager.app.SetSystemTrayMenu(manager.menu())
}

// Menu returns the current tray menu.
func (manager *Manager) menu() *fyne.Menu {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	return fyne.NewMenu("FocusFlow",
		manager.statusItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Show timer overlay", func() {
			if manager.callbacks.OnShowOverlay != nil {
				manager.callbacks.OnShowOverlay()
			}
		}),
		fyne.NewMenuItem("Open FocusFlow", func() {
			if manager.callbacks.OnOpen != nil {
				manager.callbacks.OnOpen()
			}
		}),
		manager.pauseItem,
		fyne.NewMenuItem("Settings", func() {
			if manager.callbacks.OnPreferences != nil {
				manager.callbacks.OnPreferences()
			}
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() {
			if manager.callbacks.OnQuit != nil {
				manager.callbacks.OnQuit()
			}
		}),
	)
}
