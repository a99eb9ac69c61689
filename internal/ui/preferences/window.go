package preferences

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"focusflow/internal/window"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// Window handles the preferences UI.
type Window struct {
	window       fyne.Window
	settings     Settings
	onSave       func(Settings)
	countdown    *widget.Entry
	overlayMode  *widget.RadioGroup
	opacity      *widget.Slider
	showOverlay  *widget.Check
	minimize     *widget.Check
	idleCheck    *widget.Check
	idleAfter    *widget.Entry
	checkUpdates *widget.Check
	updateFeed   *widget.Entry
	logLevel     *widget.Select
}

// New creates a preferences window.
func New(app fyne.App, settings Settings, onSave func(Settings)) *Window {
	window := app.NewWindow("FocusFlow Settings")

	prefs := &Window{
		window:       window,
		onSave:       onSave,
		countdown:    widget.NewEntry(),
		overlayMode:  widget.NewRadioGroup([]string{"bar", "dot"}, nil),
		opacity:      widget.NewSlider(0.5, 1),
		showOverlay:  widget.NewCheck("Show timer overlay on start", nil),
		minimize:     widget.NewCheck("Minimize main window when a timer starts", nil),
		idleCheck:    widget.NewCheck("Pause the timer when I am away", nil),
		idleAfter:    widget.NewEntry(),
		checkUpdates: widget.NewCheck("Check for updates on start", nil),
		updateFeed:   widget.NewEntry(),
		logLevel:     widget.NewSelect(logLevels, nil),
	}
	prefs.overlayMode.Horizontal = true
	prefs.opacity.Step = 0.01
	prefs.updateFeed.SetPlaceHolder("https://example.com/focusflow/latest.json")

	form := container.NewVBox(
		widget.NewLabelWithStyle("Timer", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Focus block"), prefs.countdown, widget.NewLabel("min")),
		prefs.idleCheck,
		container.NewHBox(widget.NewLabel("Away after"), prefs.idleAfter, widget.NewLabel("min")),
		widget.NewLabelWithStyle("Overlay", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Layout"), prefs.overlayMode),
		widget.NewLabel("Opacity"),
		prefs.opacity,
		prefs.showOverlay,
		prefs.minimize,
		widget.NewLabelWithStyle("Advanced", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		prefs.checkUpdates,
		container.NewBorder(nil, nil, widget.NewLabel("Update feed"), nil, prefs.updateFeed),
		container.NewHBox(widget.NewLabel("Log level"), prefs.logLevel),
	)

	saveButton := widget.NewButton("Save", prefs.handleSave)
	saveButton.Importance = widget.HighImportance
	cancelButton := widget.NewButton("Cancel", window.Hide)
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.Resize(fyne.NewSize(440, 520))
	window.SetCloseIntercept(window.Hide)

	prefs.UpdateSettings(settings)
	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings Settings) {
	prefs.settings = settings
	prefs.countdown.SetText(strconv.Itoa(int(settings.DefaultCountdown.Minutes())))
	prefs.overlayMode.SetSelected(string(settings.OverlayMode))
	prefs.opacity.SetValue(settings.OverlayOpacity)
	prefs.showOverlay.SetChecked(settings.ShowOverlayOnStart)
	prefs.minimize.SetChecked(settings.MinimizeOnStart)
	prefs.idleCheck.SetChecked(settings.IdlePauseEnabled)
	prefs.idleAfter.SetText(strconv.Itoa(int(settings.IdlePauseAfter.Minutes())))
	prefs.checkUpdates.SetChecked(settings.CheckUpdates)
	prefs.updateFeed.SetText(settings.UpdateFeed)
	prefs.logLevel.SetSelected(settings.LogLevel)
}

// Collect reads the form into a copy of the current settings. Invalid numbers
// keep the previous value.
func (prefs *Window) Collect() Settings {
	settings := prefs.settings

	if minutes, ok := parsePositiveInt(prefs.countdown.Text, 24*60); ok {
		settings.DefaultCountdown = time.Duration(minutes) * time.Minute
	}
	if minutes, ok := parsePositiveInt(prefs.idleAfter.Text, 24*60); ok {
		settings.IdlePauseAfter = time.Duration(minutes) * time.Minute
	}
	settings.OverlayMode = window.ParseMode(prefs.overlayMode.Selected)
	settings.OverlayOpacity = prefs.opacity.Value
	settings.ShowOverlayOnStart = prefs.showOverlay.Checked
	settings.MinimizeOnStart = prefs.minimize.Checked
	settings.IdlePauseEnabled = prefs.idleCheck.Checked
	settings.CheckUpdates = prefs.checkUpdates.Checked
	settings.UpdateFeed = strings.TrimSpace(prefs.updateFeed.Text)
	if prefs.logLevel.Selected != "" {
		settings.LogLevel = prefs.logLevel.Selected
	}
	return settings
}

func (prefs *Window) handleSave() {
	settings := prefs.Collect()
	prefs.settings = settings
	if prefs.onSave != nil {
		prefs.onSave(settings)
	}
	prefs.window.Hide()
}

func parsePositiveInt(value string, limit int) (int, bool) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 || parsed > limit {
		return 0, false
	}
	return parsed, true
}

// Summary is a one-line description used in logs.
func (settings Settings) Summary() string {
	return fmt.Sprintf("countdown=%s overlay=%s idle=%t", settings.DefaultCountdown, settings.OverlayMode, settings.IdlePauseEnabled)
}
