// Package overlay renders the always-on-top timer surface in its bar and dot
// layouts.
package overlay

import (
	"image/color"
	"strconv"
	"sync"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"focusflow/internal/core/model"
	"focusflow/internal/ipc"
	"focusflow/internal/window"
)

var (
	accentColor = color.NRGBA{R: 232, G: 190, B: 66, A: 255}
	pausedColor = color.NRGBA{R: 160, G: 160, B: 160, A: 255}
	textColor   = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// Actions are the requests the overlay sends back to the host.
type Actions struct {
	Command     func(model.Command)
	EditTask    func(taskID string)
	TogglePanel func(open bool)
	SetMode     func(window.Mode)
	Hide        func()
	// Drag moves the overlay window by offset, in fyne units. done marks
	// the release.
	Drag func(offset fyne.Delta, done bool)
}

// Options configures a View.
type Options struct {
	Actions Actions
	Opacity float64
	// Do runs f on the UI thread. It defaults to fyne.Do.
	Do func(f func())
}

// View is the overlay content. It implements broadcast.Surface.
type View struct {
	actions Actions
	do      func(func())
	alive   atomic.Bool

	mu        sync.Mutex
	mode      window.Mode
	payload   model.TimerPayload
	doc       model.AppState
	panelOpen bool
	// resetArmed is set by the first tap on reset; the second tap sends it.
	resetArmed bool
	// grab is where the pointer went down, in window coordinates. The window
	// follows the pointer, so every drag event is measured against it.
	grab *fyne.Position

	root        *fyne.Container
	bar         *fyne.Container
	dot         *fyne.Container
	background  *canvas.Rectangle
	dotCircle   *canvas.Circle
	timeText    *canvas.Text
	dotText     *canvas.Text
	labelText   *canvas.Text
	taskButton  *widget.Button
	pauseButton *widget.Button
	resetButton *widget.Button
	confirm     *widget.Button
	panelButton *widget.Button
	modeButton  *widget.Button
	closeButton *widget.Button
}

// New builds the overlay content in bar mode.
func New(options Options) *View {
	view := &View{
		actions: options.Actions,
		do:      options.Do,
		mode:    window.ModeBar,
		payload: model.TimerPayload{Mode: model.TimerIdle, IsPaused: true},
	}
	if view.do == nil {
		view.do = fyne.Do
	}

	view.background = canvas.NewRectangle(backgroundColor(options.Opacity))
	view.background.CornerRadius = 12

	view.timeText = canvas.NewText("00:00", accentColor)
	view.timeText.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	view.timeText.TextSize = 24

	view.labelText = canvas.NewText("", textColor)
	view.labelText.TextSize = 11

	view.taskButton = widget.NewButton("", func() {
		view.mu.Lock()
		taskID := view.payload.TaskID
		view.mu.Unlock()
		if taskID != "" && view.actions.EditTask != nil {
			view.actions.EditTask(taskID)
		}
	})
	view.taskButton.Importance = widget.LowImportance
	view.taskButton.Alignment = widget.ButtonAlignLeading

	view.pauseButton = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), func() { view.command(model.CommandPause) })
	view.resetButton = widget.NewButtonWithIcon("", theme.MediaReplayIcon(), view.reset)
	view.confirm = widget.NewButtonWithIcon("", theme.ConfirmIcon(), func() { view.command(model.CommandConfirm) })
	view.panelButton = widget.NewButtonWithIcon("", theme.MenuDropDownIcon(), view.togglePanel)
	view.modeButton = widget.NewButtonWithIcon("", theme.ViewRestoreIcon(), func() { view.requestMode(window.ModeDot) })
	view.closeButton = widget.NewButtonWithIcon("", theme.CancelIcon(), func() {
		view.disarmReset()
		if view.actions.Hide != nil {
			view.actions.Hide()
		}
	})
	for _, button := range []*widget.Button{view.pauseButton, view.resetButton, view.confirm, view.panelButton, view.modeButton, view.closeButton} {
		button.Importance = widget.LowImportance
	}

	clock := container.New(&clockLayout{}, view.timeText, view.labelText)
	buttons := container.NewHBox(view.pauseButton, view.resetButton, view.confirm, view.panelButton, view.modeButton, view.closeButton)
	view.bar = container.New(&barLayout{}, clock, view.taskButton, buttons)

	view.dotCircle = canvas.NewCircle(accentColor)
	view.dotText = canvas.NewText("0", color.NRGBA{A: 255})
	view.dotText.TextStyle = fyne.TextStyle{Bold: true}
	view.dotText.Alignment = fyne.TextAlignCenter
	view.dotText.TextSize = 16
	view.dot = container.NewStack(view.dotCircle, container.NewCenter(view.dotText), newGrabArea(func() {
		view.requestMode(window.ModeBar)
	}, view.dragged, view.dragEnd))
	view.dot.Hide()

	view.root = container.NewStack(view.background, newGrabArea(nil, view.dragged, view.dragEnd), view.bar, view.dot)
	view.render()
	return view
}

// Content returns the canvas object hosted by the overlay window.
func (view *View) Content() fyne.CanvasObject {
	return view.root
}

// Attach marks the view as hosted by a live window.
func (view *View) Attach() { view.alive.Store(true) }

// Detach marks the hosting window as gone.
func (view *View) Detach() { view.alive.Store(false) }

// Alive reports whether the view is hosted by a live window.
func (view *View) Alive() bool { return view.alive.Load() }

// Deliver applies a host message. Messages the overlay does not render are
// ignored.
func (view *View) Deliver(msg ipc.Message) error {
	switch typed := msg.(type) {
	case ipc.TimerTick:
		view.mu.Lock()
		view.payload = typed.Payload
		view.mu.Unlock()
	case ipc.OverlayMode:
		view.mu.Lock()
		view.mode = window.ParseMode(typed.Mode)
		view.mu.Unlock()
	case ipc.StoreUpdated:
		doc := typed.State
		model.Normalize(&doc)
		view.mu.Lock()
		view.doc = doc
		view.mu.Unlock()
	default:
		return nil
	}
	view.do(view.render)
	return nil
}

// SetPanelOpen records the panel state for the toggle button.
func (view *View) SetPanelOpen(open bool) {
	view.mu.Lock()
	view.panelOpen = open
	view.mu.Unlock()
	view.do(view.render)
}

// SetOpacity changes the background alpha.
func (view *View) SetOpacity(opacity float64) {
	view.do(func() {
		view.background.FillColor = backgroundColor(opacity)
		view.background.Refresh()
	})
}

// Mode returns the rendered layout.
func (view *View) Mode() window.Mode {
	view.mu.Lock()
	defer view.mu.Unlock()
	return view.mode
}

// TimeText returns the clock text, e.g. "24:59".
func (view *View) TimeText() string {
	return view.timeText.Text
}

func (view *View) command(command model.Command) {
	view.disarmReset()
	if view.actions.Command != nil {
		view.actions.Command(command)
	}
}

// reset must run on the UI thread.
func (view *View) reset() {
	view.mu.Lock()
	armed := view.resetArmed
	view.resetArmed = !armed
	view.mu.Unlock()
	if !armed {
		view.resetButton.SetIcon(theme.WarningIcon())
		view.resetButton.Importance = widget.DangerImportance
		view.resetButton.Refresh()
		return
	}
	view.command(model.CommandReset)
}

func (view *View) disarmReset() {
	view.mu.Lock()
	view.resetArmed = false
	view.mu.Unlock()
	view.resetButton.SetIcon(theme.MediaReplayIcon())
	view.resetButton.Importance = widget.LowImportance
	view.resetButton.Refresh()
}

func (view *View) dragged(event *fyne.DragEvent) {
	view.mu.Lock()
	if view.grab == nil {
		start := event.Position.Subtract(event.Dragged)
		view.grab = &start
	}
	offset := fyne.NewDelta(event.Position.Subtract(*view.grab).Components())
	view.mu.Unlock()

	if view.actions.Drag != nil && !offset.IsZero() {
		view.actions.Drag(offset, false)
	}
}

func (view *View) dragEnd() {
	view.mu.Lock()
	view.grab = nil
	view.mu.Unlock()

	if view.actions.Drag != nil {
		view.actions.Drag(fyne.Delta{}, true)
	}
}

func (view *View) togglePanel() {
	view.disarmReset()
	view.mu.Lock()
	view.panelOpen = !view.panelOpen
	open := view.panelOpen
	view.mu.Unlock()
	if view.actions.TogglePanel != nil {
		view.actions.TogglePanel(open)
	}
	view.render()
}

func (view *View) requestMode(mode window.Mode) {
	if view.actions.SetMode != nil {
		view.actions.SetMode(mode)
	}
}

// render must run on the UI thread.
func (view *View) render() {
	view.mu.Lock()
	payload := view.payload
	mode := view.mode
	doc := view.doc
	panelOpen := view.panelOpen
	view.mu.Unlock()

	seconds := payload.DisplaySeconds()
	if payload.Mode == model.TimerIdle {
		seconds = payload.Remaining
	}
	view.timeText.Text = model.FormatMMSS(seconds)
	view.timeText.Color = accentColor
	if payload.IsPaused {
		view.timeText.Color = pausedColor
	}
	view.timeText.Refresh()

	view.labelText.Text = payload.Label
	view.labelText.Refresh()

	view.taskButton.SetText(taskCaption(doc, payload.TaskID))

	if payload.IsPaused {
		view.pauseButton.SetIcon(theme.MediaPlayIcon())
	} else {
		view.pauseButton.SetIcon(theme.MediaPauseIcon())
	}
	if payload.Mode.Active() {
		view.pauseButton.Enable()
		view.confirm.Enable()
	} else {
		view.pauseButton.Disable()
		view.confirm.Disable()
	}

	if panelOpen {
		view.panelButton.SetIcon(theme.MenuDropUpIcon())
	} else {
		view.panelButton.SetIcon(theme.MenuDropDownIcon())
	}

	view.dotText.Text = dotCaption(seconds)
	view.dotText.Refresh()
	view.dotCircle.FillColor = accentColor
	if payload.IsPaused {
		view.dotCircle.FillColor = pausedColor
	}
	view.dotCircle.Refresh()

	if mode == window.ModeDot {
		view.bar.Hide()
		view.dot.Show()
		_, height := window.OverlaySize(mode)
		view.background.CornerRadius = float32(height) / 2
	} else {
		view.dot.Hide()
		view.bar.Show()
		view.background.CornerRadius = 12
	}
	view.background.Refresh()
}

func taskCaption(doc model.AppState, taskID string) string {
	if taskID == "" {
		return ""
	}
	task, _, ok := doc.FindTask(taskID)
	if !ok {
		return ""
	}
	return task.Title
}

// dotCaption shows whole minutes, or seconds in the last minute.
func dotCaption(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	if seconds < 60 {
		return strconv.Itoa(seconds)
	}
	return strconv.Itoa(seconds / 60)
}

func backgroundColor(opacity float64) color.NRGBA {
	return color.NRGBA{R: 24, G: 24, B: 28, A: opacityToAlpha(opacity)}
}

func opacityToAlpha(opacity float64) uint8 {
	if opacity <= 0 {
		opacity = 0.92
	}
	if opacity > 1 {
		opacity = 1
	}
	return uint8(opacity * 255)
}
