// Package panel renders the compact task and timer panel shown below the
// overlay.
package panel

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"focusflow/internal/core/model"
	"focusflow/internal/core/timer"
	"focusflow/internal/ipc"
	"focusflow/internal/logging"
)

const operationTimeout = 5 * time.Second

// Timer is the part of the timer engine the panel drives.
type Timer interface {
	StartCountdown(ctx context.Context, durationSec int, taskID string) error
	StartStopwatch(ctx context.Context, taskID string) error
	SetCountdownDuration(ctx context.Context, seconds int) error
}

// Store persists board and note edits.
type Store interface {
	Update(ctx context.Context, mutate func(doc *model.AppState) error) (model.AppState, error)
}

// Options configures a View.
type Options struct {
	Timer Timer
	Store Store
	// RequestHeight asks the host to fit the panel window to height.
	RequestHeight func(height int)
	// OnError reports failed user actions.
	OnError func(err error)
	Now     func() time.Time
	Logger  *slog.Logger
	// Do runs f on the UI thread. It defaults to fyne.Do.
	Do func(f func())
}

// View is the panel content. It implements broadcast.Surface.
type View struct {
	options Options
	logger  *slog.Logger
	do      func(func())
	alive   atomic.Bool

	mu      sync.Mutex
	doc     model.AppState
	payload model.TimerPayload
	editing string

	root            *fyne.Container
	slide           *slideLayout
	scrim           *canvas.Rectangle
	clock           *widget.Label
	countdownButton *widget.Button
	stopwatchButton *widget.Button
	durationEntry   *widget.Entry
	durationButton  *widget.Button
	taskEntry       *widget.Entry
	addTaskButton   *widget.Button
	taskList        *fyne.Container
	noteEntry       *widget.Entry
	addNoteButton   *widget.Button
	rows            map[string]*taskRow
}

// New builds the panel content.
func New(options Options) *View {
	view := &View{
		options: options,
		logger:  options.Logger,
		do:      options.Do,
		payload: model.TimerPayload{Mode: model.TimerIdle, IsPaused: true},
		rows:    make(map[string]*taskRow),
	}
	if view.logger == nil {
		view.logger = logging.Nop()
	}
	if view.do == nil {
		view.do = fyne.Do
	}
	if view.options.Now == nil {
		view.options.Now = time.Now
	}

	view.clock = widget.NewLabelWithStyle("00:00", fyne.TextAlignLeading, fyne.TextStyle{Bold: true, Monospace: true})
	view.countdownButton = widget.NewButtonWithIcon("Countdown", theme.MediaPlayIcon(), func() {
		view.run("start countdown", func(ctx context.Context) error {
			return view.options.Timer.StartCountdown(ctx, 0, "")
		})
	})
	view.stopwatchButton = widget.NewButtonWithIcon("Stopwatch", theme.HistoryIcon(), func() {
		view.run("start stopwatch", func(ctx context.Context) error {
			return view.options.Timer.StartStopwatch(ctx, "")
		})
	})

	view.durationEntry = widget.NewEntry()
	view.durationEntry.SetPlaceHolder("mm:ss")
	view.durationEntry.OnSubmitted = func(string) { view.submitDuration() }
	view.durationButton = widget.NewButton("Set", view.submitDuration)

	view.taskEntry = widget.NewEntry()
	view.taskEntry.SetPlaceHolder("New task")
	view.taskEntry.OnSubmitted = func(string) { view.addTask() }
	view.addTaskButton = widget.NewButtonWithIcon("", theme.ContentAddIcon(), view.addTask)

	view.noteEntry = widget.NewEntry()
	view.noteEntry.SetPlaceHolder("Quick note")
	view.noteEntry.OnSubmitted = func(string) { view.addNote() }
	view.addNoteButton = widget.NewButtonWithIcon("", theme.DocumentCreateIcon(), view.addNote)

	view.taskList = container.NewVBox()

	timerRow := container.NewBorder(nil, nil, view.clock,
		container.NewHBox(view.countdownButton, view.stopwatchButton))
	durationRow := container.NewBorder(nil, nil, widget.NewLabel("Focus block"), view.durationButton, view.durationEntry)
	taskRow := container.NewBorder(nil, nil, nil, view.addTaskButton, view.taskEntry)
	noteRow := container.NewBorder(nil, nil, nil, view.addNoteButton, view.noteEntry)

	body := container.NewVBox(
		timerRow,
		durationRow,
		widget.NewSeparator(),
		taskRow,
		view.taskList,
		widget.NewSeparator(),
		noteRow,
	)

	view.scrim = canvas.NewRectangle(theme.Color(theme.ColorNameBackground))
	view.slide = &slideLayout{}
	view.root = container.NewStack(view.scrim, container.New(view.slide, container.NewPadded(body)))
	view.render()
	return view
}

// Content returns the canvas object hosted by the panel window.
func (view *View) Content() fyne.CanvasObject { return view.root }

// Attach marks the view as hosted by a live window.
func (view *View) Attach() { view.alive.Store(true) }

// Detach marks the hosting window as gone.
func (view *View) Detach() { view.alive.Store(false) }

// Alive reports whether the view is hosted by a live window.
func (view *View) Alive() bool { return view.alive.Load() }

// Deliver applies host messages.
func (view *View) Deliver(msg ipc.Message) error {
	switch typed := msg.(type) {
	case ipc.TimerTick:
		view.mu.Lock()
		view.payload = typed.Payload
		view.mu.Unlock()
		view.do(view.renderClock)
		return nil
	case ipc.StoreUpdated:
		doc := typed.State
		model.Normalize(&doc)
		view.mu.Lock()
		view.doc = doc
		view.mu.Unlock()
		view.do(view.render)
		return nil
	default:
		return nil
	}
}

// ApplyTransition renders a frame of the enter or leave transition. value
// runs from 0 (hidden) to 1 (shown).
func (view *View) ApplyTransition(value float64) {
	view.do(func() {
		view.slide.offset = float32((1 - value) * 12)
		alpha := uint8(value * 255)
		background := theme.Color(theme.ColorNameBackground)
		r, g, b, _ := background.RGBA()
		view.scrim.FillColor = colorWithAlpha(r, g, b, alpha)
		view.root.Refresh()
	})
}

func (view *View) submitDuration() {
	seconds, err := timer.ParseMMSS(view.durationEntry.Text)
	if err != nil {
		view.report("set duration", err)
		return
	}
	view.run("set duration", func(ctx context.Context) error {
		return view.options.Timer.SetCountdownDuration(ctx, seconds)
	})
	view.durationEntry.SetText("")
}

func (view *View) addTask() {
	title := view.taskEntry.Text
	view.update("add task", func(doc *model.AppState) error {
		project := doc.CurrentProject()
		if project == nil {
			return model.ErrProjectNotFound
		}
		_, err := doc.AddTask(project.ID, title, "", view.options.Now())
		return err
	})
	view.taskEntry.SetText("")
}

func (view *View) addNote() {
	text := view.noteEntry.Text
	view.update("add note", func(doc *model.AppState) error {
		_, err := doc.AddQuickNote("", text, view.options.Now())
		return err
	})
	view.noteEntry.SetText("")
}

func (view *View) startTask(taskID string) {
	view.run("start task", func(ctx context.Context) error {
		if err := view.options.Timer.StartCountdown(ctx, 0, taskID); err != nil {
			return err
		}
		_, err := view.options.Store.Update(ctx, func(doc *model.AppState) error {
			return doc.StartTask(taskID)
		})
		return err
	})
}

func (view *View) toggleDone(taskID string, done bool) {
	view.update("toggle task", func(doc *model.AppState) error {
		return doc.ToggleTaskDone(taskID, done)
	})
}

func (view *View) renameTask(taskID, title string) {
	view.setEditing("")
	view.update("rename task", func(doc *model.AppState) error {
		return doc.RenameTask(taskID, title)
	})
}

func (view *View) deleteTask(taskID string) {
	view.update("delete task", func(doc *model.AppState) error {
		return doc.DeleteTask(taskID)
	})
}

func (view *View) setEditing(taskID string) {
	view.mu.Lock()
	view.editing = taskID
	view.mu.Unlock()
	view.render()
}

func (view *View) update(action string, mutate func(doc *model.AppState) error) {
	if view.options.Store == nil {
		return
	}
	view.run(action, func(ctx context.Context) error {
		_, err := view.options.Store.Update(ctx, mutate)
		return err
	})
}

func (view *View) run(action string, operation func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()
	if err := operation(ctx); err != nil {
		view.report(action, err)
	}
}

func (view *View) report(action string, err error) {
	if errors.Is(err, model.ErrEmptyTitle) {
		return
	}
	view.logger.Warn("panel action failed", "action", action, "error", err)
	if view.options.OnError != nil {
		view.options.OnError(err)
	}
}

// renderClock must run on the UI thread.
func (view *View) renderClock() {
	view.mu.Lock()
	payload := view.payload
	view.mu.Unlock()

	seconds := payload.DisplaySeconds()
	if payload.Mode == model.TimerIdle {
		seconds = payload.Remaining
	}
	view.clock.SetText(model.FormatMMSS(seconds))
	if payload.Mode.Active() {
		view.countdownButton.Disable()
		view.stopwatchButton.Disable()
	} else {
		view.countdownButton.Enable()
		view.stopwatchButton.Enable()
	}
}

// render must run on the UI thread.
func (view *View) render() {
	view.mu.Lock()
	doc := view.doc
	editing := view.editing
	view.mu.Unlock()

	view.renderClock()

	var tasks []model.Task
	if project := doc.CurrentProject(); project != nil {
		tasks = model.AllTasks(project)
	}

	view.rows = make(map[string]*taskRow, len(tasks))
	objects := make([]fyne.CanvasObject, 0, len(tasks)+1)
	for _, task := range tasks {
		row := newTaskRow(view, task, task.ID == editing)
		view.rows[task.ID] = row
		objects = append(objects, row.container)
	}
	if len(objects) == 0 {
		objects = append(objects, widget.NewLabelWithStyle("No tasks yet", fyne.TextAlignCenter, fyne.TextStyle{Italic: true}))
	}
	view.taskList.Objects = objects
	view.taskList.Refresh()

	if view.options.RequestHeight != nil {
		view.options.RequestHeight(int(view.root.MinSize().Height))
	}
}
