// Package board is the main FocusFlow window: the kanban board, quick
// notes, timer controls, analytics and the time pool.
package board

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"focusflow/internal/core/analytics"
	"focusflow/internal/core/model"
	"focusflow/internal/core/timer"
	"focusflow/internal/ipc"
	"focusflow/internal/logging"
	"focusflow/internal/notify"
)

const operationTimeout = 5 * time.Second

// Timer is the part of the timer engine the board drives.
type Timer interface {
	StartCountdown(ctx context.Context, durationSec int, taskID string) error
	StartStopwatch(ctx context.Context, taskID string) error
	BankCompleted(ctx context.Context) error
}

// Store persists board edits.
type Store interface {
	Update(ctx context.Context, mutate func(doc *model.AppState) error) (model.AppState, error)
}

// Actions are host operations reachable from the board menus.
type Actions struct {
	ShowOverlay   func()
	Preferences   func()
	InstallUpdate func() error
	Quit          func()
}

// Options configures a View.
type Options struct {
	Timer   Timer
	Store   Store
	Actions Actions
	Now     func() time.Time
	Logger  *slog.Logger
	// Do runs f on the UI thread. It defaults to fyne.Do.
	Do func(f func())
}

// View is the main window. It implements broadcast.Surface and
// ipc.TaskEditor.
type View struct {
	app     fyne.App
	window  fyne.Window
	options Options
	logger  *slog.Logger
	do      func(func())

	// confirm and inform are replaced in tests.
	confirm func(title, message string, onConfirm func())
	inform  func(title, message string)

	mu      sync.Mutex
	doc     model.AppState
	payload model.TimerPayload
	query   string
	closed  bool

	projectSelect   *widget.Select
	search          *widget.Entry
	clock           *widget.Label
	countdownButton *widget.Button
	stopwatchButton *widget.Button
	columns         map[model.Status]*fyne.Container
	cards           map[string]*card
	notes           *notesTab
	summary         *widget.Label
	pool            *widget.Label
	updateBar       *updateBanner
}

// New creates the main window. It is not shown until Show.
func New(app fyne.App, options Options) *View {
	view := &View{
		app:     app,
		window:  app.NewWindow("FocusFlow"),
		options: options,
		logger:  options.Logger,
		do:      options.Do,
		payload: model.TimerPayload{Mode: model.TimerIdle, IsPaused: true},
		columns: make(map[model.Status]*fyne.Container),
		cards:   make(map[string]*card),
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
	view.confirm = func(title, message string, onConfirm func()) {
		dialog.ShowConfirm(title, message, func(ok bool) {
			if ok {
				onConfirm()
			}
		}, view.window)
	}
	view.inform = func(title, message string) {
		dialog.ShowInformation(title, message, view.window)
	}

	view.window.SetContent(view.build())
	view.window.SetMainMenu(view.menu())
	view.window.Resize(fyne.NewSize(1080, 720))
	view.window.SetCloseIntercept(view.window.Hide)
	view.render()
	return view
}

func (view *View) build() fyne.CanvasObject {
	view.projectSelect = widget.NewSelect(nil, view.selectProject)
	view.projectSelect.PlaceHolder = "Project"
	newProject := widget.NewButtonWithIcon("", theme.FolderNewIcon(), view.promptProject)

	view.search = widget.NewEntry()
	view.search.SetPlaceHolder("Search tasks")
	view.search.OnChanged = func(query string) {
		view.mu.Lock()
		view.query = query
		view.mu.Unlock()
		view.render()
	}

	addTask := widget.NewButtonWithIcon("Task", theme.ContentAddIcon(), func() { view.showTaskDialog("") })
	themeButton := widget.NewButtonWithIcon("", theme.ColorPaletteIcon(), view.toggleTheme)
	analyticsButton := widget.NewButtonWithIcon("", theme.InfoIcon(), view.showAnalytics)
	overlayButton := widget.NewButtonWithIcon("", theme.ViewRestoreIcon(), func() {
		if view.options.Actions.ShowOverlay != nil {
			view.options.Actions.ShowOverlay()
		}
	})

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

	header := container.NewBorder(nil, nil,
		container.NewHBox(view.projectSelect, newProject),
		container.NewHBox(view.clock, view.countdownButton, view.stopwatchButton, overlayButton, analyticsButton, themeButton),
		container.NewBorder(nil, nil, nil, addTask, view.search),
	)

	columnViews := make([]fyne.CanvasObject, 0, len(model.Statuses))
	for _, status := range model.Statuses {
		list := container.NewVBox()
		view.columns[status] = list
		title := widget.NewLabelWithStyle(columnTitle(status), fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
		columnViews = append(columnViews, container.NewBorder(title, nil, nil, nil, container.NewVScroll(list)))
	}
	boardView := container.NewGridWithColumns(len(model.Statuses), columnViews...)

	view.notes = newNotesTab(view)
	tabs := container.NewAppTabs(
		container.NewTabItemWithIcon("Board", theme.GridIcon(), boardView),
		container.NewTabItemWithIcon("Notes", theme.DocumentIcon(), view.notes.content),
	)

	view.summary = widget.NewLabel("")
	view.pool = widget.NewLabel("")
	view.updateBar = newUpdateBanner(view)
	footer := container.NewVBox(
		view.updateBar.content,
		container.NewHBox(view.summary, widget.NewSeparator(), view.pool),
	)

	return container.NewBorder(header, footer, nil, nil, tabs)
}

func (view *View) menu() *fyne.MainMenu {
	file := fyne.NewMenu("File",
		fyne.NewMenuItem("New task", func() { view.showTaskDialog("") }),
		fyne.NewMenuItem("New project", view.promptProject),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export sessions...", view.showExport),
		fyne.NewMenuItem("Settings", func() {
			if view.options.Actions.Preferences != nil {
				view.options.Actions.Preferences()
			}
		}),
	)
	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Show timer overlay", func() {
			if view.options.Actions.ShowOverlay != nil {
				view.options.Actions.ShowOverlay()
			}
		}),
		fyne.NewMenuItem("Analytics", view.showAnalytics),
		fyne.NewMenuItem("Toggle theme", view.toggleTheme),
	)
	return fyne.NewMainMenu(file, viewMenu)
}

// Window returns the underlying fyne window.
func (view *View) Window() fyne.Window { return view.window }

// Show brings the window to the front.
func (view *View) Show() {
	view.window.Show()
	view.window.RequestFocus()
}

// Hide hides the window. The app keeps running in the tray.
func (view *View) Hide() { view.window.Hide() }

// Close marks the view dead and closes the window.
func (view *View) Close() {
	view.mu.Lock()
	view.closed = true
	view.mu.Unlock()
	view.window.Close()
}

// Alive implements broadcast.Surface.
func (view *View) Alive() bool {
	view.mu.Lock()
	defer view.mu.Unlock()
	return !view.closed
}

// Deliver implements broadcast.Surface.
func (view *View) Deliver(msg ipc.Message) error {
	switch typed := msg.(type) {
	case ipc.TimerTick:
		view.mu.Lock()
		view.payload = typed.Payload
		view.mu.Unlock()
		view.do(view.renderClock)
	case ipc.StoreUpdated:
		doc := typed.State
		model.Normalize(&doc)
		view.mu.Lock()
		view.doc = doc
		view.mu.Unlock()
		view.do(view.render)
	}
	return nil
}

// Document returns the last document the board rendered.
func (view *View) Document() model.AppState {
	view.mu.Lock()
	defer view.mu.Unlock()
	return model.Clone(view.doc)
}

// ShowSessionComplete brings the window forward and asks whether the
// finished countdown goes into the time pool.
func (view *View) ShowSessionComplete(durationSec int) {
	view.do(func() {
		view.Show()
		view.confirm("Session complete",
			"Add "+model.FormatHHMMSS(durationSec)+" to the time pool?",
			func() {
				view.run("bank session", func(ctx context.Context) error {
					return view.options.Timer.BankCompleted(ctx)
				})
			})
	})
}

func (view *View) selectProject(name string) {
	doc := view.Document()
	for _, project := range doc.Projects {
		if project.Name != name || project.ID == doc.CurrentProjectID {
			continue
		}
		projectID := project.ID
		view.update("select project", func(doc *model.AppState) error {
			return doc.SelectProject(projectID)
		})
		return
	}
}

func (view *View) promptProject() {
	entry := widget.NewEntry()
	entry.SetPlaceHolder("Project name")
	dialog.ShowForm("New project", "Create", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Name", entry)},
		func(ok bool) {
			if ok {
				view.addProject(entry.Text)
			}
		}, view.window)
}

func (view *View) addProject(name string) {
	view.update("add project", func(doc *model.AppState) error {
		_, err := doc.AddProject(name)
		return err
	})
}

func (view *View) toggleTheme() {
	view.update("toggle theme", func(doc *model.AppState) error {
		if doc.Theme == model.ThemeLight {
			doc.Theme = model.ThemeDark
		} else {
			doc.Theme = model.ThemeLight
		}
		return nil
	})
}

func (view *View) update(action string, mutate func(doc *model.AppState) error) {
	if view.options.Store == nil {
		return
	}
	view.run(action, func(ctx context.Context) error {
		doc, err := view.options.Store.Update(ctx, mutate)
		if err != nil {
			return err
		}
		// Render right away rather than waiting for the broadcast.
		view.mu.Lock()
		view.doc = doc
		view.mu.Unlock()
		view.render()
		return nil
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
	view.logger.Warn("board action failed", "action", action, "error", err)
	switch {
	case errors.Is(err, model.ErrTaskNotFound), errors.Is(err, model.ErrNoteNotFound), errors.Is(err, model.ErrProjectNotFound):
		view.inform("Not found", "The item no longer exists.")
	case errors.Is(err, model.ErrEmptyTitle):
		view.inform("Missing title", "Please enter a title.")
	default:
		view.inform("FocusFlow", errorMessage(err))
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
	if payload.Mode.Active() && !payload.IsPaused {
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
	query := view.query
	view.mu.Unlock()

	view.renderClock()
	view.applyTheme(doc.Theme)

	names := make([]string, 0, len(doc.Projects))
	current := ""
	for _, project := range doc.Projects {
		names = append(names, project.Name)
		if project.ID == doc.CurrentProjectID {
			current = project.Name
		}
	}
	view.projectSelect.Options = names
	view.projectSelect.Selected = current
	view.projectSelect.Refresh()

	view.cards = make(map[string]*card)
	project := doc.CurrentProject()
	for _, status := range model.Statuses {
		var tasks []model.Task
		if project != nil {
			tasks = model.SearchTasks(project.Columns.Column(status), query)
		}
		objects := make([]fyne.CanvasObject, 0, len(tasks))
		for _, task := range tasks {
			taskCard := newCard(view, task)
			view.cards[task.ID] = taskCard
			objects = append(objects, taskCard.content)
		}
		view.columns[status].Objects = objects
		view.columns[status].Refresh()
	}

	view.notes.render(doc.QuickNotes)
	view.summary.SetText(analytics.Today(doc.TimerSessions, view.options.Now()).String())
	view.pool.SetText("Time pool: " + model.FormatHHMMSS(doc.TimePoolSec))
}

func columnTitle(status model.Status) string {
	switch status {
	case model.StatusTodo:
		return "To do"
	case model.StatusDoing:
		return "In progress"
	case model.StatusDone:
		return "Done"
	default:
		return string(status)
	}
}

func errorMessage(err error) string {
	if errors.Is(err, timer.ErrTimerActive) {
		return notify.TimerActive().Body
	}
	return err.Error()
}
