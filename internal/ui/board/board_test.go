package board

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/theme"

	"focusflow/internal/core/model"
	"focusflow/internal/core/timer"
	"focusflow/internal/ipc"
	"focusflow/internal/update"
)

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

type fakeTimer struct {
	countdowns []string
	banked     int
	err        error
}

func (fake *fakeTimer) StartCountdown(_ context.Context, _ int, taskID string) error {
	if fake.err != nil {
		return fake.err
	}
	fake.countdowns = append(fake.countdowns, taskID)
	return nil
}

func (fake *fakeTimer) StartStopwatch(context.Context, string) error { return fake.err }

func (fake *fakeTimer) BankCompleted(context.Context) error {
	fake.banked++
	return nil
}

type fakeStore struct {
	mu  sync.Mutex
	doc model.AppState
}

func (store *fakeStore) Update(_ context.Context, mutate func(doc *model.AppState) error) (model.AppState, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	doc := model.Clone(store.doc)
	if err := mutate(&doc); err != nil {
		return model.AppState{}, err
	}
	store.doc = doc
	return model.Clone(doc), nil
}

func (store *fakeStore) current() model.AppState {
	store.mu.Lock()
	defer store.mu.Unlock()
	return model.Clone(store.doc)
}

type harness struct {
	app      fyne.App
	view     *View
	timer    *fakeTimer
	store    *fakeStore
	confirms []string
	infos    []string
	pending  func()
	installs int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	app := test.NewApp()
	t.Cleanup(app.Quit)

	h := &harness{app: app, timer: &fakeTimer{}, store: &fakeStore{doc: model.Default()}}
	h.view = New(app, Options{
		Timer: h.timer,
		Store: h.store,
		Actions: Actions{
			InstallUpdate: func() error {
				h.installs++
				return nil
			},
		},
		Now: func() time.Time { return testNow },
		Do:  func(f func()) { f() },
	})
	h.view.confirm = func(title, _ string, onConfirm func()) {
		h.confirms = append(h.confirms, title)
		h.pending = onConfirm
	}
	h.view.inform = func(title, message string) {
		h.infos = append(h.infos, title+": "+message)
	}
	h.sync()
	return h
}

func (h *harness) sync() {
	h.view.Deliver(ipc.StoreUpdated{State: h.store.current(), Revision: 1})
}

func (h *harness) seedTask(t *testing.T, title, notes string) string {
	t.Helper()
	var id string
	_, err := h.store.Update(context.Background(), func(doc *model.AppState) error {
		task, err := doc.AddTask(model.InboxProjectID, title, notes, testNow)
		id = task.ID
		return err
	})
	if err != nil {
		t.Fatalf("seed task: %v", err)
	}
	h.sync()
	return id
}

func TestRenderColumnsAndSearch(t *testing.T) {
	h := newHarness(t)
	report := h.seedTask(t, "Write report", "quarterly numbers")
	groceries := h.seedTask(t, "Buy groceries", "")

	if len(h.view.columns[model.StatusTodo].Objects) != 2 {
		t.Fatalf("todo column has %d cards", len(h.view.columns[model.StatusTodo].Objects))
	}

	h.view.search.SetText("quarterly")
	if _, ok := h.view.cards[report]; !ok {
		t.Fatal("matching task should stay visible")
	}
	if _, ok := h.view.cards[groceries]; ok {
		t.Fatal("non-matching task should be filtered out")
	}
}

func TestMoveTaskForward(t *testing.T) {
	h := newHarness(t)
	id := h.seedTask(t, "Write report", "")

	test.Tap(h.view.cards[id].forward)
	task, _, _ := h.store.current().FindTask(id)
	if task.Status != model.StatusDoing {
		t.Fatalf("status = %s", task.Status)
	}
	if len(h.view.columns[model.StatusDoing].Objects) != 1 {
		t.Fatal("board should re-render after the move")
	}
	if h.view.cards[id].back.Disabled() {
		t.Fatal("a task in progress can move back")
	}
}

func TestDeleteTaskAsksFirst(t *testing.T) {
	h := newHarness(t)
	id := h.seedTask(t, "Write report", "")

	test.Tap(h.view.cards[id].remove)
	if len(h.confirms) != 1 {
		t.Fatalf("confirms = %v", h.confirms)
	}
	if _, _, ok := h.store.current().FindTask(id); !ok {
		t.Fatal("task deleted before confirmation")
	}
	h.pending()
	if _, _, ok := h.store.current().FindTask(id); ok {
		t.Fatal("task should be deleted after confirmation")
	}
}

func TestStartTaskRefused(t *testing.T) {
	h := newHarness(t)
	id := h.seedTask(t, "Write report", "")
	h.timer.err = timer.ErrTimerActive

	test.Tap(h.view.cards[id].start)
	task, _, _ := h.store.current().FindTask(id)
	if task.Status != model.StatusTodo {
		t.Fatalf("refused start moved the task to %s", task.Status)
	}
	if len(h.infos) != 1 || !strings.Contains(h.infos[0], "Confirm or reset") {
		t.Fatalf("infos = %v", h.infos)
	}
}

func TestStartTaskLinksTimer(t *testing.T) {
	h := newHarness(t)
	id := h.seedTask(t, "Write report", "")

	test.Tap(h.view.cards[id].start)
	if len(h.timer.countdowns) != 1 || h.timer.countdowns[0] != id {
		t.Fatalf("countdowns = %v", h.timer.countdowns)
	}
	task, _, _ := h.store.current().FindTask(id)
	if task.Status != model.StatusDoing {
		t.Fatalf("status = %s", task.Status)
	}
}

func TestEditTaskUnknown(t *testing.T) {
	h := newHarness(t)
	err := h.view.EditTask(context.Background(), "missing")
	if !errors.Is(err, model.ErrTaskNotFound) {
		t.Fatalf("err = %v", err)
	}

	id := h.seedTask(t, "Write report", "")
	if err := h.view.EditTask(context.Background(), id); err != nil {
		t.Fatalf("edit known task: %v", err)
	}
}

func TestSaveTaskDialogValues(t *testing.T) {
	h := newHarness(t)
	h.view.saveTask("", "Plan sprint", "with the team")
	tasks := model.AllTasks(h.store.current().CurrentProject())
	if len(tasks) != 1 || tasks[0].Notes != "with the team" {
		t.Fatalf("tasks = %+v", tasks)
	}

	h.view.saveTask(tasks[0].ID, "Plan next sprint", "")
	task, _, _ := h.store.current().FindTask(tasks[0].ID)
	if task.Title != "Plan next sprint" || task.Notes != "" {
		t.Fatalf("task = %+v", task)
	}

	h.view.saveTask("", "  ", "")
	if len(h.infos) != 1 || !strings.HasPrefix(h.infos[0], "Missing title") {
		t.Fatalf("infos = %v", h.infos)
	}
}

func TestSessionCompleteBanks(t *testing.T) {
	h := newHarness(t)
	h.view.ShowSessionComplete(1500)

	if len(h.confirms) != 1 || h.confirms[0] != "Session complete" {
		t.Fatalf("confirms = %v", h.confirms)
	}
	h.pending()
	if h.timer.banked != 1 {
		t.Fatalf("banked = %d", h.timer.banked)
	}
}

func TestStartButtonsFollowTimer(t *testing.T) {
	h := newHarness(t)
	running := model.TimerPayload{Mode: model.TimerCountdown, Remaining: 1200}
	h.view.Deliver(ipc.TimerTick{Payload: running})
	if !h.view.countdownButton.Disabled() || !h.view.stopwatchButton.Disabled() {
		t.Fatal("start buttons enabled while the countdown runs")
	}

	paused := running
	paused.IsPaused = true
	h.view.Deliver(ipc.TimerTick{Payload: paused})
	if h.view.countdownButton.Disabled() || h.view.stopwatchButton.Disabled() {
		t.Fatal("start buttons disabled while the countdown is paused")
	}

	h.view.Deliver(ipc.TimerTick{Payload: model.TimerPayload{Mode: model.TimerIdle, Remaining: 1500, IsPaused: true}})
	if h.view.countdownButton.Disabled() {
		t.Fatal("countdown button disabled while idle")
	}
}

func TestSummaryAndPool(t *testing.T) {
	h := newHarness(t)
	if h.view.summary.Text != "No sessions yet." {
		t.Fatalf("summary = %q", h.view.summary.Text)
	}

	h.store.Update(context.Background(), func(doc *model.AppState) error {
		doc.AppendSession(model.NewSession(model.LabelFocus, "", model.InboxProjectID, testNow.Add(-25*time.Minute), testNow))
		doc.Bank(1500, "")
		return nil
	})
	h.sync()

	if h.view.summary.Text != "1 session(s), total 00:25:00 today." {
		t.Fatalf("summary = %q", h.view.summary.Text)
	}
	if h.view.pool.Text != "Time pool: 00:25:00" {
		t.Fatalf("pool = %q", h.view.pool.Text)
	}
}

func TestToggleTheme(t *testing.T) {
	h := newHarness(t)
	h.view.toggleTheme()

	if h.store.current().Theme != model.ThemeLight {
		t.Fatalf("theme = %s", h.store.current().Theme)
	}
	current, ok := h.app.Settings().Theme().(variantTheme)
	if !ok || current.variant != theme.VariantLight {
		t.Fatalf("app theme = %#v", h.app.Settings().Theme())
	}
}

func TestProjects(t *testing.T) {
	h := newHarness(t)
	h.view.addProject("Side project")

	doc := h.store.current()
	if len(doc.Projects) != 2 || doc.CurrentProject().Name != "Side project" {
		t.Fatalf("projects = %+v", doc.Projects)
	}
	if h.view.projectSelect.Selected != "Side project" {
		t.Fatalf("selected = %q", h.view.projectSelect.Selected)
	}

	h.view.projectSelect.SetSelected(model.InboxProjectName)
	if h.store.current().CurrentProjectID != model.InboxProjectID {
		t.Fatal("selecting a project should switch the current project")
	}
}

func TestQuickNotes(t *testing.T) {
	h := newHarness(t)
	notes := h.view.notes

	notes.text.SetText("Call the bank tomorrow morning")
	test.Tap(notes.save)
	doc := h.store.current()
	if len(doc.QuickNotes) != 1 {
		t.Fatalf("notes = %+v", doc.QuickNotes)
	}
	noteID := doc.QuickNotes[0].ID
	if notes.selected != noteID || notes.name.Text != "Call the bank - 14.03.25 09:30" {
		t.Fatalf("selected = %q name = %q", notes.selected, notes.name.Text)
	}

	notes.text.SetText("Call the bank at noon")
	test.Tap(notes.save)
	if got := h.store.current().QuickNotes[0].Text; got != "Call the bank at noon" {
		t.Fatalf("text = %q", got)
	}

	test.Tap(notes.remove)
	h.pending()
	if len(h.store.current().QuickNotes) != 0 {
		t.Fatal("note should be deleted after confirmation")
	}
	if notes.selected != "" {
		t.Fatal("deleting the selected note should clear the editor")
	}
}

func TestUpdateBanner(t *testing.T) {
	h := newHarness(t)
	banner := h.view.updateBar

	h.view.ShowUpdateEvent(update.Event{Type: update.EventChecking})
	if banner.content.Visible() {
		t.Fatal("checking should not show the banner")
	}

	h.view.ShowUpdateEvent(update.Event{Type: update.EventProgress, Progress: update.Progress{Percent: 50}})
	if banner.progress.Value != 0.5 {
		t.Fatalf("progress = %v", banner.progress.Value)
	}

	h.view.ShowUpdateEvent(update.Event{Type: update.EventDownloaded, Release: update.Release{Version: "1.2.0"}})
	if !banner.install.Visible() || !strings.Contains(banner.status.Text, "1.2.0") {
		t.Fatalf("downloaded banner: %q", banner.status.Text)
	}
	test.Tap(banner.install)
	if h.installs != 1 {
		t.Fatalf("installs = %d", h.installs)
	}
}

func TestAnalyticsReset(t *testing.T) {
	h := newHarness(t)
	h.store.Update(context.Background(), func(doc *model.AppState) error {
		doc.AppendSession(model.NewSession(model.LabelFocus, "", model.InboxProjectID, testNow.Add(-time.Hour), testNow))
		doc.Bank(600, "")
		return nil
	})
	h.sync()

	panel := newAnalyticsPanel(h.view)
	if len(panel.buckets) != 1 || panel.buckets[0].TotalSec != 3600 {
		t.Fatalf("buckets = %+v", panel.buckets)
	}

	panel.selector.SetSelected("week")
	if panel.current != "week" || len(panel.buckets) != 1 {
		t.Fatalf("week view: %s %+v", panel.current, panel.buckets)
	}

	test.Tap(panel.reset)
	if len(h.confirms) != 1 || h.confirms[0] != "Reset analytics" {
		t.Fatalf("confirms = %v", h.confirms)
	}
	h.pending()
	doc := h.store.current()
	if len(doc.TimerSessions) != 0 || doc.TimePoolSec != 0 {
		t.Fatalf("reset left sessions=%d pool=%d", len(doc.TimerSessions), doc.TimePoolSec)
	}
	if len(panel.buckets) != 0 {
		t.Fatalf("buckets after reset = %+v", panel.buckets)
	}
}

func TestExportWritesFile(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "sessions.json")
	if err := h.view.exportTo(path); err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat export: %v", err)
	}
	if err := h.view.exportTo(filepath.Join(t.TempDir(), "sessions.txt")); err == nil {
		t.Fatal("unknown extension should fail")
	}
}
