package panel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"

	"focusflow/internal/core/model"
	"focusflow/internal/core/timer"
	"focusflow/internal/ipc"
)

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

type fakeTimer struct {
	countdowns []string
	stopwatch  int
	durations  []int
	err        error
}

func (fake *fakeTimer) StartCountdown(_ context.Context, durationSec int, taskID string) error {
	if fake.err != nil {
		return fake.err
	}
	fake.countdowns = append(fake.countdowns, taskID)
	return nil
}

func (fake *fakeTimer) StartStopwatch(context.Context, string) error {
	fake.stopwatch++
	return fake.err
}

func (fake *fakeTimer) SetCountdownDuration(_ context.Context, seconds int) error {
	fake.durations = append(fake.durations, seconds)
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
	view    *View
	timer   *fakeTimer
	store   *fakeStore
	errors  []error
	heights []int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	app := test.NewApp()
	t.Cleanup(app.Quit)

	h := &harness{timer: &fakeTimer{}, store: &fakeStore{doc: model.Default()}}
	h.view = New(Options{
		Timer:         h.timer,
		Store:         h.store,
		RequestHeight: func(height int) { h.heights = append(h.heights, height) },
		OnError:       func(err error) { h.errors = append(h.errors, err) },
		Now:           func() time.Time { return testNow },
		Do:            func(f func()) { f() },
	})
	return h
}

// sync pushes the store document to the view like the router does.
func (h *harness) sync() {
	h.view.Deliver(ipc.StoreUpdated{State: h.store.current(), Revision: 1})
}

func (h *harness) addTask(t *testing.T, title string) string {
	t.Helper()
	h.view.taskEntry.SetText(title)
	test.Tap(h.view.addTaskButton)
	h.sync()
	for id, row := range h.view.rows {
		if row.title.Text == title {
			return id
		}
	}
	t.Fatalf("task %q not rendered", title)
	return ""
}

func TestAddTaskRendersRow(t *testing.T) {
	h := newHarness(t)
	id := h.addTask(t, "Write report")

	task, _, ok := h.store.current().FindTask(id)
	if !ok || task.Status != model.StatusTodo {
		t.Fatalf("task = %+v, found %t", task, ok)
	}
	if h.view.taskEntry.Text != "" {
		t.Fatal("entry should be cleared after adding")
	}
	if len(h.heights) == 0 {
		t.Fatal("render should request a panel height")
	}
}

func TestEmptyTitleIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.view.taskEntry.SetText("   ")
	test.Tap(h.view.addTaskButton)
	if len(h.errors) != 0 {
		t.Fatalf("errors = %v", h.errors)
	}
	if tasks := model.AllTasks(h.store.current().CurrentProject()); len(tasks) != 0 {
		t.Fatalf("tasks = %+v", tasks)
	}
}

func TestStartTaskLinksTimer(t *testing.T) {
	h := newHarness(t)
	id := h.addTask(t, "Write report")

	test.Tap(h.view.rows[id].start)
	if len(h.timer.countdowns) != 1 || h.timer.countdowns[0] != id {
		t.Fatalf("countdowns = %v", h.timer.countdowns)
	}
	task, _, _ := h.store.current().FindTask(id)
	if task.Status != model.StatusDoing {
		t.Fatalf("status = %s, want doing", task.Status)
	}
}

func TestStartTaskWhileTimerActive(t *testing.T) {
	h := newHarness(t)
	id := h.addTask(t, "Write report")
	h.timer.err = timer.ErrTimerActive

	test.Tap(h.view.rows[id].start)
	if len(h.errors) != 1 || !errors.Is(h.errors[0], timer.ErrTimerActive) {
		t.Fatalf("errors = %v", h.errors)
	}
	task, _, _ := h.store.current().FindTask(id)
	if task.Status != model.StatusTodo {
		t.Fatalf("status = %s, task should stay in todo", task.Status)
	}
}

func TestDoneCheckbox(t *testing.T) {
	h := newHarness(t)
	id := h.addTask(t, "Write report")

	h.view.rows[id].done.SetChecked(true)
	task, _, _ := h.store.current().FindTask(id)
	if task.Status != model.StatusDone {
		t.Fatalf("status = %s, want done", task.Status)
	}

	h.sync()
	h.view.rows[id].done.SetChecked(false)
	task, _, _ = h.store.current().FindTask(id)
	if task.Status != model.StatusDoing {
		t.Fatalf("status = %s, want doing", task.Status)
	}
}

func TestInlineRename(t *testing.T) {
	h := newHarness(t)
	id := h.addTask(t, "Write report")

	test.Tap(h.view.rows[id].edit)
	row := h.view.rows[id]
	row.editor.SetText("Write final report")
	row.editor.OnSubmitted(row.editor.Text)

	task, _, _ := h.store.current().FindTask(id)
	if task.Title != "Write final report" {
		t.Fatalf("title = %q", task.Title)
	}
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	id := h.addTask(t, "Write report")
	remove := h.view.rows[id].remove

	test.Tap(remove.button)
	if _, _, ok := h.store.current().FindTask(id); !ok {
		t.Fatal("first tap should only arm the delete button")
	}
	test.Tap(remove.button)
	if _, _, ok := h.store.current().FindTask(id); ok {
		t.Fatal("second tap should delete the task")
	}
}

func TestQuickNote(t *testing.T) {
	h := newHarness(t)
	h.view.noteEntry.SetText("Call the bank tomorrow morning")
	test.Tap(h.view.addNoteButton)

	notes := h.store.current().QuickNotes
	if len(notes) != 1 || notes[0].Name != "Call the bank - 14.03.25 09:30" {
		t.Fatalf("notes = %+v", notes)
	}
}

func TestDurationEdit(t *testing.T) {
	h := newHarness(t)

	h.view.durationEntry.SetText("10:00")
	test.Tap(h.view.durationButton)
	if len(h.timer.durations) != 1 || h.timer.durations[0] != 600 {
		t.Fatalf("durations = %v", h.timer.durations)
	}

	h.view.durationEntry.SetText("10:75")
	test.Tap(h.view.durationButton)
	if len(h.timer.durations) != 1 || len(h.errors) != 1 {
		t.Fatalf("invalid duration: durations = %v errors = %v", h.timer.durations, h.errors)
	}
}

func TestTickUpdatesClock(t *testing.T) {
	h := newHarness(t)
	h.view.Deliver(ipc.TimerTick{Payload: model.TimerPayload{Mode: model.TimerCountdown, Remaining: 599}})

	if h.view.clock.Text != "09:59" {
		t.Fatalf("clock = %q", h.view.clock.Text)
	}
	if !h.view.countdownButton.Disabled() || !h.view.stopwatchButton.Disabled() {
		t.Fatal("start buttons should be disabled while a timer runs")
	}

	test.Tap(h.view.stopwatchButton)
	if h.timer.stopwatch != 0 {
		t.Fatal("disabled stopwatch button should not start a timer")
	}
}

func TestApplyTransition(t *testing.T) {
	h := newHarness(t)
	h.view.ApplyTransition(0)
	if h.view.slide.offset != 12 {
		t.Fatalf("offset at 0 = %v", h.view.slide.offset)
	}
	h.view.ApplyTransition(1)
	if h.view.slide.offset != 0 {
		t.Fatalf("offset at 1 = %v", h.view.slide.offset)
	}
}
