package board

import (
	"context"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"focusflow/internal/core/model"
)

type card struct {
	content *widget.Card
	back    *widget.Button
	forward *widget.Button
	start   *widget.Button
	edit    *widget.Button
	remove  *widget.Button
}

func newCard(view *View, task model.Task) *card {
	taskID := task.ID
	taskCard := &card{}

	taskCard.back = widget.NewButtonWithIcon("", theme.NavigateBackIcon(), func() {
		view.moveTask(taskID, previousStatus(task.Status))
	})
	taskCard.forward = widget.NewButtonWithIcon("", theme.NavigateNextIcon(), func() {
		view.moveTask(taskID, nextStatus(task.Status))
	})
	if task.Status == model.StatusTodo {
		taskCard.back.Disable()
	}
	if task.Status == model.StatusDone {
		taskCard.forward.Disable()
	}

	taskCard.start = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), func() { view.startTask(taskID) })
	if task.Status == model.StatusDone {
		taskCard.start.Disable()
	}
	taskCard.edit = widget.NewButtonWithIcon("", theme.DocumentCreateIcon(), func() { view.showTaskDialog(taskID) })
	taskCard.remove = widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
		view.confirm("Delete task", "Delete \""+task.Title+"\"?", func() { view.deleteTask(taskID) })
	})
	for _, button := range []*widget.Button{taskCard.back, taskCard.forward, taskCard.start, taskCard.edit, taskCard.remove} {
		button.Importance = widget.LowImportance
	}

	var details []fyne.CanvasObject
	if task.Notes != "" {
		notes := widget.NewLabel(task.Notes)
		notes.Wrapping = fyne.TextWrapWord
		notes.Truncation = fyne.TextTruncateEllipsis
		details = append(details, notes)
	}
	if task.DoneSec > 0 {
		details = append(details, widget.NewLabelWithStyle("Focused "+model.FormatHHMMSS(task.DoneSec), fyne.TextAlignLeading, fyne.TextStyle{Italic: true}))
	}
	details = append(details, container.NewHBox(taskCard.back, taskCard.forward, taskCard.start, taskCard.edit, taskCard.remove))

	taskCard.content = widget.NewCard(task.Title, "", container.NewVBox(details...))
	return taskCard
}

func (view *View) moveTask(taskID string, status model.Status) {
	view.update("move task", func(doc *model.AppState) error {
		return doc.MoveTaskTo(taskID, status)
	})
}

func (view *View) deleteTask(taskID string) {
	view.update("delete task", func(doc *model.AppState) error {
		return doc.DeleteTask(taskID)
	})
}

// startTask links the task to a new countdown and moves it into progress.
// A refused start leaves the task where it is.
func (view *View) startTask(taskID string) {
	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()
	if err := view.options.Timer.StartCountdown(ctx, 0, taskID); err != nil {
		view.report("start task", err)
		return
	}
	view.update("start task", func(doc *model.AppState) error {
		return doc.StartTask(taskID)
	})
}

func previousStatus(status model.Status) model.Status {
	switch status {
	case model.StatusDone:
		return model.StatusDoing
	default:
		return model.StatusTodo
	}
}

func nextStatus(status model.Status) model.Status {
	switch status {
	case model.StatusTodo:
		return model.StatusDoing
	default:
		return model.StatusDone
	}
}
