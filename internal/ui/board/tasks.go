package board

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"focusflow/internal/core/model"
)

// EditTask opens the editor for taskID. It implements ipc.TaskEditor and
// returns model.ErrTaskNotFound for unknown tasks.
func (view *View) EditTask(_ context.Context, taskID string) error {
	doc := view.Document()
	if _, _, ok := doc.FindTask(taskID); !ok {
		return fmt.Errorf("edit task %s: %w", taskID, model.ErrTaskNotFound)
	}
	view.do(func() {
		view.Show()
		view.showTaskDialog(taskID)
	})
	return nil
}

// taskForm holds the fields of the add and edit dialog.
type taskForm struct {
	title *widget.Entry
	notes *widget.Entry
}

func newTaskForm(task model.Task) *taskForm {
	form := &taskForm{
		title: widget.NewEntry(),
		notes: widget.NewMultiLineEntry(),
	}
	form.title.SetPlaceHolder("What needs doing?")
	form.title.SetText(task.Title)
	form.notes.SetPlaceHolder("Notes")
	form.notes.SetText(task.Notes)
	form.notes.Wrapping = fyne.TextWrapWord
	return form
}

// showTaskDialog edits taskID, or adds a task to the current project when
// taskID is empty.
func (view *View) showTaskDialog(taskID string) {
	var task model.Task
	if taskID != "" {
		found, _, ok := view.Document().FindTask(taskID)
		if !ok {
			view.inform("Not found", "The task no longer exists.")
			return
		}
		task = found
	}

	form := newTaskForm(task)
	title := "New task"
	confirm := "Add"
	if taskID != "" {
		title = "Edit task"
		confirm = "Save"
	}

	items := []*widget.FormItem{
		widget.NewFormItem("Title", form.title),
		widget.NewFormItem("Notes", form.notes),
	}
	formDialog := dialog.NewForm(title, confirm, "Cancel", items, func(ok bool) {
		if ok {
			view.saveTask(taskID, form.title.Text, form.notes.Text)
		}
	}, view.window)
	formDialog.Resize(fyne.NewSize(420, 300))
	formDialog.Show()
}

func (view *View) saveTask(taskID, title, notes string) {
	if taskID == "" {
		view.update("add task", func(doc *model.AppState) error {
			project := doc.CurrentProject()
			if project == nil {
				return model.ErrProjectNotFound
			}
			_, err := doc.AddTask(project.ID, title, notes, view.options.Now())
			return err
		})
		return
	}
	view.update("edit task", func(doc *model.AppState) error {
		return doc.UpdateTask(taskID, title, notes)
	})
}
