package panel

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"focusflow/internal/core/model"
)

type taskRow struct {
	container *fyne.Container
	done      *widget.Check
	title     *widget.Label
	editor    *widget.Entry
	start     *widget.Button
	edit      *widget.Button
	remove    *confirmButton
}

func newTaskRow(view *View, task model.Task, editing bool) *taskRow {
	row := &taskRow{}
	taskID := task.ID

	row.done = widget.NewCheck("", nil)
	row.done.SetChecked(task.Status == model.StatusDone)
	row.done.OnChanged = func(checked bool) { view.toggleDone(taskID, checked) }

	row.title = widget.NewLabel(task.Title)
	row.title.Truncation = fyne.TextTruncateEllipsis
	if task.Status == model.StatusDone {
		row.title.Importance = widget.LowImportance
	}

	row.editor = widget.NewEntry()
	row.editor.SetText(task.Title)
	row.editor.OnSubmitted = func(title string) { view.renameTask(taskID, title) }

	row.start = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), func() { view.startTask(taskID) })
	row.start.Importance = widget.LowImportance
	if task.Status == model.StatusDone {
		row.start.Disable()
	}
	row.edit = widget.NewButtonWithIcon("", theme.DocumentCreateIcon(), func() { view.setEditing(taskID) })
	row.edit.Importance = widget.LowImportance
	row.remove = newConfirmButton(theme.DeleteIcon(), func() { view.deleteTask(taskID) })

	var middle fyne.CanvasObject = row.title
	if editing {
		middle = row.editor
	}
	row.container = container.NewBorder(nil, nil, row.done,
		container.NewHBox(row.start, row.edit, row.remove.button), middle)
	return row
}

// confirmButton needs two taps: the first arms it, the second acts.
type confirmButton struct {
	button   *widget.Button
	icon     fyne.Resource
	armed    bool
	onActive func()
}

func newConfirmButton(icon fyne.Resource, onConfirm func()) *confirmButton {
	confirm := &confirmButton{icon: icon, onActive: onConfirm}
	confirm.button = widget.NewButtonWithIcon("", icon, confirm.tapped)
	confirm.button.Importance = widget.LowImportance
	return confirm
}

func (confirm *confirmButton) tapped() {
	if !confirm.armed {
		confirm.armed = true
		confirm.button.SetText("Delete?")
		confirm.button.Importance = widget.DangerImportance
		confirm.button.Refresh()
		return
	}
	confirm.armed = false
	confirm.button.SetText("")
	confirm.button.Importance = widget.LowImportance
	confirm.button.Refresh()
	confirm.onActive()
}

// slideLayout lays out its objects at a vertical offset.
type slideLayout struct {
	offset float32
}

func (layout *slideLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	for _, object := range objects {
		object.Move(fyne.NewPos(0, layout.offset))
		object.Resize(size)
	}
}

func (layout *slideLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	minSize := fyne.NewSize(0, 0)
	for _, object := range objects {
		minSize = minSize.Max(object.MinSize())
	}
	return minSize
}

func colorWithAlpha(r, g, b uint32, alpha uint8) color.NRGBA {
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: alpha}
}
