package board

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"focusflow/internal/core/model"
)

// notesTab lists quick notes on the left and edits the selected one on the
// right. An empty selection means a new note.
type notesTab struct {
	view     *View
	content  fyne.CanvasObject
	list     *fyne.Container
	name     *widget.Entry
	text     *widget.Entry
	save     *widget.Button
	remove   *widget.Button
	selected string
	items    map[string]*widget.Button
}

func newNotesTab(view *View) *notesTab {
	tab := &notesTab{
		view:  view,
		list:  container.NewVBox(),
		name:  widget.NewEntry(),
		text:  widget.NewMultiLineEntry(),
		items: make(map[string]*widget.Button),
	}
	tab.name.SetPlaceHolder("Name (optional)")
	tab.text.SetPlaceHolder("Write a note")
	tab.text.Wrapping = fyne.TextWrapWord

	tab.save = widget.NewButtonWithIcon("Save", theme.DocumentSaveIcon(), tab.saveNote)
	tab.save.Importance = widget.HighImportance
	tab.remove = widget.NewButtonWithIcon("Delete", theme.DeleteIcon(), func() {
		if tab.selected == "" {
			return
		}
		noteID := tab.selected
		view.confirm("Delete note", "Delete this note?", func() { tab.deleteNote(noteID) })
	})
	newNote := widget.NewButtonWithIcon("New", theme.ContentAddIcon(), func() { tab.selectNote(model.Note{}) })

	editor := container.NewBorder(
		tab.name,
		container.NewHBox(newNote, layout.NewSpacer(), tab.remove, tab.save),
		nil, nil,
		tab.text,
	)
	split := container.NewHSplit(container.NewVScroll(tab.list), editor)
	split.Offset = 0.3
	tab.content = split
	tab.selectNote(model.Note{})
	return tab
}

func (tab *notesTab) selectNote(note model.Note) {
	tab.selected = note.ID
	tab.name.SetText(note.Name)
	tab.text.SetText(note.Text)
	if note.ID == "" {
		tab.remove.Disable()
	} else {
		tab.remove.Enable()
	}
}

func (tab *notesTab) saveNote() {
	name := tab.name.Text
	text := tab.text.Text
	noteID := tab.selected
	if noteID == "" {
		var created model.Note
		tab.view.update("add note", func(doc *model.AppState) error {
			note, err := doc.AddQuickNote(name, text, tab.view.options.Now())
			created = note
			return err
		})
		if created.ID != "" {
			tab.selectNote(created)
		}
		return
	}
	tab.view.update("edit note", func(doc *model.AppState) error {
		return doc.UpdateQuickNote(noteID, name, text)
	})
}

func (tab *notesTab) deleteNote(noteID string) {
	tab.view.update("delete note", func(doc *model.AppState) error {
		return doc.DeleteQuickNote(noteID)
	})
	if tab.selected == noteID {
		tab.selectNote(model.Note{})
	}
}

// render must run on the UI thread.
func (tab *notesTab) render(notes []model.Note) {
	tab.items = make(map[string]*widget.Button, len(notes))
	objects := make([]fyne.CanvasObject, 0, len(notes))
	for _, note := range notes {
		current := note
		item := widget.NewButton(note.Name, func() { tab.selectNote(current) })
		item.Alignment = widget.ButtonAlignLeading
		if note.ID == tab.selected {
			item.Importance = widget.HighImportance
		} else {
			item.Importance = widget.LowImportance
		}
		tab.items[note.ID] = item
		objects = append(objects, item)
	}
	if len(objects) == 0 {
		objects = append(objects, widget.NewLabelWithStyle("No notes yet", fyne.TextAlignCenter, fyne.TextStyle{Italic: true}))
	}
	tab.list.Objects = objects
	tab.list.Refresh()
}
