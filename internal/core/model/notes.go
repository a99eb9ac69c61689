package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNoteNotFound = errors.New("note not found")

const noteNameWords = 3

// DeriveNoteName builds a name from the first words of text and the time the
// note was taken, e.g. "Call the bank - 14.03.25 09:30".
func DeriveNoteName(text string, now time.Time) string {
	words := strings.Fields(text)
	if len(words) > noteNameWords {
		words = words[:noteNameWords]
	}
	stamp := now.Format("02.01.06 15:04")
	if len(words) == 0 {
		return stamp
	}
	return strings.Join(words, " ") + " - " + stamp
}

// AddQuickNote prepends a note. An empty name is derived from the text.
func (state *AppState) AddQuickNote(name, text string, now time.Time) (Note, error) {
	name = strings.TrimSpace(name)
	text = strings.TrimSpace(text)
	if name == "" && text == "" {
		return Note{}, fmt.Errorf("add note: %w", ErrEmptyTitle)
	}
	if name == "" {
		name = DeriveNoteName(text, now)
	}
	note := Note{ID: NewID(), Name: name, Text: text, Timestamp: TimestampOf(now)}
	state.QuickNotes = append([]Note{note}, state.QuickNotes...)
	return note, nil
}

// UpdateQuickNote edits a note in place. The timestamp is kept.
func (state *AppState) UpdateQuickNote(id, name, text string) error {
	for index := range state.QuickNotes {
		note := &state.QuickNotes[index]
		if note.ID != id {
			continue
		}
		name = strings.TrimSpace(name)
		text = strings.TrimSpace(text)
		if name == "" {
			if text == "" {
				return fmt.Errorf("update note %s: %w", id, ErrEmptyTitle)
			}
			name = DeriveNoteName(text, note.Timestamp.Time())
		}
		note.Name = name
		note.Text = text
		return nil
	}
	return fmt.Errorf("update note %s: %w", id, ErrNoteNotFound)
}

// DeleteQuickNote removes a note.
func (state *AppState) DeleteQuickNote(id string) error {
	for index, note := range state.QuickNotes {
		if note.ID == id {
			state.QuickNotes = append(state.QuickNotes[:index:index], state.QuickNotes[index+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete note %s: %w", id, ErrNoteNotFound)
}

// FindQuickNote returns the note with the given id.
func (state *AppState) FindQuickNote(id string) (Note, bool) {
	for _, note := range state.QuickNotes {
		if note.ID == id {
			return note, true
		}
	}
	return Note{}, false
}
