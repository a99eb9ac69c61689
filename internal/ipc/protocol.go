// Package ipc defines the closed set of messages exchanged between the
// timer host and the overlay, panel and main surfaces, and the relay that
// routes surface commands back to the host.
package ipc

import (
	"encoding/json"
	"errors"
	"fmt"

	"focusflow/internal/core/model"
)

var (
	// ErrUnknownMessage is returned by Decode for a type outside the vocabulary.
	ErrUnknownMessage = errors.New("unknown message type")
	// ErrUnknownCommand is returned for a timer command outside the vocabulary.
	ErrUnknownCommand = model.ErrUnknownCommand
)

// Kind names a message type on the wire.
type Kind string

const (
	KindTimerTick    Kind = "timer:tick"
	KindTimerCommand Kind = "timer:command"
	KindTaskEdit     Kind = "task:edit"
	KindStoreUpdated Kind = "store:updated"
	KindOverlayMode  Kind = "overlay:mode"
	KindNotification Kind = "notification"
)

// Message is one of the types declared in this package.
type Message interface {
	Kind() Kind
	message()
}

// TimerTick carries the live timer view to every surface.
type TimerTick struct {
	Payload model.TimerPayload `json:"payload"`
}

// TimerCommand asks the timer host to pause, reset or confirm.
type TimerCommand struct {
	Command model.Command `json:"command"`
}

// TaskEditRequest asks the main window to open the editor for a task.
type TaskEditRequest struct {
	TaskID string `json:"taskId"`
}

// StoreUpdated carries the full persisted document after a write.
type StoreUpdated struct {
	State    model.AppState `json:"state"`
	Revision uint64         `json:"revision"`
}

// OverlayMode tells the overlay surface which layout to render.
type OverlayMode struct {
	Mode string `json:"mode"`
}

// Notification is a user-visible message, e.g. "timer already active".
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (TimerTick) Kind() Kind       { return KindTimerTick }
func (TimerCommand) Kind() Kind    { return KindTimerCommand }
func (TaskEditRequest) Kind() Kind { return KindTaskEdit }
func (StoreUpdated) Kind() Kind    { return KindStoreUpdated }
func (OverlayMode) Kind() Kind     { return KindOverlayMode }
func (Notification) Kind() Kind    { return KindNotification }

func (TimerTick) message()       {}
func (TimerCommand) message()    {}
func (TaskEditRequest) message() {}
func (StoreUpdated) message()    {}
func (OverlayMode) message()     {}
func (Notification) message()    {}

type envelope struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Encode wraps msg in a {"type", "payload"} envelope.
func Encode(msg Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("encode message: %w", ErrUnknownMessage)
	}
	if command, ok := msg.(TimerCommand); ok && !command.Command.Valid() {
		return nil, fmt.Errorf("encode message: %w: %q", ErrUnknownCommand, command.Command)
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", msg.Kind(), err)
	}
	data, err := json.Marshal(envelope{Type: msg.Kind(), Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", msg.Kind(), err)
	}
	return data, nil
}

// Decode parses an envelope produced by Encode. Unknown types and unknown
// timer commands are rejected.
func Decode(data []byte) (Message, error) {
	var wrapped envelope
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var (
		msg Message
		err error
	)
	switch wrapped.Type {
	case KindTimerTick:
		msg, err = decodePayload[TimerTick](wrapped.Payload)
	case KindTimerCommand:
		var command TimerCommand
		command, err = decodePayload[TimerCommand](wrapped.Payload)
		if err == nil && !command.Command.Valid() {
			return nil, fmt.Errorf("decode message: %w: %q", ErrUnknownCommand, command.Command)
		}
		msg = command
	case KindTaskEdit:
		msg, err = decodePayload[TaskEditRequest](wrapped.Payload)
	case KindStoreUpdated:
		msg, err = decodePayload[StoreUpdated](wrapped.Payload)
	case KindOverlayMode:
		msg, err = decodePayload[OverlayMode](wrapped.Payload)
	case KindNotification:
		msg, err = decodePayload[Notification](wrapped.Payload)
	default:
		return nil, fmt.Errorf("decode message: %w: %q", ErrUnknownMessage, wrapped.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", wrapped.Type, err)
	}
	return msg, nil
}

func decodePayload[T any](raw json.RawMessage) (T, error) {
	var value T
	if len(raw) == 0 {
		return value, nil
	}
	err := json.Unmarshal(raw, &value)
	return value, err
}
