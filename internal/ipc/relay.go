package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"focusflow/internal/core/model"
	"focusflow/internal/logging"
)

// ErrUnroutable is returned by Dispatch for messages that only flow from the
// host to the surfaces.
var ErrUnroutable = errors.New("message is not routed to the host")

// CommandHandler executes timer commands. The timer engine implements it.
type CommandHandler interface {
	HandleCommand(ctx context.Context, command model.Command) error
}

// TaskEditor opens the editor for a task on the main surface.
type TaskEditor interface {
	EditTask(ctx context.Context, taskID string) error
}

// Relay forwards surface requests to the host. It holds no timer state.
type Relay struct {
	handler CommandHandler
	editor  TaskEditor
	logger  *slog.Logger
}

// NewRelay returns a relay. editor may be nil until the main surface exists.
func NewRelay(handler CommandHandler, editor TaskEditor, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Relay{handler: handler, editor: editor, logger: logger}
}

// SetEditor installs the task editor.
func (relay *Relay) SetEditor(editor TaskEditor) {
	relay.editor = editor
}

// Command validates and forwards a timer command.
func (relay *Relay) Command(ctx context.Context, command model.Command) error {
	if !command.Valid() {
		return fmt.Errorf("relay command: %w: %q", ErrUnknownCommand, command)
	}
	if relay.handler == nil {
		return fmt.Errorf("relay command %s: no handler", command)
	}
	relay.logger.Debug("relaying timer command", "command", command)
	return relay.handler.HandleCommand(ctx, command)
}

// EditTask forwards an edit request. Unknown tasks are logged and dropped.
func (relay *Relay) EditTask(ctx context.Context, taskID string) error {
	if relay.editor == nil || taskID == "" {
		relay.logger.Warn("task edit request dropped", "task", taskID)
		return nil
	}
	err := relay.editor.EditTask(ctx, taskID)
	if errors.Is(err, model.ErrTaskNotFound) {
		relay.logger.Warn("task edit request for unknown task", "task", taskID)
		return nil
	}
	return err
}

// Dispatch routes a decoded message to the matching host operation.
func (relay *Relay) Dispatch(ctx context.Context, msg Message) error {
	switch typed := msg.(type) {
	case TimerCommand:
		return relay.Command(ctx, typed.Command)
	case TaskEditRequest:
		return relay.EditTask(ctx, typed.TaskID)
	case nil:
		return fmt.Errorf("dispatch: %w", ErrUnknownMessage)
	default:
		return fmt.Errorf("dispatch %s: %w", msg.Kind(), ErrUnroutable)
	}
}
