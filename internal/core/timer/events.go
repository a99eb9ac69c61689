package timer

import (
	"time"

	"focusflow/internal/core/model"
)

// EventType defines the type of engine event.
type EventType string

const (
	// EventTick carries a new payload. It is sent for every state change and
	// every second a timer runs.
	EventTick            EventType = "tick"
	EventSessionComplete EventType = "session_complete"
	EventBanked          EventType = "banked"
	EventIdlePaused      EventType = "idle_paused"
	EventIdleError       EventType = "idle_error"
	EventPersistError    EventType = "persist_error"
)

// Event represents an engine update for observers.
type Event struct {
	Type        EventType
	Payload     model.TimerPayload
	DurationSec int
	TaskID      string
	Message     string
	At          time.Time
}
