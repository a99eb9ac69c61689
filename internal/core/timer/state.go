package timer

import (
	"time"

	"focusflow/internal/core/model"
)

// State is the timer state. It is exactly one of Idle, Countdown or Stopwatch.
type State interface {
	Mode() model.TimerMode
	isState()
}

// Completion is a finished countdown that has not been added to the time
// pool yet. It lives beside the state, not in it, so starting the next timer
// does not discard it.
type Completion struct {
	DurationSec int
	TaskID      string
}

// Idle means no timer runs. Preset is the next countdown length in seconds.
type Idle struct {
	Preset int
}

// Countdown counts Remaining down from Original.
type Countdown struct {
	Remaining int
	Original  int
	Paused    bool
	TaskID    string
	// StartedAt is when the current tick loop started.
	StartedAt time.Time
}

// Stopwatch counts Elapsed up.
type Stopwatch struct {
	Elapsed   int
	Paused    bool
	TaskID    string
	StartedAt time.Time
}

func (Idle) Mode() model.TimerMode      { return model.TimerIdle }
func (Countdown) Mode() model.TimerMode { return model.TimerCountdown }
func (Stopwatch) Mode() model.TimerMode { return model.TimerStopwatch }

func (Idle) isState()      {}
func (Countdown) isState() {}
func (Stopwatch) isState() {}

// Running reports whether the state needs a tick loop.
func Running(state State) bool {
	switch typed := state.(type) {
	case Countdown:
		return !typed.Paused && typed.Remaining > 0
	case Stopwatch:
		return !typed.Paused
	default:
		return false
	}
}

// Engaged reports whether the state holds progress that a start of the other
// timer kind would discard.
func Engaged(state State) bool {
	switch typed := state.(type) {
	case Countdown:
		return !typed.Paused || (typed.Remaining > 0 && typed.Remaining < typed.Original)
	case Stopwatch:
		return !typed.Paused || typed.Elapsed > 0
	default:
		return false
	}
}

// TaskID returns the task linked to the state, if any.
func TaskID(state State) string {
	switch typed := state.(type) {
	case Countdown:
		return typed.TaskID
	case Stopwatch:
		return typed.TaskID
	default:
		return ""
	}
}

// Payload renders the state as the live view sent to every surface.
func Payload(state State, config model.TimerConfig) model.TimerPayload {
	switch typed := state.(type) {
	case Countdown:
		return model.TimerPayload{
			Mode:      model.TimerCountdown,
			Remaining: max(typed.Remaining, 0),
			Label:     config.CountdownLabel,
			TaskID:    typed.TaskID,
			IsPaused:  typed.Paused,
		}
	case Stopwatch:
		return model.TimerPayload{
			Mode:     model.TimerStopwatch,
			Elapsed:  max(typed.Elapsed, 0),
			Label:    config.StopwatchLabel,
			TaskID:   typed.TaskID,
			IsPaused: typed.Paused,
		}
	case Idle:
		return model.TimerPayload{
			Mode:      model.TimerIdle,
			Remaining: max(typed.Preset, 0),
			Label:     config.CountdownLabel,
			IsPaused:  true,
		}
	default:
		return model.TimerPayload{Mode: model.TimerIdle, IsPaused: true}
	}
}
