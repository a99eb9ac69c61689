package timer

import (
	"errors"
	"fmt"
	"time"

	"focusflow/internal/core/model"
)

var (
	// ErrTimerActive is returned when a timer of the other kind holds progress.
	ErrTimerActive = errors.New("timer already active")
	// ErrInvalidTransition is returned for an input the current state cannot take.
	ErrInvalidTransition = errors.New("invalid timer transition")
	// ErrInvalidDuration is returned for a non-positive countdown length.
	ErrInvalidDuration = errors.New("invalid countdown duration")
)

// Input is something that happens to the timer.
type Input interface {
	isInput()
}

// StartCountdown starts a countdown, or resumes a paused one. A zero
// duration falls back to the idle preset.
type StartCountdown struct {
	DurationSec int
	TaskID      string
}

// PauseResumeCountdown toggles a countdown between running and paused.
type PauseResumeCountdown struct{}

// ResetCountdown rewinds the countdown to its original length. Preset is
// used when there is no countdown to rewind.
type ResetCountdown struct {
	Preset int
}

// StartStopwatch starts a stopwatch, or resumes a paused one.
type StartStopwatch struct {
	TaskID string
}

// PauseResumeStopwatch toggles a stopwatch between running and paused.
type PauseResumeStopwatch struct{}

// ResetStopwatch clears the stopwatch.
type ResetStopwatch struct{}

// SetDuration is the inline countdown edit.
type SetDuration struct {
	Seconds int
}

// Tick advances a running timer by one second.
type Tick struct{}

// Confirm ends the current timer and banks what it measured. Preset is the
// countdown length the idle state returns to. From idle it banks Pending.
type Confirm struct {
	Preset  int
	Pending *Completion
}

// BankPending banks Pending, whatever the timer is doing now.
type BankPending struct {
	Pending *Completion
}

// RunCommand is a command relayed from the overlay or the panel. It is
// resolved against the state it arrives in.
type RunCommand struct {
	Command model.Command
	Preset  int
	Pending *Completion
}

// IdlePause pauses a running timer because the user went away.
type IdlePause struct{}

func (StartCountdown) isInput()       {}
func (PauseResumeCountdown) isInput() {}
func (ResetCountdown) isInput()       {}
func (StartStopwatch) isInput()       {}
func (PauseResumeStopwatch) isInput() {}
func (ResetStopwatch) isInput()       {}
func (SetDuration) isInput()          {}
func (Tick) isInput()                 {}
func (Confirm) isInput()              {}
func (BankPending) isInput()          {}
func (RunCommand) isInput()           {}
func (IdlePause) isInput()            {}

// Effect is work the engine performs after a transition.
type Effect interface {
	isEffect()
}

// StartLoop starts a fresh tick loop.
type StartLoop struct{}

// StopLoop stops the tick loop.
type StopLoop struct{}

// Emit publishes the payload of the new state.
type Emit struct{}

// RecordSession appends a session to the document.
type RecordSession struct {
	Label  string
	TaskID string
	Start  time.Time
	End    time.Time
}

// BankTime adds seconds to the time pool and to the task.
type BankTime struct {
	Seconds int
	TaskID  string
}

// Completed signals that a countdown reached zero.
type Completed struct {
	DurationSec int
	TaskID      string
}

// Paused signals that an idle check paused the timer.
type Paused struct{}

// ClearPending drops the banked completion.
type ClearPending struct{}

func (StartLoop) isEffect()     {}
func (StopLoop) isEffect()      {}
func (Emit) isEffect()          {}
func (RecordSession) isEffect() {}
func (BankTime) isEffect()      {}
func (Completed) isEffect()     {}
func (Paused) isEffect()        {}
func (ClearPending) isEffect()  {}

// Transition computes the next state and the effects of input. It never
// mutates state. An error leaves the state unchanged and has no effects.
func Transition(state State, input Input, now time.Time) (State, []Effect, error) {
	if state == nil {
		state = Idle{}
	}
	switch input := input.(type) {
	case StartCountdown:
		return startCountdown(state, input, now)
	case PauseResumeCountdown:
		return pauseResumeCountdown(state, now)
	case ResetCountdown:
		return resetCountdown(state, input)
	case StartStopwatch:
		return startStopwatch(state, input, now)
	case PauseResumeStopwatch:
		return pauseResumeStopwatch(state, now)
	case ResetStopwatch:
		return resetStopwatch(state)
	case SetDuration:
		return setDuration(state, input)
	case Tick:
		return tick(state, now)
	case Confirm:
		return confirm(state, input, now)
	case BankPending:
		return bankPending(state, input)
	case RunCommand:
		return runCommand(state, input, now)
	case IdlePause:
		return idlePause(state)
	default:
		return state, nil, fmt.Errorf("%w: unknown input %T", ErrInvalidTransition, input)
	}
}

func startCountdown(state State, input StartCountdown, now time.Time) (State, []Effect, error) {
	duration := input.DurationSec
	switch current := state.(type) {
	case Idle:
		if duration <= 0 {
			duration = current.Preset
		}
	case Countdown:
		if !current.Paused && current.Remaining > 0 {
			return state, nil, fmt.Errorf("%w: countdown is running", ErrInvalidTransition)
		}
		if current.Remaining > 0 {
			current.Paused = false
			current.StartedAt = now
			return current, []Effect{StartLoop{}, Emit{}}, nil
		}
		if duration <= 0 {
			duration = current.Original
		}
	case Stopwatch:
		if Engaged(current) {
			return state, nil, fmt.Errorf("start countdown: %w", ErrTimerActive)
		}
	}
	if duration <= 0 {
		return state, nil, fmt.Errorf("start countdown: %w", ErrInvalidDuration)
	}
	next := Countdown{
		Remaining: duration,
		Original:  duration,
		TaskID:    input.TaskID,
		StartedAt: now,
	}
	return next, []Effect{StartLoop{}, Emit{}}, nil
}

func pauseResumeCountdown(state State, now time.Time) (State, []Effect, error) {
	current, ok := state.(Countdown)
	if !ok || current.Remaining <= 0 {
		return state, nil, fmt.Errorf("%w: no countdown to pause", ErrInvalidTransition)
	}
	if current.Paused {
		current.Paused = false
		current.StartedAt = now
		return current, []Effect{StartLoop{}, Emit{}}, nil
	}
	current.Paused = true
	return current, []Effect{StopLoop{}, Emit{}}, nil
}

func resetCountdown(state State, input ResetCountdown) (State, []Effect, error) {
	switch current := state.(type) {
	case Countdown:
		next := Countdown{
			Remaining: current.Original,
			Original:  current.Original,
			Paused:    true,
			TaskID:    current.TaskID,
		}
		return next, []Effect{StopLoop{}, Emit{}}, nil
	case Stopwatch:
		if Engaged(current) {
			return state, nil, fmt.Errorf("reset countdown: %w", ErrTimerActive)
		}
	case Idle:
		if current.Preset > 0 {
			input.Preset = current.Preset
		}
	}
	if input.Preset <= 0 {
		return state, nil, fmt.Errorf("reset countdown: %w", ErrInvalidDuration)
	}
	next := Countdown{Remaining: input.Preset, Original: input.Preset, Paused: true}
	return next, []Effect{Emit{}}, nil
}

func startStopwatch(state State, input StartStopwatch, now time.Time) (State, []Effect, error) {
	switch current := state.(type) {
	case Stopwatch:
		if !current.Paused {
			return state, nil, fmt.Errorf("%w: stopwatch is running", ErrInvalidTransition)
		}
		current.Paused = false
		current.StartedAt = now
		if current.TaskID == "" {
			current.TaskID = input.TaskID
		}
		return current, []Effect{StartLoop{}, Emit{}}, nil
	case Countdown:
		if Engaged(current) {
			return state, nil, fmt.Errorf("start stopwatch: %w", ErrTimerActive)
		}
	}
	next := Stopwatch{TaskID: input.TaskID, StartedAt: now}
	return next, []Effect{StartLoop{}, Emit{}}, nil
}

func pauseResumeStopwatch(state State, now time.Time) (State, []Effect, error) {
	current, ok := state.(Stopwatch)
	if !ok {
		return state, nil, fmt.Errorf("%w: no stopwatch to pause", ErrInvalidTransition)
	}
	if current.Paused {
		current.Paused = false
		current.StartedAt = now
		return current, []Effect{StartLoop{}, Emit{}}, nil
	}
	current.Paused = true
	return current, []Effect{StopLoop{}, Emit{}}, nil
}

func resetStopwatch(state State) (State, []Effect, error) {
	current, ok := state.(Stopwatch)
	if !ok {
		return state, []Effect{Emit{}}, nil
	}
	next := Stopwatch{Paused: true, TaskID: current.TaskID}
	return next, []Effect{StopLoop{}, Emit{}}, nil
}

func setDuration(state State, input SetDuration) (State, []Effect, error) {
	if input.Seconds <= 0 {
		return state, nil, fmt.Errorf("set duration %d: %w", input.Seconds, ErrInvalidDuration)
	}
	switch current := state.(type) {
	case Idle:
		current.Preset = input.Seconds
		return current, []Effect{Emit{}}, nil
	case Countdown:
		if !current.Paused && current.Remaining > 0 {
			return state, nil, fmt.Errorf("%w: countdown is running", ErrInvalidTransition)
		}
		next := Countdown{
			Remaining: input.Seconds,
			Original:  input.Seconds,
			Paused:    true,
			TaskID:    current.TaskID,
		}
		return next, []Effect{Emit{}}, nil
	case Stopwatch:
		if Engaged(current) {
			return state, nil, fmt.Errorf("set duration: %w", ErrTimerActive)
		}
		return Idle{Preset: input.Seconds}, []Effect{Emit{}}, nil
	}
	return state, nil, fmt.Errorf("%w: unknown state %T", ErrInvalidTransition, state)
}

func tick(state State, now time.Time) (State, []Effect, error) {
	switch current := state.(type) {
	case Countdown:
		if current.Paused || current.Remaining <= 0 {
			return state, nil, nil
		}
		current.Remaining--
		if current.Remaining > 0 {
			return current, []Effect{Emit{}}, nil
		}
		completion := Completion{
			DurationSec: model.DurationSeconds(current.StartedAt, now),
			TaskID:      current.TaskID,
		}
		next := Idle{Preset: current.Original}
		return next, []Effect{
			StopLoop{},
			RecordSession{Label: model.LabelFocus, TaskID: current.TaskID, Start: current.StartedAt, End: now},
			Emit{},
			Completed{DurationSec: completion.DurationSec, TaskID: completion.TaskID},
		}, nil
	case Stopwatch:
		if current.Paused {
			return state, nil, nil
		}
		current.Elapsed++
		return current, []Effect{Emit{}}, nil
	}
	return state, nil, nil
}

func confirm(state State, input Confirm, now time.Time) (State, []Effect, error) {
	var (
		elapsed int
		taskID  string
		running = Running(state)
	)
	switch current := state.(type) {
	case Countdown:
		elapsed = max(0, current.Original-current.Remaining)
		taskID = current.TaskID
	case Stopwatch:
		elapsed = max(0, current.Elapsed)
		taskID = current.TaskID
	case Idle:
		if input.Pending == nil {
			return state, nil, nil
		}
		pending := *input.Pending
		return current, []Effect{BankTime{Seconds: pending.DurationSec, TaskID: pending.TaskID}, ClearPending{}, Emit{}}, nil
	}

	preset := input.Preset
	if preset <= 0 {
		if countdown, ok := state.(Countdown); ok {
			preset = countdown.Original
		}
	}
	effects := make([]Effect, 0, 4)
	if running {
		effects = append(effects, StopLoop{})
	}
	if elapsed > 0 {
		effects = append(effects,
			BankTime{Seconds: elapsed, TaskID: taskID},
			RecordSession{
				Label:  model.LabelConfirmed,
				TaskID: taskID,
				Start:  now.Add(-time.Duration(elapsed) * time.Second),
				End:    now,
			},
		)
	}
	effects = append(effects, Emit{})
	return Idle{Preset: preset}, effects, nil
}

func bankPending(state State, input BankPending) (State, []Effect, error) {
	if input.Pending == nil {
		return state, nil, nil
	}
	pending := *input.Pending
	return state, []Effect{BankTime{Seconds: pending.DurationSec, TaskID: pending.TaskID}, ClearPending{}}, nil
}

// runCommand maps a relayed command onto the state it finds. pause with
// nothing to pause is a no-op. reset rewinds the stopwatch when that is the
// active timer and the countdown otherwise.
func runCommand(state State, input RunCommand, now time.Time) (State, []Effect, error) {
	switch input.Command {
	case model.CommandPause:
		switch current := state.(type) {
		case Countdown:
			if current.Remaining > 0 {
				return pauseResumeCountdown(state, now)
			}
		case Stopwatch:
			return pauseResumeStopwatch(state, now)
		}
		return state, nil, nil
	case model.CommandReset:
		if _, ok := state.(Stopwatch); ok {
			return resetStopwatch(state)
		}
		return resetCountdown(state, ResetCountdown{Preset: input.Preset})
	case model.CommandConfirm:
		return confirm(state, Confirm{Preset: input.Preset, Pending: input.Pending}, now)
	}
	return state, nil, fmt.Errorf("run command %q: %w", input.Command, model.ErrUnknownCommand)
}

func idlePause(state State) (State, []Effect, error) {
	if !Running(state) {
		return state, nil, nil
	}
	switch current := state.(type) {
	case Countdown:
		current.Paused = true
		return current, []Effect{StopLoop{}, Emit{}, Paused{}}, nil
	case Stopwatch:
		current.Paused = true
		return current, []Effect{StopLoop{}, Emit{}, Paused{}}, nil
	}
	return state, nil, nil
}
