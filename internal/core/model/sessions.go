package model

import (
	"math"
	"time"
)

// ISOLayout is the millisecond UTC layout session bounds are stored in.
const ISOLayout = "2006-01-02T15:04:05.000Z07:00"

// Session labels.
const (
	LabelFocus     = "Focus"
	LabelConfirmed = "Confirmed"
)

// NewSession builds a session record for a run between start and end.
func NewSession(label string, taskID string, projectID string, start, end time.Time) Session {
	session := Session{
		ID:          NewID(),
		Label:       label,
		ProjectID:   projectID,
		StartISO:    start.UTC().Format(ISOLayout),
		EndISO:      end.UTC().Format(ISOLayout),
		DurationSec: DurationSeconds(start, end),
	}
	if taskID != "" {
		id := taskID
		session.TaskID = &id
	}
	return session
}

// DurationSeconds rounds the wall-clock span to whole seconds, never negative.
func DurationSeconds(start, end time.Time) int {
	seconds := math.Round(end.Sub(start).Seconds())
	if seconds < 0 {
		return 0
	}
	return int(seconds)
}

// Start parses the session start. Unparseable values yield the zero time.
func (session Session) Start() time.Time {
	return parseISO(session.StartISO)
}

// End parses the session end.
func (session Session) End() time.Time {
	return parseISO(session.EndISO)
}

// Task returns the linked task id or "".
func (session Session) Task() string {
	if session.TaskID == nil {
		return ""
	}
	return *session.TaskID
}

func parseISO(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

// AppendSession records a finished run.
func (state *AppState) AppendSession(session Session) {
	state.TimerSessions = append(state.TimerSessions, session)
}

// Bank adds confirmed seconds to the time pool and to the linked task.
func (state *AppState) Bank(seconds int, taskID string) {
	if seconds <= 0 {
		return
	}
	state.TimePoolSec += seconds
	state.AddDoneSeconds(taskID, seconds)
}

// ResetAnalytics clears every session and the time pool.
func (state *AppState) ResetAnalytics() {
	state.TimerSessions = []Session{}
	state.TimePoolSec = 0
}
