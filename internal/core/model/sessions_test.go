package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewSession(t *testing.T) {
	start := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	end := start.Add(5*time.Second + 400*time.Millisecond)

	session := NewSession(LabelFocus, "task-1", InboxProjectID, start, end)
	if session.DurationSec != 5 {
		t.Fatalf("expected 5s, got %d", session.DurationSec)
	}
	if session.StartISO != "2025-01-02T10:00:00.000Z" {
		t.Fatalf("unexpected start %q", session.StartISO)
	}
	if session.Task() != "task-1" || !session.End().Equal(end.Truncate(time.Millisecond)) {
		t.Fatalf("unexpected session %+v", session)
	}
	if backwards := NewSession(LabelFocus, "", "", end, start); backwards.DurationSec != 0 || backwards.TaskID != nil {
		t.Fatalf("expected clamped duration and null task, got %+v", backwards)
	}
}

func TestBankAndResetAnalytics(t *testing.T) {
	state := Default()
	state.Projects[0].Columns.Doing = []Task{{ID: "t", Title: "x", Status: StatusDoing}}

	state.Bank(10, "t")
	state.Bank(0, "t")
	state.Bank(5, "")
	if state.TimePoolSec != 15 {
		t.Fatalf("expected pool 15, got %d", state.TimePoolSec)
	}
	if task, _, _ := state.FindTask("t"); task.DoneSec != 10 {
		t.Fatalf("expected doneSec 10, got %d", task.DoneSec)
	}

	state.AppendSession(NewSession(LabelConfirmed, "t", InboxProjectID, time.Now(), time.Now()))
	state.ResetAnalytics()
	if state.TimePoolSec != 0 || len(state.TimerSessions) != 0 || state.TimerSessions == nil {
		t.Fatalf("analytics not reset: %+v", state)
	}
}

func TestTimestampAcceptsBothEncodings(t *testing.T) {
	var notes []Note
	raw := `[{"id":"a","timestamp":1700000000000},{"id":"b","timestamp":"2023-11-14T22:13:20.000Z"},{"id":"c","timestamp":null}]`
	if err := json.Unmarshal([]byte(raw), &notes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if notes[0].Timestamp != 1700000000000 || notes[1].Timestamp != 1700000000000 || notes[2].Timestamp != 0 {
		t.Fatalf("unexpected timestamps %+v", notes)
	}
	encoded, err := json.Marshal(notes[1])
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(encoded) != `{"id":"b","name":"","text":"","timestamp":1700000000000}` {
		t.Fatalf("unexpected encoding %s", encoded)
	}
}
