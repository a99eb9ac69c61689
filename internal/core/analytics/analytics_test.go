package analytics

import (
	"testing"
	"time"

	"focusflow/internal/core/model"
)

func session(label string, start time.Time, seconds int, taskID string) model.Session {
	return model.NewSession(label, taskID, model.InboxProjectID, start, start.Add(time.Duration(seconds)*time.Second))
}

func TestStartOfWeekIsMonday(t *testing.T) {
	sunday := time.Date(2026, 3, 8, 22, 30, 0, 0, time.UTC)
	got := ViewWeek.StartOf(sunday)
	want := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("StartOf(week) = %v, want %v", got, want)
	}
	if end := ViewWeek.EndOf(got); !end.Equal(want.AddDate(0, 0, 7)) {
		t.Fatalf("EndOf(week) = %v", end)
	}
	if month := ViewMonth.StartOf(sunday); !month.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("StartOf(month) = %v", month)
	}
}

func TestAggregateBuckets(t *testing.T) {
	monday := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	sessions := []model.Session{
		session(model.LabelFocus, monday.AddDate(0, 0, 1), 600, ""),
		session(model.LabelFocus, monday, 1500, ""),
		session(model.LabelConfirmed, monday.Add(2*time.Hour), 300, ""),
		{Label: "broken", StartISO: "not a date", DurationSec: 99},
	}

	days := Aggregate(sessions, ViewDay, time.UTC)
	if len(days) != 2 {
		t.Fatalf("day buckets = %d, want 2", len(days))
	}
	if days[0].TotalSec != 1800 || days[0].Sessions != 2 || days[1].TotalSec != 600 {
		t.Fatalf("day buckets = %+v", days)
	}

	weeks := Aggregate(sessions, ViewWeek, time.UTC)
	if len(weeks) != 1 || Total(weeks) != 2400 {
		t.Fatalf("week buckets = %+v", weeks)
	}
	if label := ViewWeek.Label(weeks[0].Start); label != "KW 10" {
		t.Fatalf("week label = %q", label)
	}
}

func TestDetailResolvesTaskTitles(t *testing.T) {
	doc := model.Default()
	task, err := doc.AddTask(model.InboxProjectID, "Write report", "", time.Now())
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	monday := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	doc.TimerSessions = []model.Session{
		session(model.LabelConfirmed, monday.Add(time.Hour), 60, "gone"),
		session(model.LabelFocus, monday, 1500, task.ID),
		session(model.LabelFocus, monday.AddDate(0, 0, 1), 1500, ""),
	}

	detail := DetailFor(doc, ViewDay, monday)
	if len(detail.Entries) != 2 || detail.TotalSec != 1560 {
		t.Fatalf("detail = %+v", detail)
	}
	if caption := detail.Entries[0].Caption(); caption != "Focus · Write report" {
		t.Fatalf("first caption = %q", caption)
	}
	if caption := detail.Entries[1].Caption(); caption != "Confirmed · gone" {
		t.Fatalf("second caption = %q", caption)
	}
}

func TestTodaySummary(t *testing.T) {
	now := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	if got := Today(nil, now).String(); got != "No sessions yet." {
		t.Fatalf("empty summary = %q", got)
	}
	sessions := []model.Session{
		session(model.LabelFocus, now.Add(-2*time.Hour), 1500, ""),
		session(model.LabelFocus, now.Add(-24*time.Hour), 1500, ""),
		session(model.LabelConfirmed, now.Add(-time.Hour), 65, ""),
	}
	summary := Today(sessions, now)
	if summary.Sessions != 2 || summary.TotalSec != 1565 {
		t.Fatalf("summary = %+v", summary)
	}
	if got := summary.String(); got != "2 session(s), total 00:26:05 today." {
		t.Fatalf("summary text = %q", got)
	}
}

func TestParseView(t *testing.T) {
	if view, err := ParseView("month"); err != nil || view != ViewMonth {
		t.Fatalf("ParseView(month) = %q, %v", view, err)
	}
	if _, err := ParseView("year"); err == nil {
		t.Fatal("ParseView(year) succeeded")
	}
}
