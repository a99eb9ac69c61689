// Package analytics aggregates recorded focus sessions for the reports view.
package analytics

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"focusflow/internal/core/model"
)

var ErrUnknownView = errors.New("unknown analytics view")

// View is the bucket size of a report.
type View string

const (
	ViewDay   View = "day"
	ViewWeek  View = "week"
	ViewMonth View = "month"
)

// Views lists the views in display order.
var Views = []View{ViewDay, ViewWeek, ViewMonth}

func ParseView(value string) (View, error) {
	view := View(value)
	switch view {
	case ViewDay, ViewWeek, ViewMonth:
		return view, nil
	}
	return "", fmt.Errorf("parse view %q: %w", value, ErrUnknownView)
}

// StartOf returns the start of the bucket containing t, in t's location.
// Weeks start on Monday.
func (view View) StartOf(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	switch view {
	case ViewWeek:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case ViewMonth:
		return day.AddDate(0, 0, 1-day.Day())
	default:
		return day
	}
}

// EndOf returns the exclusive end of the bucket starting at start.
func (view View) EndOf(start time.Time) time.Time {
	switch view {
	case ViewWeek:
		return start.AddDate(0, 0, 7)
	case ViewMonth:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// Label is the short axis label of a bucket.
func (view View) Label(start time.Time) string {
	switch view {
	case ViewWeek:
		_, week := start.ISOWeek()
		return fmt.Sprintf("KW %d", week)
	case ViewMonth:
		return start.Format("Jan")
	default:
		return start.Format("Mon")
	}
}

// Bucket is the focused time of one day, week or month.
type Bucket struct {
	Start    time.Time
	TotalSec int
	Sessions int
}

// Aggregate sums session durations per bucket, oldest first. Sessions with
// an unreadable start are skipped.
func Aggregate(sessions []model.Session, view View, loc *time.Location) []Bucket {
	if loc == nil {
		loc = time.Local
	}
	totals := make(map[int64]*Bucket)
	for _, session := range sessions {
		start := session.Start()
		if start.IsZero() {
			continue
		}
		bucketStart := view.StartOf(start.In(loc))
		bucket, ok := totals[bucketStart.Unix()]
		if !ok {
			bucket = &Bucket{Start: bucketStart}
			totals[bucketStart.Unix()] = bucket
		}
		bucket.TotalSec += max(session.DurationSec, 0)
		bucket.Sessions++
	}

	buckets := make([]Bucket, 0, len(totals))
	for _, bucket := range totals {
		buckets = append(buckets, *bucket)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Start.Before(buckets[j].Start)
	})
	return buckets
}

// Total sums all buckets.
func Total(buckets []Bucket) int {
	total := 0
	for _, bucket := range buckets {
		total += bucket.TotalSec
	}
	return total
}

// Entry is one session in a bucket detail.
type Entry struct {
	Session   model.Session
	Start     time.Time
	TaskTitle string
}

// Caption is the label shown for the entry, with the task when known.
func (entry Entry) Caption() string {
	switch {
	case entry.TaskTitle != "":
		return entry.Session.Label + " · " + entry.TaskTitle
	case entry.Session.Task() != "":
		return entry.Session.Label + " · " + entry.Session.Task()
	default:
		return entry.Session.Label
	}
}

// Detail lists the sessions of one bucket.
type Detail struct {
	From     time.Time
	To       time.Time
	TotalSec int
	Entries  []Entry
}

// DetailFor returns the sessions that started inside the bucket at
// bucketStart, oldest first, with task titles resolved from the board.
func DetailFor(doc model.AppState, view View, bucketStart time.Time) Detail {
	from := view.StartOf(bucketStart)
	detail := Detail{From: from, To: view.EndOf(from)}

	for _, session := range doc.TimerSessions {
		start := session.Start()
		if start.IsZero() {
			continue
		}
		start = start.In(from.Location())
		if start.Before(detail.From) || !start.Before(detail.To) {
			continue
		}
		entry := Entry{Session: session, Start: start}
		if taskID := session.Task(); taskID != "" {
			if task, _, ok := doc.FindTask(taskID); ok {
				entry.TaskTitle = task.Title
			}
		}
		detail.Entries = append(detail.Entries, entry)
		detail.TotalSec += max(session.DurationSec, 0)
	}
	sort.SliceStable(detail.Entries, func(i, j int) bool {
		return detail.Entries[i].Start.Before(detail.Entries[j].Start)
	})
	return detail
}

// Summary counts today's sessions.
type Summary struct {
	Sessions int
	TotalSec int
}

// Today summarises the sessions that started on now's calendar day.
func Today(sessions []model.Session, now time.Time) Summary {
	from := ViewDay.StartOf(now)
	to := ViewDay.EndOf(from)
	var summary Summary
	for _, session := range sessions {
		start := session.Start()
		if start.IsZero() {
			continue
		}
		start = start.In(now.Location())
		if start.Before(from) || !start.Before(to) {
			continue
		}
		summary.Sessions++
		summary.TotalSec += max(session.DurationSec, 0)
	}
	return summary
}

func (summary Summary) String() string {
	if summary.Sessions == 0 {
		return "No sessions yet."
	}
	return fmt.Sprintf("%d session(s), total %s today.", summary.Sessions, model.FormatHHMMSS(summary.TotalSec))
}
