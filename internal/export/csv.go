package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"focusflow/internal/core/model"
)

// ToCSV writes every recorded session of doc to path.
func ToCSV(doc model.AppState, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"ID", "Label", "Project", "Task", "Start", "End", "Duration (s)", "Duration"}); err != nil {
		return err
	}

	names := projectNames(doc)
	for _, session := range doc.TimerSessions {
		row := []string{
			session.ID,
			session.Label,
			projectName(names, session.ProjectID),
			taskTitle(doc, session.Task()),
			localTime(session.Start()),
			localTime(session.End()),
			strconv.Itoa(session.DurationSec),
			model.FormatHHMMSS(session.DurationSec),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func projectNames(doc model.AppState) map[string]string {
	names := make(map[string]string, len(doc.Projects))
	for _, project := range doc.Projects {
		names[project.ID] = project.Name
	}
	return names
}

func projectName(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return "Unknown"
}

func taskTitle(doc model.AppState, id string) string {
	if id == "" {
		return ""
	}
	if task, _, ok := doc.FindTask(id); ok {
		return task.Title
	}
	return id
}

func localTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(time.RFC3339)
}
