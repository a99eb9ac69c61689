package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"focusflow/internal/core/model"
)

type jsonExport struct {
	ExportedAt  string        `json:"exported_at"`
	Count       int           `json:"count"`
	TimePoolSec int           `json:"time_pool_seconds"`
	Sessions    []jsonSession `json:"sessions"`
}

type jsonSession struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Project     string `json:"project"`
	ProjectID   string `json:"project_id"`
	Task        string `json:"task,omitempty"`
	TaskID      string `json:"task_id,omitempty"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time,omitempty"`
	DurationSec int    `json:"duration_seconds"`
	Duration    string `json:"duration"`
}

// ToJSON writes every recorded session of doc to path as indented JSON.
func ToJSON(doc model.AppState, path string) error {
	export := jsonExport{
		ExportedAt:  time.Now().UTC().Format(time.RFC3339),
		Count:       len(doc.TimerSessions),
		TimePoolSec: doc.TimePoolSec,
	}

	names := projectNames(doc)
	for _, session := range doc.TimerSessions {
		export.Sessions = append(export.Sessions, jsonSession{
			ID:          session.ID,
			Label:       session.Label,
			Project:     projectName(names, session.ProjectID),
			ProjectID:   session.ProjectID,
			Task:        taskTitle(doc, session.Task()),
			TaskID:      session.Task(),
			StartTime:   localTime(session.Start()),
			EndTime:     localTime(session.End()),
			DurationSec: session.DurationSec,
			Duration:    model.FormatHHMMSS(session.DurationSec),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
