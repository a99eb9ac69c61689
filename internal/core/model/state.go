package model

import "encoding/json"

// Theme selects the UI color scheme.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Status is a board column and mirrors where a task lives.
type Status string

const (
	StatusTodo  Status = "todo"
	StatusDoing Status = "doing"
	StatusDone  Status = "done"
)

// Statuses lists the board columns in display order.
var Statuses = []Status{StatusTodo, StatusDoing, StatusDone}

// Valid reports whether status names a board column.
func (status Status) Valid() bool {
	switch status {
	case StatusTodo, StatusDoing, StatusDone:
		return true
	default:
		return false
	}
}

// AppState is the single persisted document shared by every window.
type AppState struct {
	Theme            Theme           `json:"theme"`
	CurrentProjectID string          `json:"currentProjectId"`
	Projects         []Project       `json:"projects"`
	Notes            string          `json:"notes"`
	QuickNotes       []Note          `json:"quickNotes"`
	TimerSessions    []Session       `json:"timerSessions"`
	TimePoolSec      int             `json:"timePoolSec"`
	Pomodoro         PomodoroConfig  `json:"pomodoro"`
	Scheduled        []ScheduledItem `json:"scheduled"`
}

// Project groups tasks into kanban columns.
type Project struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Columns *Columns `json:"columns,omitempty"`
}

// Columns holds the tasks of a project per status.
type Columns struct {
	Todo  []Task `json:"todo"`
	Doing []Task `json:"doing"`
	Done  []Task `json:"done"`

	dropped int
}

// Task is a single kanban card.
type Task struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Notes     string `json:"notes"`
	Status    Status `json:"status"`
	CreatedAt int64  `json:"createdAt"`
	DoneSec   int    `json:"doneSec,omitempty"`
}

// Note is a quick note captured from the main window or the panel.
type Note struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Text      string    `json:"text"`
	Timestamp Timestamp `json:"timestamp"`
}

// Session is an immutable record of a completed or confirmed timer run.
type Session struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	TaskID      *string `json:"taskId"`
	ProjectID   string  `json:"projectId"`
	StartISO    string  `json:"startISO"`
	EndISO      string  `json:"endISO"`
	DurationSec int     `json:"durationSec"`
}

// PomodoroConfig is kept for forward compatibility.
type PomodoroConfig struct {
	WorkMin      int `json:"workMin"`
	BreakMin     int `json:"breakMin"`
	LongBreakMin int `json:"longBreakMin"`
	Cycle        int `json:"cycle"`
}

// ScheduledItem is reserved and unused by the core logic.
type ScheduledItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	AtISO string `json:"atISO"`
}

// UnmarshalJSON decodes each task on its own. A malformed task or column is
// left out and counted in Dropped, and the rest of the board survives.
func (columns *Columns) UnmarshalJSON(data []byte) error {
	*columns = Columns{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		columns.dropped++
		return nil
	}
	for _, status := range Statuses {
		value, ok := raw[string(status)]
		if !ok {
			continue
		}
		var entries []json.RawMessage
		if err := json.Unmarshal(value, &entries); err != nil {
			columns.dropped++
			continue
		}
		tasks := make([]Task, 0, len(entries))
		for _, entry := range entries {
			var task Task
			if err := json.Unmarshal(entry, &task); err != nil {
				columns.dropped++
				continue
			}
			tasks = append(tasks, task)
		}
		*columns.column(status) = tasks
	}
	return nil
}

// Dropped returns how many tasks or columns were left out when the columns
// were decoded.
func (columns *Columns) Dropped() int {
	if columns == nil {
		return 0
	}
	return columns.dropped
}

// column returns a pointer to the slice backing status.
func (columns *Columns) column(status Status) *[]Task {
	switch status {
	case StatusTodo:
		return &columns.Todo
	case StatusDoing:
		return &columns.Doing
	case StatusDone:
		return &columns.Done
	default:
		return nil
	}
}

// Column returns the tasks in status.
func (columns *Columns) Column(status Status) []Task {
	if columns == nil {
		return nil
	}
	list := columns.column(status)
	if list == nil {
		return nil
	}
	return *list
}

// FindProject returns the project with the given id.
func (state *AppState) FindProject(id string) (*Project, bool) {
	for index := range state.Projects {
		if state.Projects[index].ID == id {
			return &state.Projects[index], true
		}
	}
	return nil, false
}

// CurrentProject returns the selected project, falling back to the first one.
func (state *AppState) CurrentProject() *Project {
	if project, ok := state.FindProject(state.CurrentProjectID); ok {
		return project
	}
	if len(state.Projects) == 0 {
		return nil
	}
	return &state.Projects[0]
}

// AllTasks returns the tasks of a project across columns in board order.
func AllTasks(project *Project) []Task {
	if project == nil || project.Columns == nil {
		return nil
	}
	tasks := make([]Task, 0, len(project.Columns.Todo)+len(project.Columns.Doing)+len(project.Columns.Done))
	tasks = append(tasks, project.Columns.Todo...)
	tasks = append(tasks, project.Columns.Doing...)
	tasks = append(tasks, project.Columns.Done...)
	return tasks
}

// TaskCounts sums tasks per status across all projects.
func (state *AppState) TaskCounts() map[Status]int {
	counts := make(map[Status]int, len(Statuses))
	for _, project := range state.Projects {
		for _, status := range Statuses {
			counts[status] += len(project.Columns.Column(status))
		}
	}
	return counts
}
