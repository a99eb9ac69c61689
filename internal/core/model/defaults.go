package model

import "fmt"

const (
	InboxProjectID   = "inbox"
	InboxProjectName = "Inbox"
)

// DefaultPomodoro returns the stock pomodoro configuration.
func DefaultPomodoro() PomodoroConfig {
	return PomodoroConfig{WorkMin: 25, BreakMin: 5, LongBreakMin: 15, Cycle: 0}
}

// Default returns the document installed on first launch.
func Default() AppState {
	return AppState{
		Theme:            ThemeDark,
		CurrentProjectID: InboxProjectID,
		Projects:         []Project{newInbox()},
		Notes:            "",
		QuickNotes:       []Note{},
		TimerSessions:    []Session{},
		TimePoolSec:      0,
		Pomodoro:         DefaultPomodoro(),
		Scheduled:        []ScheduledItem{},
	}
}

func newInbox() Project {
	return Project{ID: InboxProjectID, Name: InboxProjectName, Columns: emptyColumns()}
}

func emptyColumns() *Columns {
	return &Columns{Todo: []Task{}, Doing: []Task{}, Done: []Task{}}
}

// Normalize fills in the minimal valid structure of a document without
// discarding well-formed data. It returns a description of every repair.
func Normalize(state *AppState) []string {
	var repairs []string
	repair := func(format string, args ...any) {
		repairs = append(repairs, fmt.Sprintf(format, args...))
	}

	if state.Theme != ThemeDark && state.Theme != ThemeLight {
		if state.Theme != "" {
			repair("unknown theme %q replaced", state.Theme)
		}
		state.Theme = ThemeDark
	}

	if len(state.Projects) == 0 {
		repair("projects missing, installed %s", InboxProjectID)
		state.Projects = []Project{newInbox()}
		state.CurrentProjectID = InboxProjectID
	}
	for index := range state.Projects {
		project := &state.Projects[index]
		if project.Columns == nil {
			repair("project %s: columns missing", project.ID)
			project.Columns = emptyColumns()
		}
		if dropped := project.Columns.Dropped(); dropped > 0 {
			repair("project %s: %d malformed task(s) dropped", project.ID, dropped)
		}
		for _, status := range Statuses {
			list := project.Columns.column(status)
			if *list == nil {
				*list = []Task{}
			}
			for taskIndex := range *list {
				if (*list)[taskIndex].Status != status {
					(*list)[taskIndex].Status = status
				}
			}
		}
	}
	if _, ok := state.FindProject(state.CurrentProjectID); !ok {
		if state.CurrentProjectID != "" {
			repair("current project %s not found", state.CurrentProjectID)
		}
		state.CurrentProjectID = state.Projects[0].ID
	}

	if state.QuickNotes == nil {
		state.QuickNotes = []Note{}
	}
	if state.TimerSessions == nil {
		state.TimerSessions = []Session{}
	}
	if state.Scheduled == nil {
		state.Scheduled = []ScheduledItem{}
	}
	if state.TimePoolSec < 0 {
		repair("negative time pool %d clamped", state.TimePoolSec)
		state.TimePoolSec = 0
	}
	if state.Pomodoro == (PomodoroConfig{}) {
		state.Pomodoro = DefaultPomodoro()
	}
	return repairs
}

// Clone returns a deep copy of the document.
func Clone(state AppState) AppState {
	out := state
	if state.Projects != nil {
		out.Projects = make([]Project, len(state.Projects))
		for index, project := range state.Projects {
			out.Projects[index] = project
			if project.Columns != nil {
				columns := &Columns{
					Todo:  cloneTasks(project.Columns.Todo),
					Doing: cloneTasks(project.Columns.Doing),
					Done:  cloneTasks(project.Columns.Done),
				}
				out.Projects[index].Columns = columns
			}
		}
	}
	if state.QuickNotes != nil {
		out.QuickNotes = append([]Note{}, state.QuickNotes...)
	}
	if state.TimerSessions != nil {
		out.TimerSessions = make([]Session, len(state.TimerSessions))
		for index, session := range state.TimerSessions {
			out.TimerSessions[index] = session
			if session.TaskID != nil {
				taskID := *session.TaskID
				out.TimerSessions[index].TaskID = &taskID
			}
		}
	}
	if state.Scheduled != nil {
		out.Scheduled = append([]ScheduledItem{}, state.Scheduled...)
	}
	return out
}

func cloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	return append([]Task{}, tasks...)
}
