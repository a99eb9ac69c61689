package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrEmptyTitle      = errors.New("title is required")
)

// NewID returns a fresh identifier for tasks, notes, projects and sessions.
var NewID = func() string {
	return uuid.NewString()
}

type taskLocation struct {
	project int
	status  Status
	index   int
}

func (state *AppState) locateTask(id string) (taskLocation, bool) {
	for projectIndex := range state.Projects {
		columns := state.Projects[projectIndex].Columns
		if columns == nil {
			continue
		}
		for _, status := range Statuses {
			for taskIndex, task := range columns.Column(status) {
				if task.ID == id {
					return taskLocation{project: projectIndex, status: status, index: taskIndex}, true
				}
			}
		}
	}
	return taskLocation{}, false
}

// FindTask returns a copy of the task and the project that owns it.
func (state *AppState) FindTask(id string) (Task, *Project, bool) {
	location, ok := state.locateTask(id)
	if !ok {
		return Task{}, nil, false
	}
	project := &state.Projects[location.project]
	return project.Columns.Column(location.status)[location.index], project, true
}

// AddTask appends a new task to the todo column of a project.
func (state *AppState) AddTask(projectID, title, notes string, now time.Time) (Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Task{}, ErrEmptyTitle
	}
	project, ok := state.FindProject(projectID)
	if !ok {
		return Task{}, fmt.Errorf("add task to %s: %w", projectID, ErrProjectNotFound)
	}
	if project.Columns == nil {
		project.Columns = emptyColumns()
	}
	task := Task{
		ID:        NewID(),
		Title:     title,
		Notes:     strings.TrimSpace(notes),
		Status:    StatusTodo,
		CreatedAt: now.UnixMilli(),
	}
	project.Columns.Todo = append(project.Columns.Todo, task)
	return task, nil
}

// UpdateTask replaces the title and notes of a task.
func (state *AppState) UpdateTask(id, title, notes string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	location, ok := state.locateTask(id)
	if !ok {
		return fmt.Errorf("update task %s: %w", id, ErrTaskNotFound)
	}
	list := state.Projects[location.project].Columns.column(location.status)
	(*list)[location.index].Title = title
	(*list)[location.index].Notes = strings.TrimSpace(notes)
	return nil
}

// RenameTask changes only the title, as the panel's inline editor does.
func (state *AppState) RenameTask(id, title string) error {
	task, _, ok := state.FindTask(id)
	if !ok {
		return fmt.Errorf("rename task %s: %w", id, ErrTaskNotFound)
	}
	return state.UpdateTask(id, title, task.Notes)
}

// MoveTaskTo moves a task into status within its owning project. Any copies
// of the id found elsewhere are dropped so the task ends up in one column.
func (state *AppState) MoveTaskTo(id string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("move task %s to %q: %w", id, status, ErrInvalidStatus)
	}
	location, ok := state.locateTask(id)
	if !ok {
		return fmt.Errorf("move task %s: %w", id, ErrTaskNotFound)
	}
	owner := &state.Projects[location.project]
	task := owner.Columns.Column(location.status)[location.index]
	state.removeTaskEverywhere(id)

	task.Status = status
	list := owner.Columns.column(status)
	*list = append(*list, task)
	return nil
}

func (state *AppState) removeTaskEverywhere(id string) int {
	removed := 0
	for projectIndex := range state.Projects {
		columns := state.Projects[projectIndex].Columns
		if columns == nil {
			continue
		}
		for _, status := range Statuses {
			list := columns.column(status)
			kept := (*list)[:0]
			for _, task := range *list {
				if task.ID == id {
					removed++
					continue
				}
				kept = append(kept, task)
			}
			*list = kept
		}
	}
	return removed
}

// DeleteTask removes a task from the board.
func (state *AppState) DeleteTask(id string) error {
	if state.removeTaskEverywhere(id) == 0 {
		return fmt.Errorf("delete task %s: %w", id, ErrTaskNotFound)
	}
	return nil
}

// ToggleTaskDone implements the panel checkbox: checking moves a task to
// done, unchecking a done task moves it back to doing.
func (state *AppState) ToggleTaskDone(id string, done bool) error {
	location, ok := state.locateTask(id)
	if !ok {
		return fmt.Errorf("toggle task %s: %w", id, ErrTaskNotFound)
	}
	target := StatusTodo
	switch {
	case done:
		target = StatusDone
	case location.status == StatusDone:
		target = StatusDoing
	}
	return state.MoveTaskTo(id, target)
}

// StartTask moves a todo task into doing. Tasks in other columns are left alone.
func (state *AppState) StartTask(id string) error {
	location, ok := state.locateTask(id)
	if !ok {
		return fmt.Errorf("start task %s: %w", id, ErrTaskNotFound)
	}
	if location.status != StatusTodo {
		return nil
	}
	return state.MoveTaskTo(id, StatusDoing)
}

// AddDoneSeconds credits focused seconds to a task. It reports whether the
// task still exists.
func (state *AppState) AddDoneSeconds(taskID string, seconds int) bool {
	if taskID == "" || seconds <= 0 {
		return false
	}
	location, ok := state.locateTask(taskID)
	if !ok {
		return false
	}
	list := state.Projects[location.project].Columns.column(location.status)
	(*list)[location.index].DoneSec += seconds
	return true
}

// AddProject creates a project and makes it current.
func (state *AppState) AddProject(name string) (Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Project{}, fmt.Errorf("add project: %w", ErrEmptyTitle)
	}
	project := Project{ID: NewID(), Name: name, Columns: emptyColumns()}
	state.Projects = append(state.Projects, project)
	state.CurrentProjectID = project.ID
	return project, nil
}

// SelectProject switches the current project.
func (state *AppState) SelectProject(id string) error {
	if _, ok := state.FindProject(id); !ok {
		return fmt.Errorf("select project %s: %w", id, ErrProjectNotFound)
	}
	state.CurrentProjectID = id
	return nil
}

// SearchTasks filters tasks by a fuzzy match of query against title and
// notes. Matches keep board order.
func SearchTasks(tasks []Task, query string) []Task {
	query = strings.TrimSpace(query)
	if query == "" {
		return tasks
	}
	haystack := make([]string, len(tasks))
	for index, task := range tasks {
		haystack[index] = task.Title + " " + task.Notes
	}
	matches := fuzzy.Find(query, haystack)
	indexes := make([]int, 0, len(matches))
	for _, match := range matches {
		indexes = append(indexes, match.Index)
	}
	sort.Ints(indexes)

	out := make([]Task, 0, len(indexes))
	for _, index := range indexes {
		out = append(out, tasks[index])
	}
	return out
}
