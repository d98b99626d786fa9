package task

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("task not found")
	ErrInvalidStatus   = errors.New("invalid task status")
	ErrInvalidPriority = errors.New("invalid task priority")
	ErrInvalidDueDate  = errors.New("invalid due date")
)

type Status string

const (
	StatusTodo       Status = "Todo"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

func (s Status) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	DueDate     time.Time `json:"dueDate"`
	UserID      string    `json:"user"`
	ProjectID   string    `json:"projectId"`
	AssignedTo  *string   `json:"assignedTo,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ProjectRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// WithProject is a task joined with the title of its project.
type WithProject struct {
	Task
	Project ProjectRef `json:"project"`
}

type CreateRequest struct {
	Title       string  `json:"title" binding:"max=200"`
	Description string  `json:"description" binding:"max=2000"`
	ProjectID   string  `json:"projectId"`
	Priority    string  `json:"priority" binding:"omitempty,taskpriority"`
	Status      string  `json:"status" binding:"omitempty,taskstatus"`
	DueDate     string  `json:"dueDate"`
	AssignedTo  *string `json:"assignedTo"`
}

// Patch lists the mutable task fields. An empty AssignedTo clears the assignee.
type Patch struct {
	Title       *string `json:"title" binding:"omitempty,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Status      *string `json:"status" binding:"omitempty,taskstatus"`
	Priority    *string `json:"priority" binding:"omitempty,taskpriority"`
	DueDate     *string `json:"dueDate"`
	AssignedTo  *string `json:"assignedTo"`
	ProjectID   *string `json:"projectId"`
}

var dueDateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}

// ParseDueDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func ParseDueDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidDueDate
	}

	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, ErrInvalidDueDate
}

// New builds a task owned by creatorID. Empty status or priority take the defaults.
func New(creatorID, projectID, title, description string, status Status, priority Priority, due time.Time, assignedTo *string) Task {
	now := time.Now().UTC()

	if status == "" {
		status = StatusTodo
	}
	if priority == "" {
		priority = PriorityMedium
	}

	return Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Status:      status,
		Priority:    priority,
		DueDate:     due,
		UserID:      creatorID,
		ProjectID:   projectID,
		AssignedTo:  assignedTo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
