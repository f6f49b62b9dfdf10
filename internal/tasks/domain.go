package tasks

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Status is the board column a task sits in.
type Status string

// Task statuses in board order.
const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

// Statuses returns every status in board order.
func Statuses() []Status {
	return []Status{StatusTodo, StatusInProgress, StatusReview, StatusDone}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

// Label renders the status as a column heading, e.g. "IN PROGRESS".
func (s Status) Label() string {
	return cases.Upper(language.Und).String(strings.ReplaceAll(string(s), "_", " "))
}

// Priority ranks tasks.
type Priority string

// Task priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// UserRef is the identity of a creator or assignee joined onto a task.
type UserRef struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Task is a unit of work on the board.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	CreatorID   string     `json:"creatorId"`
	AssigneeID  *string    `json:"assigneeId"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	Creator  *UserRef `json:"creator,omitempty"`
	Assignee *UserRef `json:"assignee,omitempty"`
}

// IsAssignedTo reports whether userID is the task's assignee.
func (t Task) IsAssignedTo(userID string) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// CreateInput carries the fields accepted when creating a task.
type CreateInput struct {
	Title       string
	Description string
	Priority    Priority
	AssigneeID  *string
	DueDate     *time.Time
}

// UpdateInput carries optional field changes. Nil fields are left untouched.
// The creator is deliberately absent.
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
	AssigneeID  *string
	DueDate     *time.Time
}

// Criteria selects a single task.
type Criteria struct {
	ID string
}

// Filter narrows a task query. A non-empty VisibleTo matches tasks whose
// creator OR assignee equals that user id; the zero Filter matches every task.
type Filter struct {
	VisibleTo string
}
