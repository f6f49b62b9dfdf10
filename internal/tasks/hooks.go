package tasks

import (
	"context"
	"log/slog"

	"github.com/turbovets/taskboard/internal/rbac"
	"github.com/turbovets/taskboard/internal/shared"
)

// Task mutation actions reported to observers.
const (
	ActionCreated  = "task.created"
	ActionUpdated  = "task.updated"
	ActionDeleted  = "task.deleted"
	ActionAssigned = "task.assigned"
)

// Event describes a completed task mutation. PreviousAssigneeID is the
// assignee before an update or assignment; it is nil for other actions.
type Event struct {
	Action             string
	Actor              rbac.Principal
	Task               Task
	PreviousAssigneeID *string
}

// AssigneeChanged reports whether the mutation left the task with a
// different assignee than it had before.
func (ev Event) AssigneeChanged() bool {
	switch {
	case ev.Task.AssigneeID == nil:
		return ev.PreviousAssigneeID != nil
	case ev.PreviousAssigneeID == nil:
		return true
	default:
		return *ev.Task.AssigneeID != *ev.PreviousAssigneeID
	}
}

// Observer reacts to completed mutations. Observers cannot fail the
// mutation; they log their own errors.
type Observer interface {
	TaskChanged(ctx context.Context, ev Event)
}

// Observers fans an event out to every member.
type Observers []Observer

// TaskChanged implements Observer.
func (o Observers) TaskChanged(ctx context.Context, ev Event) {
	for _, obs := range o {
		if obs != nil {
			obs.TaskChanged(ctx, ev)
		}
	}
}

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// AuditObserver writes one audit row per mutation.
type AuditObserver struct {
	Recorder AuditRecorder
	Logger   *slog.Logger
}

// TaskChanged implements Observer.
func (a AuditObserver) TaskChanged(ctx context.Context, ev Event) {
	if a.Recorder == nil {
		return
	}
	meta := map[string]any{
		"title":    ev.Task.Title,
		"status":   ev.Task.Status,
		"priority": ev.Task.Priority,
	}
	if ev.Task.AssigneeID != nil {
		meta["assignee_id"] = *ev.Task.AssigneeID
	}
	err := a.Recorder.Record(ctx, shared.AuditLog{
		ActorID:  ev.Actor.ID,
		Action:   ev.Action,
		Entity:   "task",
		EntityID: ev.Task.ID,
		Meta:     meta,
	})
	if err != nil && a.Logger != nil {
		a.Logger.Warn("audit record failed",
			slog.String("action", ev.Action),
			slog.String("task_id", ev.Task.ID),
			slog.Any("error", err))
	}
}

// AssignmentEnqueuer schedules assignment notifications.
type AssignmentEnqueuer interface {
	EnqueueTaskAssigned(ctx context.Context, taskID, title, assigneeID, actorID string) error
}

// AssignmentNotifier enqueues a notification when a task is created with, or
// moved to, an assignee other than the actor.
type AssignmentNotifier struct {
	Enqueuer AssignmentEnqueuer
	Logger   *slog.Logger
}

// TaskChanged implements Observer.
func (n AssignmentNotifier) TaskChanged(ctx context.Context, ev Event) {
	if n.Enqueuer == nil || ev.Task.AssigneeID == nil || *ev.Task.AssigneeID == ev.Actor.ID {
		return
	}
	switch ev.Action {
	case ActionCreated:
	case ActionUpdated, ActionAssigned:
		if !ev.AssigneeChanged() {
			return
		}
	default:
		return
	}
	if err := n.Enqueuer.EnqueueTaskAssigned(ctx, ev.Task.ID, ev.Task.Title, *ev.Task.AssigneeID, ev.Actor.ID); err != nil && n.Logger != nil {
		n.Logger.Warn("enqueue assignment notification failed",
			slog.String("task_id", ev.Task.ID),
			slog.Any("error", err))
	}
}
