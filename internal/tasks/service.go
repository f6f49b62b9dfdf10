package tasks

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turbovets/taskboard/internal/rbac"
)

// Service decides whether a task operation may proceed and applies it.
type Service struct {
	store Store
	now   func() time.Time
	newID func() string
}

// NewService constructs a Service backed by store.
func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// CreateTask persists a new task owned by actor. Status always starts at todo.
func (s *Service) CreateTask(ctx context.Context, in CreateInput, actor rbac.Principal) (*Task, error) {
	if !actor.Can(rbac.PermCreateTask) {
		return nil, denied("you do not have permission to create tasks")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("title is required")
	}
	priority := in.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.Valid() {
		return nil, invalid("unknown priority %q", priority)
	}

	now := s.now()
	task := &Task{
		ID:          s.newID(),
		Title:       title,
		Description: in.Description,
		Status:      StatusTodo,
		Priority:    priority,
		CreatorID:   actor.ID,
		AssigneeID:  normalizeID(in.AssigneeID),
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return s.store.Save(ctx, task)
}

// ListTasks returns the tasks visible to actor: every task for managers,
// otherwise those actor created or is assigned to.
func (s *Service) ListTasks(ctx context.Context, actor rbac.Principal) ([]Task, error) {
	if !actor.Can(rbac.PermReadTask) {
		return nil, denied("you do not have permission to view tasks")
	}
	var filter Filter
	if !actor.IsManager() {
		filter.VisibleTo = actor.ID
	}
	return s.store.Query(ctx, filter)
}

// GetTask returns a single visible task.
func (s *Service) GetTask(ctx context.Context, id string, actor rbac.Principal) (*Task, error) {
	return s.authorizeAndLoad(ctx, id, actor)
}

// UpdateTask applies changes to a task created by actor (or any task for
// managers). The creator never changes.
func (s *Service) UpdateTask(ctx context.Context, id string, changes UpdateInput, actor rbac.Principal) (*Task, error) {
	_, task, err := s.update(ctx, id, changes, actor)
	return task, err
}

// update is UpdateTask that also returns the assignee the task had before.
func (s *Service) update(ctx context.Context, id string, changes UpdateInput, actor rbac.Principal) (*string, *Task, error) {
	task, err := s.authorizeAndLoad(ctx, id, actor)
	if err != nil {
		return nil, nil, err
	}
	if err := requireOwnership(task, actor, rbac.PermUpdateTask, "update"); err != nil {
		return nil, nil, err
	}

	updated := *task
	if err := changes.applyTo(&updated); err != nil {
		return nil, nil, err
	}
	updated.UpdatedAt = s.now()
	saved, err := s.store.Save(ctx, &updated)
	if err != nil {
		return nil, nil, err
	}
	return task.AssigneeID, saved, nil
}

// DeleteTask physically removes a task.
func (s *Service) DeleteTask(ctx context.Context, id string, actor rbac.Principal) error {
	task, err := s.authorizeAndLoad(ctx, id, actor)
	if err != nil {
		return err
	}
	if err := requireOwnership(task, actor, rbac.PermDeleteTask, "delete"); err != nil {
		return err
	}
	return s.store.Remove(ctx, task)
}

// AssignTask sets the assignee of a task. The assignee is stored by id only and
// an empty id clears it.
func (s *Service) AssignTask(ctx context.Context, id, assigneeID string, actor rbac.Principal) (*Task, error) {
	_, task, err := s.assign(ctx, id, assigneeID, actor)
	return task, err
}

// assign is AssignTask that also returns the assignee the task had before.
func (s *Service) assign(ctx context.Context, id, assigneeID string, actor rbac.Principal) (*string, *Task, error) {
	task, err := s.authorizeAndLoad(ctx, id, actor)
	if err != nil {
		return nil, nil, err
	}
	if err := requireOwnership(task, actor, rbac.PermAssignTask, "assign"); err != nil {
		return nil, nil, err
	}

	updated := *task
	updated.AssigneeID = normalizeID(&assigneeID)
	updated.Assignee = nil
	updated.UpdatedAt = s.now()
	saved, err := s.store.Save(ctx, &updated)
	if err != nil {
		return nil, nil, err
	}
	return task.AssigneeID, saved, nil
}

// authorizeAndLoad is the shared read path of every single-task operation:
// read permission, then existence, then visibility. Mutations run it before
// their own checks.
func (s *Service) authorizeAndLoad(ctx context.Context, id string, actor rbac.Principal) (*Task, error) {
	if !actor.Can(rbac.PermReadTask) {
		return nil, denied("you do not have permission to view tasks")
	}
	task, err := s.store.FindOne(ctx, Criteria{ID: id})
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrNotFound
	}
	if !actor.IsManager() && task.CreatorID != actor.ID && !task.IsAssignedTo(actor.ID) {
		return nil, denied("you do not have access to this task")
	}
	return task, nil
}

// requireOwnership checks the operation permission first, then that actor
// created the task unless actor is a manager.
func requireOwnership(task *Task, actor rbac.Principal, perm rbac.Permission, verb string) error {
	if !actor.Can(perm) {
		return denied("you do not have permission to %s tasks", verb)
	}
	if !actor.IsManager() && task.CreatorID != actor.ID {
		return denied("you do not have permission to %s this task", verb)
	}
	return nil
}

func (in UpdateInput) applyTo(task *Task) error {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return invalid("title must not be empty")
		}
		task.Title = title
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return invalid("unknown status %q", *in.Status)
		}
		task.Status = *in.Status
	}
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return invalid("unknown priority %q", *in.Priority)
		}
		task.Priority = *in.Priority
	}
	if in.Description != nil {
		task.Description = *in.Description
	}
	if in.AssigneeID != nil {
		task.AssigneeID = normalizeID(in.AssigneeID)
		task.Assignee = nil
	}
	if in.DueDate != nil {
		due := *in.DueDate
		task.DueDate = &due
	}
	return nil
}

func normalizeID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
