package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeTaskAssigned notifies a user that a task was assigned to them.
	TaskTypeTaskAssigned = "task:assigned"
	// TaskTypeDueReminder scans for tasks approaching their due date.
	TaskTypeDueReminder = "task:due_reminder"
)

// TaskAssignedPayload describes an assignment notification.
type TaskAssignedPayload struct {
	TaskID     string `json:"task_id"`
	Title      string `json:"title"`
	AssigneeID string `json:"assignee_id"`
	ActorID    string `json:"actor_id"`
}

// DueReminderPayload configures a due reminder scan.
type DueReminderPayload struct {
	Window time.Duration `json:"window"`
}

// NewTaskAssignedTask constructs an Asynq task.
func NewTaskAssignedTask(payload TaskAssignedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeTaskAssigned, data), nil
}

// NewDueReminderTask constructs the periodic reminder scan.
func NewDueReminderTask(window time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(DueReminderPayload{Window: window})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeDueReminder, data), nil
}
