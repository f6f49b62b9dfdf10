package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/turbovets/taskboard/internal/jobs"
	"github.com/turbovets/taskboard/internal/users"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// UserLookup resolves the recipient of a notification.
type UserLookup interface {
	Get(ctx context.Context, id string) (*users.User, error)
}

// TaskAssignedJob tells an assignee about a new assignment.
type TaskAssignedJob struct {
	Users    UserLookup
	Notifier Notifier
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewTaskAssignedJob wires dependencies for the assignment handler.
func NewTaskAssignedJob(lookup UserLookup, notifier Notifier, logger *slog.Logger, metrics *jobmetrics.Metrics) *TaskAssignedJob {
	return &TaskAssignedJob{Users: lookup, Notifier: notifier, Logger: logger, Metrics: metrics}
}

// Handle processes TaskTypeTaskAssigned tasks. Unknown assignees are
// skipped without retry since assignee ids are not checked on write.
func (j *TaskAssignedJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Notifier == nil || j.Users == nil {
		return errors.New("task assigned: handler not configured")
	}
	var payload TaskAssignedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.TaskID == "" || payload.AssigneeID == "" {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskTypeTaskAssigned)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.logger().With(slog.String("task_id", payload.TaskID), slog.String("assignee_id", payload.AssigneeID))
	user, err := j.Users.Get(ctx, payload.AssigneeID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			logger.Warn("assignee not found, dropping notification")
			return fmt.Errorf("assignee %s: %w", payload.AssigneeID, asynq.SkipRetry)
		}
		return err
	}

	if err := j.Notifier.Notify(ctx, Notification{
		UserID:  user.ID,
		Email:   user.Email,
		Subject: "You were assigned: " + payload.Title,
		Body:    fmt.Sprintf("Task %q (%s) has been assigned to you.", payload.Title, payload.TaskID),
	}); err != nil {
		logger.Error("deliver assignment notification", slog.Any("error", err))
		return err
	}
	j.metrics().AddNotifications(TaskTypeTaskAssigned, 1)
	logger.Info("assignment notification sent")
	return nil
}

func (j *TaskAssignedJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeTaskAssigned))
	}
	return slog.Default().With(slog.String("job", TaskTypeTaskAssigned))
}

func (j *TaskAssignedJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
