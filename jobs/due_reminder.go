package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/turbovets/taskboard/internal/jobs"
	"github.com/turbovets/taskboard/internal/tasks"
)

// DefaultReminderWindow is used when the payload carries no window.
const DefaultReminderWindow = 24 * time.Hour

// DueTaskFinder lists open tasks due within a time range.
type DueTaskFinder interface {
	DueBetween(ctx context.Context, from, to time.Time) ([]tasks.Task, error)
}

// DueReminderJob reminds the responsible user about tasks due soon. The
// assignee is reminded when present, otherwise the creator. With a Ledger
// each due date is reminded about once across runs.
type DueReminderJob struct {
	Finder   DueTaskFinder
	Notifier Notifier
	Ledger   ReminderLedger
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewDueReminderJob wires dependencies for the reminder handler.
func NewDueReminderJob(finder DueTaskFinder, notifier Notifier, logger *slog.Logger, metrics *jobmetrics.Metrics) *DueReminderJob {
	return &DueReminderJob{
		Finder:   finder,
		Notifier: notifier,
		Logger:   logger,
		Metrics:  metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskTypeDueReminder tasks. Delivery failures for single
// tasks are logged and counted; the run fails only if every delivery failed.
func (j *DueReminderJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Finder == nil || j.Notifier == nil {
		return errors.New("due reminder: handler not configured")
	}
	var payload DueReminderPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.Window <= 0 {
		payload.Window = DefaultReminderWindow
	}

	tracker := j.metrics().Track(TaskTypeDueReminder)
	defer func() {
		err = tracker.End(err)
	}()

	now := j.now()
	logger := j.logger().With(slog.Duration("window", payload.Window))
	due, err := j.Finder.DueBetween(ctx, now, now.Add(payload.Window))
	if err != nil {
		logger.Error("load due tasks", slog.Any("error", err))
		return err
	}

	sent, failed, skipped := 0, 0, 0
	for _, task := range due {
		n, ok := reminderFor(task)
		if !ok {
			continue
		}
		claimed, err := j.claim(ctx, task, now)
		if err != nil {
			logger.Warn("claim reminder", slog.String("task_id", task.ID), slog.Any("error", err))
		}
		if !claimed {
			skipped++
			continue
		}
		if err := j.Notifier.Notify(ctx, n); err != nil {
			failed++
			logger.Warn("deliver reminder", slog.String("task_id", task.ID), slog.Any("error", err))
			j.release(ctx, task, logger)
			continue
		}
		sent++
	}
	j.metrics().AddNotifications(TaskTypeDueReminder, sent)
	logger.Info("due reminder scan completed",
		slog.Int("due", len(due)),
		slog.Int("sent", sent),
		slog.Int("skipped", skipped),
		slog.Int("failed", failed))
	if failed > 0 && sent == 0 {
		return fmt.Errorf("due reminder: %d deliveries failed", failed)
	}
	return nil
}

// claim reports whether the reminder for task should be delivered now. A
// ledger fault claims the reminder so deliveries are not lost.
func (j *DueReminderJob) claim(ctx context.Context, task tasks.Task, now time.Time) (bool, error) {
	if j.Ledger == nil {
		return true, nil
	}
	claimed, err := j.Ledger.MarkSent(ctx, task.ID, *task.DueDate, task.DueDate.Sub(now))
	if err != nil {
		return true, err
	}
	return claimed, nil
}

func (j *DueReminderJob) release(ctx context.Context, task tasks.Task, logger *slog.Logger) {
	if j.Ledger == nil {
		return
	}
	if err := j.Ledger.Forget(ctx, task.ID, *task.DueDate); err != nil {
		logger.Warn("release reminder", slog.String("task_id", task.ID), slog.Any("error", err))
	}
}

func reminderFor(task tasks.Task) (Notification, bool) {
	recipient := task.Creator
	if task.Assignee != nil {
		recipient = task.Assignee
	}
	if recipient == nil || task.DueDate == nil {
		return Notification{}, false
	}
	return Notification{
		UserID:  recipient.ID,
		Email:   recipient.Email,
		Subject: "Due soon: " + task.Title,
		Body:    fmt.Sprintf("Task %q is due %s.", task.Title, task.DueDate.UTC().Format(time.RFC1123)),
	}, true
}

func (j *DueReminderJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeDueReminder))
	}
	return slog.Default().With(slog.String("job", TaskTypeDueReminder))
}

func (j *DueReminderJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DueReminderJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
