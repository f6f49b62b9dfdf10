package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turbovets/taskboard/internal/platform/db"
)

const taskSelect = `
SELECT t.id::text, t.title, t.description, t.status::text, t.priority::text,
       t.creator_id::text, t.assignee_id::text, t.due_date, t.created_at, t.updated_at,
       c.email, c.first_name, c.last_name,
       a.email, a.first_name, a.last_name
  FROM tasks t
  JOIN users c ON c.id = t.creator_id
  LEFT JOIN users a ON a.id = t.assignee_id`

// PGStore persists tasks in PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// FindOne loads a task with creator and assignee joined. Ids that are not
// UUIDs cannot exist and yield (nil, nil).
func (s *PGStore) FindOne(ctx context.Context, criteria Criteria) (*Task, error) {
	if _, err := uuid.Parse(criteria.ID); err != nil {
		return nil, nil
	}
	row := s.pool.QueryRow(ctx, taskSelect+` WHERE t.id = $1`, criteria.ID)
	task, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Save inserts or updates a task and returns the stored row. The creator and
// creation time of an existing row are never overwritten.
func (s *PGStore) Save(ctx context.Context, task *Task) (*Task, error) {
	_, err := s.pool.Exec(ctx, `
INSERT INTO tasks (id, title, description, status, priority, creator_id, assignee_id, due_date, created_at, updated_at)
VALUES ($1, $2, $3, $4::task_status, $5::task_priority, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
    title = EXCLUDED.title,
    description = EXCLUDED.description,
    status = EXCLUDED.status,
    priority = EXCLUDED.priority,
    assignee_id = EXCLUDED.assignee_id,
    due_date = EXCLUDED.due_date,
    updated_at = EXCLUDED.updated_at`,
		task.ID, task.Title, task.Description, string(task.Status), string(task.Priority),
		task.CreatorID, task.AssigneeID, task.DueDate, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return nil, translateSaveError(err, task)
	}
	saved, err := s.FindOne(ctx, Criteria{ID: task.ID})
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, ErrNotFound
	}
	return saved, nil
}

// translateSaveError turns a dangling assignee reference into ErrInvalid.
// Every other fault is returned as is.
func translateSaveError(err error, task *Task) error {
	if db.IsForeignKeyViolation(err) && task.AssigneeID != nil {
		return invalid("assignee %s does not exist", *task.AssigneeID)
	}
	return err
}

// Remove deletes the task row.
func (s *PGStore) Remove(ctx context.Context, task *Task) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, task.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Query lists tasks matching filter, oldest first.
func (s *PGStore) Query(ctx context.Context, filter Filter) ([]Task, error) {
	query := taskSelect
	var args []any
	if filter.VisibleTo != "" {
		if _, err := uuid.Parse(filter.VisibleTo); err != nil {
			return []Task{}, nil
		}
		query += ` WHERE t.creator_id = $1 OR t.assignee_id = $1`
		args = append(args, filter.VisibleTo)
	}
	query += ` ORDER BY t.created_at, t.id`
	return s.collect(ctx, query, args...)
}

// DueBetween lists open tasks whose due date falls in [from, to).
func (s *PGStore) DueBetween(ctx context.Context, from, to time.Time) ([]Task, error) {
	return s.collect(ctx, taskSelect+`
 WHERE t.status <> 'done' AND t.due_date >= $1 AND t.due_date < $2
 ORDER BY t.due_date, t.id`, from, to)
}

func (s *PGStore) collect(ctx context.Context, query string, args ...any) ([]Task, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func scanTask(row pgx.Row) (Task, error) {
	var (
		task                         Task
		status, priority             string
		creator                      UserRef
		assigneeEmail, assigneeFirst *string
		assigneeLast                 *string
	)
	if err := row.Scan(
		&task.ID, &task.Title, &task.Description, &status, &priority,
		&task.CreatorID, &task.AssigneeID, &task.DueDate, &task.CreatedAt, &task.UpdatedAt,
		&creator.Email, &creator.FirstName, &creator.LastName,
		&assigneeEmail, &assigneeFirst, &assigneeLast,
	); err != nil {
		return Task{}, err
	}
	task.Status = Status(status)
	task.Priority = Priority(priority)
	creator.ID = task.CreatorID
	task.Creator = &creator
	if task.AssigneeID != nil && assigneeEmail != nil {
		task.Assignee = &UserRef{
			ID:        *task.AssigneeID,
			Email:     *assigneeEmail,
			FirstName: deref(assigneeFirst),
			LastName:  deref(assigneeLast),
		}
	}
	return task, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
