package tasks

import "context"

// Store is the persistence boundary used by Service. FindOne returns
// (nil, nil) when no task matches. Store faults are returned to callers
// unchanged.
type Store interface {
	FindOne(ctx context.Context, criteria Criteria) (*Task, error)
	Save(ctx context.Context, task *Task) (*Task, error)
	Remove(ctx context.Context, task *Task) error
	Query(ctx context.Context, filter Filter) ([]Task, error)
}
