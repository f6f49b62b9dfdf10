package tasks

import (
	"context"
	"sort"
	"sync"

	"github.com/turbovets/taskboard/internal/rbac"
)

// memStore is an in-memory Store used across the package tests.
type memStore struct {
	mu      sync.Mutex
	tasks   map[string]Task
	order   []string
	saves   int
	removes int

	findErr  error
	saveErr  error
	queryErr error
}

func newMemStore(seed ...Task) *memStore {
	s := &memStore{tasks: make(map[string]Task)}
	for _, t := range seed {
		s.tasks[t.ID] = t
		s.order = append(s.order, t.ID)
	}
	return s
}

func (s *memStore) FindOne(_ context.Context, c Criteria) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	t, ok := s.tasks[c.ID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *memStore) Save(_ context.Context, task *Task) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	if _, ok := s.tasks[task.ID]; !ok {
		s.order = append(s.order, task.ID)
	}
	s.tasks[task.ID] = *task
	s.saves++
	saved := *task
	return &saved, nil
}

func (s *memStore) Remove(_ context.Context, task *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok {
		return ErrNotFound
	}
	delete(s.tasks, task.ID)
	for i, id := range s.order {
		if id == task.ID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.removes++
	return nil
}

func (s *memStore) Query(_ context.Context, f Filter) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	out := make([]Task, 0, len(s.order))
	for _, id := range s.order {
		t := s.tasks[id]
		if f.VisibleTo == "" || t.CreatorID == f.VisibleTo || t.IsAssignedTo(f.VisibleTo) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *memStore) get(id string) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	return t, ok
}

func ids(list []Task) []string {
	out := make([]string, len(list))
	for i, t := range list {
		out[i] = t.ID
	}
	sort.Strings(out)
	return out
}

func strPtr(s string) *string { return &s }

func principal(id string, perms ...rbac.Permission) rbac.Principal {
	return rbac.NewPrincipal(id, id+"@example.com", []rbac.Role{{Name: "test", Permissions: perms}}, true)
}

var (
	memberPerms = []rbac.Permission{rbac.PermCreateTask, rbac.PermReadTask, rbac.PermUpdateTask, rbac.PermDeleteTask}
	adminPerms  = rbac.AllPermissions()
)
