package tasks

import (
	"context"

	"github.com/turbovets/taskboard/internal/rbac"
)

// UnassignedKey groups tasks without an assignee in GroupByAssignee.
const UnassignedKey = "unassigned"

// Column is one status lane of the board.
type Column struct {
	Status Status `json:"status"`
	Label  string `json:"label"`
	Tasks  []Task `json:"tasks"`
}

// Board groups tasks into the four status columns. Every column is present,
// in board order, even when empty. Tasks keep their relative order.
func Board(tasks []Task) []Column {
	statuses := Statuses()
	columns := make([]Column, len(statuses))
	index := make(map[Status]int, len(statuses))
	for i, st := range statuses {
		columns[i] = Column{Status: st, Label: st.Label(), Tasks: []Task{}}
		index[st] = i
	}
	for _, t := range tasks {
		i, ok := index[t.Status]
		if !ok {
			continue
		}
		columns[i].Tasks = append(columns[i].Tasks, t)
	}
	return columns
}

// GroupByAssignee buckets tasks by assignee id; unassigned tasks land under
// UnassignedKey.
func GroupByAssignee(tasks []Task) map[string][]Task {
	out := make(map[string][]Task)
	for _, t := range tasks {
		key := UnassignedKey
		if t.AssigneeID != nil {
			key = *t.AssigneeID
		}
		out[key] = append(out[key], t)
	}
	return out
}

// Board returns the visible tasks of actor arranged into status columns.
func (s *Service) Board(ctx context.Context, actor rbac.Principal) ([]Column, error) {
	list, err := s.ListTasks(ctx, actor)
	if err != nil {
		return nil, err
	}
	return Board(list), nil
}
