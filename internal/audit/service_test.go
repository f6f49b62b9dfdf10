package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTimelineRepo struct {
	rows        []TimelineRow
	err         error
	lastFilters TimelineFilters
	lastOffset  int
	lastLimit   int
}

func (s *stubTimelineRepo) Window(ctx context.Context, filters TimelineFilters, offset, limit int) ([]TimelineRow, error) {
	s.lastFilters, s.lastOffset, s.lastLimit = filters, offset, limit
	if s.err != nil {
		return nil, s.err
	}
	if offset >= len(s.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.rows) {
		end = len(s.rows)
	}
	return s.rows[offset:end], nil
}

func (s *stubTimelineRepo) All(ctx context.Context, filters TimelineFilters) ([]TimelineRow, error) {
	s.lastFilters = filters
	return s.rows, s.err
}

func sampleRows(n int) []TimelineRow {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	rows := make([]TimelineRow, n)
	for i := range rows {
		rows[i] = TimelineRow{At: base.Add(-time.Duration(i) * time.Hour), ActorID: "u1", Action: "task.updated", Entity: "task", EntityID: "t1"}
	}
	return rows
}

func TestServiceTimelinePaging(t *testing.T) {
	repo := &stubTimelineRepo{rows: sampleRows(3)}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, result.Rows, 2)
	assert.True(t, result.Paging.HasNext)
	assert.Equal(t, 2, result.Paging.NextPage)
	assert.Zero(t, result.Paging.PrevPage)
	assert.Equal(t, 3, repo.lastLimit)
	assert.Equal(t, 0, repo.lastOffset)

	result, err = svc.Timeline(context.Background(), TimelineFilters{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, result.Rows, 1)
	assert.False(t, result.Paging.HasNext)
	assert.Equal(t, 1, result.Paging.PrevPage)
	assert.Equal(t, 2, repo.lastOffset)
}

func TestServiceTimelineClampsPageSize(t *testing.T) {
	repo := &stubTimelineRepo{}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, result.Paging.PageSize)
	assert.Equal(t, maxPageSize+1, repo.lastLimit)
	assert.NotNil(t, result.Rows)

	result, err = svc.Timeline(context.Background(), TimelineFilters{})
	require.NoError(t, err)
	assert.Equal(t, defaultPageSize, result.Paging.PageSize)
	assert.Equal(t, 1, result.Paging.Page)
}

func TestServiceTimelinePropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewService(&stubTimelineRepo{err: boom}).Timeline(context.Background(), TimelineFilters{})
	require.ErrorIs(t, err, boom)

	_, err = NewService(nil).Export(context.Background(), TimelineFilters{})
	require.Error(t, err)
}

func TestServiceExportReturnsAllRows(t *testing.T) {
	repo := &stubTimelineRepo{rows: sampleRows(4)}
	rows, err := NewService(repo).Export(context.Background(), TimelineFilters{Entity: "task"})
	require.NoError(t, err)
	assert.Len(t, rows, 4)
	assert.Equal(t, "task", repo.lastFilters.Entity)
}

func TestBuildWhere(t *testing.T) {
	where, args := buildWhere(TimelineFilters{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	where, args = buildWhere(TimelineFilters{From: from, Entity: "task", Action: " task.deleted "})
	assert.Equal(t, " WHERE occurred_at >= $1 AND entity = $2 AND action = $3", where)
	assert.Equal(t, []any{from, "task", "task.deleted"}, args)
}

func TestWriteCSV(t *testing.T) {
	rows := []TimelineRow{{
		At:       time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		ActorID:  "u1",
		Action:   "task.assigned",
		Entity:   "task",
		EntityID: "t1",
		Meta:     map[string]any{"assigneeId": "u2"},
	}}
	body, err := WriteCSV(rows)
	require.NoError(t, err)
	assert.Equal(t,
		"at,actor_id,action,entity,entity_id,meta\n"+
			"2026-03-10T10:00:00Z,u1,task.assigned,task,t1,\"{\"\"assigneeId\"\":\"\"u2\"\"}\"\n",
		string(body))
}
