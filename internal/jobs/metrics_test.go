package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, m.Track("task:due_reminder").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("task:due_reminder").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("task:due_reminder", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("task:due_reminder", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("task:due_reminder")))
}

func TestAddNotifications(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddNotifications("task:assigned", 2)
	m.AddNotifications("task:assigned", 0)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.notifications.WithLabelValues("task:assigned")))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.AddNotifications("task:assigned", 1)
		_ = nilMetrics.Track("x").End(nil)
	})
}
