package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheRev45/IzziAutomationAIP/pkg/models"
)

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func makeQueue(crit int, sla time.Duration) *models.Queue {
	return models.NewQueue("q1", "Invoices", "svc.invoices", time.Minute, models.QueueParams{
		SLA:         sla,
		Criticality: crit,
	})
}

func finished(work time.Duration, completed time.Time, loaded time.Time) *models.FinishedTask {
	return &models.FinishedTask{
		ID:        "f",
		QueueID:   "q1",
		AgentID:   "a1",
		Loaded:    loaded,
		Completed: completed,
		WorkTime:  work,
	}
}

func TestAvgItemDurationFallsBackWithoutHistory(t *testing.T) {
	q := makeQueue(5, 2*time.Minute)
	assert.Equal(t, models.DefaultItemDuration, q.AvgItemDuration())
}

func TestAvgItemDurationIsMeanOfWorkAndAttemptTime(t *testing.T) {
	q := makeQueue(5, 2*time.Minute)
	q.Finished = append(q.Finished,
		finished(40*time.Second, baseTime, baseTime.Add(-time.Minute)),
		finished(80*time.Second, baseTime, baseTime.Add(-time.Minute)),
	)
	q.Finished[0].AttemptWorkTime = 20 * time.Second

	// (40+20 + 80) / 2
	assert.Equal(t, 70*time.Second, q.AvgItemDuration())
}

func TestFailureFraction(t *testing.T) {
	q := makeQueue(5, time.Minute)
	assert.Zero(t, q.FailureFraction(), "no history means no failures")

	q.Finished = append(q.Finished,
		finished(30*time.Second, baseTime, baseTime.Add(-30*time.Second)), // within SLA
		finished(30*time.Second, baseTime, baseTime.Add(-2*time.Minute)),  // missed
		finished(30*time.Second, baseTime, baseTime.Add(-3*time.Minute)),  // missed
		finished(30*time.Second, baseTime, baseTime.Add(-45*time.Second)), // within SLA
	)
	assert.InDelta(t, 0.5, q.FailureFraction(), 1e-9)
}

func TestWeightAddsBiasedFailureFraction(t *testing.T) {
	q := makeQueue(4, time.Minute)
	q.Finished = append(q.Finished,
		finished(30*time.Second, baseTime, baseTime.Add(-2*time.Minute)),
	)
	assert.InDelta(t, 4.5, q.Weight(0.5), 1e-9)
	assert.InDelta(t, 4.0, q.Weight(0), 1e-9)
}

func TestPrioritiesAndCounts(t *testing.T) {
	q := makeQueue(5, 2*time.Minute)
	models.NewTask("t1", q, baseTime, 2)
	models.NewTask("t2", q, baseTime, 1)
	models.NewTask("t3", q, baseTime, 2)
	models.NewTask("t4", q, baseTime, 5)

	assert.Equal(t, []int{1, 2, 5}, q.Priorities())
	assert.Equal(t, 2, q.CountAtPriority(2))
	assert.Equal(t, 0, q.CountAtPriority(3))
}

func TestNewTaskDefaultsPriorityAndSLADeadline(t *testing.T) {
	q := makeQueue(5, 2*time.Minute)
	task := models.NewTask("t1", q, baseTime, 0)

	assert.Equal(t, models.DefaultPriority, task.Priority)
	assert.Equal(t, baseTime.Add(2*time.Minute), task.SLADeadline)
	require.Len(t, q.Pending, 1)
	assert.Same(t, q, task.Queue)
}

func TestRemovePending(t *testing.T) {
	q := makeQueue(5, 2*time.Minute)
	models.NewTask("t1", q, baseTime, 1)
	models.NewTask("t2", q, baseTime, 1)

	removed := q.RemovePending("t1")
	require.NotNil(t, removed)
	assert.Equal(t, "t1", removed.ID)
	require.Len(t, q.Pending, 1)
	assert.Equal(t, "t2", q.Pending[0].ID)

	assert.Nil(t, q.RemovePending("missing"))
}

// Mutating a clone must never be observable in the original, and the
// cloned tasks must reference the cloned queue, not the source.
func TestQueueCloneIsDeepAndRebuildsCycle(t *testing.T) {
	q := makeQueue(5, 2*time.Minute)
	models.NewTask("t1", q, baseTime, 1)
	q.Finished = append(q.Finished, finished(30*time.Second, baseTime, baseTime))

	clone := q.Clone()
	require.Len(t, clone.Pending, 1)
	assert.Same(t, clone, clone.Pending[0].Queue, "cloned task must point at the cloned queue")

	clone.Pending[0].Priority = 9
	clone.Finished[0].WorkTime = time.Hour
	clone.RemovePending("t1")
	clone.Params.Criticality = 99

	assert.Equal(t, 1, q.Pending[0].Priority)
	assert.Equal(t, 30*time.Second, q.Finished[0].WorkTime)
	assert.Len(t, q.Pending, 1)
	assert.Equal(t, 5, q.Params.Criticality)
}
