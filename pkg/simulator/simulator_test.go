package simulator_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheRev45/IzziAutomationAIP/pkg/decision"
	"github.com/TheRev45/IzziAutomationAIP/pkg/models"
	"github.com/TheRev45/IzziAutomationAIP/pkg/simulator"
)

const maxTicks = 10000

func newWorker() *simulator.Worker {
	engine := decision.NewEngine(11*time.Minute, 0)
	return simulator.NewWorker(engine, 10*time.Minute, 11*time.Minute)
}

func runToCompletion(t *testing.T, sim *simulator.Simulator) {
	t.Helper()
	for i := 0; !sim.Finished(); i++ {
		require.Less(t, i, maxTicks, "simulation did not terminate")
		require.NoError(t, sim.Tick())
	}
}

// A single logged-out agent drains an eight-item queue end to end:
// 30s login, 60s setup, then one 60s item at a time, finishing idle
// at t0+571s (the first command dispatches on the first tick).
func TestSingleAgentDrainsQueue(t *testing.T) {
	q := workQueue("q1", 8)
	agent := simAgent("a1")
	sim := simulator.New(
		simulator.NewState([]*simulator.Agent{agent}, []*models.Queue{q}),
		newWorker(), nil, t0, t0.Add(time.Hour), time.Second,
	)

	runToCompletion(t, sim)

	assert.Empty(t, q.Pending)
	assert.Len(t, q.Finished, 9, "eight drained items on top of the seeded record")
	assert.Equal(t, simulator.PhaseIdle, agent.Phase)
	assert.False(t, agent.ProcessEnabled)
	assert.Equal(t, t0.Add(571*time.Second), sim.Clock().Now())

	for _, f := range q.Finished[1:] {
		assert.Equal(t, time.Minute, f.WorkTime)
		assert.Equal(t, "a1", f.AgentID)
	}
}

// Two agents sharing one queue split the work; nobody holds the same
// item at any point and every pending item ends up finished.
func TestTwoAgentsShareOneQueue(t *testing.T) {
	q := workQueue("q1", 6)
	a1, a2 := simAgent("a1"), simAgent("a2")
	sim := simulator.New(
		simulator.NewState([]*simulator.Agent{a1, a2}, []*models.Queue{q}),
		newWorker(), nil, t0, t0.Add(time.Hour), time.Second,
	)

	runToCompletion(t, sim)

	assert.Empty(t, q.Pending)
	assert.Len(t, q.Finished, 7)
	byAgent := map[string]int{}
	for _, f := range q.Finished[1:] {
		byAgent[f.AgentID]++
	}
	assert.Positive(t, byAgent["a1"])
	assert.Positive(t, byAgent["a2"])
}

func TestWavesReleaseTasksOnSchedule(t *testing.T) {
	q := workQueue("q1", 0)
	waves := []simulator.TaskWave{{
		At: t0.Add(10 * time.Second),
		Tasks: []simulator.WaveTask{
			{ID: "w1", QueueID: "q1", Priority: 1},
			{ID: "w2", QueueID: "ghost", Priority: 1},
		},
	}}
	sim := simulator.New(
		simulator.NewState([]*simulator.Agent{simAgent("a1")}, []*models.Queue{q}),
		newWorker(), waves, t0, t0.Add(time.Hour), time.Second,
	)

	for i := 0; i < 9; i++ {
		require.NoError(t, sim.Tick())
	}
	assert.Empty(t, q.Pending)
	assert.True(t, sim.WavesRemaining())

	require.NoError(t, sim.Tick())
	require.Len(t, q.Pending, 1, "the wave task for the known queue landed")
	assert.Equal(t, "w1", q.Pending[0].ID)
	assert.False(t, sim.WavesRemaining(), "the unknown-queue task is dropped, not retried")
}

// With no tasks anywhere a tick is quiet: the agent stays put and no
// event gets scheduled.
func TestTickWithoutWorkIsQuiet(t *testing.T) {
	agent := simAgent("a1")
	sim := simulator.New(
		simulator.NewState([]*simulator.Agent{agent}, []*models.Queue{workQueue("q1", 0)}),
		newWorker(), nil, t0, t0.Add(time.Hour), time.Second,
	)

	require.NoError(t, sim.Tick())

	assert.Equal(t, simulator.PhaseLoggedOut, agent.Phase)
	assert.Empty(t, agent.Pending)
	assert.Zero(t, sim.Events().Len())
	assert.True(t, sim.Finished())
}

// A batch landing before an already-applied one is a hard halt: the
// error is retained and every later tick returns it.
func TestOutOfOrderBatchHaltsTheRun(t *testing.T) {
	sim := simulator.New(
		simulator.NewState([]*simulator.Agent{simAgent("a1")}, []*models.Queue{workQueue("q1", 0)}),
		newWorker(), nil, t0, t0.Add(time.Hour), time.Second,
	)
	sim.Events().Schedule(&simulator.LoginDone{At: t0.Add(2 * time.Second), AgentID: "a1", User: "u1"})
	require.NoError(t, sim.Tick())
	require.NoError(t, sim.Tick())

	sim.Events().Schedule(&simulator.LoginDone{At: t0.Add(time.Second), AgentID: "a1", User: "u1"})
	err := sim.Tick()
	require.ErrorIs(t, err, simulator.ErrEventOrdering)
	assert.ErrorIs(t, sim.Err(), simulator.ErrEventOrdering)
	assert.True(t, sim.Finished())
	assert.ErrorIs(t, sim.Tick(), simulator.ErrEventOrdering)

	snap := sim.Snapshot()
	assert.True(t, snap.IsFinished)
	assert.Contains(t, snap.Error, "out of order")
}

// Ticking a clone and its original in lockstep keeps them identical:
// the loop is deterministic and shares nothing.
func TestCloneTicksInLockstepWithOriginal(t *testing.T) {
	sim := simulator.New(
		simulator.NewState([]*simulator.Agent{simAgent("a1")}, []*models.Queue{workQueue("q1", 8)}),
		newWorker(), nil, t0, t0.Add(time.Hour), time.Second,
	)
	for i := 0; i < 100; i++ {
		require.NoError(t, sim.Tick())
	}

	clone := sim.Clone(decision.NewEngine(11*time.Minute, 0))
	for i := 0; i < 200; i++ {
		require.NoError(t, sim.Tick())
		require.NoError(t, clone.Tick())
	}

	assert.Equal(t, sim.Snapshot(), clone.Snapshot())
}

// Running a clone to completion must leave the original untouched.
func TestCloneIsIsolatedFromOriginal(t *testing.T) {
	q := workQueue("q1", 8)
	agent := simAgent("a1")
	sim := simulator.New(
		simulator.NewState([]*simulator.Agent{agent}, []*models.Queue{q}),
		newWorker(), nil, t0, t0.Add(time.Hour), time.Second,
	)
	for i := 0; i < 50; i++ {
		require.NoError(t, sim.Tick())
	}
	before := sim.Snapshot()

	clone := sim.Clone(decision.NewEngine(11*time.Minute, 0))
	runToCompletion(t, clone)

	assert.Equal(t, before, sim.Snapshot())
	assert.Len(t, q.Pending, 8, "the original's pending work is untouched")
	assert.True(t, clone.Finished())
	assert.False(t, sim.Finished())
}

func TestEventLogSinceIsIncremental(t *testing.T) {
	sim := simulator.New(
		simulator.NewState([]*simulator.Agent{simAgent("a1")}, []*models.Queue{workQueue("q1", 2)}),
		newWorker(), nil, t0, t0.Add(time.Hour), time.Second,
	)
	runToCompletion(t, sim)

	all, total := sim.EventLogSince(0)
	require.NotEmpty(t, all)
	assert.Equal(t, len(all), total)

	tail, total2 := sim.EventLogSince(total - 1)
	assert.Equal(t, total, total2)
	require.Len(t, tail, 1)
	assert.Equal(t, all[len(all)-1], tail[0])

	none, _ := sim.EventLogSince(total)
	assert.Empty(t, none)
}

func TestSnapshotMetrics(t *testing.T) {
	q := workQueue("q1", 4)
	sim := simulator.New(
		simulator.NewState([]*simulator.Agent{simAgent("a1"), simAgent("a2")}, []*models.Queue{q}),
		newWorker(), nil, t0, t0.Add(time.Hour), time.Second,
	)
	for i := 0; i < 120; i++ {
		require.NoError(t, sim.Tick())
	}

	snap := sim.Snapshot()
	assert.Equal(t, t0.Add(2*time.Minute), snap.SimTime)
	require.Len(t, snap.Agents, 2)
	require.Len(t, snap.Queues, 1)
	assert.Equal(t, "q1", snap.Queues[0].ID)
	assert.InDelta(t, 100, snap.Utilization, 0.01, "both agents are mid-queue after two minutes")
	assert.Positive(t, snap.CompletedPerHour)
}
