package simulator_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheRev45/IzziAutomationAIP/pkg/models"
	"github.com/TheRev45/IzziAutomationAIP/pkg/simulator"
)

// Transient phases collapse to the nearest stable state the planner can
// reason about: mid-login is still logged out, mid-logout and mid-setup
// still hold the session.
func TestAdaptStateCollapsesTransientPhases(t *testing.T) {
	cases := []struct {
		phase simulator.AgentPhase
		want  string
	}{
		{simulator.PhaseLoggedOut, "logged_out"},
		{simulator.PhaseLoggingIn, "logged_out"},
		{simulator.PhaseIdle, "idle"},
		{simulator.PhaseLoggingOut, "idle"},
		{simulator.PhaseSettingUp, "idle"},
	}
	for _, tc := range cases {
		agent := simAgent("a1")
		agent.Phase = tc.phase
		agent.CurrentUser = "u1"
		s := simulator.NewState([]*simulator.Agent{agent}, nil)

		adapted, _ := simulator.AdaptState(s, t0)

		require.Len(t, adapted, 1, tc.phase.String())
		assert.Equal(t, tc.want, adapted[0].State.Name(), "phase %s", tc.phase)
	}
}

func TestAdaptStateIdleKeepsSessionUser(t *testing.T) {
	agent := simAgent("a1")
	agent.Phase = simulator.PhaseIdle
	agent.CurrentUser = "u7"
	s := simulator.NewState([]*simulator.Agent{agent}, nil)

	adapted, _ := simulator.AdaptState(s, t0)

	idle, ok := adapted[0].State.(models.Idle)
	require.True(t, ok)
	assert.Equal(t, "u7", idle.UserID)
}

// A working agent maps to a Working state over the cloned queue, with
// the remaining time of its in-flight item counted down from the item
// start.
func TestAdaptStateComputesRemainingWork(t *testing.T) {
	q := workQueue("q1", 2)
	agent := simAgent("a1")
	agent.Phase = simulator.PhaseWorking
	agent.CurrentQueueID = "q1"
	agent.CurrentItemID = q.Pending[0].ID
	agent.LastItemStart = t0
	s := simulator.NewState([]*simulator.Agent{agent}, []*models.Queue{q})

	adapted, queues := simulator.AdaptState(s, t0.Add(40*time.Second))

	working, ok := adapted[0].State.(models.Working)
	require.True(t, ok)
	assert.Equal(t, 20*time.Second, working.Remaining)
	require.NotNil(t, working.Queue)
	assert.NotSame(t, q, working.Queue, "the planner works on a clone")
	assert.Same(t, queues[0], working.Queue, "agent states reference the adapted queues")
}

func TestAdaptStateRemainingNeverNegative(t *testing.T) {
	q := workQueue("q1", 1)
	agent := simAgent("a1")
	agent.Phase = simulator.PhaseWorking
	agent.CurrentQueueID = "q1"
	agent.LastItemStart = t0
	s := simulator.NewState([]*simulator.Agent{agent}, []*models.Queue{q})

	adapted, _ := simulator.AdaptState(s, t0.Add(10*time.Minute))

	working := adapted[0].State.(models.Working)
	assert.Zero(t, working.Remaining)
}

// Mutations on the adapted queues must never reach the live state.
func TestAdaptStateIsolatesLiveQueues(t *testing.T) {
	q := workQueue("q1", 2)
	s := simulator.NewState(nil, []*models.Queue{q})

	_, queues := simulator.AdaptState(s, t0)
	queues[0].RemovePending(q.Pending[0].ID)
	queues[0].Params.Criticality = 99

	assert.Len(t, q.Pending, 2)
	assert.Equal(t, 5, q.Params.Criticality)
}

// The engine sees replayed history: an item that sat in the queue for
// nine minutes but processed in one must not count as an SLA miss on a
// two-minute SLA, because only the processing time is the agent's to
// plan around.
func TestAdaptStateReplaysFinishedHistory(t *testing.T) {
	q := workQueue("q1", 0)
	q.Params.SLA = 2 * time.Minute
	q.Finished = []*models.FinishedTask{{
		ID:        "f1",
		QueueID:   "q1",
		AgentID:   "a1",
		Loaded:    t0.Add(-10 * time.Minute),
		Completed: t0,
		WorkTime:  time.Minute,
	}}
	require.Equal(t, 1.0, q.FailureFraction(), "the live record misses the SLA")
	s := simulator.NewState(nil, []*models.Queue{q})

	_, queues := simulator.AdaptState(s, t0)

	require.Len(t, queues[0].Finished, 1)
	replayed := queues[0].Finished[0]
	assert.Equal(t, time.Minute, replayed.WorkTime)
	assert.Zero(t, replayed.AttemptWorkTime)
	assert.Equal(t, t0.Add(-time.Minute), replayed.Loaded)
	assert.Zero(t, queues[0].FailureFraction())
	assert.Equal(t, t0.Add(-10*time.Minute), q.Finished[0].Loaded, "the live record is untouched")
}

func TestTranslateCommands(t *testing.T) {
	q := workQueue("q1", 1)

	out := simulator.TranslateCommands([]models.Command{
		models.CommandLogout,
		models.CommandLogin,
		models.CommandExecuteQueue,
	}, q)

	require.Len(t, out, 3)
	assert.Equal(t, simulator.AgentCommand{Kind: simulator.CmdLogout}, out[0])
	assert.Equal(t, simulator.AgentCommand{Kind: simulator.CmdLogin, User: "u1"}, out[1])
	assert.Equal(t, simulator.AgentCommand{Kind: simulator.CmdStartProcess, QueueID: "q1"}, out[2])
}

func TestTranslateCommandsDropsEmpty(t *testing.T) {
	q := workQueue("q1", 1)
	out := simulator.TranslateCommands([]models.Command{models.CommandEmpty}, q)
	assert.Empty(t, out)
}

func TestReplayFinishedCountsAllTimeAsWork(t *testing.T) {
	f := &models.FinishedTask{
		ID:              "t1",
		QueueID:         "q1",
		AgentID:         "a1",
		Loaded:          t0,
		Completed:       t0.Add(90 * time.Second),
		WorkTime:        time.Minute,
		AttemptWorkTime: 30 * time.Second,
	}

	r := simulator.ReplayFinished(f)

	assert.Equal(t, 90*time.Second, r.WorkTime)
	assert.Zero(t, r.AttemptWorkTime)
	assert.Equal(t, f.Completed, r.Completed)
	assert.Equal(t, f.Completed.Add(-90*time.Second), r.Loaded)
}
