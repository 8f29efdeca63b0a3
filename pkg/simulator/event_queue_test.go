package simulator_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheRev45/IzziAutomationAIP/pkg/simulator"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func TestPopBatchReturnsEarliestTimestampFirst(t *testing.T) {
	eq := simulator.NewEventQueue()
	eq.Schedule(&simulator.LoginDone{At: t0.Add(2 * time.Minute), AgentID: "a2", User: "u1"})
	eq.Schedule(&simulator.LoginDone{At: t0.Add(time.Minute), AgentID: "a1", User: "u1"})
	eq.Schedule(&simulator.LoginDone{At: t0.Add(3 * time.Minute), AgentID: "a3", User: "u1"})

	next, ok := eq.NextTimestamp()
	require.True(t, ok)
	assert.Equal(t, t0.Add(time.Minute), next)

	batch, err := eq.PopBatch()
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "a1", batch[0].(*simulator.LoginDone).AgentID)
	assert.Equal(t, 2, eq.Len())
}

// Events scheduled at the same instant form one batch and come back in
// scheduling order.
func TestSameTimestampBatchPreservesInsertionOrder(t *testing.T) {
	eq := simulator.NewEventQueue()
	at := t0.Add(time.Minute)
	eq.Schedule(&simulator.SetupDone{At: at, AgentID: "a1", QueueID: "q1"})
	eq.Schedule(&simulator.SetupDone{At: at, AgentID: "a2", QueueID: "q1"})
	eq.Schedule(&simulator.LogoutDone{At: at, AgentID: "a3"})

	batch, err := eq.PopBatch()
	require.NoError(t, err)
	require.Len(t, batch, 3)
	assert.Equal(t, "a1", batch[0].(*simulator.SetupDone).AgentID)
	assert.Equal(t, "a2", batch[1].(*simulator.SetupDone).AgentID)
	assert.IsType(t, &simulator.LogoutDone{}, batch[2])

	_, ok := eq.NextTimestamp()
	assert.False(t, ok, "popping a batch removes its whole bucket")
}

func TestPopBatchOnEmptyQueueFails(t *testing.T) {
	eq := simulator.NewEventQueue()
	_, err := eq.PopBatch()
	assert.ErrorIs(t, err, simulator.ErrBatchEmpty)
}

func TestClearDropsEverything(t *testing.T) {
	eq := simulator.NewEventQueue()
	eq.Schedule(&simulator.LogoutDone{At: t0, AgentID: "a1"})
	eq.Clear()
	assert.Zero(t, eq.Len())
	_, ok := eq.NextTimestamp()
	assert.False(t, ok)
}

// Popping from a clone must not disturb the original, and the cloned
// events must be distinct values.
func TestCloneIsIndependent(t *testing.T) {
	eq := simulator.NewEventQueue()
	eq.Schedule(&simulator.LoginDone{At: t0.Add(time.Minute), AgentID: "a1", User: "u1"})
	eq.Schedule(&simulator.LoginDone{At: t0.Add(2 * time.Minute), AgentID: "a2", User: "u1"})

	clone := eq.Clone()
	batch, err := clone.PopBatch()
	require.NoError(t, err)
	batch[0].(*simulator.LoginDone).User = "changed"

	assert.Equal(t, 2, eq.Len())
	original, err := eq.PopBatch()
	require.NoError(t, err)
	assert.Equal(t, "u1", original[0].(*simulator.LoginDone).User)
}
