package simulator

import (
	"fmt"
	"time"

	"github.com/TheRev45/IzziAutomationAIP/pkg/models"
)

// Event is one scheduled state transition. Apply is the sole mutator of
// simulator state; it may schedule successor events on eq. Events are
// cloneable because the whole event queue is cloned for forecasts.
type Event interface {
	Timestamp() time.Time
	Apply(s *State, eq *EventQueue) error
	Clone() Event
	String() string
}

// LoginDone completes a login: the agent becomes idle under User.
type LoginDone struct {
	At      time.Time
	AgentID string
	User    string
}

func (e *LoginDone) Timestamp() time.Time { return e.At }

func (e *LoginDone) Apply(s *State, eq *EventQueue) error {
	agent, err := s.Agent(e.AgentID)
	if err != nil {
		return err
	}
	agent.Phase = PhaseIdle
	agent.CurrentUser = e.User
	return nil
}

func (e *LoginDone) Clone() Event { c := *e; return &c }

func (e *LoginDone) String() string {
	return fmt.Sprintf("%s logged in as %s", e.AgentID, e.User)
}

// LogoutDone completes a logout: the agent has no session left.
type LogoutDone struct {
	At      time.Time
	AgentID string
}

func (e *LogoutDone) Timestamp() time.Time { return e.At }

func (e *LogoutDone) Apply(s *State, eq *EventQueue) error {
	agent, err := s.Agent(e.AgentID)
	if err != nil {
		return err
	}
	agent.Phase = PhaseLoggedOut
	agent.CurrentUser = ""
	return nil
}

func (e *LogoutDone) Clone() Event { c := *e; return &c }

func (e *LogoutDone) String() string {
	return fmt.Sprintf("%s logged out", e.AgentID)
}

// SetupDone completes queue setup: the agent starts working the queue
// and immediately claims its first item.
type SetupDone struct {
	At      time.Time
	AgentID string
	QueueID string
}

func (e *SetupDone) Timestamp() time.Time { return e.At }

func (e *SetupDone) Apply(s *State, eq *EventQueue) error {
	agent, err := s.Agent(e.AgentID)
	if err != nil {
		return err
	}
	queue, err := s.Queue(e.QueueID)
	if err != nil {
		return err
	}
	agent.Phase = PhaseWorking
	agent.ProcessEnabled = true
	agent.CurrentQueueID = queue.ID
	claimAndSchedule(s, eq, agent, queue, e.At)
	return nil
}

func (e *SetupDone) Clone() Event { c := *e; return &c }

func (e *SetupDone) String() string {
	return fmt.Sprintf("%s finished setup on %s", e.AgentID, e.QueueID)
}

// ItemDone completes one work item: the item moves from pending to the
// finished history and the agent either claims the next item on its own
// or falls back to idle.
type ItemDone struct {
	At      time.Time
	AgentID string
	ItemID  string
	QueueID string
}

func (e *ItemDone) Timestamp() time.Time { return e.At }

func (e *ItemDone) Apply(s *State, eq *EventQueue) error {
	agent, err := s.Agent(e.AgentID)
	if err != nil {
		return err
	}
	queue, err := s.Queue(e.QueueID)
	if err != nil {
		return err
	}

	task := queue.RemovePending(e.ItemID)
	duration := e.At.Sub(agent.LastItemStart)
	record := &models.FinishedTask{
		ID:        e.ItemID,
		QueueID:   queue.ID,
		AgentID:   agent.ID,
		Loaded:    agent.LastItemStart,
		Completed: e.At,
		WorkTime:  duration,
	}
	if task != nil {
		record.Loaded = task.Created
	}
	queue.Finished = append(queue.Finished, record)

	agent.CurrentItemID = ""
	agent.LastItemStart = time.Time{}

	if agent.ProcessEnabled && len(queue.Pending) > 0 {
		claimAndSchedule(s, eq, agent, queue, e.At)
		return nil
	}
	agent.Phase = PhaseIdle
	agent.ProcessEnabled = false
	return nil
}

func (e *ItemDone) Clone() Event { c := *e; return &c }

func (e *ItemDone) String() string {
	return fmt.Sprintf("%s completed item %s on %s", e.AgentID, e.ItemID, e.QueueID)
}

// claimAndSchedule picks the first unclaimed pending item for the agent
// and schedules its completion. Items stay on the pending list until
// their ItemDone applies, so the claimed-id check is what prevents a
// double claim when two agents finish setup in the same batch. With
// nothing left to claim the agent goes idle and its process stops.
func claimAndSchedule(s *State, eq *EventQueue, agent *Agent, queue *models.Queue, now time.Time) {
	claimed := s.ClaimedItems()
	for _, task := range queue.Pending {
		if claimed[task.ID] {
			continue
		}
		agent.CurrentItemID = task.ID
		agent.LastItemStart = now
		eq.Schedule(&ItemDone{
			At:      now.Add(queue.AvgItemDuration()),
			AgentID: agent.ID,
			ItemID:  task.ID,
			QueueID: queue.ID,
		})
		return
	}
	agent.Phase = PhaseIdle
	agent.ProcessEnabled = false
}
