package simulator

import (
	"time"

	"github.com/TheRev45/IzziAutomationAIP/pkg/models"
)

// AdaptState maps live simulator state to the snapshot the decision
// engine consumes. Engine queues are built first because Working
// variants reference them; the queue/task cycle inside each clone is
// rebuilt by the two-phase construction in Queue.Clone. Finished
// history is replayed through ReplayFinished so the engine measures
// SLA misses from processing time alone, not time spent waiting in the
// queue.
//
// Transient phases collapse conservatively: an agent mid-login is still
// logged out for planning purposes, an agent logging out or setting up
// still holds its user session.
func AdaptState(s *State, now time.Time) ([]*models.Agent, []*models.Queue) {
	queues := make([]*models.Queue, len(s.Queues))
	byID := make(map[string]*models.Queue, len(s.Queues))
	for i, q := range s.Queues {
		queues[i] = q.Clone()
		for j, f := range queues[i].Finished {
			queues[i].Finished[j] = ReplayFinished(f)
		}
		byID[q.ID] = queues[i]
	}

	agents := make([]*models.Agent, len(s.Agents))
	for i, a := range s.Agents {
		agents[i] = &models.Agent{
			ID:        a.ID,
			Name:      a.Name,
			State:     adaptPhase(a, byID, now),
			AvgLogin:  a.AvgLogin,
			AvgLogout: a.AvgLogout,
		}
	}
	return agents, queues
}

func adaptPhase(a *Agent, queues map[string]*models.Queue, now time.Time) models.ResourceState {
	switch a.Phase {
	case PhaseLoggedOut, PhaseLoggingIn:
		return models.LoggedOut{AvgLogin: a.AvgLogin}
	case PhaseIdle, PhaseLoggingOut, PhaseSettingUp:
		return models.Idle{
			UserID:    a.CurrentUser,
			AvgLogin:  a.AvgLogin,
			AvgLogout: a.AvgLogout,
		}
	case PhaseWorking:
		queue := queues[a.CurrentQueueID]
		var remaining time.Duration
		if queue != nil && !a.LastItemStart.IsZero() {
			remaining = queue.AvgItemDuration() - now.Sub(a.LastItemStart)
			if remaining < 0 {
				remaining = 0
			}
		}
		return models.Working{
			Queue:     queue,
			Remaining: remaining,
			AvgLogin:  a.AvgLogin,
			AvgLogout: a.AvgLogout,
		}
	default:
		return models.LoggedOut{AvgLogin: a.AvgLogin}
	}
}

// ReplayFinished converts a simulator finished record into the engine's
// historical form: all time counted as work time, the load instant
// back-computed from the completion.
func ReplayFinished(f *models.FinishedTask) *models.FinishedTask {
	return &models.FinishedTask{
		ID:        f.ID,
		QueueID:   f.QueueID,
		AgentID:   f.AgentID,
		Loaded:    f.Completed.Add(-f.Duration()),
		Completed: f.Completed,
		WorkTime:  f.Duration(),
	}
}
