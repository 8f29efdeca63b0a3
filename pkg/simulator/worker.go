package simulator

import (
	"time"

	"github.com/TheRev45/IzziAutomationAIP/pkg/decision"
	"github.com/TheRev45/IzziAutomationAIP/pkg/models"
)

// Worker observes the simulation after every event drain. When a
// trigger fires (the decision interval elapsed, or an agent sits idle
// with nothing queued) it adapts the state, invokes the decision
// engine and replaces the pending command sequences of the selected
// agents. Independently of triggers it dispatches one pending command
// per tick for every agent in a stable phase.
type Worker struct {
	engine           *decision.Engine
	decisionInterval time.Duration
	decisionHorizon  time.Duration

	lastCall  time.Time
	hasCalled bool
}

// NewWorker creates a worker around an engine. The interval bounds how
// often the engine runs when no agent is idle; the horizon is passed
// through to real-capacity estimation.
func NewWorker(engine *decision.Engine, interval, horizon time.Duration) *Worker {
	return &Worker{
		engine:           engine,
		decisionInterval: interval,
		decisionHorizon:  horizon,
	}
}

// Observe runs one observation pass at the given simulated instant.
// The engine invocation, if any, completes before any command is
// dispatched.
func (w *Worker) Observe(s *State, eq *EventQueue, now time.Time) {
	if w.shouldDecide(s, now) {
		w.decide(s, now)
	}
	w.dispatch(s, eq, now)
}

// Clone copies the worker's trigger state for a forecast run.
func (w *Worker) Clone(engine *decision.Engine) *Worker {
	return &Worker{
		engine:           engine,
		decisionInterval: w.decisionInterval,
		decisionHorizon:  w.decisionHorizon,
		lastCall:         w.lastCall,
		hasCalled:        w.hasCalled,
	}
}

func (w *Worker) shouldDecide(s *State, now time.Time) bool {
	if !w.hasCalled || now.Sub(w.lastCall) >= w.decisionInterval {
		return true
	}
	for _, a := range s.Agents {
		if a.Phase == PhaseIdle && len(a.Pending) == 0 {
			return true
		}
	}
	return false
}

func (w *Worker) decide(s *State, now time.Time) {
	agents, queues := AdaptState(s, now)
	queueByID := make(map[string]*models.Queue, len(queues))
	for _, q := range queues {
		queueByID[q.ID] = q
	}

	assignments := w.engine.DecideWithHorizon(agents, queues, w.decisionHorizon)
	for _, assignment := range assignments {
		agent, err := s.Agent(assignment.Agent.ID)
		if err != nil {
			continue
		}
		agent.Pending = TranslateCommands(assignment.Commands, assignment.Queue)
	}
	w.lastCall = now
	w.hasCalled = true
}

// dispatch pops the head command of every agent in a stable phase and
// executes it, scheduling the matching completion event. Transient
// agents are skipped; their next command waits for a later tick. A stop
// request is also honored mid-work, since it is passive: the agent
// exits through the process-disabled branch of its next ItemDone.
func (w *Worker) dispatch(s *State, eq *EventQueue, now time.Time) {
	for _, agent := range s.Agents {
		if len(agent.Pending) == 0 {
			continue
		}
		head := agent.Pending[0]
		if !agent.Phase.Stable() && !(agent.Phase == PhaseWorking && head.Kind == CmdStopProcess) {
			continue
		}
		agent.Pending = agent.Pending[1:]

		switch head.Kind {
		case CmdLogin:
			agent.Phase = PhaseLoggingIn
			eq.Schedule(&LoginDone{
				At:      now.Add(agent.AvgLogin),
				AgentID: agent.ID,
				User:    head.User,
			})
		case CmdLogout:
			agent.Phase = PhaseLoggingOut
			eq.Schedule(&LogoutDone{
				At:      now.Add(agent.AvgLogout),
				AgentID: agent.ID,
			})
		case CmdStartProcess:
			queue, err := s.Queue(head.QueueID)
			if err != nil {
				continue
			}
			agent.Phase = PhaseSettingUp
			agent.CurrentQueueID = queue.ID
			eq.Schedule(&SetupDone{
				At:      now.Add(queue.AvgSetup),
				AgentID: agent.ID,
				QueueID: queue.ID,
			})
		case CmdStopProcess:
			agent.StopRequested = now
			agent.ProcessEnabled = false
		}
	}
}
