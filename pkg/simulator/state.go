package simulator

import (
	"fmt"
	"time"

	"github.com/TheRev45/IzziAutomationAIP/pkg/models"
)

// AgentPhase is the simulator-side state machine of an agent. The
// transient phases (logging in/out, setting up) never accept new
// pending commands; the worker waits for the next stable phase.
type AgentPhase int

const (
	PhaseLoggedOut AgentPhase = iota
	PhaseLoggingIn
	PhaseIdle
	PhaseLoggingOut
	PhaseSettingUp
	PhaseWorking
)

// String returns the phase name used in snapshots and the event log.
func (p AgentPhase) String() string {
	switch p {
	case PhaseLoggedOut:
		return "logged_out"
	case PhaseLoggingIn:
		return "logging_in"
	case PhaseIdle:
		return "idle"
	case PhaseLoggingOut:
		return "logging_out"
	case PhaseSettingUp:
		return "setting_up"
	case PhaseWorking:
		return "working"
	default:
		return "unknown"
	}
}

// Stable reports whether the agent can accept its next pending command.
func (p AgentPhase) Stable() bool {
	return p == PhaseLoggedOut || p == PhaseIdle
}

// CommandKind discriminates concrete simulator commands.
type CommandKind int

const (
	CmdLogin CommandKind = iota
	CmdLogout
	CmdStartProcess
	CmdStopProcess
)

// AgentCommand is one concrete command queued on an agent: log in as
// User, log out, start processing QueueID, or request a stop.
type AgentCommand struct {
	Kind    CommandKind
	User    string
	QueueID string
}

// Agent is the live simulator state of one workforce resource.
type Agent struct {
	ID   string
	Name string

	Phase          AgentPhase
	CurrentUser    string
	CurrentQueueID string
	CurrentItemID  string
	LastItemStart  time.Time
	ProcessEnabled bool
	StopRequested  time.Time

	AvgLogin  time.Duration
	AvgLogout time.Duration

	Pending []AgentCommand
}

// Clone returns a deep copy, including the pending command sequence.
func (a *Agent) Clone() *Agent {
	c := *a
	c.Pending = append([]AgentCommand(nil), a.Pending...)
	return &c
}

// State is the full mutable world of a simulation run: every agent and
// every queue, in stable input order. All mutation happens on the tick
// goroutine; forecasts work on a deep clone.
type State struct {
	Agents []*Agent
	Queues []*models.Queue

	agentIndex map[string]*Agent
	queueIndex map[string]*models.Queue
}

// NewState builds a state over the given agents and queues.
func NewState(agents []*Agent, queues []*models.Queue) *State {
	s := &State{Agents: agents, Queues: queues}
	s.reindex()
	return s
}

func (s *State) reindex() {
	s.agentIndex = make(map[string]*Agent, len(s.Agents))
	for _, a := range s.Agents {
		s.agentIndex[a.ID] = a
	}
	s.queueIndex = make(map[string]*models.Queue, len(s.Queues))
	for _, q := range s.Queues {
		s.queueIndex[q.ID] = q
	}
}

// Agent looks up an agent by id.
func (s *State) Agent(id string) (*Agent, error) {
	a, ok := s.agentIndex[id]
	if !ok {
		return nil, fmt.Errorf("state: unknown agent %q", id)
	}
	return a, nil
}

// Queue looks up a queue by id.
func (s *State) Queue(id string) (*models.Queue, error) {
	q, ok := s.queueIndex[id]
	if !ok {
		return nil, fmt.Errorf("state: unknown queue %q", id)
	}
	return q, nil
}

// ClaimedItems is the set of item ids currently held by any agent. The
// claim-and-schedule protocol consults it so that two setups completing
// in the same batch never grab the same item.
func (s *State) ClaimedItems() map[string]bool {
	claimed := make(map[string]bool)
	for _, a := range s.Agents {
		if a.CurrentItemID != "" {
			claimed[a.CurrentItemID] = true
		}
	}
	return claimed
}

// Drained reports whether every queue's pending list is empty.
func (s *State) Drained() bool {
	for _, q := range s.Queues {
		if len(q.Pending) > 0 {
			return false
		}
	}
	return true
}

// TotalCompleted counts finished items across all queues.
func (s *State) TotalCompleted() int {
	n := 0
	for _, q := range s.Queues {
		n += len(q.Finished)
	}
	return n
}

// Clone deep-copies agents and queues. Mutating the clone is never
// observable in the original; every collection and payload is copied.
func (s *State) Clone() *State {
	agents := make([]*Agent, len(s.Agents))
	for i, a := range s.Agents {
		agents[i] = a.Clone()
	}
	queues := make([]*models.Queue, len(s.Queues))
	for i, q := range s.Queues {
		queues[i] = q.Clone()
	}
	return NewState(agents, queues)
}
