package simulator

import "time"

// AgentSnapshot is the published view of one agent.
type AgentSnapshot struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	State        string `json:"state"`
	CurrentQueue string `json:"current_queue,omitempty"`
	CurrentUser  string `json:"current_user,omitempty"`
}

// QueueSnapshot is the published view of one queue.
type QueueSnapshot struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Pending   int    `json:"pending"`
	Completed int    `json:"completed"`
}

// Snapshot is what the simulator publishes to external consumers after
// every tick: clock, agent and queue views, derived metrics and the
// recent event log.
type Snapshot struct {
	SimTime          time.Time       `json:"sim_time"`
	Agents           []AgentSnapshot `json:"agents"`
	Queues           []QueueSnapshot `json:"queues"`
	CompletedPerHour float64         `json:"completed_per_hour"`
	Utilization      float64         `json:"utilization"`
	EventLog         []string        `json:"event_log"`
	IsFinished       bool            `json:"is_finished"`
	Error            string          `json:"error,omitempty"`
}

// Snapshot builds the current published view.
func (sim *Simulator) Snapshot() Snapshot {
	now := sim.clock.Now()
	snap := Snapshot{
		SimTime:    now,
		Agents:     make([]AgentSnapshot, 0, len(sim.state.Agents)),
		Queues:     make([]QueueSnapshot, 0, len(sim.state.Queues)),
		EventLog:   append([]string(nil), sim.eventLog...),
		IsFinished: sim.Finished(),
	}
	if sim.err != nil {
		snap.Error = sim.err.Error()
	}

	working := 0
	for _, a := range sim.state.Agents {
		if a.Phase == PhaseWorking {
			working++
		}
		snap.Agents = append(snap.Agents, AgentSnapshot{
			ID:           a.ID,
			Name:         a.Name,
			State:        a.Phase.String(),
			CurrentQueue: a.CurrentQueueID,
			CurrentUser:  a.CurrentUser,
		})
	}
	if len(sim.state.Agents) > 0 {
		snap.Utilization = 100 * float64(working) / float64(len(sim.state.Agents))
	}

	completed := 0
	for _, q := range sim.state.Queues {
		completed += len(q.Finished)
		snap.Queues = append(snap.Queues, QueueSnapshot{
			ID:        q.ID,
			Name:      q.Name,
			Pending:   len(q.Pending),
			Completed: len(q.Finished),
		})
	}
	if elapsed := now.Sub(sim.start); elapsed > 0 {
		snap.CompletedPerHour = float64(completed) / elapsed.Hours()
	}
	return snap
}
