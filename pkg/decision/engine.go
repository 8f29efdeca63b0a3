package decision

import (
	"time"

	"github.com/TheRev45/IzziAutomationAIP/pkg/models"
)

const (
	// DefaultHorizon is the engine's lookahead when none is configured.
	DefaultHorizon = time.Hour
	// DefaultBias is the default weight of the SLA-failure fraction in
	// the queue weight.
	DefaultBias = 0.5
)

// Assignment is one selected (agent, queue) pairing with the abstract
// command sequence that brings the agent to the queue.
type Assignment struct {
	Agent     *models.Agent
	Queue     *models.Queue
	Priority  int
	TaskCount int
	Commands  []models.Command
}

// Engine turns a snapshot of agents and queues into an ordered sequence
// of assignments. It is a pure function of its inputs: no internal state
// survives between calls and the inputs are never mutated beyond the
// candidate task counts it owns.
type Engine struct {
	horizon time.Duration
	bias    float64
}

// NewEngine creates an engine with the given decision horizon and
// SLA-failure bias. Non-positive arguments fall back to the defaults.
func NewEngine(horizon time.Duration, bias float64) *Engine {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	if bias < 0 {
		bias = DefaultBias
	}
	return &Engine{horizon: horizon, bias: bias}
}

// Decide runs the populate, redistribute, select pipeline with the
// engine's configured horizon.
func (e *Engine) Decide(agents []*models.Agent, queues []*models.Queue) []Assignment {
	return e.DecideWithHorizon(agents, queues, e.horizon)
}

// DecideWithHorizon is Decide with an explicit lookahead window.
//
// The loop terminates in at most N iterations for N candidates: every
// iteration removes the selected candidate (and the rest of its agent's
// candidates, since an agent can hold only one assignment).
func (e *Engine) DecideWithHorizon(agents []*models.Agent, queues []*models.Queue, horizon time.Duration) []Assignment {
	if len(agents) == 0 || len(queues) == 0 {
		return nil
	}
	candidates := Populate(agents, queues, horizon)
	if len(candidates) == 0 {
		return nil
	}

	// Agents already working a queue count against its resource caps
	// until the loop reassigns them.
	assigned := make(map[string]int)
	for _, a := range agents {
		if w, ok := a.State.(models.Working); ok && w.Queue != nil {
			assigned[w.Queue.ID]++
		}
	}

	selected := make([]Assignment, 0, len(agents))
	for len(candidates) > 0 {
		Redistribute(candidates)

		best := 0
		bestBenefit := e.benefit(candidates[0], assigned)
		for i := 1; i < len(candidates); i++ {
			b := e.benefit(candidates[i], assigned)
			if cmp := b.Compare(bestBenefit); cmp > 0 || (cmp == 0 && tieBreak(candidates[i], candidates[best])) {
				best = i
				bestBenefit = b
			}
		}
		chosen := candidates[best]

		selected = append(selected, Assignment{
			Agent:     chosen.Agent,
			Queue:     chosen.Queue,
			Priority:  chosen.Priority,
			TaskCount: chosen.TaskCount,
			Commands:  chosen.Agent.State.CommandsFor(chosen.Queue),
		})
		if w, ok := chosen.Agent.State.(models.Working); ok && w.Queue != nil {
			assigned[w.Queue.ID]--
		}
		assigned[chosen.Queue.ID]++

		remaining := candidates[:0]
		for _, c := range candidates {
			if c == chosen || c.Agent.ID == chosen.Agent.ID {
				continue
			}
			// Same-priority siblings on the same queue lose the tasks
			// the selection just covered. Going negative is fine; it
			// signals saturation.
			if c.Queue.ID == chosen.Queue.ID && c.Priority == chosen.Priority {
				c.TaskCount -= chosen.TaskCount
			}
			remaining = append(remaining, c)
		}
		candidates = remaining
	}
	return selected
}

// benefit computes a candidate's scalar benefit and applies the ordinal
// overrides in order: MustRun promotion, max-resources demotion,
// min-resources promotion.
func (e *Engine) benefit(c *Candidate, assigned map[string]int) Benefit {
	priority := c.Priority
	if priority < 1 {
		priority = 1
	}
	b := Finite(float64(c.effectiveCapacity()) * c.Queue.Weight(e.bias) / float64(priority))

	if c.Queue.Params.MustRun && c.Priority == 1 {
		b = Infinite()
	}
	if max := c.Queue.Params.MaxResources; max > 0 && assigned[c.Queue.ID] >= max {
		b = Finite(0)
	}
	if min := c.Queue.Params.MinResources; min > 0 && assigned[c.Queue.ID] < min {
		b = Infinite()
	}
	return b
}

// tieBreak reports whether a should beat b when their benefits compare
// equal: must-run queues first, then higher criticality, then the
// shorter SLA.
func tieBreak(a, b *Candidate) bool {
	if a.Queue.Params.MustRun != b.Queue.Params.MustRun {
		return a.Queue.Params.MustRun
	}
	if a.Queue.Params.Criticality != b.Queue.Params.Criticality {
		return a.Queue.Params.Criticality > b.Queue.Params.Criticality
	}
	return a.Queue.Params.SLA < b.Queue.Params.SLA
}
