package decision

import (
	"time"

	"github.com/TheRev45/IzziAutomationAIP/pkg/models"
)

// Candidate is one populated (agent, queue, priority) assignment under
// consideration. TaskCount is mutable: the redistributor moves tasks
// between candidates and the greedy selector decrements siblings of a
// selected candidate, possibly below zero to signal saturation.
type Candidate struct {
	Agent        *models.Agent
	Queue        *models.Queue
	Priority     int
	TaskCount    int
	RealCapacity int
}

// RealCapacityFor estimates how many items an agent in state could
// finish on q within the horizon, after paying the state's setup
// overhead. A horizon at or below the overhead yields zero.
func RealCapacityFor(state models.ResourceState, q *models.Queue, horizon time.Duration) int {
	overhead := state.Overhead(q)
	if horizon <= overhead {
		return 0
	}
	avg := q.AvgItemDuration()
	if avg <= 0 {
		avg = models.DefaultItemDuration
	}
	return int((horizon - overhead) / avg)
}

// RelativeCapacity is min(real capacity / task count, 1). Candidates
// with no tasks report 1 (nothing left to be short on).
func (c *Candidate) RelativeCapacity() float64 {
	if c.TaskCount <= 0 {
		return 1
	}
	r := float64(c.RealCapacity) / float64(c.TaskCount)
	if r > 1 {
		return 1
	}
	return r
}

// effectiveCapacity caps the capacity term of the benefit by the tasks
// actually left on the candidate, so that a saturated sibling (task
// count decremented to zero or below) stops attracting agents.
func (c *Candidate) effectiveCapacity() int {
	if c.TaskCount <= 0 {
		return 0
	}
	if c.TaskCount < c.RealCapacity {
		return c.TaskCount
	}
	return c.RealCapacity
}
