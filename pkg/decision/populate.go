package decision

import (
	"time"

	"github.com/TheRev45/IzziAutomationAIP/pkg/models"
)

// Populate expands agents against queues and the per-queue task
// priorities into the flat candidate list the selector works on. One
// candidate is emitted per (agent, queue, priority) for every priority
// actually present in the queue's pending list; its initial task count
// is the number of pending items at exactly that priority.
//
// Every pair is considered compatible: the cost of switching users is
// already encoded in the Idle/Working overheads.
func Populate(agents []*models.Agent, queues []*models.Queue, horizon time.Duration) []*Candidate {
	candidates := make([]*Candidate, 0, len(agents)*len(queues))
	for _, agent := range agents {
		for _, queue := range queues {
			capacity := RealCapacityFor(agent.State, queue, horizon)
			for _, priority := range queue.Priorities() {
				candidates = append(candidates, &Candidate{
					Agent:        agent,
					Queue:        queue,
					Priority:     priority,
					TaskCount:    queue.CountAtPriority(priority),
					RealCapacity: capacity,
				})
			}
		}
	}
	return candidates
}
