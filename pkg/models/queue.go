package models

import "time"

// DefaultItemDuration is assumed for queues with no finished history yet.
const DefaultItemDuration = 3 * time.Minute

// QueueParams are the configurable scheduling parameters of a queue.
type QueueParams struct {
	SLA          time.Duration
	Criticality  int
	MinResources int
	MaxResources int // 0 = unlimited
	ForceMax     bool
	MustRun      bool
}

// Queue is a named bucket of pending work owned by a user credential.
type Queue struct {
	ID       string
	Name     string
	UserID   string
	Pending  []*Task
	Finished []*FinishedTask
	AvgSetup time.Duration
	Params   QueueParams
}

// NewQueue creates an empty queue. Tasks are attached afterwards with
// NewTask so that the queue/task cycle is built in two phases.
func NewQueue(id, name, userID string, avgSetup time.Duration, params QueueParams) *Queue {
	return &Queue{
		ID:       id,
		Name:     name,
		UserID:   userID,
		Pending:  make([]*Task, 0),
		Finished: make([]*FinishedTask, 0),
		AvgSetup: avgSetup,
		Params:   params,
	}
}

// AvgItemDuration estimates how long one item takes, from the mean of
// work plus attempt time across the finished history. Queues without
// history fall back to DefaultItemDuration.
func (q *Queue) AvgItemDuration() time.Duration {
	if len(q.Finished) == 0 {
		return DefaultItemDuration
	}
	var total time.Duration
	for _, f := range q.Finished {
		total += f.Duration()
	}
	return total / time.Duration(len(q.Finished))
}

// FailureFraction is the fraction of finished items that missed the SLA.
// Queues without history report 0.
func (q *Queue) FailureFraction() float64 {
	if len(q.Finished) == 0 {
		return 0
	}
	failed := 0
	for _, f := range q.Finished {
		if f.MissedSLA(q.Params.SLA) {
			failed++
		}
	}
	return float64(failed) / float64(len(q.Finished))
}

// Weight is the queue's scheduling weight: criticality plus the SLA
// failure fraction scaled by bias.
func (q *Queue) Weight(bias float64) float64 {
	return float64(q.Params.Criticality) + bias*q.FailureFraction()
}

// Priorities returns the distinct task priorities present in the pending
// list, ascending.
func (q *Queue) Priorities() []int {
	seen := make(map[int]bool)
	out := make([]int, 0, 4)
	for _, t := range q.Pending {
		if !seen[t.Priority] {
			seen[t.Priority] = true
			out = append(out, t.Priority)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// CountAtPriority returns how many pending tasks have exactly the given
// priority.
func (q *Queue) CountAtPriority(priority int) int {
	n := 0
	for _, t := range q.Pending {
		if t.Priority == priority {
			n++
		}
	}
	return n
}

// RemovePending removes the task with the given id from the pending list
// and returns it, or nil if absent.
func (q *Queue) RemovePending(taskID string) *Task {
	for i, t := range q.Pending {
		if t.ID == taskID {
			q.Pending = append(q.Pending[:i], q.Pending[i+1:]...)
			return t
		}
	}
	return nil
}

// Clone returns a deep copy. Cloned tasks reference the cloned queue;
// the cycle is rebuilt with the same two-phase construction used for the
// original.
func (q *Queue) Clone() *Queue {
	c := &Queue{
		ID:       q.ID,
		Name:     q.Name,
		UserID:   q.UserID,
		Pending:  make([]*Task, 0, len(q.Pending)),
		Finished: make([]*FinishedTask, 0, len(q.Finished)),
		AvgSetup: q.AvgSetup,
		Params:   q.Params,
	}
	for _, t := range q.Pending {
		tc := *t
		tc.Queue = c
		c.Pending = append(c.Pending, &tc)
	}
	for _, f := range q.Finished {
		c.Finished = append(c.Finished, f.Clone())
	}
	return c
}
