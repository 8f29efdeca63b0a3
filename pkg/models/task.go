package models

import "time"

// DefaultPriority is assumed for tasks that do not declare one.
// Lower numbers are more urgent.
const DefaultPriority = 1

// Task is a single pending unit of work inside a queue.
// Tasks reference their owning queue; the queue holds them by reference,
// so construction is two-phase (queue first, then tasks, then append).
type Task struct {
	ID          string
	QueueID     string
	Created     time.Time
	SLADeadline time.Time
	Priority    int
	Queue       *Queue
}

// NewTask builds a task attached to q and appends it to q's pending list.
func NewTask(id string, q *Queue, created time.Time, priority int) *Task {
	if priority < 1 {
		priority = DefaultPriority
	}
	t := &Task{
		ID:          id,
		QueueID:     q.ID,
		Created:     created,
		SLADeadline: created.Add(q.Params.SLA),
		Priority:    priority,
		Queue:       q,
	}
	q.Pending = append(q.Pending, t)
	return t
}

// FinishedTask is an append-only record of a completed item.
type FinishedTask struct {
	ID              string
	QueueID         string
	AgentID         string
	Loaded          time.Time
	Completed       time.Time
	WorkTime        time.Duration
	AttemptWorkTime time.Duration
}

// Duration is the total processing time spent on the item.
func (f *FinishedTask) Duration() time.Duration {
	return f.WorkTime + f.AttemptWorkTime
}

// MissedSLA reports whether the item finished later than allowed by sla,
// measured from the moment it was loaded.
func (f *FinishedTask) MissedSLA(sla time.Duration) bool {
	return f.Completed.Sub(f.Loaded) > sla
}

// Clone returns an independent copy.
func (f *FinishedTask) Clone() *FinishedTask {
	c := *f
	return &c
}
