package models

import "time"

// ResourceState is the engine-side variant of an agent's situation. Each
// variant knows the command sequence that would bring the agent to a
// target queue, and the simulated overhead of getting there. These two
// behaviors are the only ones the rest of the system uses.
type ResourceState interface {
	// CommandsFor returns the ordered transitions needed to reach q.
	CommandsFor(q *Queue) []Command
	// Overhead is the simulated cost of reaching q from this state.
	Overhead(q *Queue) time.Duration
	// Name identifies the variant for snapshots and logs.
	Name() string
	// Clone returns an independent copy of the variant payload.
	Clone() ResourceState
}

// LoggedOut is an agent with no active user session.
type LoggedOut struct {
	AvgLogin time.Duration
}

// CommandsFor requires a login before the queue can run.
func (s LoggedOut) CommandsFor(q *Queue) []Command {
	return []Command{CommandLogin, CommandExecuteQueue}
}

// Overhead is the login plus the queue's setup time.
func (s LoggedOut) Overhead(q *Queue) time.Duration {
	return s.AvgLogin + q.AvgSetup
}

func (s LoggedOut) Name() string { return "logged_out" }

func (s LoggedOut) Clone() ResourceState { return s }

// Idle is an agent logged in as UserID but not working any queue.
type Idle struct {
	UserID    string
	AvgLogin  time.Duration
	AvgLogout time.Duration
}

// CommandsFor starts the queue directly when its owner matches the
// active session, otherwise the session has to be switched first.
func (s Idle) CommandsFor(q *Queue) []Command {
	if s.UserID == q.UserID {
		return []Command{CommandExecuteQueue}
	}
	return []Command{CommandLogout, CommandLogin, CommandExecuteQueue}
}

// Overhead is the queue setup, plus a logout/login pair when the queue
// belongs to a different user.
func (s Idle) Overhead(q *Queue) time.Duration {
	if s.UserID == q.UserID {
		return q.AvgSetup
	}
	return s.AvgLogout + s.AvgLogin + q.AvgSetup
}

func (s Idle) Name() string { return "idle" }

func (s Idle) Clone() ResourceState { return s }

// Working is an agent currently processing Queue, with Remaining time
// estimated to finish the in-flight item. Remaining is computed by the
// state adapter as max(0, avg item duration - elapsed since the item
// started).
type Working struct {
	Queue     *Queue
	Remaining time.Duration
	AvgLogin  time.Duration
	AvgLogout time.Duration
}

// CommandsFor is a no-op for the current queue, a plain switch for a
// sibling queue of the same user, and a full session switch otherwise.
func (s Working) CommandsFor(q *Queue) []Command {
	if s.Queue != nil && s.Queue.ID == q.ID {
		return []Command{CommandEmpty}
	}
	if s.Queue != nil && s.Queue.UserID == q.UserID {
		return []Command{CommandExecuteQueue}
	}
	return []Command{CommandLogout, CommandLogin, CommandExecuteQueue}
}

// Overhead always includes finishing the in-flight item. Switching
// queues adds the target's setup; switching users adds the session
// round-trip on top.
func (s Working) Overhead(q *Queue) time.Duration {
	if s.Queue != nil && s.Queue.ID == q.ID {
		return s.Remaining
	}
	if s.Queue != nil && s.Queue.UserID == q.UserID {
		return s.Remaining + q.AvgSetup
	}
	return s.Remaining + s.AvgLogout + s.AvgLogin + q.AvgSetup
}

func (s Working) Name() string { return "working" }

func (s Working) Clone() ResourceState {
	c := s
	if s.Queue != nil {
		c.Queue = s.Queue.Clone()
	}
	return c
}
