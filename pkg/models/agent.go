package models

import "time"

// Agent is the decision engine's view of a workforce resource: an RPA
// bot, a human operator, or an AI worker. The snapshot is built by the
// state adapter and is immutable during a decision call.
type Agent struct {
	ID        string
	Name      string
	State     ResourceState
	AvgLogin  time.Duration
	AvgLogout time.Duration
}

// Clone returns a deep copy, including the state variant payload.
func (a *Agent) Clone() *Agent {
	c := *a
	if a.State != nil {
		c.State = a.State.Clone()
	}
	return &c
}
