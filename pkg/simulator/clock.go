package simulator

import "time"

// Clock is the monotonic simulated clock. It only moves when Advance is
// called; nothing in the simulator reads wall time.
type Clock struct {
	now time.Time
}

// NewClock starts a clock at the given simulated instant.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current simulated time.
func (c *Clock) Now() time.Time { return c.now }

// Advance moves the clock forward by step.
func (c *Clock) Advance(step time.Duration) {
	c.now = c.now.Add(step)
}

// Clone returns an independent copy.
func (c *Clock) Clone() *Clock {
	return &Clock{now: c.now}
}
