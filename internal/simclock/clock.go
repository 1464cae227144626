// Package simclock provides a deterministic simulated clock. The session
// tick loop is the sole writer; everything else only reads the current time.
package simclock

import "time"

// Clock reports the current simulated time.
type Clock interface {
	Now() time.Time
}

// Simulated is a manually advanced clock. It is not safe for concurrent
// writers; the orchestrator owns advancement.
type Simulated struct {
	now time.Time
}

// New returns a Simulated clock starting at the given instant.
func New(start time.Time) *Simulated {
	return &Simulated{now: start}
}

// Now returns the current simulated instant.
func (c *Simulated) Now() time.Time { return c.now }

// Advance moves the clock forward by d and returns the new instant.
func (c *Simulated) Advance(d time.Duration) time.Time {
	c.now = c.now.Add(d)
	return c.now
}
