package testutil

import "sync"

// DefaultEpoch is the start time of a new FixedClock: 2024-01-01T00:00:00Z
// in Unix milliseconds.
const DefaultEpoch int64 = 1704067200000

// FixedClock is a manually advanced clock for tests.
//
// Now returns the same value until Advance or Set is called, so every
// timestamp written by a scenario is predictable and golden files stay
// byte-stable.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu  sync.Mutex
	now int64
}

// NewFixedClock creates a clock reading start. A zero start uses DefaultEpoch.
func NewFixedClock(start int64) *FixedClock {
	if start == 0 {
		start = DefaultEpoch
	}
	return &FixedClock{now: start}
}

// Now returns the current reading in Unix milliseconds.
func (c *FixedClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by ms milliseconds and returns the new
// reading.
func (c *FixedClock) Advance(ms int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += ms
	return c.now
}

// Set jumps the clock to ms.
func (c *FixedClock) Set(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = ms
}
