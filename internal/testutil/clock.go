// Package testutil holds helpers shared by tests and the scenario harness.
package testutil

import (
	"sync"

	"github.com/roach88/formstate/internal/registry"
)

var _ registry.Clock = (*DeterministicClock)(nil)

// DeterministicClock is a commit clock for tests and scenario runs.
//
// Unlike the registry's built-in counter it can be rewound, so one scenario can run
// several times with identical sequence numbers.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a clock starting at 0. The first Next
// returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next increments and returns the next sequence number.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the last sequence number handed out.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock to 0.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
