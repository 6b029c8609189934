package testutil

import (
	"sync"
	"time"
)

// Epoch is the default start time for ManualClock.
var Epoch = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

// ManualClock is a time source that only moves when told to.
//
// Unlike time.Now, ManualClock makes timestamps in tests reproducible, and
// lets a test give several records the same created_at on purpose.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ManualClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewManualClock creates a clock at Epoch that does not advance on its own.
func NewManualClock() *ManualClock {
	return &ManualClock{now: Epoch}
}

// NewSteppingClock creates a clock at Epoch that advances by step after
// every call to Now, so consecutive records get distinct timestamps.
func NewSteppingClock(step time.Duration) *ManualClock {
	return &ManualClock{now: Epoch, step: step}
}

// Now returns the current time, then advances by the configured step.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
