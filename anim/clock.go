package anim

import (
	"sync"
	"time"
)

// Clock supplies the current time to a Sequence.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock (with its monotonic reading).
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock only moves when told to. Useful for tests and offline rendering.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock returns a ManualClock fixed at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// TickClock advances a fixed step every Tick. Hosts running a fixed number of
// updates per second (ebiten defaults to 60) get frame timing that does not
// drift with wall-clock hiccups.
type TickClock struct {
	ManualClock
	step time.Duration
}

// NewTickClock returns a clock that moves by one tick of a host running tps
// updates per second. tps <= 0 falls back to 60.
func NewTickClock(tps int) *TickClock {
	if tps <= 0 {
		tps = 60
	}
	return &TickClock{step: time.Second / time.Duration(tps)}
}

// Tick advances the clock by one step.
func (c *TickClock) Tick() {
	c.Advance(c.step)
}

// Step returns the duration of one tick.
func (c *TickClock) Step() time.Duration { return c.step }
