package clock

import (
	"sync"
	"time"
)

// FakeClock is a virtual clock for tests. After advances the virtual time by
// the requested duration and fires immediately, so code that waits on it runs
// without real sleeps while still observing the elapsed time through Now.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	waited []time.Duration
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
	c.waited = append(c.waited, d)

	ch := make(chan time.Time, 1)
	ch <- c.now

	return ch
}

// Advance moves the virtual time forward without recording a wait.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// Waits returns every duration passed to After, in call order.
func (c *FakeClock) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]time.Duration(nil), c.waited...)
}
