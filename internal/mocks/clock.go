package mocks

import (
	"sync"
	"time"
)

// FakeClock is a manual clock. After advances the clock by the requested
// duration and fires immediately, so waits cost no real time.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	start  time.Time
	Sleeps []time.Duration
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start, start: start}
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
	c.Sleeps = append(c.Sleeps, d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

// Elapsed is the simulated time spent waiting.
func (c *FakeClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now.Sub(c.start)
}

// BlockingClock never fires. Use it to test cancellation.
type BlockingClock struct{}

func (BlockingClock) Now() time.Time                       { return time.Time{} }
func (BlockingClock) After(time.Duration) <-chan time.Time { return make(chan time.Time) }
