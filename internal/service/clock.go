package service

import (
	"sync"
	"time"
)

// Clock abstracts the wall clock so heartbeat timestamps can be
// pinned in tests.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system time.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// TestClock always returns FixedTime.
type TestClock struct {
	FixedTime time.Time
}

func (t TestClock) Now() time.Time {
	return t.FixedTime
}

// StepClock returns a time that advances by a fixed step on every
// read, giving tests distinct monotonic timestamps without sleeping.
type StepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewStepClock creates a clock starting at start that advances by
// step per Now call.
func NewStepClock(start time.Time, step time.Duration) *StepClock {
	return &StepClock{now: start, step: step}
}

func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}
