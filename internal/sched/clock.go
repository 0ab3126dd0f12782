package sched

import "time"

// Clock supplies the scheduler's time base: a monotonic millisecond counter
// that wraps at 2^32. All due-time arithmetic tolerates the wrap.
type Clock interface {
	Millis() uint32
}

type systemClock struct {
	start time.Time
}

// NewSystemClock returns a Clock counting milliseconds since the call,
// truncated to 32 bits like the embedded targets this engine models.
func NewSystemClock() Clock {
	return &systemClock{start: time.Now()}
}

func (c *systemClock) Millis() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}

// ManualClock is a hand-advanced Clock for tests and host harnesses.
// It only moves when told to, which makes due-time scenarios (including
// wraparound) fully deterministic.
type ManualClock struct {
	now uint32
}

// NewManualClock returns a ManualClock starting at now.
func NewManualClock(now uint32) *ManualClock {
	return &ManualClock{now: now}
}

func (c *ManualClock) Millis() uint32 { return c.now }

// Set jumps the clock to now. Moving backwards is allowed; the scheduler
// treats it as a wrap.
func (c *ManualClock) Set(now uint32) { c.now = now }

// Advance moves the clock forward by d milliseconds, wrapping at 2^32.
func (c *ManualClock) Advance(d uint32) { c.now += d }
