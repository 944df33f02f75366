package service

import "time"

// Clock is the time source for a run. Install timestamps and run
// durations both come from it, so tests can pin them.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// TestClock always reports FixedTime.
type TestClock struct {
	FixedTime time.Time
}

func (c TestClock) Now() time.Time { return c.FixedTime }

// since reports the time elapsed from start, rounded to milliseconds.
func since(c Clock, start time.Time) time.Duration {
	return c.Now().Sub(start).Round(time.Millisecond)
}
