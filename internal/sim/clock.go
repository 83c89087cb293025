package sim

import "time"

// Clock turns host timestamps into per-tick deltas and total elapsed time,
// both in seconds. The first read starts the clock and yields a zero delta.
type Clock struct {
	now     func() time.Time
	start   time.Time
	last    time.Time
	started bool
}

// NewClock returns a clock that uses now for Rebase. A nil now means
// time.Now.
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Now returns the clock's time source reading.
func (c *Clock) Now() time.Time { return c.now() }

// Read advances the clock to t.
func (c *Clock) Read(t time.Time) (delta, elapsed float64) {
	if !c.started {
		c.started = true
		c.start, c.last = t, t
		return 0, 0
	}
	delta = t.Sub(c.last).Seconds()
	if delta < 0 {
		delta = 0
	} else {
		c.last = t
	}
	return delta, c.last.Sub(c.start).Seconds()
}

// Rebase drops the time since the last read from both the next delta and
// elapsed.
func (c *Clock) Rebase() {
	if !c.started {
		return
	}
	t := c.now()
	c.start = c.start.Add(t.Sub(c.last))
	c.last = t
}

// Elapsed returns seconds between the first and latest read.
func (c *Clock) Elapsed() float64 {
	if !c.started {
		return 0
	}
	return c.last.Sub(c.start).Seconds()
}
