package filekeep

import (
	"sync"
	"time"
)

// Clock supplies the registry's notion of "now" as an unsigned nanosecond
// count.
type Clock interface {
	Now() uint64
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() uint64

// Now calls f.
func (f ClockFunc) Now() uint64 { return f() }

// MonotonicClock wraps a time source and never returns a value smaller than
// one it already returned.
type MonotonicClock struct {
	mu   sync.Mutex
	now  func() time.Time
	last uint64
}

// NewMonotonicClock returns a MonotonicClock reading wall-clock time.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{now: time.Now}
}

// Now returns the current time in nanoseconds since the Unix epoch, clamped
// to be non-decreasing.
func (c *MonotonicClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ts uint64
	if n := c.now().UnixNano(); n > 0 {
		ts = uint64(n)
	}
	if ts < c.last {
		ts = c.last
	}
	c.last = ts
	return ts
}
