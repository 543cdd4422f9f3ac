package filekeep

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonotonicClock(t *testing.T) {
	times := []time.Time{
		time.Unix(0, 100),
		time.Unix(0, 50),
		time.Unix(0, 200),
		time.Unix(-5, 0),
	}
	i := 0
	c := &MonotonicClock{now: func() time.Time {
		tm := times[i]
		i++
		return tm
	}}

	assert.Equal(t, uint64(100), c.Now())
	assert.Equal(t, uint64(100), c.Now(), "clock must not go backwards")
	assert.Equal(t, uint64(200), c.Now())
	assert.Equal(t, uint64(200), c.Now(), "pre-epoch time clamps")
}

func TestNewMonotonicClock(t *testing.T) {
	c := NewMonotonicClock()

	before := uint64(time.Now().UnixNano())
	got := c.Now()
	assert.GreaterOrEqual(t, got, before)
	assert.GreaterOrEqual(t, c.Now(), got)
}

func TestClockFunc(t *testing.T) {
	var c Clock = ClockFunc(func() uint64 { return 7 })
	assert.Equal(t, uint64(7), c.Now())
}
