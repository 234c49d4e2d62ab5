package snn

import (
	"fmt"
	"math"
)

// Clock is the discrete simulation time base. Only Network.Step advances it.
type Clock struct {
	tick     uint64
	duration float64
}

// NewClock creates a clock at tick 0 with a fixed tick duration in
// simulated milliseconds.
func NewClock(duration float64) (*Clock, error) {
	if !(duration > 0) || math.IsInf(duration, 0) {
		return nil, fmt.Errorf("%w: tick duration must be > 0, got %g", ErrConfiguration, duration)
	}
	return &Clock{duration: duration}, nil
}

func (c *Clock) Tick() uint64 {
	return c.tick
}

func (c *Clock) Duration() float64 {
	return c.duration
}

// Now returns the simulated time at the start of the current tick.
func (c *Clock) Now() float64 {
	return float64(c.tick) * c.duration
}

// Reset rewinds the clock to tick 0.
func (c *Clock) Reset() {
	c.tick = 0
}

func (c *Clock) advance() {
	c.tick++
}
