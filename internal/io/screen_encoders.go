package io

import (
	"fmt"
	"sync"

	"neuronet/internal/scape"
	"neuronet/internal/snn"
)

// NullEncoder produces no input at all.
type NullEncoder struct{}

func (NullEncoder) Name() string { return NullEncoderName }

func (NullEncoder) Encode(_ Observation, tickCount int) ([]snn.InjectionMap, error) {
	return emptyMaps(tickCount), nil
}

// PositionEncoder maps the lit cell of a screen frame to one input neuron,
// Base + y*Width + x, driven on the first tick of the step only. With
// MinInterval > 1 it stays silent for MinInterval-1 steps after emitting.
type PositionEncoder struct {
	Width       int
	Height      int
	Base        int
	Magnitude   float64
	MinInterval int

	mu        sync.Mutex
	sinceEmit int
	emitted   bool
}

func NewPositionEncoder(width, height, base int, magnitude float64, minInterval int) (*PositionEncoder, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("position encoder size must be positive: %dx%d", width, height)
	}
	if base < 0 {
		return nil, fmt.Errorf("position encoder base must be >= 0: %d", base)
	}
	if minInterval < 0 {
		return nil, fmt.Errorf("position encoder min interval must be >= 0: %d", minInterval)
	}
	return &PositionEncoder{Width: width, Height: height, Base: base, Magnitude: magnitude, MinInterval: minInterval}, nil
}

func (e *PositionEncoder) Name() string { return PositionEncoderName }

// Span is the number of neurons the encoder addresses.
func (e *PositionEncoder) Span() int { return e.Width * e.Height }

func (e *PositionEncoder) Encode(obs Observation, tickCount int) ([]snn.InjectionMap, error) {
	frame, ok := obs.(scape.Frame)
	if !ok {
		return nil, fmt.Errorf("%w: position encoder wants scape.Frame, got %T", ErrObservationType, obs)
	}
	maps := emptyMaps(tickCount)
	if tickCount == 0 {
		return maps, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.emitted && e.sinceEmit < e.MinInterval-1 {
		e.sinceEmit++
		return maps, nil
	}

	p, ok := frame.Dot()
	if !ok {
		lit := frame.Lit()
		if len(lit) == 0 {
			return maps, nil
		}
		p = lit[0]
	}
	if p.X >= e.Width || p.Y >= e.Height {
		return maps, nil
	}
	maps[0][e.Base+p.Y*e.Width+p.X] = e.Magnitude
	e.emitted = true
	e.sinceEmit = 0
	return maps, nil
}

func (e *PositionEncoder) Reset() {
	e.mu.Lock()
	e.emitted = false
	e.sinceEmit = 0
	e.mu.Unlock()
}

// Direction indexes the four move directions in tie-break order.
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

var directionNames = [...]string{"up", "down", "left", "right"}

func (d Direction) String() string {
	if d < DirUp || d > DirRight {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// HalfPlaneDirectionEncoder drives the direction neuron that points from the
// dot back toward the frame center. The dominant axis wins; equal offsets
// prefer the vertical axis. A centered dot produces no input.
type HalfPlaneDirectionEncoder struct {
	Neurons   [4]int
	Magnitude float64
}

func (e HalfPlaneDirectionEncoder) Name() string { return HalfPlaneDirectionEncoderName }

func (e HalfPlaneDirectionEncoder) Encode(obs Observation, tickCount int) ([]snn.InjectionMap, error) {
	frame, ok := obs.(scape.Frame)
	if !ok {
		return nil, fmt.Errorf("%w: half-plane encoder wants scape.Frame, got %T", ErrObservationType, obs)
	}
	maps := emptyMaps(tickCount)
	dir, ok := towardCenter(frame)
	if !ok {
		return maps, nil
	}
	for _, m := range maps {
		m[e.Neurons[dir]] = e.Magnitude
	}
	return maps, nil
}

func towardCenter(frame scape.Frame) (Direction, bool) {
	p, ok := frame.Dot()
	if !ok {
		return 0, false
	}
	c := frame.Center()
	dx, dy := c.X-p.X, c.Y-p.Y
	if dx == 0 && dy == 0 {
		return 0, false
	}
	if abs(dy) >= abs(dx) {
		if dy < 0 {
			return DirUp, true
		}
		return DirDown, true
	}
	if dx < 0 {
		return DirLeft, true
	}
	return DirRight, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// MultiEncoder sums the per-tick output of several encoders.
type MultiEncoder struct {
	Encoders []Encoder
}

func (m MultiEncoder) Name() string {
	name := ""
	for i, enc := range m.Encoders {
		if i > 0 {
			name += "+"
		}
		name += enc.Name()
	}
	return name
}

func (m MultiEncoder) Encode(obs Observation, tickCount int) ([]snn.InjectionMap, error) {
	out := emptyMaps(tickCount)
	for _, enc := range m.Encoders {
		maps, err := enc.Encode(obs, tickCount)
		if err != nil {
			return nil, err
		}
		if len(maps) != tickCount {
			return nil, fmt.Errorf("encoder %s returned %d maps for %d ticks", enc.Name(), len(maps), tickCount)
		}
		for i, m := range maps {
			for id, v := range m {
				out[i][id] += v
			}
		}
	}
	return out, nil
}

func (m MultiEncoder) Reset() {
	for _, enc := range m.Encoders {
		if r, ok := enc.(Resetter); ok {
			r.Reset()
		}
	}
}
