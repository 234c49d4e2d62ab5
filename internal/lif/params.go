package lif

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidParams = errors.New("invalid lif params")

// Params holds the per-neuron constants of the discrete-time LIF update.
type Params struct {
	Threshold       float64 `json:"threshold" yaml:"threshold"`
	Reset           float64 `json:"reset" yaml:"reset"`
	Rest            float64 `json:"rest" yaml:"rest"`
	LeakRate        float64 `json:"leak_rate" yaml:"leak_rate"`
	RefractoryTicks int     `json:"refractory_ticks" yaml:"refractory_ticks"`
	InputGain       float64 `json:"input_gain" yaml:"input_gain"`
}

func DefaultParams() Params {
	return Params{
		Threshold:       1.0,
		Reset:           0.0,
		Rest:            0.0,
		LeakRate:        0.1,
		RefractoryTicks: 2,
		InputGain:       1.0,
	}
}

func (p Params) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"threshold", p.Threshold},
		{"reset", p.Reset},
		{"rest", p.Rest},
		{"leak_rate", p.LeakRate},
		{"input_gain", p.InputGain},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s must be finite", ErrInvalidParams, f.name)
		}
	}
	if p.LeakRate < 0 || p.LeakRate > 1 {
		return fmt.Errorf("%w: leak_rate must be in [0,1], got %g", ErrInvalidParams, p.LeakRate)
	}
	if p.RefractoryTicks < 0 {
		return fmt.Errorf("%w: refractory_ticks must be >= 0, got %d", ErrInvalidParams, p.RefractoryTicks)
	}
	if p.Reset >= p.Threshold {
		return fmt.Errorf("%w: reset %g must be below threshold %g", ErrInvalidParams, p.Reset, p.Threshold)
	}
	return nil
}

// LeakFromTau converts a membrane time constant into a per-tick leak rate
// (dt/tau, forward Euler), clamped to (0,1].
func LeakFromTau(tauMs, dtMs float64) (float64, error) {
	if tauMs <= 0 || dtMs <= 0 {
		return 0, fmt.Errorf("%w: tau and dt must be > 0, got tau=%g dt=%g", ErrInvalidParams, tauMs, dtMs)
	}
	rate := dtMs / tauMs
	if rate > 1 {
		rate = 1
	}
	return rate, nil
}
