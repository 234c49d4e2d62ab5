package io

import (
	"errors"

	"neuronet/internal/scape"
	"neuronet/internal/snn"
)

var (
	ErrNotImplemented  = errors.New("component not implemented")
	ErrObservationType = errors.New("unexpected observation type")
)

type (
	Observation = scape.Observation
	Action      = scape.Action
)

// Encoder turns one observation into exactly tickCount injection maps, one
// per tick of the outer step. Encoders never read network state.
type Encoder interface {
	Name() string
	Encode(obs Observation, tickCount int) ([]snn.InjectionMap, error)
}

// Decoder turns the output-restricted spike window of one outer step into an
// action. Decode must accept any window, including an empty one.
type Decoder interface {
	Name() string
	Decode(window snn.SpikeWindow) (Action, error)
}

// Resetter is an optional encoder/decoder capability for components that
// keep state across outer steps.
type Resetter interface {
	Reset()
}
