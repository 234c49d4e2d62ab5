package io

import (
	"fmt"

	"neuronet/internal/snn"
)

// NotImplementedEncoder is a registered placeholder. It fails on first use
// instead of producing silent zero input.
type NotImplementedEncoder struct {
	ComponentName string
}

func (e NotImplementedEncoder) Name() string {
	return e.ComponentName
}

func (e NotImplementedEncoder) Encode(Observation, int) ([]snn.InjectionMap, error) {
	return nil, fmt.Errorf("%w: encoder %s", ErrNotImplemented, e.ComponentName)
}

// NotImplementedDecoder is the decoder counterpart of NotImplementedEncoder.
type NotImplementedDecoder struct {
	ComponentName string
}

func (d NotImplementedDecoder) Name() string {
	return d.ComponentName
}

func (d NotImplementedDecoder) Decode(snn.SpikeWindow) (Action, error) {
	return nil, fmt.Errorf("%w: decoder %s", ErrNotImplemented, d.ComponentName)
}
