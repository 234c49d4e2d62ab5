package snn

import "errors"

var (
	ErrInvalidNeuronIndex = errors.New("invalid neuron index")
	ErrInvalidInjection   = errors.New("invalid injection magnitude")
	ErrConfiguration      = errors.New("configuration error")
)
