package scape

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	ErrContractViolation = errors.New("environment contract violation")
	ErrUnsupportedAction = errors.New("unsupported action")
)

// Observation is whatever an environment exposes to encoders. Each
// environment documents its concrete type.
type Observation any

// Action is whatever a decoder produces and an environment accepts.
type Action any

// Outcome is the environment's response to one applied action.
type Outcome struct {
	Reward float64 `json:"reward"`
	Done   bool    `json:"done"`
}

func (o Outcome) Validate() error {
	if math.IsNaN(o.Reward) || math.IsInf(o.Reward, 0) {
		return fmt.Errorf("%w: non-finite reward %g", ErrContractViolation, o.Reward)
	}
	return nil
}

type Environment interface {
	Name() string
	Observe(ctx context.Context) (Observation, error)
	Apply(ctx context.Context, action Action) (Outcome, error)
	Render() string
}

// Resetter is an optional environment capability to restore the initial
// world state between runs.
type Resetter interface {
	Reset()
}
