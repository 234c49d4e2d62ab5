package scape

import (
	"context"
	"fmt"
	"sync"
)

const NullEnvironmentName = "null"

// NullEnvironment observes nothing and accepts any action with zero reward.
type NullEnvironment struct {
	mu            sync.Mutex
	episodeLength int
	steps         int
	last          Action
}

func NewNullEnvironment(episodeLength int) (*NullEnvironment, error) {
	if episodeLength < 0 {
		return nil, fmt.Errorf("episode length must be >= 0: %d", episodeLength)
	}
	return &NullEnvironment{episodeLength: episodeLength}, nil
}

func (e *NullEnvironment) Name() string {
	return NullEnvironmentName
}

func (e *NullEnvironment) Observe(context.Context) (Observation, error) {
	return nil, nil
}

func (e *NullEnvironment) Apply(_ context.Context, action Action) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.steps++
	e.last = action
	return Outcome{Done: e.episodeLength > 0 && e.steps >= e.episodeLength}, nil
}

func (e *NullEnvironment) Render() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fmt.Sprintf("steps=%d last=%v", e.steps, e.last)
}

func (e *NullEnvironment) Reset() {
	e.mu.Lock()
	e.steps = 0
	e.last = nil
	e.mu.Unlock()
}
