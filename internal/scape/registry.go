package scape

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"neuronet/internal/scapeid"
)

var (
	ErrEnvironmentExists   = errors.New("environment already registered")
	ErrEnvironmentNotFound = errors.New("environment not found")
)

// Options is the generic construction surface shared by environment
// factories. Factories ignore fields they do not use.
type Options struct {
	Width         int    `json:"width,omitempty" yaml:"width,omitempty"`
	Height        int    `json:"height,omitempty" yaml:"height,omitempty"`
	EpisodeLength int    `json:"episode_length,omitempty" yaml:"episode_length,omitempty"`
	Goal          string `json:"goal,omitempty" yaml:"goal,omitempty"`
	StartDot      *Point `json:"start_dot,omitempty" yaml:"start_dot,omitempty"`
}

type Factory func(Options) (Environment, error)

var registry = struct {
	mu sync.RWMutex
	m  map[string]Factory
}{
	m: make(map[string]Factory),
}

func Register(name string, factory Factory) error {
	normalized := scapeid.Normalize(name)
	if normalized == "" {
		return errors.New("environment name is required")
	}
	if factory == nil {
		return errors.New("environment factory is required")
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, exists := registry.m[normalized]; exists {
		return fmt.Errorf("%w: %s", ErrEnvironmentExists, normalized)
	}
	registry.m[normalized] = factory
	return nil
}

// Resolve builds the environment registered under name or one of its aliases.
func Resolve(name string, opts Options) (Environment, error) {
	normalized := scapeid.Normalize(name)
	registry.mu.RLock()
	factory, ok := registry.m[normalized]
	registry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEnvironmentNotFound, name)
	}
	env, err := factory(opts)
	if err != nil {
		return nil, fmt.Errorf("build environment %s: %w", normalized, err)
	}
	return env, nil
}

func List() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.m))
	for n := range registry.m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func init() {
	initializeDefaultEnvironments()
}

func initializeDefaultEnvironments() {
	err := Register(SimpleScreenName, func(opts Options) (Environment, error) {
		goal, err := GoalByName(opts.Goal)
		if err != nil {
			return nil, err
		}
		return NewSimpleScreen(ScreenConfig{
			Width:         opts.Width,
			Height:        opts.Height,
			EpisodeLength: opts.EpisodeLength,
			StartDot:      opts.StartDot,
			Goal:          goal,
		})
	})
	if err != nil {
		panic(err)
	}
	err = Register(NullEnvironmentName, func(opts Options) (Environment, error) {
		return NewNullEnvironment(opts.EpisodeLength)
	})
	if err != nil {
		panic(err)
	}
}

func resetRegistryForTests() {
	registry.mu.Lock()
	registry.m = make(map[string]Factory)
	registry.mu.Unlock()

	initializeDefaultEnvironments()
}
