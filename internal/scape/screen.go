package scape

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

const SimpleScreenName = "simple-screen"

// ScreenConfig configures a SimpleScreen. A zero EpisodeLength never ends
// the episode; a nil StartDot places the dot at the center.
type ScreenConfig struct {
	Width         int
	Height        int
	EpisodeLength int
	StartDot      *Point
	Goal          Goal
}

// SimpleScreen is a W×H character grid with a single movable dot. Observe
// returns a Frame.
type SimpleScreen struct {
	mu    sync.Mutex
	cfg   ScreenConfig
	frame Frame
	steps int
}

func NewSimpleScreen(cfg ScreenConfig) (*SimpleScreen, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("screen size must be positive: %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.EpisodeLength < 0 {
		return nil, fmt.Errorf("episode length must be >= 0: %d", cfg.EpisodeLength)
	}
	if cfg.StartDot != nil && !(Frame{Width: cfg.Width, Height: cfg.Height}).InBounds(cfg.StartDot.X, cfg.StartDot.Y) {
		return nil, fmt.Errorf("start dot (%d,%d) outside %dx%d screen", cfg.StartDot.X, cfg.StartDot.Y, cfg.Width, cfg.Height)
	}
	if cfg.Goal == nil {
		cfg.Goal = NullGoal{}
	}
	s := &SimpleScreen{cfg: cfg}
	s.reset()
	return s, nil
}

func (s *SimpleScreen) Name() string {
	return SimpleScreenName
}

func (s *SimpleScreen) Observe(_ context.Context) (Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame.clone(), nil
}

// Apply accepts ScreenAction values and nil, which is treated as NOOP.
func (s *SimpleScreen) Apply(_ context.Context, action Action) (Outcome, error) {
	var act ScreenAction
	switch a := action.(type) {
	case nil:
		act = NoopAction
	case ScreenAction:
		act = a
	case *ScreenAction:
		if a == nil {
			return Outcome{}, errors.New("nil screen action pointer")
		}
		act = *a
	default:
		return Outcome{}, fmt.Errorf("%w: %T", ErrUnsupportedAction, action)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.frame.clone()
	if err := s.apply(act); err != nil {
		return Outcome{}, err
	}
	s.steps++
	reward := s.cfg.Goal.Evaluate(before, act, s.frame.clone())
	done := s.cfg.EpisodeLength > 0 && s.steps >= s.cfg.EpisodeLength
	return Outcome{Reward: reward, Done: done}, nil
}

func (s *SimpleScreen) Render() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame.String()
}

func (s *SimpleScreen) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// Steps reports how many actions have been applied since the last reset.
func (s *SimpleScreen) Steps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.steps
}

func (s *SimpleScreen) reset() {
	s.frame = NewFrame(s.cfg.Width, s.cfg.Height)
	start := s.frame.Center()
	if s.cfg.StartDot != nil {
		start = *s.cfg.StartDot
	}
	s.frame.setDot(start)
	s.steps = 0
}

func (s *SimpleScreen) apply(act ScreenAction) error {
	switch act.Kind {
	case ActionNoop:
		return nil
	case ActionClear:
		s.frame = NewFrame(s.cfg.Width, s.cfg.Height)
		return nil
	case ActionDrawDot:
		if !s.frame.InBounds(act.X, act.Y) {
			return fmt.Errorf("draw dot (%d,%d) outside %dx%d screen", act.X, act.Y, s.frame.Width, s.frame.Height)
		}
		s.frame.setDot(Point{X: act.X, Y: act.Y})
		return nil
	case ActionMove:
		dot, ok := s.frame.Dot()
		if !ok {
			return nil
		}
		next := Point{
			X: max(0, min(s.frame.Width-1, dot.X+act.DX)),
			Y: max(0, min(s.frame.Height-1, dot.Y+act.DY)),
		}
		s.frame.setDot(next)
		return nil
	case ActionPutChar:
		if !s.frame.InBounds(act.X, act.Y) {
			return fmt.Errorf("put char (%d,%d) outside %dx%d screen", act.X, act.Y, s.frame.Width, s.frame.Height)
		}
		if act.Char == 0 || act.Char == DotRune {
			return fmt.Errorf("put char: invalid character %q", act.Char)
		}
		s.frame.set(act.X, act.Y, act.Char)
		return nil
	default:
		return fmt.Errorf("%w: screen action kind %d", ErrUnsupportedAction, int(act.Kind))
	}
}
