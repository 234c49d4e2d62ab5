package scape

import (
	"fmt"
	"strings"
)

// Goal scores a single transition. Goals are pure: identical inputs always
// produce identical rewards.
type Goal interface {
	Name() string
	Evaluate(before Observation, action Action, after Observation) float64
}

type NullGoal struct{}

func (NullGoal) Name() string { return "none" }

func (NullGoal) Evaluate(Observation, Action, Observation) float64 { return 0 }

// CenterSeekingGoal rewards moving the dot away from the walls and punishes
// standing still.
type CenterSeekingGoal struct{}

func (CenterSeekingGoal) Name() string { return "center-seeking" }

func (CenterSeekingGoal) Evaluate(before Observation, _ Action, after Observation) float64 {
	f0, ok0 := before.(Frame)
	f1, ok1 := after.(Frame)
	if !ok0 || !ok1 {
		return 0
	}
	p0, ok0 := f0.Dot()
	p1, ok1 := f1.Dot()
	if !ok0 || !ok1 {
		return 0
	}
	if p0 == p1 {
		return -1
	}
	gain := f1.DistToWall(p1) - f0.DistToWall(p0)
	return 0.2 + 0.1*float64(gain)
}

func GoalByName(name string) (Goal, error) {
	switch strings.ReplaceAll(strings.TrimSpace(strings.ToLower(name)), "_", "-") {
	case "", "none", "null":
		return NullGoal{}, nil
	case "center-seeking", "center":
		return CenterSeekingGoal{}, nil
	default:
		return nil, fmt.Errorf("unknown goal: %s", name)
	}
}
