package io

import (
	"fmt"
	"sort"

	"neuronet/internal/scape"
	"neuronet/internal/snn"
)

// NoopDecoder always answers scape.NoopAction.
type NoopDecoder struct{}

func (NoopDecoder) Name() string { return NoopDecoderName }

func (NoopDecoder) Decode(snn.SpikeWindow) (Action, error) {
	return scape.NoopAction, nil
}

// FirstToSpikeMoveDecoder picks the direction whose neuron group fired
// earliest in the window. Simultaneous firings resolve in up, down, left,
// right order. A window with no direction spike yields scape.NoopAction.
type FirstToSpikeMoveDecoder struct {
	groups [4]map[int]struct{}
	step   int
}

func NewFirstToSpikeMoveDecoder(up, down, left, right []int, step int) (*FirstToSpikeMoveDecoder, error) {
	if step <= 0 {
		return nil, fmt.Errorf("move step must be positive: %d", step)
	}
	d := &FirstToSpikeMoveDecoder{step: step}
	owner := make(map[int]Direction)
	for dir, ids := range [4][]int{up, down, left, right} {
		if len(ids) == 0 {
			return nil, fmt.Errorf("direction %s has no neurons", Direction(dir))
		}
		d.groups[dir] = make(map[int]struct{}, len(ids))
		for _, id := range ids {
			if prev, taken := owner[id]; taken && prev != Direction(dir) {
				return nil, fmt.Errorf("neuron %d assigned to both %s and %s", id, prev, Direction(dir))
			}
			owner[id] = Direction(dir)
			d.groups[dir][id] = struct{}{}
		}
	}
	return d, nil
}

func (d *FirstToSpikeMoveDecoder) Name() string { return FirstToSpikeMoveDecoderName }

func (d *FirstToSpikeMoveDecoder) Decode(window snn.SpikeWindow) (Action, error) {
	best := Direction(-1)
	var bestTick uint64
	for _, ev := range window.Events {
		dir, ok := d.direction(ev.Neuron)
		if !ok {
			continue
		}
		if best < 0 || ev.Tick < bestTick || (ev.Tick == bestTick && dir < best) {
			best, bestTick = dir, ev.Tick
		}
	}
	switch best {
	case DirUp:
		return scape.MoveAction(0, -d.step), nil
	case DirDown:
		return scape.MoveAction(0, d.step), nil
	case DirLeft:
		return scape.MoveAction(-d.step, 0), nil
	case DirRight:
		return scape.MoveAction(d.step, 0), nil
	default:
		return scape.NoopAction, nil
	}
}

// Neurons lists every neuron the decoder reads.
func (d *FirstToSpikeMoveDecoder) Neurons() []int {
	var out []int
	for _, g := range d.groups {
		for id := range g {
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

func (d *FirstToSpikeMoveDecoder) direction(neuron int) (Direction, bool) {
	for dir, g := range d.groups {
		if _, ok := g[neuron]; ok {
			return Direction(dir), true
		}
	}
	return 0, false
}
