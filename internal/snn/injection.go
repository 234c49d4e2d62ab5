package snn

import (
	"fmt"
	"math"
	"sort"
)

// InjectionMap assigns external input to neurons for a single tick.
type InjectionMap map[int]float64

// Indices returns the referenced neuron indices in ascending order.
func (m InjectionMap) Indices() []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (m InjectionMap) Clone() InjectionMap {
	out := make(InjectionMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Validate checks every index against [0, n) and every magnitude for
// finiteness. The lowest offending index is reported.
func (m InjectionMap) Validate(n int) error {
	for _, id := range m.Indices() {
		if id < 0 || id >= n {
			return fmt.Errorf("%w: %d not in [0,%d)", ErrInvalidNeuronIndex, id, n)
		}
		if v := m[id]; math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: neuron %d got %g", ErrInvalidInjection, id, v)
		}
	}
	return nil
}
