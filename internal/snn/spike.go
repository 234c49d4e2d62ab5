package snn

import "sort"

// SpikeEvent is one recorded firing. Values are copied everywhere, so an
// event is immutable once Step returns it.
type SpikeEvent struct {
	Neuron    int     `json:"neuron"`
	Tick      uint64  `json:"tick"`
	Amplitude float64 `json:"amplitude"`
}

// SpikeWindow is an ordered view over spikes with Tick in [Start, End).
type SpikeWindow struct {
	Start  uint64       `json:"start"`
	End    uint64       `json:"end"`
	Events []SpikeEvent `json:"events"`
}

func NewSpikeWindow(start, end uint64, events []SpikeEvent) SpikeWindow {
	w := SpikeWindow{Start: start, End: end}
	for _, ev := range events {
		if ev.Tick < start || ev.Tick >= end {
			continue
		}
		w.Events = append(w.Events, ev)
	}
	return w
}

func (w SpikeWindow) Len() int {
	return len(w.Events)
}

func (w SpikeWindow) Empty() bool {
	return len(w.Events) == 0
}

// Ticks is the width of the window in ticks.
func (w SpikeWindow) Ticks() uint64 {
	if w.End <= w.Start {
		return 0
	}
	return w.End - w.Start
}

// First returns the earliest event; ties on tick resolve to the lower index.
func (w SpikeWindow) First() (SpikeEvent, bool) {
	if len(w.Events) == 0 {
		return SpikeEvent{}, false
	}
	first := w.Events[0]
	for _, ev := range w.Events[1:] {
		if ev.Tick < first.Tick || (ev.Tick == first.Tick && ev.Neuron < first.Neuron) {
			first = ev
		}
	}
	return first, true
}

// Counts returns the number of spikes per neuron index.
func (w SpikeWindow) Counts() map[int]int {
	counts := make(map[int]int)
	for _, ev := range w.Events {
		counts[ev.Neuron]++
	}
	return counts
}

// Neurons lists the distinct neurons that fired, ascending.
func (w SpikeWindow) Neurons() []int {
	counts := w.Counts()
	ids := make([]int, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Restrict keeps only events from the given neuron set.
func (w SpikeWindow) Restrict(neurons map[int]struct{}) SpikeWindow {
	out := SpikeWindow{Start: w.Start, End: w.End}
	for _, ev := range w.Events {
		if _, ok := neurons[ev.Neuron]; ok {
			out.Events = append(out.Events, ev)
		}
	}
	return out
}
