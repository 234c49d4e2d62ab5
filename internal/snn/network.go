package snn

import (
	"fmt"
	"sort"

	"neuronet/internal/lif"
)

const DefaultRetention uint64 = 1024

type Config struct {
	Neurons []lif.Params
	// Retention is the spike log horizon in ticks.
	Retention uint64
}

// Uniform returns n copies of p, the common case of a homogeneous population.
func Uniform(n int, p lif.Params) []lif.Params {
	if n <= 0 {
		return nil
	}
	out := make([]lif.Params, n)
	for i := range out {
		out[i] = p
	}
	return out
}

// Network is the neuron arena. Index is identity and stays stable for the
// network's lifetime.
type Network struct {
	neurons   []lif.Neuron
	lastSpike []int64
	pending   []float64
	retention uint64

	log  []SpikeEvent
	head int
}

func New(cfg Config) (*Network, error) {
	if len(cfg.Neurons) == 0 {
		return nil, fmt.Errorf("%w: network requires at least one neuron", ErrConfiguration)
	}
	if cfg.Retention == 0 {
		return nil, fmt.Errorf("%w: spike retention must be > 0 ticks", ErrConfiguration)
	}

	neurons := make([]lif.Neuron, len(cfg.Neurons))
	for i, p := range cfg.Neurons {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%w: neuron %d: %v", ErrConfiguration, i, err)
		}
		neurons[i] = lif.New(p)
	}
	lastSpike := make([]int64, len(neurons))
	for i := range lastSpike {
		lastSpike[i] = -1
	}

	return &Network{
		neurons:   neurons,
		lastSpike: lastSpike,
		pending:   make([]float64, len(neurons)),
		retention: cfg.Retention,
	}, nil
}

func (n *Network) Len() int {
	return len(n.neurons)
}

func (n *Network) Retention() uint64 {
	return n.retention
}

// Inject adds the map's magnitudes to the current tick's input buffer.
// The map is applied all-or-nothing.
func (n *Network) Inject(m InjectionMap) error {
	if err := m.Validate(len(n.neurons)); err != nil {
		return err
	}
	for _, id := range m.Indices() {
		n.pending[id] += m[id]
	}
	return nil
}

// Pending reports the buffered input for neuron i on the current tick.
func (n *Network) Pending(i int) (float64, error) {
	if err := n.checkIndex(i); err != nil {
		return 0, err
	}
	return n.pending[i], nil
}

// Step advances every neuron by one tick in ascending index order, records
// spikes at the clock's current tick, clears the input buffer and finally
// advances the clock.
func (n *Network) Step(clock *Clock) []SpikeEvent {
	now := clock.Tick()
	var spikes []SpikeEvent
	for i := range n.neurons {
		spiked, amplitude := n.neurons[i].Update(n.pending[i])
		n.pending[i] = 0
		if !spiked {
			continue
		}
		ev := SpikeEvent{Neuron: i, Tick: now, Amplitude: amplitude}
		n.lastSpike[i] = int64(now)
		n.log = append(n.log, ev)
		spikes = append(spikes, ev)
	}
	n.prune(now)
	clock.advance()
	return spikes
}

// Spikes returns the retained events with Tick in [from, to).
func (n *Network) Spikes(from, to uint64) SpikeWindow {
	live := n.log[n.head:]
	lo := sort.Search(len(live), func(i int) bool { return live[i].Tick >= from })
	hi := sort.Search(len(live), func(i int) bool { return live[i].Tick >= to })
	w := SpikeWindow{Start: from, End: to}
	if lo < hi {
		w.Events = append([]SpikeEvent(nil), live[lo:hi]...)
	}
	return w
}

// Neuron returns a copy of neuron i's state.
func (n *Network) Neuron(i int) (lif.Neuron, error) {
	if err := n.checkIndex(i); err != nil {
		return lif.Neuron{}, err
	}
	return n.neurons[i], nil
}

// LastSpike returns the tick of neuron i's most recent spike.
func (n *Network) LastSpike(i int) (uint64, bool, error) {
	if err := n.checkIndex(i); err != nil {
		return 0, false, err
	}
	if n.lastSpike[i] < 0 {
		return 0, false, nil
	}
	return uint64(n.lastSpike[i]), true, nil
}

// Reseed restores every neuron to its configured initial state and clears
// the input buffer and spike log.
func (n *Network) Reseed() {
	for i := range n.neurons {
		n.neurons[i].Reset()
		n.pending[i] = 0
		n.lastSpike[i] = -1
	}
	n.log = nil
	n.head = 0
}

// ClearLog drops the spike log and last-spike ticks but keeps neuron state
// and pending input. Call it whenever the clock is rewound so the log stays
// ordered by tick.
func (n *Network) ClearLog() {
	for i := range n.lastSpike {
		n.lastSpike[i] = -1
	}
	n.log = nil
	n.head = 0
}

func (n *Network) checkIndex(i int) error {
	if i < 0 || i >= len(n.neurons) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrInvalidNeuronIndex, i, len(n.neurons))
	}
	return nil
}

// prune drops events older than the retention horizon. Stale events are
// skipped by advancing head; the backing slice is compacted once they make
// up half of it.
func (n *Network) prune(now uint64) {
	if now+1 <= n.retention {
		return
	}
	cutoff := now + 1 - n.retention
	live := n.log[n.head:]
	stale := sort.Search(len(live), func(i int) bool { return live[i].Tick >= cutoff })
	n.head += stale
	if n.head > 0 && n.head >= len(n.log)/2 {
		n.log = append(n.log[:0], n.log[n.head:]...)
		n.head = 0
	}
}
