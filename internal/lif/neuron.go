package lif

// Neuron is the mutable state of one LIF unit. It knows nothing about the
// network it lives in.
type Neuron struct {
	Params         Params  `json:"params"`
	V              float64 `json:"v"`
	RefractoryLeft int     `json:"refractory_left"`
}

func New(p Params) Neuron {
	return Neuron{Params: p, V: p.Rest}
}

// Reset restores the neuron to its configured initial state.
func (n *Neuron) Reset() {
	n.V = n.Params.Rest
	n.RefractoryLeft = 0
}

func (n *Neuron) Refractory() bool {
	return n.RefractoryLeft > 0
}

// Update advances the neuron by one tick with the given external input.
// The returned potential is the post-input value compared against the
// threshold; on a spike it is discarded in favor of the reset value.
func (n *Neuron) Update(input float64) (bool, float64) {
	p := n.Params
	if n.RefractoryLeft > 0 {
		n.RefractoryLeft--
		n.V = p.Reset
		return false, n.V
	}

	v := n.V + p.LeakRate*(p.Rest-n.V) + p.InputGain*input
	if v >= p.Threshold {
		n.V = p.Reset
		n.RefractoryLeft = p.RefractoryTicks
		return true, v
	}
	n.V = v
	return false, v
}
