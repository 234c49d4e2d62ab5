package lif

import (
	"errors"
	"math"
	"testing"
)

func TestUpdateRefractoryScenario(t *testing.T) {
	n := New(Params{Threshold: 1.0, Reset: 0.0, LeakRate: 0.0, RefractoryTicks: 2, InputGain: 1.0})

	inputs := []float64{1.2, 5, 5, 5}
	want := []bool{true, false, false, true}
	for tick, in := range inputs {
		spiked, _ := n.Update(in)
		if spiked != want[tick] {
			t.Fatalf("tick %d: spiked=%t want=%t", tick, spiked, want[tick])
		}
	}
}

func TestUpdateHoldsResetDuringRefractory(t *testing.T) {
	n := New(Params{Threshold: 1.0, Reset: -0.5, Rest: 0, LeakRate: 0.2, RefractoryTicks: 3, InputGain: 1.0})
	if spiked, _ := n.Update(2); !spiked {
		t.Fatal("expected spike on first tick")
	}
	for i := 0; i < 3; i++ {
		if spiked, _ := n.Update(100); spiked {
			t.Fatalf("unexpected spike during refractory tick %d", i)
		}
		if n.V != -0.5 {
			t.Fatalf("expected potential held at reset, got %f", n.V)
		}
	}
	if n.Refractory() {
		t.Fatal("expected refractory period to be over")
	}
}

func TestUpdateSpikeDiscardsInput(t *testing.T) {
	n := New(Params{Threshold: 1.0, Reset: 0.0, LeakRate: 0.0, RefractoryTicks: 0, InputGain: 1.0})
	spiked, amplitude := n.Update(3.5)
	if !spiked {
		t.Fatal("expected spike")
	}
	if amplitude != 3.5 {
		t.Fatalf("expected amplitude 3.5, got %f", amplitude)
	}
	if n.V != 0 {
		t.Fatalf("expected reset to override input, got %f", n.V)
	}
}

func TestUpdateLeakMonotonicTowardRest(t *testing.T) {
	for _, leak := range []float64{0.01, 0.1, 0.5, 0.99, 1.0} {
		for _, start := range []float64{-3, 0.9} {
			n := New(Params{Threshold: 1.0, Reset: -5, Rest: 0.25, LeakRate: leak, InputGain: 1.0})
			n.V = start
			prevDist := math.Abs(n.V - n.Params.Rest)
			for tick := 0; tick < 30; tick++ {
				before := n.V
				if spiked, _ := n.Update(0); spiked {
					t.Fatalf("leak=%g: unexpected spike", leak)
				}
				dist := math.Abs(n.V - n.Params.Rest)
				if prevDist > 0 && dist >= prevDist {
					t.Fatalf("leak=%g tick=%d: distance to rest did not shrink: %g -> %g", leak, tick, prevDist, dist)
				}
				if (before-n.Params.Rest)*(n.V-n.Params.Rest) < 0 {
					t.Fatalf("leak=%g tick=%d: overshoot %g -> %g", leak, tick, before, n.V)
				}
				prevDist = dist
				if dist == 0 {
					break
				}
			}
		}
	}
}

func TestUpdateDeterministic(t *testing.T) {
	inputs := []float64{0.3, 0.4, 0.5, 0, 0.9, 0.2, 0.2, 1.5, 0, 0.7}
	run := func() []float64 {
		n := New(DefaultParams())
		out := make([]float64, 0, len(inputs))
		for _, in := range inputs {
			_, v := n.Update(in)
			out = append(out, v)
		}
		return out
	}
	a, b := run(), run()
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			t.Fatalf("tick %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	n := New(Params{Threshold: 1, Rest: 0.1, LeakRate: 0.5, RefractoryTicks: 4, InputGain: 1})
	n.Update(10)
	n.Reset()
	if n.V != 0.1 || n.RefractoryLeft != 0 {
		t.Fatalf("unexpected state after reset: %+v", n)
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		hasErr bool
	}{
		{name: "defaults", mutate: func(*Params) {}},
		{name: "zero-leak", mutate: func(p *Params) { p.LeakRate = 0 }},
		{name: "leak-above-one", mutate: func(p *Params) { p.LeakRate = 1.5 }, hasErr: true},
		{name: "negative-leak", mutate: func(p *Params) { p.LeakRate = -0.1 }, hasErr: true},
		{name: "negative-refractory", mutate: func(p *Params) { p.RefractoryTicks = -1 }, hasErr: true},
		{name: "reset-at-threshold", mutate: func(p *Params) { p.Reset = p.Threshold }, hasErr: true},
		{name: "nan-threshold", mutate: func(p *Params) { p.Threshold = math.NaN() }, hasErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultParams()
			tc.mutate(&p)
			err := p.Validate()
			if tc.hasErr {
				if !errors.Is(err, ErrInvalidParams) {
					t.Fatalf("expected ErrInvalidParams, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLeakFromTau(t *testing.T) {
	rate, err := LeakFromTau(10, 1)
	if err != nil {
		t.Fatalf("leak from tau: %v", err)
	}
	if math.Abs(rate-0.1) > 1e-12 {
		t.Fatalf("unexpected leak rate: %f", rate)
	}
	rate, err = LeakFromTau(5, 10)
	if err != nil {
		t.Fatalf("leak from tau: %v", err)
	}
	if rate != 1 {
		t.Fatalf("expected clamp to 1, got %f", rate)
	}
	if _, err := LeakFromTau(0, 1); err == nil {
		t.Fatal("expected error for zero tau")
	}
}
