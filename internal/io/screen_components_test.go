package io

import (
	"context"
	"errors"
	"testing"

	"neuronet/internal/scape"
	"neuronet/internal/snn"
)

func screenFrame(t *testing.T, w, h int, dot scape.Point) scape.Frame {
	t.Helper()
	s, err := scape.NewSimpleScreen(scape.ScreenConfig{Width: w, Height: h, StartDot: &dot})
	if err != nil {
		t.Fatalf("new screen: %v", err)
	}
	obs, err := s.Observe(context.Background())
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	return obs.(scape.Frame)
}

func TestNullEncoderProducesEmptyMaps(t *testing.T) {
	maps, err := NullEncoder{}.Encode(nil, 3)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(maps) != 3 {
		t.Fatalf("expected 3 maps, got %d", len(maps))
	}
	for i, m := range maps {
		if m == nil || len(m) != 0 {
			t.Fatalf("map %d not empty: %+v", i, m)
		}
	}
}

func TestPositionEncoderIndexing(t *testing.T) {
	enc, err := NewPositionEncoder(16, 9, 4, 1.3, 1)
	if err != nil {
		t.Fatalf("new encoder: %v", err)
	}
	maps, err := enc.Encode(screenFrame(t, 16, 9, scape.Point{X: 3, Y: 2}), 4)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(maps) != 4 {
		t.Fatalf("expected 4 maps, got %d", len(maps))
	}
	want := 4 + 2*16 + 3
	if got := maps[0][want]; got != 1.3 || len(maps[0]) != 1 {
		t.Fatalf("expected neuron %d driven on first tick, got %+v", want, maps[0])
	}
	for i := 1; i < 4; i++ {
		if len(maps[i]) != 0 {
			t.Fatalf("expected silence on tick %d, got %+v", i, maps[i])
		}
	}
}

func TestPositionEncoderMinInterval(t *testing.T) {
	enc, err := NewPositionEncoder(3, 3, 0, 1, 3)
	if err != nil {
		t.Fatalf("new encoder: %v", err)
	}
	frame := screenFrame(t, 3, 3, scape.Point{X: 1, Y: 1})
	var emitted []bool
	for step := 0; step < 7; step++ {
		maps, err := enc.Encode(frame, 1)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		emitted = append(emitted, len(maps[0]) > 0)
	}
	want := []bool{true, false, false, true, false, false, true}
	for i := range want {
		if emitted[i] != want[i] {
			t.Fatalf("step %d: emitted=%t want=%t (all=%v)", i, emitted[i], want[i], emitted)
		}
	}
	enc.Reset()
	maps, _ := enc.Encode(frame, 1)
	if len(maps[0]) == 0 {
		t.Fatal("expected emission right after reset")
	}
}

func TestPositionEncoderRejectsForeignObservation(t *testing.T) {
	enc, _ := NewPositionEncoder(2, 2, 0, 1, 1)
	if _, err := enc.Encode("not a frame", 1); !errors.Is(err, ErrObservationType) {
		t.Fatalf("expected ErrObservationType, got %v", err)
	}
}

func TestHalfPlaneDirectionEncoder(t *testing.T) {
	enc := HalfPlaneDirectionEncoder{Neurons: [4]int{10, 11, 12, 13}, Magnitude: 2}
	tests := []struct {
		name string
		dot  scape.Point
		want int
	}{
		{name: "below-center", dot: scape.Point{X: 4, Y: 7}, want: 10},
		{name: "above-center", dot: scape.Point{X: 4, Y: 0}, want: 11},
		{name: "right-of-center", dot: scape.Point{X: 8, Y: 5}, want: 12},
		{name: "left-of-center", dot: scape.Point{X: 0, Y: 3}, want: 13},
		{name: "diagonal-prefers-vertical", dot: scape.Point{X: 6, Y: 6}, want: 10},
		{name: "centered", dot: scape.Point{X: 4, Y: 4}, want: -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			maps, err := enc.Encode(screenFrame(t, 9, 9, tc.dot), 2)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			for i, m := range maps {
				if tc.want < 0 {
					if len(m) != 0 {
						t.Fatalf("tick %d: expected no input, got %+v", i, m)
					}
					continue
				}
				if len(m) != 1 || m[tc.want] != 2 {
					t.Fatalf("tick %d: expected neuron %d driven, got %+v", i, tc.want, m)
				}
			}
		})
	}
}

func TestMultiEncoderSumsOutputs(t *testing.T) {
	pos, _ := NewPositionEncoder(3, 3, 0, 1, 1)
	half := HalfPlaneDirectionEncoder{Neurons: [4]int{9, 10, 11, 12}, Magnitude: 0.5}
	multi := MultiEncoder{Encoders: []Encoder{pos, half, NullEncoder{}}}
	if multi.Name() != "position+half-plane-direction+null" {
		t.Fatalf("unexpected name %q", multi.Name())
	}
	maps, err := multi.Encode(screenFrame(t, 3, 3, scape.Point{X: 0, Y: 1}), 2)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if maps[0][3] != 1 || maps[0][12] != 0.5 || len(maps[0]) != 2 {
		t.Fatalf("unexpected first tick: %+v", maps[0])
	}
	if len(maps[1]) != 1 || maps[1][12] != 0.5 {
		t.Fatalf("unexpected second tick: %+v", maps[1])
	}
}

func TestFirstToSpikeMoveDecoder(t *testing.T) {
	dec, err := NewFirstToSpikeMoveDecoder([]int{0}, []int{1}, []int{2}, []int{3, 4}, 2)
	if err != nil {
		t.Fatalf("new decoder: %v", err)
	}
	tests := []struct {
		name   string
		events []snn.SpikeEvent
		want   scape.ScreenAction
	}{
		{name: "empty", want: scape.NoopAction},
		{name: "unrelated", events: []snn.SpikeEvent{{Neuron: 7, Tick: 0}}, want: scape.NoopAction},
		{name: "earliest-wins", events: []snn.SpikeEvent{{Neuron: 0, Tick: 5}, {Neuron: 4, Tick: 3}}, want: scape.MoveAction(2, 0)},
		{name: "tie-prefers-up", events: []snn.SpikeEvent{{Neuron: 2, Tick: 1}, {Neuron: 0, Tick: 1}}, want: scape.MoveAction(0, -2)},
		{name: "down", events: []snn.SpikeEvent{{Neuron: 1, Tick: 2}}, want: scape.MoveAction(0, 2)},
		{name: "left-over-right", events: []snn.SpikeEvent{{Neuron: 3, Tick: 4}, {Neuron: 2, Tick: 4}}, want: scape.MoveAction(-2, 0)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := dec.Decode(snn.NewSpikeWindow(0, 10, tc.events))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
	if ids := dec.Neurons(); len(ids) != 5 || ids[0] != 0 || ids[4] != 4 {
		t.Fatalf("unexpected decoder neurons: %v", ids)
	}
}

func TestDecodersAcceptEmptyWindow(t *testing.T) {
	move, _ := NewFirstToSpikeMoveDecoder([]int{0}, []int{1}, []int{2}, []int{3}, 1)
	for _, dec := range []Decoder{NoopDecoder{}, move} {
		got, err := dec.Decode(snn.SpikeWindow{})
		if err != nil {
			t.Fatalf("%s: decode empty window: %v", dec.Name(), err)
		}
		if got != scape.NoopAction {
			t.Fatalf("%s: expected NoopAction, got %v", dec.Name(), got)
		}
	}
}

func TestNotImplementedComponentsFailFast(t *testing.T) {
	resetRegistriesForTests()
	t.Cleanup(resetRegistriesForTests)

	ctx := BuildContext{Environment: "screen", Neurons: 4, Width: 2, Height: 2}
	for _, name := range []string{TilePoissonEncoderName, EventDeltaEncoderName} {
		enc, err := ResolveEncoder(name, ctx)
		if err != nil {
			t.Fatalf("resolve %s: %v", name, err)
		}
		if _, err := enc.Encode(nil, 1); !errors.Is(err, ErrNotImplemented) {
			t.Fatalf("%s: expected ErrNotImplemented, got %v", name, err)
		}
	}
	dec, err := ResolveDecoder(RateWindowPutCharDecoderName, ctx)
	if err != nil {
		t.Fatalf("resolve decoder: %v", err)
	}
	if _, err := dec.Decode(snn.SpikeWindow{}); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
}

func TestFitToTicks(t *testing.T) {
	maps := []snn.InjectionMap{{0: 1}, nil, {1: 2}}
	padded := FitToTicks(maps, 5)
	if len(padded) != 5 || padded[0][0] != 1 || padded[1] == nil || len(padded[4]) != 0 {
		t.Fatalf("unexpected padded maps: %+v", padded)
	}
	truncated := FitToTicks(maps, 2)
	if len(truncated) != 2 || truncated[0][0] != 1 {
		t.Fatalf("unexpected truncated maps: %+v", truncated)
	}
	if FitToTicks(maps, 0) != nil {
		t.Fatal("expected nil for zero ticks")
	}
}

func TestParams(t *testing.T) {
	p := Params{"f": 1, "i": 2.0, "bad": 2.5, "list": []any{1, 2.0}, "s": "x"}
	if v, err := p.Float("f", 0); err != nil || v != 1 {
		t.Fatalf("float: %v %v", v, err)
	}
	if v, err := p.Int("i", 0); err != nil || v != 2 {
		t.Fatalf("int: %v %v", v, err)
	}
	if _, err := p.Int("bad", 0); err == nil {
		t.Fatal("expected non-integer error")
	}
	if v, err := p.Ints("list", nil); err != nil || len(v) != 2 || v[1] != 2 {
		t.Fatalf("ints: %v %v", v, err)
	}
	if _, err := p.Float("s", 0); err == nil {
		t.Fatal("expected type error")
	}
	if v, _ := p.Int("missing", 7); v != 7 {
		t.Fatalf("expected default, got %d", v)
	}
}
