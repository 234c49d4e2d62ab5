package storage

import (
	"context"
	"testing"
	"time"

	"neuronet/internal/model"
)

func TestMemoryStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "new"} {
		run := model.RunRecord{
			VersionedRecord: Versioned(),
			ID:              id,
			State:           "terminated",
			StartedAt:       base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run %s: %v", id, err)
		}
	}

	run, ok, err := store.GetRun(ctx, "old")
	if err != nil || !ok {
		t.Fatalf("get run: ok=%v err=%v", ok, err)
	}
	if run.State != "terminated" {
		t.Fatalf("unexpected run: %+v", run)
	}
	if _, ok, _ := store.GetRun(ctx, "missing"); ok {
		t.Fatal("expected missing run")
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "new" || runs[1].ID != "old" {
		t.Fatalf("expected newest first, got %+v", runs)
	}
}

func TestMemoryStoreStepsAndSpikes(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	if _, ok, _ := store.GetSteps(ctx, "r1"); ok {
		t.Fatal("expected no steps before append")
	}
	steps := []model.StepRecord{
		{VersionedRecord: Versioned(), Step: 0, StartTick: 0, EndTick: 5},
		{VersionedRecord: Versioned(), Step: 1, StartTick: 5, EndTick: 10, Done: true},
	}
	if err := store.AppendSteps(ctx, "r1", steps); err != nil {
		t.Fatalf("append steps: %v", err)
	}
	got, ok, err := store.GetSteps(ctx, "r1")
	if err != nil || !ok {
		t.Fatalf("get steps: ok=%v err=%v", ok, err)
	}
	if len(got) != 2 || got[1].RunID != "r1" || !got[1].Done {
		t.Fatalf("unexpected steps: %+v", got)
	}

	spikes := []model.SpikeRecord{
		{Neuron: 0, Tick: 0, Amplitude: 1.2},
		{Neuron: 3, Tick: 4, Amplitude: 1.1},
		{Neuron: 1, Tick: 9, Amplitude: 1.5},
	}
	if err := store.AppendSpikes(ctx, "r1", spikes); err != nil {
		t.Fatalf("append spikes: %v", err)
	}

	tests := []struct {
		name     string
		from, to uint64
		want     []int
	}{
		{name: "all", from: 0, to: 0, want: []int{0, 3, 1}},
		{name: "bounded", from: 1, to: 9, want: []int{3}},
		{name: "open-upper", from: 4, to: 0, want: []int{3, 1}},
		{name: "empty", from: 10, to: 20, want: nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := store.GetSpikes(ctx, "r1", tc.from, tc.to)
			if err != nil {
				t.Fatalf("get spikes: %v", err)
			}
			if len(out) != len(tc.want) {
				t.Fatalf("got %d spikes want %d: %+v", len(out), len(tc.want), out)
			}
			for i, n := range tc.want {
				if out[i].Neuron != n || out[i].RunID != "r1" {
					t.Fatalf("spike %d: got %+v want neuron %d", i, out[i], n)
				}
			}
		})
	}
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	if err := store.SaveRun(context.Background(), model.RunRecord{ID: "r"}); err == nil {
		t.Fatal("expected error before init")
	}
}
