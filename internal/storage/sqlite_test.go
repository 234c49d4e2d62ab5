//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"neuronet/internal/model"
)

func TestSQLiteStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "neuronet.db")

	store := NewSQLiteStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	started := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	run := model.RunRecord{
		VersionedRecord: Versioned(),
		ID:              "r1",
		Environment:     "null",
		State:           "running",
		StartedAt:       started,
	}
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}
	run.State = "terminated"
	run.Steps = 4
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("update run: %v", err)
	}
	later := run
	later.ID = "r2"
	later.StartedAt = started.Add(time.Hour)
	if err := store.SaveRun(ctx, later); err != nil {
		t.Fatalf("save second run: %v", err)
	}

	loaded, ok, err := store.GetRun(ctx, "r1")
	if err != nil || !ok {
		t.Fatalf("get run: ok=%v err=%v", ok, err)
	}
	if loaded.State != "terminated" || loaded.Steps != 4 {
		t.Fatalf("expected upserted run, got %+v", loaded)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "r2" {
		t.Fatalf("expected newest first, got %+v", runs)
	}
}

func TestSQLiteStoreStepsAndSpikes(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "neuronet.db"))
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	steps := []model.StepRecord{
		{VersionedRecord: Versioned(), Step: 1, StartTick: 3, EndTick: 6},
		{VersionedRecord: Versioned(), Step: 0, StartTick: 0, EndTick: 3},
	}
	if err := store.AppendSteps(ctx, "r1", steps); err != nil {
		t.Fatalf("append steps: %v", err)
	}
	got, ok, err := store.GetSteps(ctx, "r1")
	if err != nil || !ok {
		t.Fatalf("get steps: ok=%v err=%v", ok, err)
	}
	if len(got) != 2 || got[0].Step != 0 || got[1].RunID != "r1" {
		t.Fatalf("unexpected steps: %+v", got)
	}
	if _, ok, err := store.GetSteps(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected no steps for missing run: ok=%v err=%v", ok, err)
	}

	spikes := []model.SpikeRecord{
		{Neuron: 2, Tick: 0, Amplitude: 1.2},
		{Neuron: 0, Tick: 0, Amplitude: 1.3},
		{Neuron: 1, Tick: 5, Amplitude: 1.1},
	}
	if err := store.AppendSpikes(ctx, "r1", spikes); err != nil {
		t.Fatalf("append spikes: %v", err)
	}
	all, err := store.GetSpikes(ctx, "r1", 0, 0)
	if err != nil {
		t.Fatalf("get spikes: %v", err)
	}
	if len(all) != 3 || all[0].Neuron != 2 || all[1].Neuron != 0 {
		t.Fatalf("expected insertion order, got %+v", all)
	}
	bounded, err := store.GetSpikes(ctx, "r1", 1, 5)
	if err != nil {
		t.Fatalf("get bounded spikes: %v", err)
	}
	if len(bounded) != 0 {
		t.Fatalf("expected no spikes in [1,5), got %+v", bounded)
	}
}

func TestNewStoreSQLite(t *testing.T) {
	store, err := NewStore("sqlite", filepath.Join(t.TempDir(), "neuronet.db"))
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := CloseIfSupported(store); err != nil {
		t.Fatalf("close: %v", err)
	}
}
