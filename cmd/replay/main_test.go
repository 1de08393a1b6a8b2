package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/game"
	"github.com/pthm-cable/forage/sim"
	"github.com/pthm-cable/forage/telemetry"
)

func tracedRun(t *testing.T) (dir string, g *game.Game) {
	t.Helper()
	cfg := config.Default()
	cfg.World.Size = 16
	cfg.Population.Initial = 40
	cfg.Run.MaxTime = 15
	cfg.ComputeDerived()

	dir = t.TempDir()
	g, err := game.New(cfg, game.Options{Headless: true, OutputDir: dir, Trace: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := g.RunHeadless(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := g.Close(); err != nil {
		t.Fatal(err)
	}
	return dir, g
}

func TestSummarize(t *testing.T) {
	dir, g := tracedRun(t)

	s, err := Summarize(filepath.Join(dir, telemetry.TraceFile))
	if err != nil {
		t.Fatal(err)
	}
	if uint64(s.Events) != g.Engine().Dispatched() {
		t.Errorf("Events = %d, want %d", s.Events, g.Engine().Dispatched())
	}
	total := 0
	for _, kc := range s.Kinds {
		total += kc.Dispatched
	}
	if total != s.Events {
		t.Errorf("kind counts sum to %d, want %d", total, s.Events)
	}
	if s.LastTime > 15 || s.FirstTime > s.LastTime {
		t.Errorf("time range [%v, %v]", s.FirstTime, s.LastTime)
	}
	totals := g.Totals()
	if s.DeathsStarvation != totals.DeathsStarvation || s.DeathsAge != totals.DeathsAge {
		t.Errorf("deaths %d/%d, run totals %+v", s.DeathsStarvation, s.DeathsAge, totals)
	}
	if s.Kinds[sim.KindMove] == nil || s.Moves+s.Stays > s.Kinds[sim.KindMove].Dispatched {
		t.Errorf("moves %d + stays %d exceed move dispatches", s.Moves, s.Stays)
	}
}

func TestVerify(t *testing.T) {
	dir, g := tracedRun(t)

	n, err := Verify(filepath.Join(dir, telemetry.TraceFile), filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if uint64(n) != g.Engine().Dispatched() {
		t.Errorf("verified %d, want %d", n, g.Engine().Dispatched())
	}
}

func TestVerifyDetectsDivergence(t *testing.T) {
	dir, _ := tracedRun(t)

	cfg, err := config.Load(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	cfg.Run.Seed++
	other := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(other); err != nil {
		t.Fatal(err)
	}

	_, err = Verify(filepath.Join(dir, telemetry.TraceFile), other)
	if err == nil || !strings.Contains(err.Error(), "diverges") {
		t.Fatalf("err = %v, want a divergence", err)
	}
}
