package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/sim"
)

type fakeWorld struct {
	snap     sim.Snapshot
	events   uint64
	distance float64
}

func (w fakeWorld) Time() float64             { return w.snap.Time }
func (w fakeWorld) Dispatched() uint64        { return w.events }
func (w fakeWorld) Snapshot() sim.Snapshot    { return w.snap }
func (w fakeWorld) MeanPoolDistance() float64 { return w.distance }

func TestCollectorRecordAndFlush(t *testing.T) {
	c := NewCollector(10)

	dispatches := []sim.Dispatch{
		{Event: sim.Event{Time: 1, Kind: sim.KindMove}, Moved: true, Harvest: 2, Spread: 2, Caught: true},
		{Event: sim.Event{Time: 2, Kind: sim.KindMove}, Harvest: 0.5},
		{Event: sim.Event{Time: 3, Kind: sim.KindDeath}, Cause: sim.CauseStarvation, Replacement: 9},
		{Event: sim.Event{Time: 4, Kind: sim.KindDeath}, Cause: sim.CauseAge, Replacement: 10},
		{Event: sim.Event{Time: 5, Kind: sim.KindMutate}, Cleared: 1},
		{Event: sim.Event{Time: 6, Kind: sim.KindImmuneResponse}, Cleared: 2},
		{Event: sim.Event{Time: 7, Kind: sim.KindMove}, Stale: true, Moved: true},
	}
	for _, d := range dispatches {
		c.Record(d)
	}

	if c.ShouldFlush(9.9) {
		t.Error("window of 10 should not flush at 9.9")
	}
	if !c.ShouldFlush(10) {
		t.Error("window of 10 should flush at 10")
	}

	w := fakeWorld{
		snap: sim.Snapshot{
			Time:   10,
			Levels: []float64{1, 2, 3},
			Agents: []sim.AgentView{
				{ID: 1, Wealth: 2, Infected: true, Infections: 2},
				{ID: 2, Wealth: 4},
				{ID: 3, Wealth: 6, Infected: true, Infections: 1},
			},
		},
		events:   7,
		distance: 1.5,
	}
	s := c.Flush(w)

	checks := []struct {
		name      string
		got, want float64
	}{
		{"moves", float64(s.Moves), 1},
		{"stays", float64(s.Stays), 1},
		{"new infections", float64(s.NewInfections), 3},
		{"deaths starvation", float64(s.DeathsStarvation), 1},
		{"deaths age", float64(s.DeathsAge), 1},
		{"births", float64(s.Births), 2},
		{"mutations", float64(s.Mutations), 1},
		{"immune responses", float64(s.ImmuneResponses), 1},
		{"cleared", float64(s.InfectionsCleared), 3},
		{"harvested", s.Harvested, 2.5},
		{"population", float64(s.Population), 3},
		{"infected", float64(s.Infected), 2},
		{"uninfected", float64(s.Uninfected), 1},
		{"wealth mean", s.WealthMean, 4},
		{"wealth p50", s.WealthP50, 4},
		{"mean infections", s.MeanInfections, 1},
		{"pool distance", s.MeanPoolDistance, 1.5},
		{"total resource", s.TotalResource, 6},
		{"window end", s.WindowEnd, 10},
	}
	for _, tt := range checks {
		t.Run(tt.name, func(t *testing.T) {
			if math.Abs(tt.got-tt.want) > 1e-9 {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	// Counters reset and the next window starts at the flush time
	next := c.Flush(w)
	if next.Moves != 0 || next.Births != 0 || next.Harvested != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
	if next.WindowStart != 10 {
		t.Errorf("WindowStart = %v, want 10", next.WindowStart)
	}
}

func TestCollectorWithEngine(t *testing.T) {
	cfg := config.Default()
	cfg.World.Size = 15
	cfg.Population.Initial = 30
	cfg.ComputeDerived()

	c := NewCollector(5)
	e, err := sim.New(cfg, sim.WithEventHook(c.Record))
	if err != nil {
		t.Fatal(err)
	}

	var windows []WindowStats
	for i := 0; i < 4; i++ {
		e.RunUntil(c.WindowEnd())
		windows = append(windows, c.Flush(e))
	}

	for i, s := range windows {
		if s.WindowEnd != float64(5*(i+1)) {
			t.Errorf("window %d ends at %v", i, s.WindowEnd)
		}
		if s.Population != 30 {
			t.Errorf("window %d population %d", i, s.Population)
		}
		if s.Births != s.Deaths() {
			t.Errorf("window %d: %d births for %d deaths", i, s.Births, s.Deaths())
		}
		if s.Moves+s.Stays == 0 {
			t.Errorf("window %d recorded no move events", i)
		}
	}
}
