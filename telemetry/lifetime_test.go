package telemetry

import (
	"testing"

	"github.com/pthm-cable/forage/sim"
)

func TestLifetimeTracker(t *testing.T) {
	lt := NewLifetimeTracker()
	lt.Register(1, 0)
	lt.Register(2, 0)

	steps := []sim.Dispatch{
		{Event: sim.Event{Time: 1, Kind: sim.KindMove, AgentID: 1}, Moved: true, Harvest: 3, Spread: 1},
		{Event: sim.Event{Time: 2, Kind: sim.KindMove, AgentID: 1}, Harvest: 1, Caught: true},
		{Event: sim.Event{Time: 3, Kind: sim.KindMutate, AgentID: 1}, Cleared: 1},
		{Event: sim.Event{Time: 4, Kind: sim.KindImmuneResponse, AgentID: 1}, Cleared: 1},
		{Event: sim.Event{Time: 5, Kind: sim.KindMove, AgentID: 2}, Moved: true},
	}
	for _, d := range steps {
		if done := lt.Record(d); done != nil {
			t.Fatalf("unexpected finished lifetime %+v", done)
		}
	}
	lt.UpdateWealth(1, 12)
	lt.UpdateWealth(1, 8)

	done := lt.Record(sim.Dispatch{
		Event:       sim.Event{Time: 6, Kind: sim.KindDeath, AgentID: 1},
		Cause:       sim.CauseAge,
		Harvest:     0.5,
		Replacement: 3,
	})
	if done == nil {
		t.Fatal("death did not finish the lifetime")
	}

	want := LifetimeStats{
		ID: 1, BirthTime: 0, DeathTime: 6, Cause: "age",
		Moves: 1, Stays: 1, Harvested: 4.5, Caught: 1, Spread: 1,
		Cleared: 2, Mutations: 1, PeakWealth: 12,
	}
	if *done != want {
		t.Errorf("lifetime = %+v\nwant %+v", *done, want)
	}
	if done.Survival() != 6 {
		t.Errorf("Survival = %v, want 6", done.Survival())
	}

	if lt.Get(1) != nil {
		t.Error("dead agent still tracked")
	}
	if s := lt.Get(3); s == nil || s.BirthTime != 6 {
		t.Errorf("replacement not registered: %+v", s)
	}
	if lt.Count() != 2 {
		t.Errorf("Count = %d, want 2", lt.Count())
	}
}

func TestLifetimeTrackerIgnoresUnknown(t *testing.T) {
	lt := NewLifetimeTracker()
	if lt.Record(sim.Dispatch{Event: sim.Event{Kind: sim.KindDeath, AgentID: 7}}) != nil {
		t.Error("untracked death produced a record")
	}
	if lt.Record(sim.Dispatch{Event: sim.Event{Kind: sim.KindDeath, AgentID: 7}, Stale: true}) != nil {
		t.Error("stale dispatch produced a record")
	}
}
