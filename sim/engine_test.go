package sim

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/organism"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.World.Size = 20
	cfg.Population.Initial = 60
	cfg.Run.MaxTime = 20
	cfg.ComputeDerived()
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"population fills grid", func(c *config.Config) { c.Population.Initial = c.World.Size * c.World.Size }},
		{"negative wealth", func(c *config.Config) { c.Agent.WealthMin = -10; c.Agent.WealthMax = -5 }},
		{"zero metabolism", func(c *config.Config) { c.Agent.MetabolismMin = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			if _, err := New(cfg); !errors.Is(err, config.ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestNewInitialWorld(t *testing.T) {
	cfg := testConfig()
	e, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	if e.Population() != 60 {
		t.Errorf("Population = %d, want 60", e.Population())
	}
	if len(e.Pool()) != cfg.Disease.PoolSize {
		t.Errorf("pool size = %d, want %d", len(e.Pool()), cfg.Disease.PoolSize)
	}
	// One move-or-death, one mutation and one immune response per agent
	if e.Pending() != 3*60 {
		t.Errorf("Pending = %d, want %d", e.Pending(), 3*60)
	}
	// Agents already immune to their drawn disease start healthy; most are not
	if tally := e.Tally(); tally.Infected < tally.Uninfected {
		t.Errorf("initial tally %+v: expected most agents infected", tally)
	}
	checkInvariants(t, e)
}

func TestDeterministicRuns(t *testing.T) {
	run := func() ([]Dispatch, Tally) {
		var log []Dispatch
		e, err := New(testConfig(), WithEventHook(func(d Dispatch) { log = append(log, d) }))
		if err != nil {
			t.Fatal(err)
		}
		tally, err := e.Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		return log, tally
	}

	log1, tally1 := run()
	log2, tally2 := run()
	if len(log1) == 0 {
		t.Fatal("no events dispatched")
	}
	if tally1 != tally2 {
		t.Errorf("tallies differ: %+v vs %+v", tally1, tally2)
	}
	if !reflect.DeepEqual(log1, log2) {
		t.Error("event sequences differ for the same seed")
	}
}

func TestSeedChangesRun(t *testing.T) {
	a, _ := New(testConfig())
	cfg := testConfig()
	cfg.Run.Seed++
	b, _ := New(cfg)
	if reflect.DeepEqual(a.Snapshot().Agents, b.Snapshot().Agents) {
		t.Error("different seeds produced identical populations")
	}
}

func TestRunInvariants(t *testing.T) {
	cfg := testConfig()
	e, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	last := 0.0
	e.OnDispatch(func(d Dispatch) {
		if d.Event.Time < last {
			t.Fatalf("time went backwards: %v after %v", d.Event.Time, last)
		}
		last = d.Event.Time
		if d.Next != nil && d.Next.Time < d.Event.Time {
			t.Fatalf("scheduled %v at %v, before now %v", d.Next.Kind, d.Next.Time, d.Event.Time)
		}
		if e.Population() != cfg.Population.Initial {
			t.Fatalf("population %d after %v", e.Population(), d.Event.Kind)
		}
		if d.Seq%97 == 0 {
			checkInvariants(t, e)
		}
	})

	tally, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if tally.Total() != cfg.Population.Initial {
		t.Errorf("final tally %+v does not sum to %d", tally, cfg.Population.Initial)
	}
	checkInvariants(t, e)
}

// checkInvariants verifies occupancy, scheduling and infection bookkeeping for every agent.
func checkInvariants(t *testing.T, e *Engine) {
	t.Helper()

	occupied := 0
	for _, c := range e.Landscape().Cells() {
		if c.Occupied() {
			occupied++
		}
	}
	agents := e.Agents()
	if occupied != len(agents) {
		t.Fatalf("%d occupied cells for %d agents", occupied, len(agents))
	}

	perAgent := map[uint64][4]int{}
	for _, it := range e.cal.items {
		counts := perAgent[it.ev.AgentID]
		counts[it.ev.Kind]++
		perAgent[it.ev.AgentID] = counts
	}

	for _, a := range agents {
		if id := e.Landscape().CellAt(a.Row, a.Col).Occupant(); id != a.ID {
			t.Fatalf("agent %d sits on a cell held by %d", a.ID, id)
		}
		if a.Wealth < 0 {
			t.Fatalf("agent %d has negative wealth %v", a.ID, a.Wealth)
		}
		counts := perAgent[a.ID]
		if counts[KindMove]+counts[KindDeath] != 1 {
			t.Fatalf("agent %d has %d moves and %d deaths pending", a.ID, counts[KindMove], counts[KindDeath])
		}
		if counts[KindMutate] != 1 || counts[KindImmuneResponse] != 1 {
			t.Fatalf("agent %d pending events %v", a.ID, counts)
		}

		rate := a.BaseMetabolism
		seen := map[*organism.Disease]bool{}
		for _, d := range a.Active {
			if seen[d] {
				t.Fatalf("agent %d carries disease %d twice", a.ID, d.ID)
			}
			seen[d] = true
			if a.ImmuneTo(d) {
				t.Fatalf("agent %d keeps a matched infection %d", a.ID, d.ID)
			}
			rate += d.MetabolicPenalty
		}
		if math.Abs(rate-a.MetabolicRate) > 1e-9 {
			t.Fatalf("agent %d MetabolicRate %v, want %v", a.ID, a.MetabolicRate, rate)
		}
	}
	for id := range perAgent {
		if _, ok := e.index[id]; !ok {
			t.Fatalf("events pending for dead agent %d", id)
		}
	}
}

func TestScenarioWithoutDisease(t *testing.T) {
	cfg := config.Default()
	cfg.World.Size = 10
	cfg.Population.Initial = 5
	cfg.Disease.PoolSize = 0
	cfg.Run.MaxTime = 50
	cfg.ComputeDerived()

	e, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	e.OnDispatch(func(d Dispatch) {
		if d.NewInfections() != 0 {
			t.Fatalf("infection without a disease pool: %+v", d)
		}
	})

	for _, checkpoint := range []float64{10, 25, 50} {
		e.RunUntil(checkpoint)
		for _, a := range e.Agents() {
			if a.Wealth < 0 {
				t.Errorf("t=%v: agent %d wealth %v", checkpoint, a.ID, a.Wealth)
			}
		}
	}

	tally := e.Tally()
	if tally.Infected != 0 || tally.Uninfected != 5 {
		t.Errorf("tally = %+v, want 0 infected, 5 uninfected", tally)
	}
}

func TestLifespanDeath(t *testing.T) {
	cfg := testConfig()
	cfg.Agent.LifespanMin = 5
	cfg.Agent.LifespanMax = 5
	// Metabolism below regrowth: nobody can starve
	cfg.Agent.MetabolismMin = 0.5
	cfg.Agent.MetabolismMax = 0.9
	cfg.Disease.PoolSize = 0
	cfg.Run.MaxTime = 5.5

	e, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	deaths := 0
	e.OnDispatch(func(d Dispatch) {
		if d.Event.Kind != KindDeath {
			return
		}
		deaths++
		if d.Cause != CauseAge {
			t.Errorf("agent %d died of %v", d.Event.AgentID, d.Cause)
		}
		if d.Event.Time != 5 {
			t.Errorf("agent %d died at %v, want 5", d.Event.AgentID, d.Event.Time)
		}
		if d.Replacement == 0 {
			t.Error("death without replacement")
		}
	})

	if _, err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if deaths != cfg.Population.Initial {
		t.Errorf("deaths = %d, want %d", deaths, cfg.Population.Initial)
	}
	for _, a := range e.Agents() {
		if a.ID <= uint64(cfg.Population.Initial) {
			t.Errorf("original agent %d outlived its lifespan", a.ID)
		}
		if a.BirthTime != 5 {
			t.Errorf("replacement %d born at %v, want 5", a.ID, a.BirthTime)
		}
	}
	if e.Time() != 5.5 {
		t.Errorf("Time = %v, want the bound 5.5", e.Time())
	}
}

func TestStarvation(t *testing.T) {
	cfg := testConfig()
	cfg.Agent.MetabolismMin = 6
	cfg.Agent.MetabolismMax = 8
	cfg.Agent.LifespanMin = 1000
	cfg.Agent.LifespanMax = 1000
	cfg.Disease.PoolSize = 0
	cfg.Run.MaxTime = 30

	e, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	starved := 0
	e.OnDispatch(func(d Dispatch) {
		if d.Event.Kind != KindDeath {
			return
		}
		if d.Cause != CauseStarvation {
			t.Errorf("unexpected death cause %v", d.Cause)
		}
		starved++
	})
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if starved == 0 {
		t.Error("metabolism far above any harvest produced no starvation")
	}
	checkInvariants(t, e)
}

func TestStaleEventIsNoop(t *testing.T) {
	e, err := New(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	before := e.Snapshot()

	e.cal.push(Event{Time: -1, Kind: KindMove, AgentID: 9999})
	d, ok := e.Step()
	if !ok || !d.Stale {
		t.Fatalf("dispatch = %+v, want stale", d)
	}
	after := e.Snapshot()
	if !reflect.DeepEqual(before.Agents, after.Agents) {
		t.Error("stale event changed agent state")
	}
}

func TestRunStopsAtBound(t *testing.T) {
	e, err := New(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if e.Time() != 20 {
		t.Errorf("Time = %v, want 20", e.Time())
	}
	next, ok := e.cal.peek()
	if !ok || next.Time <= 20 {
		t.Errorf("next pending event %+v should be after the bound", next)
	}
}

func TestRunCancelled(t *testing.T) {
	cfg := testConfig()
	cfg.Run.MaxTime = 0
	e, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.OnDispatch(func(d Dispatch) {
		if d.Seq == 500 {
			cancel()
		}
	})

	_, err = e.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if e.Dispatched() != 500 {
		t.Errorf("Dispatched = %d, want 500", e.Dispatched())
	}
}

func TestSnapshot(t *testing.T) {
	e, err := New(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	e.RunUntil(3)
	s := e.Snapshot()

	if s.Time != 3 || s.Size != 20 {
		t.Errorf("Time/Size = %v/%d", s.Time, s.Size)
	}
	if len(s.Levels) != 400 || len(s.Capacities) != 400 {
		t.Fatalf("levels/capacities = %d/%d, want 400", len(s.Levels), len(s.Capacities))
	}
	for i := range s.Levels {
		if s.Levels[i] < 0 || s.Levels[i] > s.Capacities[i] {
			t.Fatalf("cell %d level %v outside [0, %v]", i, s.Levels[i], s.Capacities[i])
		}
	}
	if len(s.Agents) != 60 {
		t.Fatalf("agents = %d, want 60", len(s.Agents))
	}
	for i := 1; i < len(s.Agents); i++ {
		if s.Agents[i-1].ID >= s.Agents[i].ID {
			t.Fatal("agents not ordered by ID")
		}
	}
	infected := 0
	for _, a := range s.Agents {
		if a.Infected {
			infected++
		}
	}
	if infected != e.Tally().Infected {
		t.Errorf("snapshot infected %d, tally %d", infected, e.Tally().Infected)
	}
}
