// Package sim runs the discrete-event foraging simulation: a global calendar of agent
// events dispatched in time order against a shared landscape and disease pool.
package sim

import (
	"context"
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/landscape"
	"github.com/pthm-cable/forage/organism"
	"github.com/pthm-cable/forage/rng"
)

// Engine owns the world state of one run.
type Engine struct {
	cfg  *config.Config
	rng  *rng.Source
	land *landscape.Landscape
	pool []*organism.Disease

	// ECS arena; agents are addressed by ID through index
	world  *ecs.World
	agents *ecs.Map1[organism.Agent]
	filter *ecs.Filter1[organism.Agent]
	index  map[uint64]ecs.Entity

	cal    calendar
	now    float64
	nextID uint64
	seq    uint64
	hooks  []func(Dispatch)
}

// Option configures an Engine.
type Option func(*Engine)

// WithEventHook registers fn to receive every dispatch, in order.
func WithEventHook(fn func(Dispatch)) Option {
	return func(e *Engine) { e.hooks = append(e.hooks, fn) }
}

// New validates cfg and builds the initial world: landscape, disease pool, then the
// population, with every agent's first events on the calendar.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	world := ecs.NewWorld()
	e := &Engine{
		cfg:    cfg,
		rng:    rng.New(cfg.Run.Seed),
		world:  world,
		agents: ecs.NewMap1[organism.Agent](world),
		filter: ecs.NewFilter1[organism.Agent](world),
		index:  make(map[uint64]ecs.Entity, cfg.Population.Initial),
		nextID: 1,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.land = landscape.New(cfg.World.Size, cfg.World.RegrowthRate, landscape.Peaks{
		Height: cfg.World.PeakHeight,
		Theta:  cfg.Derived.PeakTheta,
	})
	e.pool = organism.NewPool(organism.PoolSpec{
		Size:       cfg.Disease.PoolSize,
		GenomeMin:  cfg.Disease.GenomeMin,
		GenomeMax:  cfg.Disease.GenomeMax,
		PenaltyMin: cfg.Disease.PenaltyMin,
		PenaltyMax: cfg.Disease.PenaltyMax,
	}, e.rng)

	for i := 0; i < cfg.Population.Initial; i++ {
		e.spawn(0, true)
	}
	return e, nil
}

// OnDispatch registers fn after construction. Hooks run synchronously after each event.
func (e *Engine) OnDispatch(fn func(Dispatch)) {
	e.hooks = append(e.hooks, fn)
}

// Time returns the current simulation time.
func (e *Engine) Time() float64 { return e.now }

// Landscape returns the grid. Callers must not mutate it.
func (e *Engine) Landscape() *landscape.Landscape { return e.land }

// Pool returns the disease pool.
func (e *Engine) Pool() []*organism.Disease { return e.pool }

// Population returns the number of living agents.
func (e *Engine) Population() int { return len(e.index) }

// Pending returns the number of queued events.
func (e *Engine) Pending() int { return e.cal.Len() }

// NextTime returns the time of the earliest queued event.
func (e *Engine) NextTime() (float64, bool) {
	next, ok := e.cal.peek()
	if !ok {
		return 0, false
	}
	return next.Time, true
}

// Dispatched returns the number of events popped so far.
func (e *Engine) Dispatched() uint64 { return e.seq }

// Agent returns a copy of the living agent with the given ID.
func (e *Engine) Agent(id uint64) (organism.Agent, bool) {
	ent, ok := e.lookup(id)
	if !ok {
		return organism.Agent{}, false
	}
	return *e.agents.Get(ent), true
}

// Run dispatches events until the calendar empties, the configured time bound is
// reached, or ctx is cancelled. Events later than the bound stay queued.
func (e *Engine) Run(ctx context.Context) (Tally, error) {
	bound := e.cfg.Run.MaxTime
	for {
		if err := ctx.Err(); err != nil {
			return e.Tally(), fmt.Errorf("run interrupted at t=%.3f: %w", e.now, err)
		}
		next, ok := e.cal.peek()
		if !ok {
			break
		}
		if bound > 0 && next.Time > bound {
			e.now = bound
			break
		}
		e.Step()
	}
	return e.Tally(), nil
}

// RunUntil dispatches every event with time at most t and advances the clock to t.
func (e *Engine) RunUntil(t float64) {
	for {
		next, ok := e.cal.peek()
		if !ok || next.Time > t {
			break
		}
		e.Step()
	}
	if t > e.now {
		e.now = t
	}
}

// Step pops and dispatches one event. It reports false when the calendar is empty.
func (e *Engine) Step() (Dispatch, bool) {
	ev, ok := e.cal.pop()
	if !ok {
		return Dispatch{}, false
	}
	e.now = ev.Time
	e.seq++
	d := Dispatch{Seq: e.seq, Event: ev}

	ent, alive := e.lookup(ev.AgentID)
	if !alive {
		d.Stale = true
	} else {
		switch ev.Kind {
		case KindMove:
			e.handleMove(ent, &d)
		case KindDeath:
			e.handleDeath(ent, &d)
		case KindMutate:
			e.handleMutate(ent, &d)
		case KindImmuneResponse:
			e.handleImmune(ent, &d)
		}
		if ev.Kind != KindDeath {
			a := e.agents.Get(ent)
			d.Row, d.Col = a.Row, a.Col
		}
	}

	for _, fn := range e.hooks {
		fn(d)
	}
	return d, true
}

func (e *Engine) lookup(id uint64) (ecs.Entity, bool) {
	ent, ok := e.index[id]
	if !ok || !e.world.Alive(ent) {
		return ecs.Entity{}, false
	}
	return ent, true
}

func (e *Engine) schedule(ev Event) *Event {
	e.cal.push(ev)
	return &ev
}

// spawn draws a new agent born at t, places it on a random free cell, optionally infects
// it from the pool, and queues its first move, mutation and immune response.
func (e *Engine) spawn(t float64, initial bool) uint64 {
	ac := e.cfg.Agent
	tr := organism.Traits{
		Vision:     e.rng.IntRange(ac.VisionMin, ac.VisionMax),
		Metabolism: e.rng.Uniform(ac.MetabolismMin, ac.MetabolismMax),
		Wealth:     e.rng.Uniform(ac.WealthMin, ac.WealthMax),
		Lifespan:   e.rng.Uniform(ac.LifespanMin, ac.LifespanMax),
	}
	tr.ImmuneSystem = e.rng.BitString(ac.ImmuneLength)

	id := e.nextID
	e.nextID++
	a := organism.New(id, tr, t)
	a.Place(e.freeCell())
	if initial || ac.InfectNewborns {
		a.InfectWith(organism.Pick(e.pool, e.rng))
	}

	e.index[id] = e.agents.NewEntity(&a)

	sc := e.cfg.Schedule
	first := Event{Time: t + e.rng.Exponential(sc.MoveRate), Kind: KindMove, AgentID: id}
	if a.DeathTime < first.Time {
		first = Event{Time: a.DeathTime, Kind: KindDeath, AgentID: id}
	}
	e.schedule(first)
	e.schedule(Event{Time: t + e.rng.Exponential(sc.MutateRate), Kind: KindMutate, AgentID: id})
	e.schedule(Event{Time: t + e.rng.Exponential(sc.ImmuneRate), Kind: KindImmuneResponse, AgentID: id})
	return id
}

// freeCell samples cells uniformly until it finds an unoccupied one. Validation keeps
// the population below the cell count, so at least one cell is always free.
func (e *Engine) freeCell() *landscape.Cell {
	size := e.land.Size()
	for {
		row := e.rng.Intn(size)
		col := e.rng.Intn(size)
		if c := e.land.CellAt(row, col); !c.Occupied() {
			return c
		}
	}
}

func (e *Engine) handleMove(ent ecs.Entity, d *Dispatch) {
	a := e.agents.Get(ent)
	now := e.now

	d.Moved = a.Move(e.land, now, e.rng)

	ex := organism.Expose(a, e.neighbors(a), e.rng)
	d.Spread, d.Caught = ex.NeighborsInfected, ex.MoverInfected

	cell := e.land.CellAt(a.Row, a.Col)
	d.Harvest = a.CollectResources(cell, now)

	next := Event{Time: now + e.rng.Exponential(e.cfg.Schedule.MoveRate), Kind: KindMove, AgentID: a.ID}
	netRate := cell.RegrowthRate() - a.MetabolicRate
	if netRate < 0 && a.WealthAt(next.Time, netRate) <= 0 {
		next = Event{Time: now - a.Wealth/netRate, Kind: KindDeath, AgentID: a.ID}
	}
	if a.DeathTime < next.Time {
		next = Event{Time: a.DeathTime, Kind: KindDeath, AgentID: a.ID}
	}
	d.Next = e.schedule(next)
}

// neighbors returns the distinct agents on the four cells adjacent to a.
func (e *Engine) neighbors(a *organism.Agent) []*organism.Agent {
	var out []*organism.Agent
	var seen [4]uint64
	n := 0
outer:
	for _, c := range e.land.Neighbors(a.Row, a.Col) {
		id := c.Occupant()
		if id == 0 || id == a.ID {
			continue
		}
		for _, s := range seen[:n] {
			if s == id {
				continue outer
			}
		}
		seen[n] = id
		n++
		if ent, ok := e.lookup(id); ok {
			out = append(out, e.agents.Get(ent))
		}
	}
	return out
}

func (e *Engine) handleDeath(ent ecs.Entity, d *Dispatch) {
	a := e.agents.Get(ent)
	id := a.ID

	cell := e.land.CellAt(a.Row, a.Col)
	d.Row, d.Col = a.Row, a.Col
	d.Harvest = a.CollectResources(cell, e.now)
	cell.Vacate()
	if e.now >= a.DeathTime {
		d.Cause = CauseAge
	} else {
		d.Cause = CauseStarvation
	}

	e.world.RemoveEntity(ent)
	delete(e.index, id)
	e.cal.purge(id)

	d.Replacement = e.spawn(e.now, false)
}

func (e *Engine) handleMutate(ent ecs.Entity, d *Dispatch) {
	a := e.agents.Get(ent)
	d.Locus, d.Cleared = a.Mutate(e.rng)
	d.Next = e.schedule(Event{
		Time:    e.now + e.rng.Exponential(e.cfg.Schedule.MutateRate),
		Kind:    KindMutate,
		AgentID: a.ID,
	})
}

func (e *Engine) handleImmune(ent ecs.Entity, d *Dispatch) {
	a := e.agents.Get(ent)
	d.Cleared = a.ImmuneResponse(true)
	d.Next = e.schedule(Event{
		Time:    e.now + e.rng.Exponential(e.cfg.Schedule.ImmuneRate),
		Kind:    KindImmuneResponse,
		AgentID: a.ID,
	})
}
