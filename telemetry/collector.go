package telemetry

import "github.com/pthm-cable/forage/sim"

// World is the read side of a running engine that window stats sample at flush time.
type World interface {
	Time() float64
	Dispatched() uint64
	Snapshot() sim.Snapshot
	MeanPoolDistance() float64
}

// Collector accumulates dispatches within windows of simulation time and produces
// WindowStats.
type Collector struct {
	window      float64
	windowStart float64

	// Event counters for current window
	births            int
	deathsStarvation  int
	deathsAge         int
	moves             int
	stays             int
	mutations         int
	immuneResponses   int
	infectionsCleared int
	newInfections     int
	harvested         float64
}

// NewCollector creates a collector whose windows span the given simulation time.
func NewCollector(window float64) *Collector {
	if window <= 0 {
		window = 1
	}
	return &Collector{window: window}
}

// Record counts one dispatch into the current window.
func (c *Collector) Record(d sim.Dispatch) {
	if d.Stale {
		return
	}
	c.harvested += d.Harvest
	switch d.Event.Kind {
	case sim.KindMove:
		if d.Moved {
			c.moves++
		} else {
			c.stays++
		}
		c.newInfections += d.NewInfections()
	case sim.KindDeath:
		switch d.Cause {
		case sim.CauseAge:
			c.deathsAge++
		case sim.CauseStarvation:
			c.deathsStarvation++
		}
		if d.Replacement != 0 {
			c.births++
		}
	case sim.KindMutate:
		c.mutations++
		c.infectionsCleared += d.Cleared
	case sim.KindImmuneResponse:
		c.immuneResponses++
		c.infectionsCleared += d.Cleared
	}
}

// ShouldFlush returns true once t has reached the end of the current window.
func (c *Collector) ShouldFlush(t float64) bool {
	return t-c.windowStart >= c.window
}

// WindowEnd returns the end of the current window.
func (c *Collector) WindowEnd() float64 {
	return c.windowStart + c.window
}

// Flush produces a WindowStats from the counters plus a sample of w, and starts the
// next window at w's current time.
func (c *Collector) Flush(w World) WindowStats {
	snap := w.Snapshot()

	wealth := make([]float64, len(snap.Agents))
	var infected, infections int
	for i, a := range snap.Agents {
		wealth[i] = a.Wealth
		infections += a.Infections
		if a.Infected {
			infected++
		}
	}
	var totalResource float64
	for _, level := range snap.Levels {
		totalResource += level
	}
	mean, p10, p50, p90 := ComputeWealthStats(wealth)

	stats := WindowStats{
		WindowStart: c.windowStart,
		WindowEnd:   snap.Time,
		Events:      w.Dispatched(),

		Population: len(snap.Agents),
		Infected:   infected,
		Uninfected: len(snap.Agents) - infected,

		Births:            c.births,
		DeathsStarvation:  c.deathsStarvation,
		DeathsAge:         c.deathsAge,
		Moves:             c.moves,
		Stays:             c.stays,
		Mutations:         c.mutations,
		ImmuneResponses:   c.immuneResponses,
		InfectionsCleared: c.infectionsCleared,
		NewInfections:     c.newInfections,
		Harvested:         c.harvested,

		WealthMean: mean,
		WealthP10:  p10,
		WealthP50:  p50,
		WealthP90:  p90,

		MeanPoolDistance: w.MeanPoolDistance(),
		TotalResource:    totalResource,
	}
	if len(snap.Agents) > 0 {
		stats.MeanInfections = float64(infections) / float64(len(snap.Agents))
	}

	// Reset for next window
	*c = Collector{window: c.window, windowStart: snap.Time}

	return stats
}

// Window returns the simulation time per window.
func (c *Collector) Window() float64 {
	return c.window
}
