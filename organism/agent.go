// Package organism holds the foraging agent and its genome/immune-system coevolution.
package organism

import (
	"math"

	"github.com/pthm-cable/forage/landscape"
)

// Agent is one forager. Agents are stored by value in the engine's arena; methods that
// change state take a pointer obtained from the arena for the duration of one event.
type Agent struct {
	ID       uint64
	Row, Col int
	Vision   int

	BaseMetabolism float64 // metabolic rate without infections
	MetabolicRate  float64 // BaseMetabolism plus the penalty of every active infection
	Wealth         float64

	ImmuneSystem string
	Active       []*Disease // oldest infection first
	Cleared      []*Disease // memory of matched infections, oldest first

	BirthTime      float64
	DeathTime      float64 // end of lifespan; overrides any later scheduled event
	LastCollection float64
}

// Traits are the attributes drawn for an agent at birth.
type Traits struct {
	Vision       int
	Metabolism   float64
	Wealth       float64
	Lifespan     float64
	ImmuneSystem string
}

// New creates an agent born at birthTime. Position is assigned by Place.
func New(id uint64, tr Traits, birthTime float64) Agent {
	return Agent{
		ID:             id,
		Vision:         tr.Vision,
		BaseMetabolism: tr.Metabolism,
		MetabolicRate:  tr.Metabolism,
		Wealth:         tr.Wealth,
		ImmuneSystem:   tr.ImmuneSystem,
		BirthTime:      birthTime,
		DeathTime:      birthTime + tr.Lifespan,
		LastCollection: birthTime,
	}
}

// Place puts the agent on cell c and marks the cell occupied.
func (a *Agent) Place(c *landscape.Cell) {
	c.Occupy(a.ID)
	a.Row, a.Col = c.Row(), c.Col()
}

// Infected reports whether the agent carries at least one active infection.
func (a *Agent) Infected() bool {
	return len(a.Active) > 0
}

// CollectResources harvests cell c at time t and charges metabolism since the last
// collection. Wealth never goes below zero; any deficit is lost.
func (a *Agent) CollectResources(c *landscape.Cell, t float64) float64 {
	eaten := c.RemoveResources(t)
	a.Wealth = math.Max(0, a.Wealth+eaten-a.MetabolicRate*(t-a.LastCollection))
	a.LastCollection = t
	return eaten
}

// WealthAt projects wealth forward assuming linear drift at the given net rate.
func (a *Agent) WealthAt(t, netRate float64) float64 {
	return a.Wealth + netRate*(t-a.LastCollection)
}

func (a *Agent) recomputeMetabolism() {
	rate := a.BaseMetabolism
	for _, d := range a.Active {
		rate += d.MetabolicPenalty
	}
	a.MetabolicRate = rate
}
