package sim

import (
	"cmp"
	"slices"

	"github.com/pthm-cable/forage/organism"
)

// Tally counts living agents by infection status.
type Tally struct {
	Infected   int `json:"infected" csv:"infected"`
	Uninfected int `json:"uninfected" csv:"uninfected"`
}

// Total returns the population size.
func (t Tally) Total() int { return t.Infected + t.Uninfected }

// Snapshot is a read-only view of the world at one instant.
type Snapshot struct {
	Time       float64     `json:"time"`
	Size       int         `json:"size"`
	Levels     []float64   `json:"levels"`     // row-major resource level
	Capacities []float64   `json:"capacities"` // row-major capacity
	Agents     []AgentView `json:"agents"`     // ordered by ID
}

// AgentView is the per-agent part of a Snapshot.
type AgentView struct {
	ID             uint64  `json:"id"`
	Row            int     `json:"row"`
	Col            int     `json:"col"`
	Vision         int     `json:"vision"`
	Wealth         float64 `json:"wealth"`
	MetabolicRate  float64 `json:"metabolic_rate"`
	Infected       bool    `json:"infected"`
	Infections     int     `json:"infections"`
	Cleared        int     `json:"cleared"`
	BirthTime      float64 `json:"birth_time"`
	LastCollection float64 `json:"last_collection"`
}

// Tally counts the living population by infection status.
func (e *Engine) Tally() Tally {
	var t Tally
	e.eachAgent(func(a *organism.Agent) {
		if a.Infected() {
			t.Infected++
		} else {
			t.Uninfected++
		}
	})
	return t
}

// Snapshot captures cell levels at the current time and every living agent.
func (e *Engine) Snapshot() Snapshot {
	cells := e.land.Cells()
	s := Snapshot{
		Time:       e.now,
		Size:       e.land.Size(),
		Levels:     make([]float64, len(cells)),
		Capacities: make([]float64, len(cells)),
		Agents:     make([]AgentView, 0, len(e.index)),
	}
	for i, c := range cells {
		s.Levels[i] = c.ResourceLevel(e.now)
		s.Capacities[i] = c.Capacity()
	}
	e.eachAgent(func(a *organism.Agent) {
		s.Agents = append(s.Agents, AgentView{
			ID:             a.ID,
			Row:            a.Row,
			Col:            a.Col,
			Vision:         a.Vision,
			Wealth:         a.Wealth,
			MetabolicRate:  a.MetabolicRate,
			Infected:       a.Infected(),
			Infections:     len(a.Active),
			Cleared:        len(a.Cleared),
			BirthTime:      a.BirthTime,
			LastCollection: a.LastCollection,
		})
	})
	slices.SortFunc(s.Agents, func(x, y AgentView) int { return cmp.Compare(x.ID, y.ID) })
	return s
}

// Agents returns copies of every living agent ordered by ID.
func (e *Engine) Agents() []organism.Agent {
	out := make([]organism.Agent, 0, len(e.index))
	e.eachAgent(func(a *organism.Agent) {
		out = append(out, *a)
	})
	slices.SortFunc(out, func(x, y organism.Agent) int { return cmp.Compare(x.ID, y.ID) })
	return out
}

// MeanPoolDistance averages, over agents and pool diseases, the immune system's
// best-alignment distance to each genome. It is 0 for an empty pool or population.
func (e *Engine) MeanPoolDistance() float64 {
	if len(e.pool) == 0 {
		return 0
	}
	var sum float64
	n := 0
	e.eachAgent(func(a *organism.Agent) {
		for _, d := range e.pool {
			sum += float64(a.DistanceTo(d))
			n++
		}
	})
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func (e *Engine) eachAgent(fn func(a *organism.Agent)) {
	query := e.filter.Query()
	for query.Next() {
		fn(query.Get())
	}
}
