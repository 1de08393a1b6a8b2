package telemetry

import "github.com/pthm-cable/forage/sim"

// LifetimeStats tracks per-agent statistics over its lifetime.
type LifetimeStats struct {
	ID        uint64  `csv:"id"`
	BirthTime float64 `csv:"birth_time"`
	DeathTime float64 `csv:"death_time"`
	Cause     string  `csv:"cause"`

	Moves      int     `csv:"moves"`
	Stays      int     `csv:"stays"`
	Harvested  float64 `csv:"harvested"`
	Caught     int     `csv:"caught"` // infections picked up from neighbors
	Spread     int     `csv:"spread"` // neighbors this agent infected
	Cleared    int     `csv:"cleared"`
	Mutations  int     `csv:"mutations"`
	PeakWealth float64 `csv:"peak_wealth"`
}

// Survival returns the time between birth and death.
func (s *LifetimeStats) Survival() float64 {
	return s.DeathTime - s.BirthTime
}

// LifetimeTracker manages per-agent lifetime statistics.
type LifetimeTracker struct {
	stats map[uint64]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint64]*LifetimeStats),
	}
}

// Register starts tracking an agent born at birthTime.
func (lt *LifetimeTracker) Register(id uint64, birthTime float64) {
	lt.stats[id] = &LifetimeStats{ID: id, BirthTime: birthTime}
}

// Get returns the lifetime stats for an agent, or nil if not found.
func (lt *LifetimeTracker) Get(id uint64) *LifetimeStats {
	return lt.stats[id]
}

// Remove stops tracking an agent and returns its stats.
func (lt *LifetimeTracker) Remove(id uint64) *LifetimeStats {
	stats := lt.stats[id]
	delete(lt.stats, id)
	return stats
}

// Record folds one dispatch into the target's stats. For a death it returns the
// finished record and registers the replacement; otherwise it returns nil.
func (lt *LifetimeTracker) Record(d sim.Dispatch) *LifetimeStats {
	if d.Stale {
		return nil
	}
	s := lt.stats[d.Event.AgentID]
	if s == nil {
		return nil
	}
	s.Harvested += d.Harvest
	switch d.Event.Kind {
	case sim.KindMove:
		if d.Moved {
			s.Moves++
		} else {
			s.Stays++
		}
		s.Spread += d.Spread
		if d.Caught {
			s.Caught++
		}
	case sim.KindMutate:
		s.Mutations++
		s.Cleared += d.Cleared
	case sim.KindImmuneResponse:
		s.Cleared += d.Cleared
	case sim.KindDeath:
		s.DeathTime = d.Event.Time
		s.Cause = d.Cause.String()
		lt.Remove(s.ID)
		if d.Replacement != 0 {
			lt.Register(d.Replacement, d.Event.Time)
		}
		return s
	}
	return nil
}

// UpdateWealth tracks peak wealth.
func (lt *LifetimeTracker) UpdateWealth(id uint64, wealth float64) {
	if s := lt.stats[id]; s != nil && wealth > s.PeakWealth {
		s.PeakWealth = wealth
	}
}

// All returns all tracked stats.
func (lt *LifetimeTracker) All() map[uint64]*LifetimeStats {
	return lt.stats
}

// Count returns the number of tracked agents.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
