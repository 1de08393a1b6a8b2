package game

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/forage/telemetry"
)

// logRunStart logs the parameters that identify a run.
func (g *Game) logRunStart() {
	slog.Info("run started",
		"seed", g.cfg.Run.Seed,
		"size", g.cfg.World.Size,
		"population", g.cfg.Population.Initial,
		"pool", g.cfg.Disease.PoolSize,
		"max_time", g.cfg.Run.MaxTime,
		"window", g.collector.Window(),
		"output", g.output.Dir(),
		"trace", g.trace != nil,
		"headless", g.headless,
	)
}

// logDeath logs a finished lifetime at debug level.
func (g *Game) logDeath(s *telemetry.LifetimeStats) {
	slog.Debug("agent died",
		"id", s.ID,
		"time", s.DeathTime,
		"cause", s.Cause,
		"survival", s.Survival(),
		"harvested", s.Harvested,
		"caught", s.Caught,
		"cleared", s.Cleared,
	)
}

// logRunComplete logs the end state and run totals.
func (g *Game) logRunComplete() {
	tally := g.engine.Tally()
	attrs := []any{
		"time", g.engine.Time(),
		"events", g.engine.Dispatched(),
		"infected", tally.Infected,
		"uninfected", tally.Uninfected,
		"births", g.totals.Births,
		"deaths_starvation", g.totals.DeathsStarvation,
		"deaths_age", g.totals.DeathsAge,
		"bookmarks", g.totals.Bookmarks,
		"wall", time.Since(g.started).Round(time.Millisecond),
	}
	if g.trace != nil {
		attrs = append(attrs, "traced", g.trace.Count())
	}
	if g.observer != nil {
		attrs = append(attrs, "frames_dropped", g.observer.Dropped())
	}
	slog.Info("run complete", attrs...)
}
