package game

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/forage/renderer"
	"github.com/pthm-cable/forage/sim"
	"github.com/pthm-cable/forage/telemetry"
)

// onDispatch is the engine hook. It only buffers; drain does the work so the
// perf collector can time dispatch, telemetry and trace separately.
func (g *Game) onDispatch(d sim.Dispatch) {
	g.pending = append(g.pending, d)
}

// drain folds buffered dispatches into telemetry and the trace.
func (g *Game) drain() {
	if len(g.pending) == 0 {
		return
	}

	g.perf.StartPhase(telemetry.PhaseTelemetry)
	for i := range g.pending {
		d := g.pending[i]
		g.collector.Record(d)
		if finished := g.lifetimes.Record(d); finished != nil {
			g.logDeath(finished)
			if err := g.output.WriteLifetime(finished); err != nil {
				slog.Error("failed to write lifetime", "error", err)
			}
		}
		if g.particles != nil {
			g.spawnFlashes(d)
		}
	}

	if g.trace != nil {
		g.perf.StartPhase(telemetry.PhaseTrace)
		for i := range g.pending {
			if err := g.trace.Write(g.pending[i]); err != nil {
				slog.Error("failed to write trace", "error", err)
				g.trace = nil
				break
			}
		}
	}

	g.batchEvents += len(g.pending)
	g.pending = g.pending[:0]
}

// spawnFlashes marks deaths and infection changes on the grid.
func (g *Game) spawnFlashes(d sim.Dispatch) {
	if d.Stale {
		return
	}
	var kind renderer.FlashKind
	switch {
	case d.Event.Kind == sim.KindDeath:
		kind = renderer.FlashDeath
	case d.NewInfections() > 0:
		kind = renderer.FlashInfection
	case d.Cleared > 0:
		kind = renderer.FlashCleared
	default:
		return
	}
	g.particles.Spawn(d.Row, d.Col, kind)
}

// advanceTo dispatches events up to time t, flushing telemetry at every window
// boundary on the way. A positive budget caps the number of events; advanceTo
// reports whether t was reached.
func (g *Game) advanceTo(t float64, budget int) bool {
	g.perf.StartPhase(telemetry.PhaseDispatch)
	n := 0
	for {
		end := g.collector.WindowEnd()
		next, ok := g.engine.NextTime()
		if ok && next <= t && next <= end {
			if budget > 0 && n >= budget {
				g.drain()
				return false
			}
			g.engine.Step()
			n++
			continue
		}
		if end <= t {
			g.engine.RunUntil(end)
			g.drain()
			g.flushTelemetry()
			g.perf.StartPhase(telemetry.PhaseDispatch)
			continue
		}
		g.engine.RunUntil(t)
		g.drain()
		return true
	}
}

// RunHeadless runs window by window until the time bound, an empty calendar,
// or ctx cancellation. Cancellation is reported as an error wrapping ctx.Err().
func (g *Game) RunHeadless(ctx context.Context) error {
	bound := g.cfg.Run.MaxTime
	for !g.Finished() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run interrupted at t=%.3f: %w", g.engine.Time(), err)
		}

		g.perf.StartBatch()
		g.batchEvents = 0
		target := g.collector.WindowEnd()
		if bound > 0 && target > bound {
			target = bound
		}
		g.advanceTo(target, 0)
		g.pushObserver(false)
		g.perf.EndBatch(g.batchEvents)
	}
	g.pushObserver(true)
	return nil
}

// pushObserver publishes a frame when the push interval has elapsed.
func (g *Game) pushObserver(force bool) {
	if g.observer == nil {
		return
	}
	interval := time.Duration(g.cfg.Observer.PushInterval * float64(time.Second))
	if !force && time.Since(g.lastPush) < interval {
		return
	}
	g.perf.StartPhase(telemetry.PhaseObserver)
	if err := g.observer.Publish(g.frame()); err != nil {
		slog.Error("failed to publish frame", "error", err)
	}
	g.lastPush = time.Now()
}
