package game

import (
	"cmp"
	"fmt"
	"slices"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/forage/sim"
	"github.com/pthm-cable/forage/telemetry"
	"github.com/pthm-cable/forage/ui"
)

const controlsLegend = "SPACE: Pause | N: Step | < >: Speed | Click: Select | Esc: Deselect | S: Snapshot | O: Controls | I C F V P: Overlays"

// Update advances the simulation by one viewer frame. Paused, it dispatches
// nothing unless a single step was requested; running, it targets speed
// simulated units per wall second and dispatches at most one event per
// pace_ms of frame time.
func (g *Game) Update() {
	dt := rl.GetFrameTime()
	g.perf.StartBatch()
	g.batchEvents = 0

	g.handleInput()

	if !g.Finished() {
		switch {
		case g.control.Step:
			if next, ok := g.engine.NextTime(); ok {
				g.advanceTo(next, 1)
			}
		case !g.control.Paused:
			target := g.engine.Time() + float64(g.control.Speed*dt)
			if bound := g.cfg.Run.MaxTime; bound > 0 && target > bound {
				target = bound
			}
			g.advanceTo(target, g.eventBudget(dt))
		}
	}

	g.particles.Update(dt)
	g.pushObserver(false)
}

// eventBudget converts frame time into a dispatch cap; pace_ms <= 0 means no cap.
func (g *Game) eventBudget(dt float32) int {
	pace := g.cfg.Screen.PaceMs
	if pace <= 0 {
		return 0
	}
	return max(1, int(dt*1000)/pace)
}

// Draw renders the world and UI, closing the perf batch Update opened.
func (g *Game) Draw() {
	g.perf.StartPhase(telemetry.PhaseRender)
	g.perf.RecordFrame()

	snap := g.engine.Snapshot()
	if g.peak == 0 {
		g.peak = slices.Max(snap.Capacities)
	}

	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 12, G: 14, B: 18, A: 255})

	g.landRenderer.Update(snap.Levels, snap.Capacities, g.peak, g.overlays.IsEnabled(ui.OverlayCapacity))
	g.landRenderer.Draw(g.camera)

	sel, found := g.selectedView(snap.Agents)
	if !found {
		g.selected = 0
	}
	if found && g.overlays.IsEnabled(ui.OverlayVision) {
		g.agentRenderer.DrawVision(g.camera, sel, snap.Size)
	}
	g.agentRenderer.Draw(g.camera, snap.Agents, g.selected, g.overlays.IsEnabled(ui.OverlayInfection))
	if g.overlays.IsEnabled(ui.OverlayFlashes) {
		g.particles.Draw(g.camera)
	}

	g.drawUI(snap, sel, found)

	rl.EndDrawing()
	g.perf.EndBatch(g.batchEvents)
}

// selectedView finds the selected agent in an ID-ordered view slice.
func (g *Game) selectedView(agents []sim.AgentView) (sim.AgentView, bool) {
	if g.selected == 0 {
		return sim.AgentView{}, false
	}
	i, ok := slices.BinarySearchFunc(agents, g.selected, func(a sim.AgentView, id uint64) int {
		return cmp.Compare(a.ID, id)
	})
	if !ok {
		return sim.AgentView{}, false
	}
	return agents[i], true
}

// drawUI draws the HUD, controls, inspector and perf panel.
func (g *Game) drawUI(snap sim.Snapshot, sel sim.AgentView, found bool) {
	tally := g.engine.Tally()
	observers := 0
	if g.observer != nil {
		observers = g.observer.Clients()
	}
	g.hud.Draw(ui.HUDData{
		Title:      fmt.Sprintf("Forage (seed %d)", g.cfg.Run.Seed),
		Time:       snap.Time,
		MaxTime:    g.cfg.Run.MaxTime,
		Dispatched: g.engine.Dispatched(),
		Infected:   tally.Infected,
		Uninfected: tally.Uninfected,
		Pending:    g.engine.Pending(),
		Speed:      g.control.Speed,
		FPS:        rl.GetFPS(),
		Paused:     g.control.Paused,
		Finished:   g.Finished(),
		Observers:  observers,
	})
	g.hud.DrawControls(int32(g.screenHeight), controlsLegend)

	g.controls.Draw(&g.control, g.overlays)

	if found {
		g.inspector.Draw(&ui.InspectorData{
			Agent:     sel,
			Now:       snap.Time,
			CellLevel: snap.Levels[sel.Row*snap.Size+sel.Col],
			PeakLevel: g.peak,
			Lifetime:  g.lifetimes.Get(sel.ID),
		})
	}

	if g.overlays.IsEnabled(ui.OverlayPerf) {
		g.perfPanel.Draw(g.perf.Stats())
	}
}
