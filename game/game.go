// Package game drives a simulation run: it owns the engine plus every
// collaborator that observes it (telemetry, trace, observer stream) and,
// outside headless mode, the raylib viewer.
package game

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/pthm-cable/forage/camera"
	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/observer"
	"github.com/pthm-cable/forage/renderer"
	"github.com/pthm-cable/forage/sim"
	"github.com/pthm-cable/forage/telemetry"
	"github.com/pthm-cable/forage/ui"
)

// CellPx is the on-screen size of one cell at zoom 1.
const CellPx = 16

// Options configures a run beyond what config.Config covers.
type Options struct {
	Seed        int64   // 0 = keep cfg.Run.Seed
	LogStats    bool    // log every window via slog
	StatsWindow float64 // 0 = cfg.Telemetry.StatsWindow
	SnapshotDir string  // bookmark snapshots; empty = <output>/snapshots when output is on
	OutputDir   string  // CSV logs, config and trace; empty = no files
	Trace       bool    // write every dispatch to <output>/events.jsonl.zst
	Headless    bool
	Observer    *observer.Server // nil = no live stream

	// StatsCallback receives every flushed window.
	StatsCallback func(telemetry.WindowStats)
}

// Totals accumulates window counters over the whole run.
type Totals struct {
	Births           int
	DeathsStarvation int
	DeathsAge        int
	NewInfections    int
	Cleared          int
	Bookmarks        int
}

// Game holds the complete run state.
type Game struct {
	cfg    *config.Config
	engine *sim.Engine

	// Telemetry
	collector   *telemetry.Collector
	lifetimes   *telemetry.LifetimeTracker
	bookmarks   *telemetry.BookmarkDetector
	perf        *telemetry.PerfCollector
	output      *telemetry.OutputManager
	trace       *telemetry.TraceWriter
	observer    *observer.Server
	logStats    bool
	snapshotDir string
	statsCb     func(telemetry.WindowStats)
	totals      Totals
	lastStats   *telemetry.WindowStats

	// Dispatches since the last drain
	pending     []sim.Dispatch
	batchEvents int
	lastPush    time.Time

	headless bool
	started  time.Time

	// Viewer state (nil when headless)
	camera        *camera.Camera
	landRenderer  *renderer.LandscapeRenderer
	agentRenderer *renderer.AgentRenderer
	particles     *renderer.ParticleRenderer
	hud           *ui.HUD
	controls      *ui.ControlsPanel
	inspector     *ui.Inspector
	perfPanel     *ui.PerfPanel
	overlays      *ui.OverlayRegistry
	control       ui.ControlState
	selected      uint64
	peak          float64 // highest cell capacity, for color scaling
	screenWidth   float32
	screenHeight  float32
}

// New builds the engine and its collaborators. Graphics resources are created
// lazily on the first Draw, so New is safe before the raylib window exists.
func New(cfg *config.Config, opts Options) (*Game, error) {
	if opts.Seed != 0 {
		cfg.Run.Seed = opts.Seed
	}
	window := opts.StatsWindow
	if window <= 0 {
		window = cfg.Telemetry.StatsWindow
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}

	g := &Game{
		cfg:         cfg,
		collector:   telemetry.NewCollector(window),
		lifetimes:   telemetry.NewLifetimeTracker(),
		bookmarks:   telemetry.NewBookmarkDetector(20),
		perf:        telemetry.NewPerfCollector(60),
		output:      output,
		observer:    opts.Observer,
		logStats:    opts.LogStats,
		snapshotDir: opts.SnapshotDir,
		statsCb:     opts.StatsCallback,
		headless:    opts.Headless,
		started:     time.Now(),
	}
	if g.snapshotDir == "" && output != nil {
		g.snapshotDir = filepath.Join(output.Dir(), "snapshots")
	}

	if opts.Trace {
		if output == nil {
			g.Close()
			return nil, fmt.Errorf("trace requires an output directory")
		}
		if g.trace, err = telemetry.NewTraceWriter(output.TracePath()); err != nil {
			g.Close()
			return nil, err
		}
	}

	g.engine, err = sim.New(cfg, sim.WithEventHook(g.onDispatch))
	if err != nil {
		g.Close()
		return nil, err
	}
	if err := output.WriteConfig(cfg); err != nil {
		g.Close()
		return nil, err
	}

	for _, a := range g.engine.Agents() {
		g.lifetimes.Register(a.ID, a.BirthTime)
	}

	if !g.headless {
		g.initViewer()
	}
	g.logRunStart()
	return g, nil
}

func (g *Game) initViewer() {
	g.screenWidth = float32(g.cfg.Screen.Width)
	g.screenHeight = float32(g.cfg.Screen.Height)
	g.camera = camera.New(g.screenWidth, g.screenHeight, g.cfg.World.Size, CellPx)
	g.landRenderer = renderer.NewLandscapeRenderer(g.cfg.World.Size)
	g.agentRenderer = renderer.NewAgentRenderer(g.cfg.Agent.WealthMax * 2)
	g.particles = renderer.NewParticleRenderer(512)
	g.hud = ui.NewHUD()
	g.controls = ui.NewControlsPanel(10, 100, 200)
	g.inspector = ui.NewInspector(int32(g.screenWidth)-230, 10, 220)
	g.perfPanel = ui.NewPerfPanel(int32(g.screenWidth)-270, int32(g.screenHeight)-140)
	g.overlays = ui.NewOverlayRegistry()
	g.control = ui.ControlState{Speed: 1}
}

// Engine returns the underlying engine.
func (g *Game) Engine() *sim.Engine { return g.engine }

// Time returns the simulation clock.
func (g *Game) Time() float64 { return g.engine.Time() }

// Totals returns the counters accumulated over flushed windows.
func (g *Game) Totals() Totals { return g.totals }

// LastStats returns the most recently flushed window, or nil before the first.
func (g *Game) LastStats() *telemetry.WindowStats { return g.lastStats }

// Finished reports whether the run reached its time bound or ran out of events.
func (g *Game) Finished() bool {
	if g.engine.Pending() == 0 {
		return true
	}
	bound := g.cfg.Run.MaxTime
	return bound > 0 && g.engine.Time() >= bound
}

// Summary describes the run's end state for batch reports.
func (g *Game) Summary(rep int) telemetry.RunSummary {
	tally := g.engine.Tally()
	s := telemetry.RunSummary{
		Rep:              rep,
		Seed:             g.cfg.Run.Seed,
		EndTime:          g.engine.Time(),
		Events:           g.engine.Dispatched(),
		Infected:         tally.Infected,
		Uninfected:       tally.Uninfected,
		DeathsStarvation: g.totals.DeathsStarvation,
		DeathsAge:        g.totals.DeathsAge,
		MeanPoolDistance: g.engine.MeanPoolDistance(),
		WallSeconds:      time.Since(g.started).Seconds(),
	}
	if total := tally.Total(); total > 0 {
		s.InfectedFraction = float64(tally.Infected) / float64(total)
	}
	var wealth float64
	agents := g.engine.Agents()
	for i := range agents {
		wealth += agents[i].Wealth
	}
	if len(agents) > 0 {
		s.WealthMean = wealth / float64(len(agents))
	}
	return s
}

// Close flushes the last partial window and releases files and GPU resources.
func (g *Game) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if g.engine != nil {
		g.drain()
		if g.engine.Time() > g.collector.WindowEnd()-g.collector.Window() {
			g.flushTelemetry()
		}
		g.logRunComplete()
	}
	keep(g.trace.Close())
	keep(g.output.Close())

	if g.landRenderer != nil {
		g.landRenderer.Unload()
	}
	return firstErr
}
