package game

import (
	"log/slog"

	"github.com/pthm-cable/forage/observer"
	"github.com/pthm-cable/forage/telemetry"
)

// flushTelemetry closes the current stats window and handles bookmarks.
func (g *Game) flushTelemetry() {
	stats := g.collector.Flush(g.engine)
	perfStats := g.perf.Stats()

	for _, a := range g.engine.Agents() {
		g.lifetimes.UpdateWealth(a.ID, a.Wealth)
	}

	g.totals.Births += stats.Births
	g.totals.DeathsStarvation += stats.DeathsStarvation
	g.totals.DeathsAge += stats.DeathsAge
	g.totals.NewInfections += stats.NewInfections
	g.totals.Cleared += stats.InfectionsCleared
	g.lastStats = &stats

	if g.statsCb != nil {
		g.statsCb(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.output.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := g.output.WritePerf(perfStats, stats.WindowEnd); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, bm := range g.bookmarks.Check(stats) {
		g.totals.Bookmarks++
		if g.logStats {
			bm.LogBookmark()
		}
		if err := g.output.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		if g.snapshotDir != "" {
			g.saveSnapshot(&bm)
		}
	}
}

// saveSnapshot creates and saves a snapshot to disk.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	path, err := telemetry.SaveSnapshot(g.createSnapshot(bookmark), g.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "time", g.engine.Time())
}

// createSnapshot builds a snapshot from the current state.
func (g *Game) createSnapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	return &telemetry.Snapshot{
		Version:  telemetry.SnapshotVersion,
		RNGSeed:  g.cfg.Run.Seed,
		Snapshot: g.engine.Snapshot(),
		Tally:    g.engine.Tally(),
		Bookmark: bookmark,
	}
}

// SaveSnapshot writes the current state to the snapshot directory without a
// bookmark and returns the file path.
func (g *Game) SaveSnapshot() (string, error) {
	dir := g.snapshotDir
	if dir == "" {
		dir = "snapshots"
	}
	return telemetry.SaveSnapshot(g.createSnapshot(nil), dir)
}

// frame builds the observer frame for the current state.
func (g *Game) frame() observer.Frame {
	return observer.NewFrame(g.engine, g.cfg.Run.Seed)
}
