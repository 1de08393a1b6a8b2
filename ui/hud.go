package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/forage/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title      string
	Time       float64
	MaxTime    float64
	Dispatched uint64
	Infected   int
	Uninfected int
	Pending    int
	Speed      float32 // simulated time units per wall second
	FPS        int32
	Paused     bool
	Finished   bool
	Observers  int
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	total := data.Infected + data.Uninfected
	frac := 0.0
	if total > 0 {
		frac = float64(data.Infected) / float64(total)
	}
	rl.DrawText(
		fmt.Sprintf("Agents: %d | Infected: %d (%.0f%%) | Healthy: %d", total, data.Infected, frac*100, data.Uninfected),
		10, 35, 16, rl.LightGray,
	)

	clock := fmt.Sprintf("t = %.2f", data.Time)
	if data.MaxTime > 0 {
		clock += fmt.Sprintf(" / %.0f", data.MaxTime)
	}
	rl.DrawText(
		fmt.Sprintf("%s | Events: %d | Pending: %d | Speed: %.1fx | FPS: %d", clock, data.Dispatched, data.Pending, data.Speed, data.FPS),
		10, 55, 16, rl.LightGray,
	)

	status := "Running"
	switch {
	case data.Finished:
		status = "FINISHED"
	case data.Paused:
		status = "PAUSED"
	}
	if data.Observers > 0 {
		status += fmt.Sprintf("  (%d observers)", data.Observers)
	}
	rl.DrawText(status, 10, 75, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the per-phase frame timing panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a perf panel anchored at (x, y).
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders phase timings from the perf collector.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	r := p.renderer
	padding := r.Theme.Padding
	phases := telemetry.AllPhases()

	height := int32(len(phases)+3)*14 + padding*2
	r.DrawPanel(p.x, p.y, 260, height)

	x, y := p.x+padding, p.y+padding
	rl.DrawText("Performance", x, y, 14, rl.White)
	y += 18
	rl.DrawText(fmt.Sprintf("%.0f events/s | frame %s", stats.EventsPerSecond, stats.FrameDuration.Round(time.Microsecond)), x, y, 12, rl.LightGray)
	y += 14

	for _, phase := range phases {
		avg := stats.PhaseAvg[phase]
		pct := stats.PhasePct[phase]
		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}
		rl.DrawText(fmt.Sprintf("%-10s %8s %5.1f%%", phase, avg.Round(time.Microsecond), pct), x, y, 12, color)
		y += 14
	}
}
