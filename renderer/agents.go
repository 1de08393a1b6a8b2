// Package renderer provides rendering utilities.
package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/forage/camera"
	"github.com/pthm-cable/forage/sim"
)

// Agent colors
var (
	ColorHealthy  = rl.Color{R: 90, G: 200, B: 255, A: 255}
	ColorInfected = rl.Color{R: 230, G: 60, B: 90, A: 255}
	ColorSelected = rl.Yellow
)

// AgentRenderer draws agents as discs sized by wealth.
type AgentRenderer struct {
	// WealthScale is the wealth at which a disc fills its cell.
	WealthScale float64
}

// NewAgentRenderer creates an agent renderer.
func NewAgentRenderer(wealthScale float64) *AgentRenderer {
	if wealthScale <= 0 {
		wealthScale = 1
	}
	return &AgentRenderer{WealthScale: wealthScale}
}

// Draw renders every visible agent. A non-zero selected ID is outlined along
// with its line-of-sight cross.
func (r *AgentRenderer) Draw(cam *camera.Camera, agents []sim.AgentView, selected uint64, colorInfection bool) {
	cell := cam.CellScreenSize()
	for i := range agents {
		a := &agents[i]
		sx, sy := cam.CellCenter(a.Row, a.Col)
		if !onScreen(cam, sx, sy, cell) {
			continue
		}

		color := ColorHealthy
		if colorInfection && a.Infected {
			color = ColorInfected
		}

		// sqrt keeps area proportional to wealth
		frac := math.Sqrt(max(a.Wealth, 0) / r.WealthScale)
		radius := cell * 0.5 * float32(0.35+0.65*min(frac, 1))
		if radius < 1 {
			radius = 1
		}
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, radius, color)

		if a.ID == selected {
			rl.DrawCircleLinesV(rl.Vector2{X: sx, Y: sy}, cell*0.6, ColorSelected)
		}
	}
}

// DrawVision outlines the cells an agent can see: its row and column out to vision.
func (r *AgentRenderer) DrawVision(cam *camera.Camera, a sim.AgentView, size int) {
	cell := cam.CellScreenSize()
	tint := rl.Color{R: 255, G: 255, B: 255, A: 60}
	for d := 1; d <= a.Vision; d++ {
		for _, off := range [4][2]int{{-d, 0}, {d, 0}, {0, -d}, {0, d}} {
			row := wrap(a.Row+off[0], size)
			col := wrap(a.Col+off[1], size)
			sx, sy := cam.CellCenter(row, col)
			rl.DrawRectangleLinesEx(rl.Rectangle{
				X: sx - cell/2, Y: sy - cell/2, Width: cell, Height: cell,
			}, 1, tint)
		}
	}
}

func onScreen(cam *camera.Camera, sx, sy, margin float32) bool {
	return sx >= -margin && sy >= -margin && sx <= cam.ViewportW+margin && sy <= cam.ViewportH+margin
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
