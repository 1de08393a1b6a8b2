package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/forage/ui"
)

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.control.Paused = !g.control.Paused
	}
	if rl.IsKeyPressed(rl.KeyN) {
		g.control.Paused = true
		g.control.Step = true
	}

	// Speed with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) {
		g.control.Speed = max(g.control.Speed/2, ui.MinSpeed)
	}
	if rl.IsKeyPressed(rl.KeyPeriod) {
		g.control.Speed = min(g.control.Speed*2, ui.MaxSpeed)
	}

	if rl.IsKeyPressed(rl.KeyO) {
		g.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyS) {
		if path, err := g.SaveSnapshot(); err != nil {
			slog.Error("failed to save snapshot", "error", err)
		} else {
			slog.Info("snapshot saved", "path", path, "time", g.engine.Time())
		}
	}
	g.overlays.HandleKeyPresses()

	g.handleCameraInput()
	g.handleSelection()
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	g.camera.Resize(w, h)
	g.inspector.SetPosition(int32(w)-230, 10)
	g.perfPanel.SetPosition(int32(w)-270, int32(h)-140)
}

// handleCameraInput processes camera pan/zoom controls.
func (g *Game) handleCameraInput() {
	// Pan speed scales inversely with zoom for natural feel
	panSpeed := float32(8.0) / g.camera.Zoom

	if rl.IsKeyDown(rl.KeyRight) || rl.IsKeyDown(rl.KeyD) {
		g.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) || rl.IsKeyDown(rl.KeyA) {
		g.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) || rl.IsKeyDown(rl.KeyW) {
		g.camera.Pan(0, -panSpeed)
	}

	// Right-drag pans
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		delta := rl.GetMouseDelta()
		g.camera.Pan(-delta.X/g.camera.Zoom, -delta.Y/g.camera.Zoom)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.camera.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}

// handleSelection picks the agent under a left click. Clicking an empty cell
// or pressing Escape clears the selection.
func (g *Game) handleSelection() {
	if rl.IsKeyPressed(rl.KeyEscape) {
		g.selected = 0
	}
	if !rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		return
	}
	mouse := rl.GetMousePosition()
	if g.controls.Contains(mouse.X, mouse.Y) {
		return
	}
	row, col := g.camera.CellAt(mouse.X, mouse.Y)
	g.selected = g.engine.Landscape().CellAt(row, col).Occupant()
}
