package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Speed slider bounds in simulated time units per wall second.
const (
	MinSpeed float32 = 0.1
	MaxSpeed float32 = 50
)

// ControlState is what the controls panel reads and edits.
type ControlState struct {
	Paused bool
	Speed  float32
	Step   bool // set for one frame when the user requests a single event
}

// ControlsPanel renders the left-side panel with run controls and overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	height   int32 // as of the last Draw
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
	}
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Contains reports whether a screen point falls on the panel, so clicks
// there are not treated as cell selections.
func (c *ControlsPanel) Contains(x, y float32) bool {
	if !c.visible {
		return false
	}
	return x >= float32(c.x) && x <= float32(c.x+c.width) &&
		y >= float32(c.y) && y <= float32(c.y+c.height)
}

// Draw renders the panel, applying any edits to state and overlays.
func (c *ControlsPanel) Draw(state *ControlState, overlays *OverlayRegistry) {
	state.Step = false
	if !c.visible {
		return
	}

	r := c.renderer
	padding := r.Theme.Padding
	descs := overlays.All()
	c.height = padding*2 + 20 + 26 + 18 + 30 + r.Theme.LineHeight + int32(len(descs))*22
	r.DrawPanel(c.x, c.y, c.width, c.height)

	x := float32(c.x + padding)
	y := float32(c.y + padding)
	inner := float32(c.width - padding*2)

	rl.DrawText("Controls", int32(x), int32(y), 16, rl.White)
	y += 20

	// Run controls
	label := "Pause"
	if state.Paused {
		label = "Resume"
	}
	half := (inner - 6) / 2
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 22}, label) {
		state.Paused = !state.Paused
	}
	if gui.Button(rl.Rectangle{X: x + half + 6, Y: y, Width: half, Height: 22}, "Step") {
		state.Paused = true
		state.Step = true
	}
	y += 26

	rl.DrawText(fmt.Sprintf("Speed %.1fx", state.Speed), int32(x), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
	y += 18
	state.Speed = gui.SliderBar(
		rl.Rectangle{X: x + 24, Y: y, Width: inner - 56, Height: 16},
		fmt.Sprintf("%.1f", MinSpeed), fmt.Sprintf("%.0f", MaxSpeed),
		state.Speed, MinSpeed, MaxSpeed,
	)
	y += 30

	rl.DrawText("Overlays", int32(x), int32(y), r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	y += float32(r.Theme.LineHeight)

	for _, desc := range descs {
		text := desc.Name
		if desc.KeyLabel != "" {
			text = fmt.Sprintf("%s [%s]", desc.Name, desc.KeyLabel)
		}
		enabled := overlays.IsEnabled(desc.ID)
		if checked := gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: 14, Height: 14}, text, enabled); checked != enabled {
			overlays.SetEnabled(desc.ID, checked)
		}
		y += 22
	}
}
