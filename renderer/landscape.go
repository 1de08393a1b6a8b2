package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/forage/camera"
)

// LandscapeRenderer draws the resource grid as one texel per cell.
// Levels are shaded against the tallest capacity so depleted patches
// show as dark holes in the sugar hills.
type LandscapeRenderer struct {
	tex    rl.Texture2D
	size   int
	pixels []color.RGBA

	initialized bool
}

// NewLandscapeRenderer creates a renderer for a size x size grid.
func NewLandscapeRenderer(size int) *LandscapeRenderer {
	return &LandscapeRenderer{size: size, pixels: make([]color.RGBA, size*size)}
}

// Init creates the GPU texture (must be called after the raylib window exists).
func (r *LandscapeRenderer) Init() {
	if r.initialized {
		return
	}
	img := rl.GenImageColor(r.size, r.size, rl.Black)
	r.tex = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(r.tex, rl.FilterPoint)
	rl.UnloadImage(img)
	r.initialized = true
}

// Update uploads row-major levels, shading by capacity when showCapacity is set.
func (r *LandscapeRenderer) Update(levels, capacities []float64, peak float64, showCapacity bool) {
	if !r.initialized {
		r.Init()
	}
	if len(levels) != len(r.pixels) || len(capacities) != len(r.pixels) {
		return
	}
	for i := range r.pixels {
		v := levels[i]
		if showCapacity {
			v = capacities[i]
		}
		r.pixels[i] = LevelColor(v, capacities[i], peak)
	}
	rl.UpdateTexture(r.tex, r.pixels)
}

// Draw renders every copy of the grid overlapping the viewport.
func (r *LandscapeRenderer) Draw(cam *camera.Camera) {
	if !r.initialized {
		return
	}
	src := rl.Rectangle{Width: float32(r.size), Height: float32(r.size)}
	side := cam.WorldSize() * cam.Zoom
	for _, o := range cam.TileOrigins() {
		dst := rl.Rectangle{X: o[0], Y: o[1], Width: side, Height: side}
		rl.DrawTexturePro(r.tex, src, dst, rl.Vector2{}, 0, rl.White)
	}
}

// Unload frees GPU resources.
func (r *LandscapeRenderer) Unload() {
	if !r.initialized {
		return
	}
	rl.UnloadTexture(r.tex)
	r.initialized = false
}

// LevelColor maps a resource level to an amber ramp. Cells with no capacity
// are drawn as bare ground.
func LevelColor(level, capacity, peak float64) color.RGBA {
	if capacity <= 0 || peak <= 0 {
		return color.RGBA{R: 24, G: 20, B: 16, A: 255}
	}
	v := level / peak
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return color.RGBA{
		R: uint8(30 + v*210),
		G: uint8(24 + v*150),
		B: uint8(16 + v*30),
		A: 255,
	}
}
