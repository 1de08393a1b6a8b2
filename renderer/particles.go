package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/forage/camera"
)

// FlashKind selects the color of an event flash.
type FlashKind uint8

const (
	FlashDeath FlashKind = iota
	FlashInfection
	FlashCleared
)

// Flash is a short-lived ring marking an event at a cell.
type Flash struct {
	Row, Col int
	Kind     FlashKind
	Life     float32 // seconds remaining
	MaxLife  float32
}

// ParticleRenderer keeps and draws event flashes.
type ParticleRenderer struct {
	flashes []Flash
	maxLive int
}

// NewParticleRenderer creates a renderer holding at most maxLive flashes.
func NewParticleRenderer(maxLive int) *ParticleRenderer {
	return &ParticleRenderer{maxLive: maxLive}
}

// Spawn adds a flash, dropping the oldest when full.
func (r *ParticleRenderer) Spawn(row, col int, kind FlashKind) {
	if r.maxLive > 0 && len(r.flashes) >= r.maxLive {
		r.flashes = r.flashes[1:]
	}
	r.flashes = append(r.flashes, Flash{Row: row, Col: col, Kind: kind, Life: 0.6, MaxLife: 0.6})
}

// Update ages flashes by dt seconds and drops expired ones.
func (r *ParticleRenderer) Update(dt float32) {
	live := r.flashes[:0]
	for _, f := range r.flashes {
		f.Life -= dt
		if f.Life > 0 {
			live = append(live, f)
		}
	}
	r.flashes = live
}

// Len returns the number of live flashes.
func (r *ParticleRenderer) Len() int { return len(r.flashes) }

// Draw renders all flashes as expanding rings.
func (r *ParticleRenderer) Draw(cam *camera.Camera) {
	cell := cam.CellScreenSize()
	for i := range r.flashes {
		f := &r.flashes[i]
		lifeRatio := f.Life / f.MaxLife

		var color rl.Color
		switch f.Kind {
		case FlashDeath:
			// Grey/brown
			color = rl.Color{R: 120, G: 100, B: 80, A: uint8(lifeRatio * 200)}
		case FlashInfection:
			// Magenta
			color = rl.Color{R: 220, G: 60, B: 200, A: uint8(lifeRatio * 220)}
		case FlashCleared:
			// Green
			color = rl.Color{R: 80, G: 230, B: 120, A: uint8(lifeRatio * 200)}
		}

		sx, sy := cam.CellCenter(f.Row, f.Col)
		radius := cell * (0.5 + (1-lifeRatio)*0.8)
		rl.DrawCircleLinesV(rl.Vector2{X: sx, Y: sy}, radius, color)
	}
}
