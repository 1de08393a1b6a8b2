// Package camera maps the toroidal cell grid onto the screen.
package camera

import "math"

// Camera controls the viewport into the grid.
// World coordinates are pixels at zoom 1, so cell (r, c) spans
// [c*CellPx, (c+1)*CellPx) horizontally and [r*CellPx, (r+1)*CellPx) vertically.
type Camera struct {
	// Position is the camera center in world coordinates
	X, Y float32

	// Zoom level (1.0 = one CellPx per cell)
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Grid geometry
	GridSize int
	CellPx   float32

	MinZoom, MaxZoom float32
}

// New creates a camera centered on a size x size grid, zoomed so the grid fits the viewport.
func New(viewportW, viewportH float32, size int, cellPx float32) *Camera {
	c := &Camera{
		ViewportW: viewportW,
		ViewportH: viewportH,
		GridSize:  size,
		CellPx:    cellPx,
		MaxZoom:   8.0,
	}
	c.MinZoom = c.fitZoom() / 4
	c.Reset()
	return c
}

// WorldSize returns the grid extent in world coordinates.
func (c *Camera) WorldSize() float32 {
	return float32(c.GridSize) * c.CellPx
}

// fitZoom is the zoom at which the whole grid fits the viewport.
func (c *Camera) fitZoom() float32 {
	w := c.WorldSize()
	return min(c.ViewportW/w, c.ViewportH/w)
}

// WorldToScreen converts world coordinates to screen coordinates,
// taking the shortest way around the torus.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	size := c.WorldSize()
	dx := toroidalDelta(wx, c.X, size)
	dy := toroidalDelta(wy, c.Y, size)
	return c.ViewportW/2 + dx*c.Zoom, c.ViewportH/2 + dy*c.Zoom
}

// ScreenToWorld converts screen coordinates to wrapped world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	size := c.WorldSize()
	dx := (sx - c.ViewportW/2) / c.Zoom
	dy := (sy - c.ViewportH/2) / c.Zoom
	return mod(c.X+dx, size), mod(c.Y+dy, size)
}

// CellAt returns the grid cell under a screen position.
func (c *Camera) CellAt(sx, sy float32) (row, col int) {
	wx, wy := c.ScreenToWorld(sx, sy)
	row = int(wy / c.CellPx)
	col = int(wx / c.CellPx)
	// Guard the upper edge against float rounding
	return min(row, c.GridSize-1), min(col, c.GridSize-1)
}

// CellCenter returns the screen position of a cell's center.
func (c *Camera) CellCenter(row, col int) (sx, sy float32) {
	return c.WorldToScreen((float32(col)+0.5)*c.CellPx, (float32(row)+0.5)*c.CellPx)
}

// CellScreenSize returns the on-screen width of one cell.
func (c *Camera) CellScreenSize() float32 {
	return c.CellPx * c.Zoom
}

// IsVisible reports whether a circle at (wx, wy) could be on screen.
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	size := c.WorldSize()
	dx := toroidalDelta(wx, c.X, size)
	dy := toroidalDelta(wy, c.Y, size)
	halfW := c.ViewportW/(2*c.Zoom) + radius
	halfH := c.ViewportH/(2*c.Zoom) + radius
	return absf(dx) <= halfW && absf(dy) <= halfH
}

// TileOrigins returns the screen positions of the grid's top-left corner for
// every copy of the torus that overlaps the viewport. Drawing the grid at each
// origin tiles the view seamlessly when zoomed out or panned across an edge.
func (c *Camera) TileOrigins() [][2]float32 {
	size := c.WorldSize() * c.Zoom
	// Top-left of the copy containing the camera center
	ox := c.ViewportW/2 - c.X*c.Zoom
	oy := c.ViewportH/2 - c.Y*c.Zoom

	// Step back until the copy starts at or before the viewport edge
	for ox > 0 {
		ox -= size
	}
	for oy > 0 {
		oy -= size
	}

	var out [][2]float32
	for y := oy; y < c.ViewportH; y += size {
		for x := ox; x < c.ViewportW; x += size {
			out = append(out, [2]float32{x, y})
		}
	}
	return out
}

// Resize updates viewport dimensions and recalculates the zoom floor.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.MinZoom = c.fitZoom() / 4
	if c.Zoom < c.MinZoom {
		c.Zoom = c.MinZoom
	}
}

// Pan moves the camera by the given delta in screen pixels, wrapping at the grid edge.
func (c *Camera) Pan(dx, dy float32) {
	size := c.WorldSize()
	c.X = mod(c.X+dx/c.Zoom, size)
	c.Y = mod(c.Y+dy/c.Zoom, size)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset centers the grid and fits it to the viewport.
func (c *Camera) Reset() {
	size := c.WorldSize()
	c.X = size / 2
	c.Y = size / 2
	c.SetZoom(c.fitZoom())
}

// toroidalDelta computes the shortest signed distance from 'from' to 'to'
// in a toroidal space of the given size.
func toroidalDelta(to, from, size float32) float32 {
	d := to - from
	if d > size/2 {
		d -= size
	} else if d < -size/2 {
		d += size
	}
	return d
}

// mod computes the positive modulo (Go's % can return negative).
func mod(x, m float32) float32 {
	r := float32(math.Mod(float64(x), float64(m)))
	if r < 0 {
		r += m
	}
	return r
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
