// Package landscape models the toroidal resource grid agents forage on.
package landscape

import "math"

// Landscape is a square toroidal grid of cells.
// Capacities are fixed at construction; only levels and occupancy change.
type Landscape struct {
	size  int
	cells []*Cell // row-major
}

// Peaks configures the two-peak capacity falloff.
type Peaks struct {
	Height float64 // psi
	Theta  float64 // falloff width in cells
}

// DefaultPeaks returns the peak parameters for a grid of the given size.
func DefaultPeaks(size int) Peaks {
	return Peaks{Height: 4.0, Theta: 0.3 * float64(size)}
}

// New creates a size x size landscape with two capacity peaks. Every cell regrows at
// regrowthRate.
func New(size int, regrowthRate float64, peaks Peaks) *Landscape {
	return NewWithCapacity(size, regrowthRate, func(row, col int) float64 {
		return peaks.capacity(row, col, size)
	})
}

// NewWithCapacity creates a landscape whose cell capacities come from fn.
func NewWithCapacity(size int, regrowthRate float64, fn func(row, col int) float64) *Landscape {
	l := &Landscape{
		size:  size,
		cells: make([]*Cell, size*size),
	}
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			l.cells[i*size+j] = NewCell(i, j, fn(i, j), regrowthRate)
		}
	}
	return l
}

// capacity sums two radial bumps centered at the quarter and three-quarter positions.
func (p Peaks) capacity(i, j, size int) float64 {
	return p.bump(i-size/4, j-size/4) + p.bump(i-(3*size)/4, j-(3*size)/4)
}

func (p Peaks) bump(x, y int) float64 {
	if p.Theta == 0 {
		if x == 0 && y == 0 {
			return p.Height
		}
		return 0
	}
	dx := float64(x) / p.Theta
	dy := float64(y) / p.Theta
	return p.Height * math.Exp(-dx*dx-dy*dy)
}

// Size returns the grid dimension.
func (l *Landscape) Size() int {
	return l.size
}

// Wrap maps any integer coordinate onto [0, size).
func (l *Landscape) Wrap(v int) int {
	v %= l.size
	if v < 0 {
		v += l.size
	}
	return v
}

// CellAt returns the cell at (row, col) with toroidal wraparound on both axes.
func (l *Landscape) CellAt(row, col int) *Cell {
	return l.cells[l.Wrap(row)*l.size+l.Wrap(col)]
}

// Cells returns all cells in row-major order. The slice must not be modified.
func (l *Landscape) Cells() []*Cell {
	return l.cells
}

// Distance returns the toroidal straight-line distance between two cells that share a
// row or column, or -1 if they share neither.
func (l *Landscape) Distance(a, b *Cell) int {
	switch {
	case a.row == b.row:
		return l.axisDistance(a.col, b.col)
	case a.col == b.col:
		return l.axisDistance(a.row, b.row)
	}
	return -1
}

func (l *Landscape) axisDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if l.size-d < d {
		return l.size - d
	}
	return d
}

// LineOfSight returns the cells 1..vision steps away from (row, col) looking north, south,
// east and west, in that order. Cells reached twice through wraparound appear once.
func (l *Landscape) LineOfSight(row, col, vision int) []*Cell {
	out := make([]*Cell, 0, 4*vision)
	seen := make(map[*Cell]struct{}, 4*vision)
	add := func(c *Cell) {
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}

	for step := 1; step <= vision; step++ {
		add(l.CellAt(row-step, col))
	}
	for step := 1; step <= vision; step++ {
		add(l.CellAt(row+step, col))
	}
	for step := 1; step <= vision; step++ {
		add(l.CellAt(row, col+step))
	}
	for step := 1; step <= vision; step++ {
		add(l.CellAt(row, col-step))
	}
	return out
}

// Neighbors returns the four cardinal cells at distance 1 (north, south, east, west).
// On grids smaller than 3 the same cell may appear more than once.
func (l *Landscape) Neighbors(row, col int) [4]*Cell {
	return [4]*Cell{
		l.CellAt(row-1, col),
		l.CellAt(row+1, col),
		l.CellAt(row, col+1),
		l.CellAt(row, col-1),
	}
}

// TotalResource sums the resource level of every cell at time t.
func (l *Landscape) TotalResource(t float64) float64 {
	var sum float64
	for _, c := range l.cells {
		sum += c.ResourceLevel(t)
	}
	return sum
}
