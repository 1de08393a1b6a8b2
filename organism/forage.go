package organism

import (
	"github.com/pthm-cable/forage/landscape"
	"github.com/pthm-cable/forage/rng"
)

// Move looks along the four cardinal lines up to Vision cells, picks the unoccupied cell
// with the most resource at t (nearest first, then uniformly at random) and moves there.
// The agent stays put when every visible cell is occupied. Reports whether it moved.
func (a *Agent) Move(land *landscape.Landscape, t float64, r *rng.Source) bool {
	var best []*landscape.Cell
	bestLevel := -1.0
	for _, c := range land.LineOfSight(a.Row, a.Col, a.Vision) {
		if c.Occupied() {
			continue
		}
		level := c.ResourceLevel(t)
		switch {
		case level > bestLevel:
			bestLevel = level
			best = append(best[:0], c)
		case level == bestLevel:
			best = append(best, c)
		}
	}
	if len(best) == 0 {
		return false
	}

	here := land.CellAt(a.Row, a.Col)
	nearest := best[:0:0]
	minDist := -1
	for _, c := range best {
		d := land.Distance(here, c)
		switch {
		case minDist < 0 || d < minDist:
			minDist = d
			nearest = append(nearest[:0], c)
		case d == minDist:
			nearest = append(nearest, c)
		}
	}

	target := nearest[0]
	if len(nearest) > 1 {
		target = nearest[r.Intn(len(nearest))]
	}

	here.Vacate()
	a.Place(target)
	return true
}
