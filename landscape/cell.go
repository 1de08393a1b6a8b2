package landscape

// Cell is one grid tile holding a renewable resource.
// The level is never stored: it is derived from the last depletion time.
type Cell struct {
	row, col     int
	capacity     float64
	regrowthRate float64

	depleted     bool
	lastDepleted float64
	occupant     uint64 // 0 = empty
}

// NewCell creates a full, unoccupied cell.
func NewCell(row, col int, capacity, regrowthRate float64) *Cell {
	return &Cell{row: row, col: col, capacity: capacity, regrowthRate: regrowthRate}
}

func (c *Cell) Row() int              { return c.row }
func (c *Cell) Col() int              { return c.col }
func (c *Cell) Capacity() float64     { return c.capacity }
func (c *Cell) RegrowthRate() float64 { return c.regrowthRate }
func (c *Cell) Occupied() bool        { return c.occupant != 0 }
func (c *Cell) Occupant() uint64      { return c.occupant }
func (c *Cell) LastDepleted() float64 { return c.lastDepleted }

// ResourceLevel returns the resource available at time t.
// Regrowth is linear from the last depletion and saturates at capacity.
func (c *Cell) ResourceLevel(t float64) float64 {
	if !c.depleted {
		return c.capacity
	}
	level := (t - c.lastDepleted) * c.regrowthRate
	if level > c.capacity {
		return c.capacity
	}
	if level < 0 {
		return 0
	}
	return level
}

// RemoveResources harvests everything available at t and resets regrowth from t.
func (c *Cell) RemoveResources(t float64) float64 {
	eaten := c.ResourceLevel(t)
	c.depleted = true
	c.lastDepleted = t
	return eaten
}

// Occupy marks the cell as held by the agent with the given ID.
func (c *Cell) Occupy(agentID uint64) {
	c.occupant = agentID
}

// Vacate clears the occupant.
func (c *Cell) Vacate() {
	c.occupant = 0
}
