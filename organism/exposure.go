package organism

import "github.com/pthm-cable/forage/rng"

// Exposure summarizes one contact round after a move.
type Exposure struct {
	NeighborsInfected int  // neighbors that gained an active infection from the mover
	MoverInfected     bool // mover gained an active infection from a neighbor
}

// Expose runs contact transmission between a mover and its adjacent agents.
// Neighbor diseases are gathered before the mover transmits, so the mover is never
// re-exposed to its own infection. Each neighbor receives one randomly chosen active
// disease of the mover; the mover receives exactly one disease drawn from everything the
// neighbors carried.
func Expose(mover *Agent, neighbors []*Agent, r *rng.Source) Exposure {
	var ex Exposure
	if len(neighbors) == 0 {
		return ex
	}

	var carried []*Disease
	for _, n := range neighbors {
		carried = append(carried, n.Active...)
	}

	for _, n := range neighbors {
		if d := Pick(mover.Active, r); d != nil && n.InfectWith(d) {
			ex.NeighborsInfected++
		}
	}

	if d := Pick(carried, r); d != nil {
		ex.MoverInfected = mover.InfectWith(d)
	}
	return ex
}
