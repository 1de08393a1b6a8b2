package organism

import "github.com/pthm-cable/forage/rng"

// ImmuneTo reports whether some window of the immune system matches d's genome exactly.
func (a *Agent) ImmuneTo(d *Disease) bool {
	dist, _ := MinDistanceAlign(a.ImmuneSystem, d.Genome)
	return dist == 0
}

// InfectWith exposes the agent to d. Nothing happens for a nil disease, one that is
// already active, or one the immune system already matches. Reinfection drops d from the
// cleared memory. Reports whether d became active.
func (a *Agent) InfectWith(d *Disease) bool {
	if d == nil || indexOf(a.Active, d) >= 0 || a.ImmuneTo(d) {
		return false
	}
	a.Active = append(a.Active, d)
	if i := indexOf(a.Cleared, d); i >= 0 {
		a.Cleared = remove(a.Cleared, i)
	}
	a.recomputeMetabolism()
	return true
}

// sweep clears every active infection the immune system matches at distance 0.
func (a *Agent) sweep() int {
	cleared := 0
	kept := a.Active[:0]
	for _, d := range a.Active {
		if a.ImmuneTo(d) {
			a.Cleared = append(a.Cleared, d)
			cleared++
			continue
		}
		kept = append(kept, d)
	}
	for i := len(kept); i < len(a.Active); i++ {
		a.Active[i] = nil
	}
	a.Active = kept
	if cleared > 0 {
		a.recomputeMetabolism()
	}
	return cleared
}

// ImmuneResponse clears matched infections. With adapt set and infections remaining, the
// immune system first moves one character closer to the oldest active infection and then
// clears again, since the new string may match several genomes. Returns the number cleared.
func (a *Agent) ImmuneResponse(adapt bool) int {
	cleared := a.sweep()
	if !adapt || len(a.Active) == 0 {
		return cleared
	}
	a.ImmuneSystem = MoveCloserByOne(a.ImmuneSystem, a.Active[0].Genome)
	return cleared + a.sweep()
}

// Mutate flips one uniformly chosen bit of the immune system, then clears any infections
// the new string matches. Returns the flipped locus and the number cleared.
func (a *Agent) Mutate(r *rng.Source) (locus, cleared int) {
	if len(a.ImmuneSystem) == 0 {
		return -1, 0
	}
	locus = r.Intn(len(a.ImmuneSystem))
	b := []byte(a.ImmuneSystem)
	if b[locus] == '0' {
		b[locus] = '1'
	} else {
		b[locus] = '0'
	}
	a.ImmuneSystem = string(b)
	return locus, a.sweep()
}

// DistanceTo returns the immune system's best-alignment distance to d's genome.
func (a *Agent) DistanceTo(d *Disease) int {
	dist, _ := MinDistanceAlign(a.ImmuneSystem, d.Genome)
	return dist
}
