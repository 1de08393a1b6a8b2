package organism

import "github.com/pthm-cable/forage/rng"

// Disease is an immutable genome plus the metabolic cost it imposes while active.
// Identity is the pool entry: compare pointers, not contents.
type Disease struct {
	ID               int
	Genome           string
	MetabolicPenalty float64
}

// PoolSpec describes how a disease pool is drawn.
type PoolSpec struct {
	Size       int
	GenomeMin  int
	GenomeMax  int
	PenaltyMin float64
	PenaltyMax float64
}

// NewPool draws a fixed disease pool. Genome lengths are uniform in [GenomeMin, GenomeMax].
func NewPool(spec PoolSpec, r *rng.Source) []*Disease {
	pool := make([]*Disease, spec.Size)
	for i := range pool {
		length := r.IntRange(spec.GenomeMin, spec.GenomeMax)
		pool[i] = &Disease{
			ID:               i,
			Genome:           r.BitString(length),
			MetabolicPenalty: r.Uniform(spec.PenaltyMin, spec.PenaltyMax),
		}
	}
	return pool
}

// Pick returns a uniformly chosen disease from ds, or nil when ds is empty.
// An empty list consumes no random draw.
func Pick(ds []*Disease, r *rng.Source) *Disease {
	if len(ds) == 0 {
		return nil
	}
	return ds[r.Intn(len(ds))]
}

func indexOf(ds []*Disease, d *Disease) int {
	for i, x := range ds {
		if x == d {
			return i
		}
	}
	return -1
}

func remove(ds []*Disease, i int) []*Disease {
	return append(ds[:i], ds[i+1:]...)
}
