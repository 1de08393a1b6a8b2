// Package rng provides the single seeded random stream used by a simulation run.
package rng

import (
	"math"
	"math/rand"
	"strings"
)

// Source is the random stream every stochastic decision draws from.
// Draw order is part of a run's identity: reordering calls changes the run.
type Source struct {
	r *rand.Rand
}

// New creates a stream for the given seed.
func New(seed int64) *Source {
	return &Source{r: rand.New(rand.NewSource(seed))}
}

// Intn returns a uniform int in [0, n).
func (s *Source) Intn(n int) int {
	return s.r.Intn(n)
}

// IntRange returns a uniform int in [lo, hi].
func (s *Source) IntRange(lo, hi int) int {
	return lo + s.r.Intn(hi-lo+1)
}

// Float64 returns a uniform float in [0, 1).
func (s *Source) Float64() float64 {
	return s.r.Float64()
}

// Uniform returns a uniform float in [a, b).
func (s *Source) Uniform(a, b float64) float64 {
	return s.r.Float64()*(b-a) + a
}

// Exponential returns an exponentially distributed inter-arrival time with the given rate.
func (s *Source) Exponential(rate float64) float64 {
	return math.Log(1-s.r.Float64()) / -rate
}

// BitString returns a random string of n characters over {'0', '1'}.
func (s *Source) BitString(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		if s.r.Intn(2) == 0 {
			b.WriteByte('0')
		} else {
			b.WriteByte('1')
		}
	}
	return b.String()
}
