package main

import (
	"context"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/game"
	"github.com/pthm-cable/forage/telemetry"
)

// invalidFitness scores parameter vectors the engine rejects.
const invalidFitness = 10.0

// FitnessEvaluator runs headless simulations and scores how closely the
// infected fraction settles on a target.
type FitnessEvaluator struct {
	params     *ParamVector
	seeds      []int64
	baseConfig *config.Config
	target     float64 // desired infected fraction
	burnIn     float64 // fraction of windows ignored at the start of a run

	mu           sync.Mutex
	lastFraction float64 // mean infected fraction from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator. baseCfg must carry a time bound.
func NewFitnessEvaluator(params *ParamVector, seeds []int64, baseCfg *config.Config, target float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		seeds:      seeds,
		baseConfig: baseCfg,
		target:     target,
		burnIn:     0.5,
	}
}

// LastFraction returns the infected fraction from the most recent evaluation.
func (fe *FitnessEvaluator) LastFraction() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastFraction
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fraction float64 // mean infected fraction after burn-in
	spread   float64 // its standard deviation across windows
	err      error
}

// Evaluate computes fitness for a raw parameter vector (lower = better): the
// squared distance of the settled infected fraction from the target, plus a
// small term for how much it keeps swinging.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	var total, fraction float64
	for _, r := range results {
		if r.err != nil {
			return invalidFitness
		}
		d := r.fraction - fe.target
		total += d*d + 0.1*r.spread*r.spread
		fraction += r.fraction
	}
	n := float64(len(results))

	fe.mu.Lock()
	fe.lastFraction = fraction / n
	fe.mu.Unlock()

	return total / n
}

// runSimulation executes a single headless run to the config's time bound.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) seedResult {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)
	cfg.Run.Seed = seed

	var fractions []float64
	g, err := game.New(cfg, game.Options{
		Headless: true,
		StatsCallback: func(s telemetry.WindowStats) {
			fractions = append(fractions, s.InfectedFraction())
		},
	})
	if err != nil {
		return seedResult{err: err}
	}
	defer g.Close()
	if err := g.RunHeadless(context.Background()); err != nil {
		return seedResult{err: err}
	}

	skip := int(math.Floor(float64(len(fractions)) * fe.burnIn))
	settled := fractions[skip:]
	if len(settled) == 0 {
		return seedResult{fraction: g.Summary(0).InfectedFraction}
	}
	mean, std := stat.MeanStdDev(settled, nil)
	if len(settled) < 2 {
		std = 0
	}
	return seedResult{fraction: mean, spread: std}
}
