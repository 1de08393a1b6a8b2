// Package main provides CMA-ES search for disease and schedule parameters that
// settle the infected fraction on a target.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/forage/config"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// search wraps the evaluator with progress reporting and best-so-far tracking.
type search struct {
	params    *ParamVector
	evaluator *FitnessEvaluator
	maxEvals  int
	csv       *csv.Writer
	out       io.Writer

	evals       int
	bestFitness float64
	bestParams  []float64
	started     time.Time
}

func newSearch(params *ParamVector, evaluator *FitnessEvaluator, maxEvals int, logTo, out io.Writer) *search {
	s := &search{
		params:      params,
		evaluator:   evaluator,
		maxEvals:    maxEvals,
		csv:         csv.NewWriter(logTo),
		out:         out,
		bestFitness: invalidFitness,
		started:     time.Now(),
	}
	header := []string{"eval", "fitness", "infected_fraction"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	s.csv.Write(header)
	return s
}

// objective evaluates a normalized vector, logging one CSV row per call.
func (s *search) objective(x []float64) float64 {
	raw := s.params.Clamp(s.params.Denormalize(x))
	fitness := s.evaluator.Evaluate(raw)
	fraction := s.evaluator.LastFraction()
	s.evals++

	if s.bestParams == nil || fitness < s.bestFitness {
		s.bestFitness = fitness
		s.bestParams = raw
	}

	row := []string{strconv.Itoa(s.evals), strconv.FormatFloat(fitness, 'f', 6, 64), strconv.FormatFloat(fraction, 'f', 4, 64)}
	for _, v := range raw {
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	s.csv.Write(row)
	s.csv.Flush()

	elapsed := time.Since(s.started)
	remaining := time.Duration(s.maxEvals-s.evals) * (elapsed / time.Duration(s.evals))
	fmt.Fprintf(s.out, "Eval %d/%d: infected=%.3f fitness=%.5f (best=%.5f) | elapsed: %s, ETA: %s\n",
		s.evals, s.maxEvals, fraction, fitness, s.bestFitness,
		formatDuration(elapsed), formatDuration(remaining))
	return fitness
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	maxTime := flag.Float64("max-time", 500, "Simulated time per run")
	target := flag.Float64("target", 0.5, "Desired infected fraction")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if *target < 0 || *target > 1 {
		log.Fatalf("--target must be in [0, 1], got %v", *target)
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	baseCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	baseCfg.Run.MaxTime = *maxTime

	params := NewParamVector()
	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, evalSeeds, baseCfg, *target)

	logFile, err := os.Create(filepath.Join(*outputDir, "optimize_log.csv"))
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()
	s := newSearch(params, evaluator, *maxEvals, logFile, os.Stdout)

	// Auto-size: 4 + 3n/2
	popSize := *population
	if popSize == 0 {
		popSize = 4 + 3*params.Dim()/2
	}

	fmt.Printf("Starting CMA-ES with %d parameters, population=%d, max_evals=%d\n", params.Dim(), popSize, *maxEvals)
	fmt.Printf("Seeds per evaluation: %d, simulated time per run: %.0f, target infected fraction: %.2f\n",
		*seeds, *maxTime, *target)

	result, err := optimize.Minimize(
		optimize.Problem{Func: s.objective},
		params.Normalize(params.FromConfig(baseCfg)),
		&optimize.Settings{FuncEvaluations: *maxEvals},
		&optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize},
	)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}
	best := s.bestParams
	if best == nil && result != nil {
		best = params.Clamp(params.Denormalize(result.X))
	}
	if best == nil {
		log.Fatal("no evaluations completed")
	}

	fmt.Printf("\nOptimization complete after %d evaluations in %s\n", s.evals, formatDuration(time.Since(s.started)))
	fmt.Printf("Best fitness: %.5f\n\nBest parameters:\n", s.bestFitness)
	for i, spec := range params.Specs {
		fmt.Printf("  %-22s %.6f\n", spec.Path, best[i])
	}

	bestCfg := baseCfg.Clone()
	params.ApplyToConfig(bestCfg, best)
	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
		return
	}
	fmt.Printf("\nBest config saved to: %s\n", configOutPath)
}
