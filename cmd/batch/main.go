// Command batch runs independent replicate simulations with consecutive seeds and
// summarizes their end states.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/game"
	"github.com/pthm-cable/forage/store"
	"github.com/pthm-cable/forage/telemetry"
)

// batchParams controls one batch.
type batchParams struct {
	Reps       int
	Workers    int
	BaseSeed   int64
	PerRepLogs bool   // per-rep telemetry under <output>/rep_NNN
	OutputDir  string // empty = no per-rep logs
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	reps := flag.Int("reps", 10, "Number of replicate runs")
	workers := flag.Int("workers", runtime.NumCPU(), "Runs in flight at once")
	seed := flag.Int64("seed", 0, "Seed of rep 0; rep i uses seed+i (0 = use config)")
	maxTime := flag.Float64("max-time", 0, "Simulated time per run (0 = use config)")
	outputDir := flag.String("output", "", "Output directory for runs.csv and summary.csv")
	repLogs := flag.Bool("rep-logs", false, "Write full telemetry for every rep")
	indexPath := flag.String("index", "", "SQLite run index to record the batch in (empty = none)")
	label := flag.String("label", "", "Batch label stored in the run index")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	if err := run(*configPath, *reps, *workers, *seed, *maxTime, *outputDir, *repLogs, *indexPath, *label); err != nil {
		fmt.Fprintln(os.Stderr, "batch:", err)
		os.Exit(1)
	}
}

func run(configPath string, reps, workers int, seed int64, maxTime float64, outputDir string, repLogs bool, indexPath, label string) error {
	if outputDir == "" {
		return errors.New("--output is required")
	}
	if reps < 1 {
		return fmt.Errorf("--reps must be at least 1, got %d", reps)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	base, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if maxTime > 0 {
		base.Run.MaxTime = maxTime
	}
	if base.Run.MaxTime <= 0 {
		return errors.New("batch runs need a time bound: set run.max_time or --max-time")
	}
	if seed != 0 {
		base.Run.Seed = seed
	}
	if err := base.WriteYAML(filepath.Join(outputDir, "config.yaml")); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var index *store.RunIndex
	var batchID int64
	if indexPath != "" {
		if index, err = store.Open(indexPath); err != nil {
			return err
		}
		defer index.Close()
		if batchID, err = index.BeginBatch(ctx, label, base, reps); err != nil {
			return err
		}
	}

	fmt.Printf("Running %d reps (seeds %d..%d, max_time %.0f) on %d workers\n",
		reps, base.Run.Seed, base.Run.Seed+int64(reps-1), base.Run.MaxTime, workers)
	start := time.Now()

	p := batchParams{Reps: reps, Workers: workers, BaseSeed: base.Run.Seed, PerRepLogs: repLogs, OutputDir: outputDir}
	runs, err := runBatch(ctx, base, p, func(r telemetry.RunSummary) {
		fmt.Printf("rep %3d seed %d: infected %d uninfected %d (%.1fs)\n",
			r.Rep, r.Seed, r.Infected, r.Uninfected, r.WallSeconds)
		if index != nil {
			if err := index.RecordRun(ctx, batchID, r); err != nil {
				slog.Error("failed to index run", "rep", r.Rep, "error", err)
			}
		}
	})
	if err != nil {
		return err
	}

	summary := telemetry.Aggregate(runs)
	if err := telemetry.WriteCSVFile(filepath.Join(outputDir, "runs.csv"), runs); err != nil {
		return err
	}
	if err := telemetry.WriteCSVFile(filepath.Join(outputDir, "summary.csv"), summary); err != nil {
		return err
	}
	if index != nil {
		if err := index.RecordSummary(ctx, batchID, summary); err != nil {
			return err
		}
	}

	fmt.Printf("\nBatch complete in %s\n", time.Since(start).Round(time.Millisecond))
	for _, m := range summary {
		fmt.Printf("  %-20s mean %10.3f  std %9.3f  [%g, %g]\n", m.Metric, m.Mean, m.Std, m.Min, m.Max)
	}
	return nil
}

// runBatch runs p.Reps replicates on a bounded pool of workers. Each rep gets its
// own config clone and engine, so the results do not depend on scheduling. The
// returned summaries are ordered by rep; done is called from a single goroutine
// as reps finish.
func runBatch(ctx context.Context, base *config.Config, p batchParams, done func(telemetry.RunSummary)) ([]telemetry.RunSummary, error) {
	workers := min(max(p.Workers, 1), p.Reps)

	type result struct {
		summary telemetry.RunSummary
		err     error
	}
	jobs := make(chan int)
	results := make(chan result)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rep := range jobs {
				s, err := runRep(ctx, base, p, rep)
				results <- result{summary: s, err: err}
			}
		}()
	}
	go func() {
		defer close(jobs)
		for rep := range p.Reps {
			select {
			case jobs <- rep:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	runs := make([]telemetry.RunSummary, p.Reps)
	var errs []error
	for r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		runs[r.summary.Rep] = r.summary
		if done != nil {
			done(r.summary)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch interrupted: %w", err)
	}
	return runs, nil
}

func runRep(ctx context.Context, base *config.Config, p batchParams, rep int) (telemetry.RunSummary, error) {
	cfg := base.Clone()
	cfg.Run.Seed = p.BaseSeed + int64(rep)

	opts := game.Options{Headless: true}
	if p.PerRepLogs && p.OutputDir != "" {
		opts.OutputDir = filepath.Join(p.OutputDir, fmt.Sprintf("rep_%03d", rep))
	}
	g, err := game.New(cfg, opts)
	if err != nil {
		return telemetry.RunSummary{}, fmt.Errorf("rep %d: %w", rep, err)
	}
	runErr := g.RunHeadless(ctx)
	summary := g.Summary(rep)
	if err := errors.Join(runErr, g.Close()); err != nil {
		return telemetry.RunSummary{}, fmt.Errorf("rep %d: %w", rep, err)
	}
	return summary, nil
}
