// Command replay summarizes an event trace and can verify it against a fresh run
// of the config saved beside it.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/sim"
	"github.com/pthm-cable/forage/telemetry"
)

// KindCounts tallies one event kind across a trace.
type KindCounts struct {
	Kind       sim.Kind
	Dispatched int
	Stale      int
}

// Summary is what replay reports for a trace.
type Summary struct {
	Events    int
	FirstTime float64
	LastTime  float64
	Kinds     map[sim.Kind]*KindCounts

	Moves            int
	Stays            int
	DeathsStarvation int
	DeathsAge        int
	NewInfections    int
	Cleared          int
	Harvested        float64
}

func main() {
	dir := flag.String("dir", "", "Output directory holding events.jsonl.zst and config.yaml")
	tracePath := flag.String("trace", "", "Trace file (default <dir>/events.jsonl.zst)")
	verify := flag.Bool("verify", false, "Re-run <dir>/config.yaml and compare every dispatch")
	flag.Parse()

	path := *tracePath
	if path == "" {
		if *dir == "" {
			fmt.Fprintln(os.Stderr, "replay: --dir or --trace is required")
			os.Exit(2)
		}
		path = filepath.Join(*dir, telemetry.TraceFile)
	}

	s, err := Summarize(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	s.Print()

	if *verify {
		cfgDir := *dir
		if cfgDir == "" {
			cfgDir = filepath.Dir(path)
		}
		n, err := Verify(path, filepath.Join(cfgDir, "config.yaml"))
		if err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
		fmt.Printf("\nVerified %d dispatches against a fresh run\n", n)
	}
}

// Summarize reads the trace at path and counts what happened.
func Summarize(path string) (*Summary, error) {
	s := &Summary{Kinds: make(map[sim.Kind]*KindCounts)}
	err := telemetry.ReadTrace(path, func(d sim.Dispatch) error {
		if s.Events == 0 {
			s.FirstTime = d.Event.Time
		}
		s.Events++
		s.LastTime = d.Event.Time

		kc := s.Kinds[d.Event.Kind]
		if kc == nil {
			kc = &KindCounts{Kind: d.Event.Kind}
			s.Kinds[d.Event.Kind] = kc
		}
		kc.Dispatched++
		if d.Stale {
			kc.Stale++
			return nil
		}

		s.Harvested += d.Harvest
		s.NewInfections += d.NewInfections()
		s.Cleared += d.Cleared
		switch d.Event.Kind {
		case sim.KindMove:
			if d.Moved {
				s.Moves++
			} else {
				s.Stays++
			}
		case sim.KindDeath:
			switch d.Cause {
			case sim.CauseStarvation:
				s.DeathsStarvation++
			case sim.CauseAge:
				s.DeathsAge++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Print writes the summary to stdout.
func (s *Summary) Print() {
	fmt.Printf("Events: %d over t = [%.3f, %.3f]\n\n", s.Events, s.FirstTime, s.LastTime)
	fmt.Printf("  %-16s %10s %8s\n", "kind", "dispatched", "stale")
	for _, k := range []sim.Kind{sim.KindMove, sim.KindDeath, sim.KindMutate, sim.KindImmuneResponse} {
		kc := s.Kinds[k]
		if kc == nil {
			continue
		}
		fmt.Printf("  %-16s %10d %8d\n", k, kc.Dispatched, kc.Stale)
	}
	fmt.Printf("\nMoves: %d (stayed %d)  Harvested: %.2f\n", s.Moves, s.Stays, s.Harvested)
	fmt.Printf("Deaths: %d starvation, %d age\n", s.DeathsStarvation, s.DeathsAge)
	fmt.Printf("Infections: %d new, %d cleared\n", s.NewInfections, s.Cleared)
}

// Verify rebuilds the engine from the config at cfgPath and steps it once per
// traced dispatch, failing at the first dispatch that differs. It returns the
// number of dispatches compared.
func Verify(tracePath, cfgPath string) (int, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return 0, err
	}
	e, err := sim.New(cfg)
	if err != nil {
		return 0, err
	}

	n := 0
	err = telemetry.ReadTrace(tracePath, func(want sim.Dispatch) error {
		got, ok := e.Step()
		if !ok {
			return fmt.Errorf("dispatch %d: calendar empty in the fresh run", want.Seq)
		}
		if !reflect.DeepEqual(got, want) {
			return fmt.Errorf("dispatch %d diverges:\n  trace: %+v\n  fresh: %+v", want.Seq, want, got)
		}
		n++
		return nil
	})
	return n, err
}
