package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/game"
	"github.com/pthm-cable/forage/observer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window in simulated time (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = use config)")
	maxTime := flag.Float64("max-time", -1, "Stop at this simulated time (0 = unbounded, -1 = use config)")
	trace := flag.Bool("trace", false, "Write every dispatched event to <output-dir>/events.jsonl.zst")
	observe := flag.String("observe", "", "Serve the live snapshot stream on this address (empty = use config)")
	debug := flag.Bool("debug", false, "Log at debug level")

	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *maxTime >= 0 {
		cfg.Run.MaxTime = *maxTime
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := game.Options{
		Seed:        *seed,
		LogStats:    *logStats,
		StatsWindow: *statsWindow,
		SnapshotDir: *snapshotDir,
		OutputDir:   *outputDir,
		Trace:       *trace,
		Headless:    *headless,
	}

	addr := cfg.Observer.Addr
	if *observe != "" {
		addr = *observe
	}
	if addr != "" {
		opts.Observer = observer.NewServer(logger.With("component", "observer"))
		go func() {
			if err := opts.Observer.ListenAndServe(ctx, addr); err != nil {
				slog.Error("observer stopped", "error", err)
			}
		}()
	}

	if err := run(ctx, cfg, opts); err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Info("interrupted", "error", err)
			return
		}
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts game.Options) error {
	if opts.Headless {
		g, err := game.New(cfg, opts)
		if err != nil {
			return err
		}
		runErr := g.RunHeadless(ctx)
		return errors.Join(runErr, g.Close())
	}

	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Forage")
	defer rl.CloseWindow()
	rl.SetWindowState(rl.FlagWindowResizable)
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))
	// Escape clears the selection
	rl.SetExitKey(rl.KeyQ)

	g, err := game.New(cfg, opts)
	if err != nil {
		return err
	}
	for !rl.WindowShouldClose() && ctx.Err() == nil {
		g.Update()
		g.Draw()
	}
	return g.Close()
}
