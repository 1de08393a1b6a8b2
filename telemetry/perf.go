package telemetry

import (
	"log/slog"
	"time"
)

// Phase names within one batch of dispatches.
const (
	PhaseDispatch  = "dispatch"
	PhaseTelemetry = "telemetry"
	PhaseTrace     = "trace"
	PhaseObserver  = "observer"
	PhaseRender    = "render"
)

var phaseOrder = []string{PhaseDispatch, PhaseTelemetry, PhaseTrace, PhaseObserver, PhaseRender}

// AllPhases returns the phase names in display order.
func AllPhases() []string {
	return append([]string(nil), phaseOrder...)
}

// PerfSample holds timing data for a single batch.
type PerfSample struct {
	BatchDuration time.Duration
	Events        int
	Phases        map[string]time.Duration
}

// PerfCollector tracks wall-clock performance over a rolling window of batches.
// A batch is whatever the caller dispatches between StartBatch and EndBatch: one
// frame in the viewer, one stats window headless.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	batchStart    time.Time
	phaseStart    time.Time
	lastPhase     string

	// Frame timing (for graphics mode)
	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a new performance collector averaging over windowSize batches.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartBatch begins timing a new batch.
func (p *PerfCollector) StartBatch() {
	p.batchStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	// End previous phase if any
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndBatch finishes timing the current batch, which dispatched the given number of
// events, and records the sample.
func (p *PerfCollector) EndBatch(events int) {
	now := time.Now()
	// End final phase
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	p.samples[p.writeIndex] = PerfSample{
		BatchDuration: now.Sub(p.batchStart),
		Events:        events,
		Phases:        p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// RecordFrame records frame timing for graphics mode.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	// Batch timing
	AvgBatchDuration time.Duration
	MinBatchDuration time.Duration
	MaxBatchDuration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of total batch time
	PhasePct map[string]float64

	// Throughput
	EventsPerSecond float64

	// Frame timing (graphics mode)
	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	// Frame timing is always available (independent of batch samples)
	var fps float64
	if p.frameDuration > 0 {
		fps = float64(time.Second) / float64(p.frameDuration)
	}

	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg:      make(map[string]time.Duration),
			PhasePct:      make(map[string]float64),
			FrameDuration: p.frameDuration,
			FPS:           fps,
		}
	}

	var total time.Duration
	var minBatch, maxBatch time.Duration
	var events int
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.BatchDuration
		events += s.Events

		if i == 0 || s.BatchDuration < minBatch {
			minBatch = s.BatchDuration
		}
		if s.BatchDuration > maxBatch {
			maxBatch = s.BatchDuration
		}

		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avg := total / time.Duration(p.sampleCount)

	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avg > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avg) * 100
		}
	}

	var eventsPerSec float64
	if total > 0 {
		eventsPerSec = float64(events) / total.Seconds()
	}

	return PerfStats{
		AvgBatchDuration: avg,
		MinBatchDuration: minBatch,
		MaxBatchDuration: maxBatch,
		PhaseAvg:         phaseAvg,
		PhasePct:         phasePct,
		EventsPerSecond:  eventsPerSec,
		FrameDuration:    p.frameDuration,
		FPS:              fps,
	}
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_batch_us", s.AvgBatchDuration.Microseconds(),
		"min_batch_us", s.MinBatchDuration.Microseconds(),
		"max_batch_us", s.MaxBatchDuration.Microseconds(),
		"events_per_sec", int(s.EventsPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}

	for _, phase := range phaseOrder {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", int(pct*10)/10.0)
		}
	}

	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_batch_us", s.AvgBatchDuration.Microseconds()),
		slog.Int64("min_batch_us", s.MinBatchDuration.Microseconds()),
		slog.Int64("max_batch_us", s.MaxBatchDuration.Microseconds()),
		slog.Float64("events_per_sec", s.EventsPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}

	for _, phase := range phaseOrder {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd    float64 `csv:"window_end"`
	AvgBatchUS   int64   `csv:"avg_batch_us"`
	MinBatchUS   int64   `csv:"min_batch_us"`
	MaxBatchUS   int64   `csv:"max_batch_us"`
	EventsPerSec float64 `csv:"events_per_sec"`
	FPS          float64 `csv:"fps"`
	DispatchPct  float64 `csv:"dispatch_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
	TracePct     float64 `csv:"trace_pct"`
	ObserverPct  float64 `csv:"observer_pct"`
	RenderPct    float64 `csv:"render_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd float64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgBatchUS:   s.AvgBatchDuration.Microseconds(),
		MinBatchUS:   s.MinBatchDuration.Microseconds(),
		MaxBatchUS:   s.MaxBatchDuration.Microseconds(),
		EventsPerSec: s.EventsPerSecond,
		FPS:          s.FPS,
		DispatchPct:  s.PhasePct[PhaseDispatch],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
		TracePct:     s.PhasePct[PhaseTrace],
		ObserverPct:  s.PhasePct[PhaseObserver],
		RenderPct:    s.PhasePct[PhaseRender],
	}
}
