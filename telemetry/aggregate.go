package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RunSummary is the end state of one replicate run.
type RunSummary struct {
	Rep              int     `csv:"rep"`
	Seed             int64   `csv:"seed"`
	EndTime          float64 `csv:"end_time"`
	Events           uint64  `csv:"events"`
	Infected         int     `csv:"infected"`
	Uninfected       int     `csv:"uninfected"`
	InfectedFraction float64 `csv:"infected_fraction"`
	DeathsStarvation int     `csv:"deaths_starvation"`
	DeathsAge        int     `csv:"deaths_age"`
	WealthMean       float64 `csv:"wealth_mean"`
	MeanPoolDistance float64 `csv:"mean_pool_distance"`
	WallSeconds      float64 `csv:"wall_seconds"`
}

// MetricSummary describes one metric across replicate runs.
type MetricSummary struct {
	Metric string  `csv:"metric"`
	N      int     `csv:"n"`
	Mean   float64 `csv:"mean"`
	Std    float64 `csv:"std"`
	Min    float64 `csv:"min"`
	Median float64 `csv:"median"`
	Max    float64 `csv:"max"`
}

// LogValue implements slog.LogValuer for structured logging.
func (m MetricSummary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("n", m.N),
		slog.Float64("mean", m.Mean),
		slog.Float64("std", m.Std),
		slog.Float64("min", m.Min),
		slog.Float64("median", m.Median),
		slog.Float64("max", m.Max),
	)
}

// Summarize computes sample statistics of xs. Std is zero for fewer than two values.
func Summarize(metric string, xs []float64) MetricSummary {
	m := MetricSummary{Metric: metric, N: len(xs)}
	if len(xs) == 0 {
		return m
	}

	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	if len(xs) > 1 {
		m.Mean, m.Std = stat.MeanStdDev(sorted, nil)
	} else {
		m.Mean = sorted[0]
	}
	m.Min = floats.Min(sorted)
	m.Max = floats.Max(sorted)
	m.Median = Percentile(sorted, 0.5)
	return m
}

// Aggregate summarizes each metric of the given runs.
func Aggregate(runs []RunSummary) []MetricSummary {
	columns := []struct {
		name string
		get  func(RunSummary) float64
	}{
		{"infected", func(r RunSummary) float64 { return float64(r.Infected) }},
		{"uninfected", func(r RunSummary) float64 { return float64(r.Uninfected) }},
		{"infected_fraction", func(r RunSummary) float64 { return r.InfectedFraction }},
		{"deaths_starvation", func(r RunSummary) float64 { return float64(r.DeathsStarvation) }},
		{"deaths_age", func(r RunSummary) float64 { return float64(r.DeathsAge) }},
		{"wealth_mean", func(r RunSummary) float64 { return r.WealthMean }},
		{"mean_pool_distance", func(r RunSummary) float64 { return r.MeanPoolDistance }},
		{"events", func(r RunSummary) float64 { return float64(r.Events) }},
	}

	out := make([]MetricSummary, 0, len(columns))
	xs := make([]float64, len(runs))
	for _, col := range columns {
		for i, r := range runs {
			xs[i] = col.get(r)
		}
		out = append(out, Summarize(col.name, xs))
	}
	return out
}
