package telemetry

import (
	"math"
	"testing"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		want MetricSummary
	}{
		{"empty", nil, MetricSummary{Metric: "m"}},
		{"single", []float64{3}, MetricSummary{Metric: "m", N: 1, Mean: 3, Min: 3, Median: 3, Max: 3}},
		{"four", []float64{4, 1, 3, 2}, MetricSummary{
			Metric: "m", N: 4, Mean: 2.5, Std: math.Sqrt(5.0 / 3.0), Min: 1, Median: 2.5, Max: 4,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize("m", tt.xs)
			if got.N != tt.want.N || got.Metric != tt.want.Metric {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
			pairs := [][2]float64{
				{got.Mean, tt.want.Mean},
				{got.Std, tt.want.Std},
				{got.Min, tt.want.Min},
				{got.Median, tt.want.Median},
				{got.Max, tt.want.Max},
			}
			for _, p := range pairs {
				if math.Abs(p[0]-p[1]) > 1e-9 {
					t.Errorf("got %+v, want %+v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestSummarizeKeepsInput(t *testing.T) {
	xs := []float64{3, 1, 2}
	Summarize("m", xs)
	if xs[0] != 3 || xs[1] != 1 || xs[2] != 2 {
		t.Errorf("input reordered: %v", xs)
	}
}

func TestAggregate(t *testing.T) {
	runs := []RunSummary{
		{Rep: 0, Infected: 10, Uninfected: 30, InfectedFraction: 0.25, WealthMean: 8},
		{Rep: 1, Infected: 20, Uninfected: 20, InfectedFraction: 0.5, WealthMean: 6},
	}
	out := Aggregate(runs)

	byName := map[string]MetricSummary{}
	for _, m := range out {
		byName[m.Metric] = m
	}
	if m := byName["infected"]; m.N != 2 || m.Mean != 15 || m.Min != 10 || m.Max != 20 {
		t.Errorf("infected = %+v", m)
	}
	if m := byName["infected_fraction"]; math.Abs(m.Mean-0.375) > 1e-12 {
		t.Errorf("infected_fraction mean = %v", m.Mean)
	}
	if m := byName["wealth_mean"]; math.Abs(m.Std-math.Sqrt2) > 1e-9 {
		t.Errorf("wealth_mean std = %v, want sqrt(2)", m.Std)
	}
}
